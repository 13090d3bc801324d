package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-monodbg/monodbg"
	"github.com/go-monodbg/monodbg/internal/logging"
)

// resolveListenAddr turns a possibly-ephemeral (":0") listen address
// into a concrete one: the subprocess needs the real port before the
// debugger's own listener is bound, so this briefly reserves it.
func resolveListenAddr(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	resolved := ln.Addr().String()
	ln.Close()
	return resolved, nil
}

// execLauncher is an exec.Cmd-based monodbg.RuntimeLauncher: it spawns
// the debuggee process and forwards bytes to its stdin. Sample code,
// not part of the library.
type execLauncher struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	stdin  io.WriteCloser
	exited bool
}

func spawn(path string, args []string, dwpAddr string) (*execLauncher, error) {
	cmd := exec.Command(path, args...)
	cmd.Env = append(os.Environ(), "MONO_SDB_ENV=connect="+dwpAddr)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}

	l := &execLauncher{cmd: cmd, stdin: stdin}
	go func() {
		cmd.Wait()
		l.mu.Lock()
		l.exited = true
		l.mu.Unlock()
	}()
	return l, nil
}

func (l *execLauncher) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.exited
}

func (l *execLauncher) Write(stdin []byte) (int, error) {
	return l.stdin.Write(stdin)
}

type loggingSubscriber struct {
	logger *logging.Logger
}

func (s *loggingSubscriber) OnEvent(ev monodbg.Event) {
	s.logger.Info("event", "kind", ev.Kind, "thread", ev.ThreadID)
}

func (s *loggingSubscriber) OnError(err error) {
	s.logger.Error("session error", "err", err)
}

func main() {
	var (
		listen  = flag.String("listen", "127.0.0.1:0", "loopback address to accept the debuggee connection on")
		runtime = flag.String("runtime", "mono", "path to the Mono runtime binary to launch")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	addr, err := resolveListenAddr(*listen)
	if err != nil {
		logger.Error("failed to reserve listen address", "err", err)
		os.Exit(1)
	}

	cfg := &monodbg.Config{Subscriber: &loggingSubscriber{logger: logger}}

	resultCh := make(chan struct {
		d   *monodbg.Debugger
		err error
	}, 1)
	go func() {
		d, err := monodbg.Open(addr, cfg)
		resultCh <- struct {
			d   *monodbg.Debugger
			err error
		}{d, err}
	}()

	launcher, err := spawn(*runtime, flag.Args(), addr)
	if err != nil {
		logger.Error("failed to launch runtime", "err", err)
		os.Exit(1)
	}

	res := <-resultCh
	if res.err != nil {
		logger.Error("failed to attach", "err", res.err)
		os.Exit(1)
	}
	d := res.d
	defer d.Close()

	logger.Info("attached", "session", d.SessionID(), "port", d.Port())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			return
		case <-ticker.C:
			if !launcher.Running() && !d.IsOpen() {
				logger.Info("debuggee process exited")
				return
			}
		}
	}
}
