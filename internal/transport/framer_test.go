package transport

import (
	"net"
	"testing"
	"time"

	"github.com/go-monodbg/monodbg/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildReply encodes a reply frame: 11-byte reply header + payload.
func buildReply(id uint32, errCode uint16, payload []byte) []byte {
	w := protocol.NewWriter()
	total := protocol.HeaderLength + len(payload)
	w.PutU32(uint32(total))
	w.PutU32(id)
	w.PutU8(protocol.FlagReply)
	w.PutU16(errCode)
	w.PutBytes(payload)
	return w.Bytes()
}

func buildEvent(id uint32, cmdSet protocol.CommandSet, cmd byte, payload []byte) []byte {
	w := protocol.NewWriter()
	total := protocol.HeaderLength + len(payload)
	w.PutU32(uint32(total))
	w.PutU32(id)
	w.PutU8(0)
	w.PutU8(byte(cmdSet))
	w.PutU8(cmd)
	w.PutBytes(payload)
	return w.Bytes()
}

// feedInChunks writes the full stream to conn in pieces sized by
// chunkSize, exercising arbitrary TCP segmentation of the handshake and
// every frame boundary.
func feedInChunks(t *testing.T, conn net.Conn, stream []byte, chunkSize int) {
	t.Helper()
	for len(stream) > 0 {
		n := chunkSize
		if n > len(stream) {
			n = len(stream)
		}
		_, err := conn.Write(stream[:n])
		require.NoError(t, err)
		stream = stream[n:]
	}
}

func TestFramerHandshakeThenFramesArbitraryChunking(t *testing.T) {
	for _, chunkSize := range []int{1, 2, 3, 7, 64, 4096} {
		chunkSize := chunkSize
		t.Run(string(rune('a'+chunkSize%26)), func(t *testing.T) {
			server, client := net.Pipe()
			defer server.Close()
			defer client.Close()

			var frames []Frame
			done := make(chan struct{})
			framer := New(client, nil, nil, func(f Frame) {
				frames = append(frames, f)
				if len(frames) == 2 {
					close(done)
				}
			})

			runErr := make(chan error, 1)
			go func() { runErr <- framer.Run(done) }()

			var stream []byte
			stream = append(stream, []byte(protocol.HandshakeLiteral)...)
			stream = append(stream, buildReply(1, 0, []byte("ok"))...)
			stream = append(stream, buildEvent(0, protocol.CmdSetEvent, protocol.CmdCompositeEvent, []byte("evt"))...)

			go feedInChunks(t, server, stream, chunkSize)

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("timed out waiting for frames")
			}

			require.Len(t, frames, 2)
			assert.True(t, frames[0].IsReply)
			assert.Equal(t, uint32(1), frames[0].ID)
			assert.Equal(t, "ok", string(frames[0].Payload))

			assert.False(t, frames[1].IsReply)
			assert.Equal(t, protocol.CmdSetEvent, frames[1].CmdSet)
			assert.Equal(t, byte(protocol.CmdCompositeEvent), frames[1].Cmd)
		})
	}
}

func TestFramerRejectsReplyErrorCodeOver255(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	framer := New(client, nil, nil, func(Frame) {})
	runErr := make(chan error, 1)
	done := make(chan struct{})
	go func() { runErr <- framer.Run(done) }()

	go func() {
		var stream []byte
		stream = append(stream, []byte(protocol.HandshakeLiteral)...)
		stream = append(stream, buildReply(1, 256, nil)...)
		_, _ = server.Write(stream)
	}()

	select {
	case err := <-runErr:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected framer to fail on out-of-range error code")
	}
}

func TestFramerRejectsBadHandshake(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	framer := New(client, nil, nil, func(Frame) {})
	runErr := make(chan error, 1)
	done := make(chan struct{})
	go func() { runErr <- framer.Run(done) }()

	go func() {
		_, _ = server.Write([]byte("not-the-handshake"))
	}()

	select {
	case err := <-runErr:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected framer to fail on bad handshake")
	}
}
