package monodbg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnableUserBreak(t *testing.T) {
	d, _ := OpenWithMockDebuggee(t, nil)
	require.NoError(t, d.EnableUserBreak())
}

func TestCallUserBreakAlwaysFails(t *testing.T) {
	d, _ := OpenWithMockDebuggee(t, nil)
	err := d.CallUserBreak()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUserBreakUnavailable)
}
