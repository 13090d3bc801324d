package monodbg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepModeInvariant(t *testing.T) {
	d, _ := OpenWithMockDebuggee(t, nil)

	assert.Equal(t, StepModeFreeRun, d.stepMode)
	assert.Zero(t, d.activeStepRequestID)

	require.NoError(t, d.StepOver(1, true))
	assert.Equal(t, StepModeOver, d.stepMode)
	assert.NotZero(t, d.activeStepRequestID)

	require.NoError(t, d.ClearStep())
	assert.Equal(t, StepModeFreeRun, d.stepMode)
	assert.Zero(t, d.activeStepRequestID)
}

func TestStepSameModeIsJustResume(t *testing.T) {
	d, _ := OpenWithMockDebuggee(t, nil)

	require.NoError(t, d.StepIn(1, false))
	firstID := d.activeStepRequestID

	require.NoError(t, d.StepIn(1, false))
	assert.Equal(t, firstID, d.activeStepRequestID, "re-requesting the active mode must not install a new event request")
}

func TestStepTransitionClearsPreviousRequest(t *testing.T) {
	d, _ := OpenWithMockDebuggee(t, nil)

	require.NoError(t, d.StepIn(1, false))
	firstID := d.activeStepRequestID

	require.NoError(t, d.StepOver(1, false))
	assert.NotEqual(t, firstID, d.activeStepRequestID)
	assert.Equal(t, StepModeOver, d.stepMode)
}

func TestClearStepWithNoActiveStepIsNoop(t *testing.T) {
	d, _ := OpenWithMockDebuggee(t, nil)
	require.NoError(t, d.ClearStep())
}
