package backoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUT_BK_01_01_New_WithValidSpec_ParsesFields tests that New parses a
// well-formed policy string into the expected starting state.
func TestUT_BK_01_01_New_WithValidSpec_ParsesFields(t *testing.T) {
	b, ok := New("E,3000,300000,2,1")
	require.True(t, ok)
	assert.Equal(t, uint32(3000), b.Value())
}

// TestUT_BK_01_02_New_WithInvalidSpec_ReturnsFalse tests that malformed
// specs are rejected rather than producing a partially-initialized Backoff.
func TestUT_BK_01_02_New_WithInvalidSpec_ReturnsFalse(t *testing.T) {
	for _, spec := range []string{
		"",
		"L,3000,300000,2,1",
		"E,3000,300000,2",
		"E,0,300000,2,1",
		"E,abc,300000,2,1",
	} {
		_, ok := New(spec)
		assert.False(t, ok, "spec %q should not parse", spec)
	}
}

// TestUT_BK_02_01_Advance_WithoutJitter_DoublesEachTime tests the
// exponential escalation sequence from scenario S3 in the specification.
func TestUT_BK_02_01_Advance_WithoutJitter_DoublesEachTime(t *testing.T) {
	b, ok := New("E,3000,300000,2,0")
	require.True(t, ok)

	delays := make([]uint32, 0, 3)
	for i := 0; i < 3; i++ {
		delays = append(delays, b.Value())
		b.Advance()
	}

	assert.Equal(t, []uint32{3000, 6000, 12000}, delays)
}

// TestUT_BK_02_02_Advance_SaturatesAtCap tests that repeated advances never
// exceed the configured cap.
func TestUT_BK_02_02_Advance_SaturatesAtCap(t *testing.T) {
	b, ok := New("E,100000,300000,10,0")
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		b.Advance()
	}

	assert.Equal(t, uint32(300000), b.Value())
}

// TestUT_BK_03_01_Reset_ReturnsToInitial tests that Reset undoes any prior
// Advance calls.
func TestUT_BK_03_01_Reset_ReturnsToInitial(t *testing.T) {
	b, ok := New("E,3000,300000,2,0")
	require.True(t, ok)

	b.Advance()
	b.Advance()
	require.Equal(t, uint32(12000), b.Value())

	b.Reset()
	assert.Equal(t, uint32(3000), b.Value())
}

// TestUT_BK_04_01_Value_WithJitter_StaysWithinRange tests that jitter never
// pushes the reported value below the base or beyond the documented bound.
func TestUT_BK_04_01_Value_WithJitter_StaysWithinRange(t *testing.T) {
	b, ok := New("E,1000,300000,2,1")
	require.True(t, ok)

	for i := 0; i < 50; i++ {
		v := b.Value()
		assert.GreaterOrEqual(t, v, uint32(1000))
		assert.LessOrEqual(t, v, uint32(1000+1000*1/10))
	}
}

// TestUT_BK_05_01_Reconfigure_WithValidSpec_ReplacesState tests that a
// successful reconfiguration resets to the new policy's initial value.
func TestUT_BK_05_01_Reconfigure_WithValidSpec_ReplacesState(t *testing.T) {
	b, ok := New("E,3000,300000,2,0")
	require.True(t, ok)
	b.Advance()

	ok = b.Reconfigure("E,5000,400000,3,0")
	assert.True(t, ok)
	assert.Equal(t, uint32(5000), b.Value())
	assert.Equal(t, "E,5000,400000,3,0", b.Spec())
}

// TestUT_BK_05_02_Reconfigure_WithInvalidSpec_PreservesState tests that a
// malformed reconfiguration spec is ignored and current state survives.
func TestUT_BK_05_02_Reconfigure_WithInvalidSpec_PreservesState(t *testing.T) {
	b, ok := New("E,3000,300000,2,0")
	require.True(t, ok)
	b.Advance()

	ok = b.Reconfigure("garbage")
	assert.False(t, ok)
	assert.Equal(t, uint32(6000), b.Value())
}

// TestUT_BK_06_01_Restore_ResumesEscalationLevel tests that Restore lets a
// fresh Backoff pick up where a prior one left off.
func TestUT_BK_06_01_Restore_ResumesEscalationLevel(t *testing.T) {
	b, ok := New("E,3000,300000,2,0")
	require.True(t, ok)

	b.Restore(12000)
	assert.Equal(t, uint32(12000), b.Current())
	assert.Equal(t, uint32(12000), b.Value())
}

// TestUT_BK_06_02_Restore_ClampsToConfiguredRange tests that Restore does
// not let a stale saved value escape the policy's [initial, cap] bounds.
func TestUT_BK_06_02_Restore_ClampsToConfiguredRange(t *testing.T) {
	b, ok := New("E,3000,10000,2,0")
	require.True(t, ok)

	b.Restore(999999)
	assert.Equal(t, uint32(10000), b.Current())

	b.Restore(1)
	assert.Equal(t, uint32(3000), b.Current())
}
