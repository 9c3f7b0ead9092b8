package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestUT_PR_01_01_Static_Set_MarksDirtyUntilFetched tests that Set raises
// the update flag and GetTimers clears it again.
func TestUT_PR_01_01_Static_Set_MarksDirtyUntilFetched(t *testing.T) {
	p := NewStatic(Triple{4000, 2000, 4000})
	assert.False(t, p.TimersRequireUpdate())

	p.Set(Triple{1000, 500, 1000})
	assert.True(t, p.TimersRequireUpdate())

	got := p.GetTimers()
	assert.Equal(t, Triple{1000, 500, 1000}, got)
	assert.False(t, p.TimersRequireUpdate())
}
