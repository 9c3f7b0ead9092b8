package tpm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestUT_RG_01_01_Add_Remove_TracksCount tests that Add/Remove maintain an
// accurate in-flight count and reject duplicate IDs.
func TestUT_RG_01_01_Add_Remove_TracksCount(t *testing.T) {
	r := NewUploadRegistry()
	require.NoError(t, r.Add(UploadContext{ID: "a"}))
	assert.EqualValues(t, 1, r.Count())

	err := r.Add(UploadContext{ID: "a"})
	assert.Error(t, err)

	assert.True(t, r.Remove("a"))
	assert.EqualValues(t, 0, r.Count())
	assert.False(t, r.Remove("a"))
}

// TestUT_RG_02_01_DrainWait_ReturnsImmediately_WhenEmpty tests that an
// already-empty registry does not block.
func TestUT_RG_02_01_DrainWait_ReturnsImmediately_WhenEmpty(t *testing.T) {
	r := NewUploadRegistry()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.True(t, r.DrainWait(ctx))
}

// TestUT_RG_02_02_DrainWait_UnblocksOnLastRemove tests that DrainWait wakes
// up exactly when the last in-flight upload is removed.
func TestUT_RG_02_02_DrainWait_UnblocksOnLastRemove(t *testing.T) {
	r := NewUploadRegistry()
	require.NoError(t, r.Add(UploadContext{ID: "a"}))
	require.NoError(t, r.Add(UploadContext{ID: "b"}))

	done := make(chan bool, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		done <- r.DrainWait(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	r.Remove("a")
	select {
	case <-done:
		t.Fatal("DrainWait returned before registry was empty")
	case <-time.After(10 * time.Millisecond):
	}

	r.Remove("b")
	select {
	case drained := <-done:
		assert.True(t, drained)
	case <-time.After(time.Second):
		t.Fatal("DrainWait never unblocked")
	}
}

// TestUT_RG_02_03_DrainWait_TimesOut_WhenNeverEmpty tests that DrainWait
// reports false when ctx expires before the registry empties.
func TestUT_RG_02_03_DrainWait_TimesOut_WhenNeverEmpty(t *testing.T) {
	r := NewUploadRegistry()
	require.NoError(t, r.Add(UploadContext{ID: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.False(t, r.DrainWait(ctx))
}
