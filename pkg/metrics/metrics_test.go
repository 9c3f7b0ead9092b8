package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, o *Observer, kind string) float64 {
	t.Helper()
	mfs, err := o.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "test_scheduler_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lbl := range m.GetLabel() {
				if lbl.GetName() == "kind" && lbl.GetValue() == kind {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

// TestUT_MT_01_01_OnDebugEvent_IncrementsCounterByKind tests that each
// distinct kind accumulates its own counter.
func TestUT_MT_01_01_OnDebugEvent_IncrementsCounterByKind(t *testing.T) {
	o := NewObserver("test")
	o.OnDebugEvent("upload_initiated", 1, 0)
	o.OnDebugEvent("upload_initiated", 2, 0)
	o.OnDebugEvent("upload_succeeded", 0, 0)

	assert.Equal(t, float64(2), counterValue(t, o, "upload_initiated"))
	assert.Equal(t, float64(1), counterValue(t, o, "upload_succeeded"))
}

// TestUT_MT_02_01_OnDebugEvent_RecordsBackoffHistogram tests that a failed
// or rejected outcome's delay lands in the retry-delay histogram.
func TestUT_MT_02_01_OnDebugEvent_RecordsBackoffHistogram(t *testing.T) {
	o := NewObserver("test")
	o.OnDebugEvent("upload_failed", 3000, 0)

	mfs, err := o.Registry().Gather()
	require.NoError(t, err)

	var found *dto.Metric
	for _, mf := range mfs {
		if mf.GetName() != "test_scheduler_retry_delay_ms" {
			continue
		}
		found = mf.GetMetric()[0]
	}
	require.NotNil(t, found)
	assert.EqualValues(t, 1, found.GetHistogram().GetSampleCount())
}
