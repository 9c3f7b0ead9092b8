package tpm

import (
	"sync"
	"testing"
	"time"

	"github.com/auriora/telemetrypm/pkg/backoff"
	"github.com/auriora/telemetrypm/pkg/clock"
	"github.com/auriora/telemetrypm/pkg/dispatcher"
	"github.com/auriora/telemetrypm/pkg/profile"
)

// recordingPackager records every context handed to it without driving any
// outcome on its own; tests call the outcome handlers directly.
type recordingPackager struct {
	mu       sync.Mutex
	received []UploadContext
}

func (p *recordingPackager) Package(ctx UploadContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, ctx)
}

func (p *recordingPackager) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.received)
}

func (p *recordingPackager) last() UploadContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.received[len(p.received)-1]
}

// recordingObserver records every debug event kind emitted.
type recordingObserver struct {
	mu     sync.Mutex
	kinds  []string
	params map[string][2]int64
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{params: make(map[string][2]int64)}
}

func (o *recordingObserver) OnDebugEvent(kind string, p1, p2 int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds = append(o.kinds, kind)
	o.params[kind] = [2]int64{p1, p2}
}

func (o *recordingObserver) has(kind string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, k := range o.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

type harness struct {
	m          *Manager
	fakeClock  *clock.Fake
	fakeDisp   *dispatcher.Fake
	staticProf *profile.Static
	pkg        *recordingPackager
	obs        *recordingObserver
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		fakeClock:  clock.NewFake(0),
		fakeDisp:   dispatcher.NewFake(),
		staticProf: profile.NewStatic(profile.Triple{0, 0, 0}),
		pkg:        &recordingPackager{},
		obs:        newRecordingObserver(),
	}
	h.m = New(cfg, h.fakeClock, h.fakeDisp, h.staticProf, h.pkg, h.obs, nil)
	return h
}

func defaultConfig() Config {
	return Config{MaxPendingRequests: 4, BackoffSpec: backoff.DefaultSpec, StopTimeout: time.Second}
}

// jitterlessConfig uses a zero jitter step so backoff delays are exact,
// for tests that assert on the precise delay sequence.
func jitterlessConfig() Config {
	return Config{MaxPendingRequests: 4, BackoffSpec: "E,3000,300000,2,0", StopTimeout: time.Second}
}
