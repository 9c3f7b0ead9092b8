package tpm

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/auriora/telemetrypm/internal/logging"
	"github.com/auriora/telemetrypm/pkg/backoff"
	"github.com/auriora/telemetrypm/pkg/clock"
	"github.com/auriora/telemetrypm/pkg/dispatcher"
	"github.com/auriora/telemetrypm/pkg/profile"
)

// sentinelTime marks scheduledUploadTime as meaningless: no upload is
// currently scheduled.
const sentinelTime = ^uint64(0)

// defaultTimerDelayMs is m_timerdelay's starting value, used until a
// transmit profile update supplies its own timer triple.
const defaultTimerDelayMs int32 = 2000

// startSeedDelayMs is the fixed delay HandleStart uses to arm the very
// first upload, distinct from defaultTimerDelayMs; the original
// implementation hardcodes this separately from DEFAULT_DELAY_SEND_HTTP.
const startSeedDelayMs int32 = 1000

// Config holds the tunables a deployment sets once at construction time.
type Config struct {
	// MaxPendingRequests bounds how many uploads may be registered (queued
	// plus in flight) at once; ScheduleUpload refuses new work above it.
	MaxPendingRequests uint32
	// BackoffSpec is the exponential backoff policy string, e.g.
	// "E,3000,300000,2,1". An empty or malformed spec falls back to
	// backoff.DefaultSpec.
	BackoffSpec string
	// StopTimeout bounds how long HandleStop waits for in-flight uploads
	// to finish before giving up on a graceful drain.
	StopTimeout time.Duration
}

// Manager is the transmission policy manager: it decides when to initiate
// uploads, which latency class to include, how many may be in flight, and
// how to react to success, rejection, and failure. Field grouping mirrors
// UploadManager: one mutex guards the scheduling state that must be read
// and written as a unit, while the registry and backoff keep their own
// locks that are never held alongside it.
type Manager struct {
	mu sync.Mutex

	// Guarded by mu.
	state                  LifecycleState
	isUploadScheduled      bool
	scheduledUploadTime    uint64
	scheduledUploadCancel  dispatcher.Cancel
	scheduledUploadAborted bool
	targetLatency          EventLatency
	timers                 profile.Triple
	timerDelay             int32

	// Independent collaborators; safe for concurrent use on their own.
	clock      clock.Clock
	dispatcher dispatcher.Dispatcher
	profile    profile.Provider
	backoff    *backoff.Backoff
	registry   *UploadRegistry
	packager   Packager
	observer   DebugObserver

	maxPendingRequests uint32
	stopTimeout        time.Duration
	nextID             uint64

	onAllUploadsFinished func()
}

// New builds a Manager in the Paused lifecycle state. clk, disp, prof, and
// pkg are required; observer and onAllUploadsFinished may be nil.
func New(cfg Config, clk clock.Clock, disp dispatcher.Dispatcher, prof profile.Provider, pkg Packager, observer DebugObserver, onAllUploadsFinished func()) *Manager {
	bo, ok := backoff.New(cfg.BackoffSpec)
	if !ok {
		logging.Warn().Str("spec", cfg.BackoffSpec).Msg("invalid backoff policy string, using default")
		bo, _ = backoff.New(backoff.DefaultSpec)
	}
	if observer == nil {
		observer = NopObserver{}
	}
	maxPending := cfg.MaxPendingRequests
	if maxPending == 0 {
		maxPending = 1
	}
	stopTimeout := cfg.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = 30 * time.Second
	}

	return &Manager{
		state:               Paused,
		scheduledUploadTime: sentinelTime,
		targetLatency:       RealTime,
		timerDelay:          defaultTimerDelayMs,

		clock:      clk,
		dispatcher: disp,
		profile:    prof,
		backoff:    bo,
		registry:   NewUploadRegistry(),
		packager:   pkg,
		observer:   observer,

		maxPendingRequests:   maxPending,
		stopTimeout:          stopTimeout,
		onAllUploadsFinished: onAllUploadsFinished,
	}
}

// State reports the current lifecycle state.
func (m *Manager) State() LifecycleState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// PendingCount reports how many uploads are currently registered.
func (m *Manager) PendingCount() uint32 {
	return m.registry.Count()
}

// Backoff exposes the manager's retry backoff so a persistence layer can
// save and restore its escalation level across restarts. The backoff keeps
// its own lock, so sharing the pointer is safe.
func (m *Manager) Backoff() *backoff.Backoff {
	return m.backoff
}

func (m *Manager) newContext(latency EventLatency) UploadContext {
	id := atomic.AddUint64(&m.nextID, 1)
	return UploadContext{
		ID:                  fmt.Sprintf("upload-%d", id),
		RequestedMinLatency: latency,
	}
}

func (m *Manager) emitDebug(kind string, p1, p2 int64) {
	m.observer.OnDebugEvent(kind, p1, p2)
}

// refreshTimersLocked fetches a fresh timer triple from the profile
// provider if one is available. mu must be held.
func (m *Manager) refreshTimersLocked() bool {
	if !m.profile.TimersRequireUpdate() {
		return false
	}
	m.timers = m.profile.GetTimers()
	return true
}

// calculateNewPriorityLocked derives the latency class the next scheduled
// upload should request, per the transmit profile's current timer triple.
// mu must be held.
func (m *Manager) calculateNewPriorityLocked() EventLatency {
	if m.timers[0] == m.timers[1] {
		return Normal
	}
	if m.timers[0] < 0 {
		return RealTime
	}
	if m.targetLatency == RealTime {
		return Normal
	}
	return RealTime
}

// calculateNewPriority refreshes the timer triple and derives the next
// scheduling latency under the scheduler mutex.
func (m *Manager) calculateNewPriority() EventLatency {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshTimersLocked()
	return m.calculateNewPriorityLocked()
}

// cancelScheduledLocked cancels any armed-but-not-fired upload task and
// clears the scheduled-upload bookkeeping. mu must be held.
func (m *Manager) cancelScheduledLocked() {
	if m.scheduledUploadCancel != nil {
		m.scheduledUploadCancel()
		m.scheduledUploadCancel = nil
	}
	m.isUploadScheduled = false
	m.scheduledUploadTime = sentinelTime
}

func absDiffU64(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
