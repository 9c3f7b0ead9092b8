package tpm

import (
	"context"

	"github.com/auriora/telemetrypm/internal/logging"
)

// HandleStart transitions Paused -> Running and seeds the first upload
// attempt at a fixed 1000ms, before any transmit profile has supplied its
// own cadence.
func (m *Manager) HandleStart() {
	m.mu.Lock()
	m.state = Running
	m.mu.Unlock()

	proposed := m.calculateNewPriority()
	m.ScheduleUpload(startSeedDelayMs, proposed, false)
}

// HandlePause transitions Running -> Paused. In-flight uploads run to
// completion; only ScheduleUpload and OnEventArrived refuse new work.
func (m *Manager) HandlePause() {
	m.mu.Lock()
	m.state = Paused
	m.mu.Unlock()
}

// HandleStop transitions to Stopping, cancels any not-yet-fired upload
// task, blocks until every in-flight upload finishes (or ctx is done, or
// the configured stop timeout elapses, whichever comes first; a drain cut
// short this way logs a warning), then transitions to Stopped and fires
// onAllUploadsFinished. Once scheduledUploadAborted is set, ScheduleUpload
// never arms another task, so no new upload can start during the drain.
func (m *Manager) HandleStop(ctx context.Context) {
	m.mu.Lock()
	m.scheduledUploadAborted = true
	m.state = Stopping
	m.cancelScheduledLocked()
	m.mu.Unlock()

	drainCtx, cancel := context.WithTimeout(ctx, m.stopTimeout)
	defer cancel()
	if !m.registry.DrainWait(drainCtx) {
		logging.Warn().Uint32("pending", m.registry.Count()).Msg("stopping before all in-flight uploads finished")
	}

	m.mu.Lock()
	m.state = Stopped
	m.mu.Unlock()

	m.emitDebug("all_uploads_finished", 0, 0)
	if m.onAllUploadsFinished != nil {
		m.onAllUploadsFinished()
	}
}

// HandleFinishAllUploads pauses the manager and blocks until every
// in-flight upload finishes, without transitioning to Stopped. It is the
// collaborator-facing equivalent of HandleStop for callers that want to
// flush the pipeline without tearing it down.
func (m *Manager) HandleFinishAllUploads(ctx context.Context) {
	m.HandlePause()

	drainCtx, cancel := context.WithTimeout(ctx, m.stopTimeout)
	defer cancel()
	m.registry.DrainWait(drainCtx)

	m.emitDebug("all_uploads_finished", 0, 0)
	if m.onAllUploadsFinished != nil {
		m.onAllUploadsFinished()
	}
}
