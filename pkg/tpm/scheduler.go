package tpm

import (
	"time"

	"github.com/auriora/telemetrypm/internal/logging"
)

// ScheduleUpload is the decision core: given a delay, a requested latency
// class, and whether the caller demands an immediate reschedule, it decides
// whether to arm, coalesce into, or ignore a pending upload task. The
// checks run in a fixed order and the first one that applies short-circuits
// the rest:
//
//  1. a negative delay, or a negative timer delay (uploads prohibited by
//     the current transmit profile), aborts.
//  2. a scheduler that has already been told to stop aborts.
//  3. the registry already holding maxPendingRequests uploads aborts,
//     applying backpressure.
//  4. a paused scheduler aborts; resuming is HandleStart's job.
//  5. the timer triple is refreshed if the profile has a pending update; a
//     prohibited Normal timer (t0 < 0) raises latency to at least RealTime.
//  6. if not forced and an upload is already scheduled, the lower of the
//     two requested latencies wins and, if the existing task is due within
//     delayMs anyway, the call is a no-op.
//  7. forcing, or a zero delay, cancels any task armed by an earlier call.
//  8. a task is armed only if none is currently scheduled; this step is a
//     no-op when step 6 left an existing schedule standing.
func (m *Manager) ScheduleUpload(delayMs int32, latency EventLatency, force bool) {
	// The registry count is read before taking mu so the registry's lock is
	// never held alongside it.
	pending := m.registry.Count()
	m.mu.Lock()

	if delayMs < 0 || m.timerDelay < 0 {
		m.mu.Unlock()
		return
	}
	if m.scheduledUploadAborted {
		m.mu.Unlock()
		return
	}
	if pending >= m.maxPendingRequests {
		limit := m.maxPendingRequests
		m.mu.Unlock()
		m.emitDebug("backpressure", int64(pending), int64(limit))
		return
	}
	if m.state == Paused {
		m.mu.Unlock()
		return
	}

	m.refreshTimersLocked()
	if m.timers[0] < 0 && latency < RealTime {
		latency = RealTime
	}

	if !force && m.isUploadScheduled {
		if m.targetLatency > latency {
			m.targetLatency = latency
		}
		now := m.clock.NowMs()
		if absDiffU64(m.scheduledUploadTime, now) <= uint64(delayMs) {
			m.mu.Unlock()
			return
		}
	}

	if force || delayMs == 0 {
		m.cancelScheduledLocked()
	}

	if !m.isUploadScheduled {
		m.isUploadScheduled = true
		m.targetLatency = latency
		m.scheduledUploadTime = m.clock.NowMs() + uint64(delayMs)

		m.scheduledUploadCancel = m.dispatcher.Schedule(time.Duration(delayMs)*time.Millisecond, m.uploadAsync)
	}
	m.mu.Unlock()
}

// uploadAsync runs on the dispatcher's worker goroutine when an armed task
// fires. It clears the scheduled-upload bookkeeping, then, unless the
// manager has been stopped or paused out from under the task, registers and
// hands off a fresh UploadContext at the scheduled target latency (which a
// non-forced ScheduleUpload may have lowered since the task was armed).
func (m *Manager) uploadAsync() {
	m.mu.Lock()
	m.isUploadScheduled = false
	m.scheduledUploadTime = sentinelTime
	m.scheduledUploadCancel = nil
	blocked := m.scheduledUploadAborted || m.state == Paused
	latency := m.targetLatency
	m.mu.Unlock()

	if blocked {
		m.emitDebug("upload_skipped", int64(latency), 0)
		return
	}

	ctx := m.newContext(latency)
	if err := m.registry.Add(ctx); err != nil {
		logging.LogError(err, "discarding duplicate upload context")
		return
	}
	m.emitDebug("upload_initiated", int64(latency), 0)
	m.packager.Package(ctx)
}

// OnEventArrived is the event-arrival entry point: Max-latency events
// bypass the timer and upload immediately, unless the registry already
// holds maxPendingRequests uploads; everything else leaves an existing
// schedule standing, or, when nothing is scheduled or the profile's timers
// have changed since they were last fetched, recomputes and schedules one.
func (m *Manager) OnEventArrived(event IncomingEvent) {
	if m.State() == Paused {
		return
	}

	if event.Latency > RealTime {
		if pending := m.registry.Count(); pending >= m.maxPendingRequests {
			m.emitDebug("backpressure", int64(pending), int64(m.maxPendingRequests))
			return
		}
		ctx := m.newContext(event.Latency)
		if err := m.registry.Add(ctx); err != nil {
			logging.LogError(err, "discarding duplicate immediate upload context")
			return
		}
		m.emitDebug("upload_initiated_immediate", int64(event.Latency), 0)
		m.packager.Package(ctx)
		return
	}

	m.mu.Lock()
	alreadyScheduled := m.isUploadScheduled
	pendingProfileUpdate := m.profile.TimersRequireUpdate()
	m.mu.Unlock()

	if alreadyScheduled && !pendingProfileUpdate {
		return
	}

	refreshed := m.refreshTimers()
	m.mu.Lock()
	if refreshed {
		m.timerDelay = m.timers[1]
	}
	delay := m.timerDelay
	m.mu.Unlock()

	proposed := m.calculateNewPriority()
	if delay >= 0 {
		m.ScheduleUpload(delay, proposed, refreshed)
	}
}

func (m *Manager) refreshTimers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshTimersLocked()
}
