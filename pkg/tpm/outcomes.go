package tpm

import "github.com/auriora/telemetrypm/internal/logging"

// finishUpload removes ctx from the registry and, if nextUploadInMs is
// non-negative, reschedules using the freshly recalculated priority. A
// negative nextUploadInMs means no follow-up upload is scheduled from this
// outcome; the next arriving event or timer tick will schedule one.
func (m *Manager) finishUpload(ctx UploadContext, nextUploadInMs int32) {
	if !m.registry.Remove(ctx.ID) {
		logging.Warn().Str("id", ctx.ID).Msg("finishing upload context not found in registry")
	}
	if nextUploadInMs < 0 {
		return
	}
	proposed := m.calculateNewPriority()
	m.ScheduleUpload(nextUploadInMs, proposed, false)
}

func (m *Manager) timerDelaySnapshot() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timerDelay
}

// nextBackoffDelay returns the backoff's current delay and advances it,
// matching the read-then-advance order scenario S3 depends on: three
// consecutive failures against policy "E,3000,300000,2,1" must yield base
// delays of 3000, 6000, then 12000ms (each plus up to 10% jitter), not
// 6000/12000/24000.
func (m *Manager) nextBackoffDelay() uint32 {
	delay := m.backoff.Value()
	m.backoff.Advance()
	return delay
}

// HandleEventsUploadSuccessful resets the backoff policy and immediately
// reconsiders scheduling, since a successful upload often means more
// capacity is available right away.
func (m *Manager) HandleEventsUploadSuccessful(ctx UploadContext) {
	m.backoff.Reset()
	m.emitDebug("upload_succeeded", 0, 0)
	m.finishUpload(ctx, 0)
}

// HandleNothingToUpload resets the backoff policy. A Normal-latency upload
// that found nothing to send simply waits for the next event or timer
// tick; anything more urgent is retried after the current timer delay so
// the caller doesn't lose its elevated latency class.
func (m *Manager) HandleNothingToUpload(ctx UploadContext) {
	m.backoff.Reset()
	m.emitDebug("nothing_to_upload", int64(ctx.RequestedMinLatency), 0)
	if ctx.RequestedMinLatency == Normal {
		m.finishUpload(ctx, -1)
		return
	}
	m.finishUpload(ctx, m.timerDelaySnapshot())
}

// HandlePackagingFailed retries after the current timer delay; packaging
// failures are assumed to be local and transient (storage I/O, encoding),
// not evidence of server-side rejection, so they don't touch the backoff.
func (m *Manager) HandlePackagingFailed(ctx UploadContext) {
	m.emitDebug("packaging_failed", 0, 0)
	m.finishUpload(ctx, m.timerDelaySnapshot())
}

// HandleEventsUploadRejected retries after the backoff delay and advances
// it, since a rejection is the server telling the client to back off.
func (m *Manager) HandleEventsUploadRejected(ctx UploadContext) {
	delay := m.nextBackoffDelay()
	m.emitDebug("upload_rejected", int64(delay), 0)
	m.finishUpload(ctx, int32(delay))
}

// HandleEventsUploadFailed retries after the backoff delay and advances it,
// the same as a rejection; the transport doesn't distinguish why the
// server is unreachable from why it refused the payload.
func (m *Manager) HandleEventsUploadFailed(ctx UploadContext) {
	delay := m.nextBackoffDelay()
	m.emitDebug("upload_failed", int64(delay), 0)
	m.finishUpload(ctx, int32(delay))
}

// HandleEventsUploadAborted finalizes ctx without scheduling a follow-up;
// an aborted upload is not retried from this outcome.
func (m *Manager) HandleEventsUploadAborted(ctx UploadContext) {
	m.emitDebug("upload_aborted", 0, 0)
	m.finishUpload(ctx, -1)
}
