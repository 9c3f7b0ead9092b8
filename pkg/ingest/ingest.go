// Package ingest provides stand-in implementations of the
// tpm.Packager contract. The real packager reads pending events from the
// on-disk store, serializes them into an upload payload, and hands it to
// an HTTP client; all three of those concerns are out of scope (see
// spec.md §1 Non-goals), so this package only carries the outcome-routing
// shape a real packager would have.
package ingest

import (
	"sync"

	"github.com/auriora/telemetrypm/pkg/tpm"
)

// Outcomes is the subset of Manager's terminal-outcome API a Packager
// needs in order to report back what happened to an UploadContext.
type Outcomes interface {
	HandleEventsUploadSuccessful(ctx tpm.UploadContext)
	HandleEventsUploadRejected(ctx tpm.UploadContext)
	HandleEventsUploadFailed(ctx tpm.UploadContext)
	HandleNothingToUpload(ctx tpm.UploadContext)
	HandlePackagingFailed(ctx tpm.UploadContext)
}

// NullPackager reports nothing-to-upload for every context it receives. It
// is the packager a deployment wires in before its event store and
// transport are ready, so the scheduler still runs end to end.
type NullPackager struct {
	Outcomes Outcomes
}

// Package implements tpm.Packager.
func (p *NullPackager) Package(ctx tpm.UploadContext) {
	p.Outcomes.HandleNothingToUpload(ctx)
}

var _ tpm.Packager = (*NullPackager)(nil)

// StaticPackager is a test double that resolves every context it receives
// according to a caller-supplied function, and records every context it
// was handed for later assertions.
type StaticPackager struct {
	Outcomes Outcomes
	// Resolve decides the outcome for ctx; it must call exactly one method
	// on o. A nil Resolve defaults to HandleNothingToUpload.
	Resolve func(ctx tpm.UploadContext, o Outcomes)

	mu       sync.Mutex
	received []tpm.UploadContext
}

// Package implements tpm.Packager.
func (p *StaticPackager) Package(ctx tpm.UploadContext) {
	p.mu.Lock()
	p.received = append(p.received, ctx)
	p.mu.Unlock()

	if p.Resolve == nil {
		p.Outcomes.HandleNothingToUpload(ctx)
		return
	}
	p.Resolve(ctx, p.Outcomes)
}

// Received returns a copy of every context handed to Package so far.
func (p *StaticPackager) Received() []tpm.UploadContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]tpm.UploadContext, len(p.received))
	copy(out, p.received)
	return out
}

var _ tpm.Packager = (*StaticPackager)(nil)
