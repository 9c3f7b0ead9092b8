package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/auriora/telemetrypm/pkg/tpm"
)

type fakeOutcomes struct {
	lastKind string
	lastCtx  tpm.UploadContext
}

func (f *fakeOutcomes) HandleEventsUploadSuccessful(ctx tpm.UploadContext) {
	f.lastKind, f.lastCtx = "successful", ctx
}
func (f *fakeOutcomes) HandleEventsUploadRejected(ctx tpm.UploadContext) {
	f.lastKind, f.lastCtx = "rejected", ctx
}
func (f *fakeOutcomes) HandleEventsUploadFailed(ctx tpm.UploadContext) {
	f.lastKind, f.lastCtx = "failed", ctx
}
func (f *fakeOutcomes) HandleNothingToUpload(ctx tpm.UploadContext) {
	f.lastKind, f.lastCtx = "nothing", ctx
}
func (f *fakeOutcomes) HandlePackagingFailed(ctx tpm.UploadContext) {
	f.lastKind, f.lastCtx = "packaging_failed", ctx
}

// TestUT_IG_01_01_NullPackager_AlwaysReportsNothingToUpload tests that the
// null packager resolves every context to nothing-to-upload.
func TestUT_IG_01_01_NullPackager_AlwaysReportsNothingToUpload(t *testing.T) {
	out := &fakeOutcomes{}
	p := &NullPackager{Outcomes: out}

	ctx := tpm.UploadContext{ID: "u1", RequestedMinLatency: tpm.RealTime}
	p.Package(ctx)

	assert.Equal(t, "nothing", out.lastKind)
	assert.Equal(t, ctx, out.lastCtx)
}

// TestUT_IG_02_01_StaticPackager_UsesResolveFunc_AndRecordsContexts tests
// that a StaticPackager invokes its scripted resolution and records every
// context it receives.
func TestUT_IG_02_01_StaticPackager_UsesResolveFunc_AndRecordsContexts(t *testing.T) {
	out := &fakeOutcomes{}
	p := &StaticPackager{
		Outcomes: out,
		Resolve: func(ctx tpm.UploadContext, o Outcomes) {
			o.HandleEventsUploadRejected(ctx)
		},
	}

	ctx := tpm.UploadContext{ID: "u2", RequestedMinLatency: tpm.Normal}
	p.Package(ctx)

	assert.Equal(t, "rejected", out.lastKind)
	assert.Equal(t, []tpm.UploadContext{ctx}, p.Received())
}

// TestUT_IG_02_02_StaticPackager_NilResolve_DefaultsToNothingToUpload
// tests the documented fallback when Resolve is left unset.
func TestUT_IG_02_02_StaticPackager_NilResolve_DefaultsToNothingToUpload(t *testing.T) {
	out := &fakeOutcomes{}
	p := &StaticPackager{Outcomes: out}

	p.Package(tpm.UploadContext{ID: "u3"})
	assert.Equal(t, "nothing", out.lastKind)
}
