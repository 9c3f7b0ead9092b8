// Package backoff implements the stateful exponential-with-jitter delay
// generator used by the transmission policy manager to space out retried
// uploads. It is reconfigurable at runtime from a policy string such as
// "E,3000,300000,2,1" (policy, initial ms, cap ms, multiplier, jitter step).
package backoff

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/auriora/telemetrypm/internal/logging"
)

// DefaultSpec is the policy string a Backoff starts with when the caller
// does not supply one of its own.
const DefaultSpec = "E,3000,300000,2,1"

// policy identifies the shape of the backoff curve. Exponential is the only
// policy implemented; the letter is kept in the spec string so a future
// policy (e.g. linear) can be added without breaking existing configs.
type policy byte

const exponential policy = 'E'

// Backoff generates escalating retry delays according to its current
// policy. All state is guarded by its own mutex; it is never held alongside
// any scheduler lock.
type Backoff struct {
	mu sync.Mutex

	spec string

	kind       policy
	initial    uint32
	cap        uint32
	multiplier uint32
	jitterStep uint32

	current uint32
}

// New parses spec and returns a Backoff initialized to its starting value.
// It returns ok=false if spec cannot be parsed; no Backoff is returned in
// that case.
func New(spec string) (b *Backoff, ok bool) {
	kind, initial, capVal, multiplier, jitterStep, ok := parseSpec(spec)
	if !ok {
		return nil, false
	}
	return &Backoff{
		spec:       spec,
		kind:       kind,
		initial:    initial,
		cap:        capVal,
		multiplier: multiplier,
		jitterStep: jitterStep,
		current:    initial,
	}, true
}

// parseSpec parses "E,<initial>,<cap>,<multiplier>,<jitterStep>".
func parseSpec(spec string) (kind policy, initial, cap, multiplier, jitterStep uint32, ok bool) {
	fields := strings.Split(spec, ",")
	if len(fields) != 5 {
		return 0, 0, 0, 0, 0, false
	}
	if fields[0] != "E" {
		return 0, 0, 0, 0, 0, false
	}
	values := make([]uint32, 4)
	for i, f := range fields[1:] {
		n, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return 0, 0, 0, 0, 0, false
		}
		values[i] = uint32(n)
	}
	if values[0] == 0 || values[1] == 0 || values[2] == 0 {
		// a zero initial, cap, or multiplier can never produce a sane curve
		return 0, 0, 0, 0, 0, false
	}
	return exponential, values[0], values[1], values[2], values[3], true
}

// Value returns the current delay in milliseconds without advancing the
// backoff. If jitter is enabled (jitterStep > 0) a fresh random offset in
// [0, current*jitterStep/10] is added on every read.
func (b *Backoff) Value() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.valueLocked()
}

func (b *Backoff) valueLocked() uint32 {
	if b.jitterStep == 0 {
		return b.current
	}
	jitterRange := uint64(b.current) * uint64(b.jitterStep) / 10
	if jitterRange == 0 {
		return b.current
	}
	return b.current + uint32(rand.Int63n(int64(jitterRange)+1))
}

// Advance moves the backoff to its next value, saturating at the configured
// cap.
func (b *Backoff) Advance() {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := uint64(b.current) * uint64(b.multiplier)
	if next > uint64(b.cap) {
		next = uint64(b.cap)
	}
	b.current = uint32(next)
}

// Reset returns the backoff to its initial value.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.initial
}

// Reconfigure replaces the backoff's policy with newSpec, but only if
// newSpec parses. A failed parse logs a warning and leaves the current
// state untouched; it reports whether the reconfiguration took effect.
func (b *Backoff) Reconfigure(newSpec string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if newSpec == b.spec {
		return true
	}
	kind, initial, capVal, multiplier, jitterStep, ok := parseSpec(newSpec)
	if !ok {
		logging.Warn().
			Str("spec", newSpec).
			Msg("Invalid backoff configuration, continuing to use current settings.")
		return false
	}
	b.spec = newSpec
	b.kind = kind
	b.initial = initial
	b.cap = capVal
	b.multiplier = multiplier
	b.jitterStep = jitterStep
	b.current = initial
	return true
}

// Spec returns the policy string the backoff is currently configured with.
func (b *Backoff) Spec() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spec
}

// Current returns the unjittered delay the backoff is currently sitting at,
// for persisting across restarts. Unlike Value it does not add jitter or
// advance the sequence.
func (b *Backoff) Current() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Restore sets the backoff's current delay directly, clamped to
// [initial, cap]. It is used to resume a retry sequence a prior process
// had already escalated, instead of starting over at initial.
func (b *Backoff) Restore(current uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current < b.initial {
		current = b.initial
	}
	if current > b.cap {
		current = b.cap
	}
	b.current = current
}
