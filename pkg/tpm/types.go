// Package tpm implements the transmission policy manager: the scheduling
// and backoff core that decides when to initiate telemetry uploads, which
// latency class of events to include, how many uploads may be in flight,
// and how to react to success, rejection, and transport failure.
//
// Event construction, the HTTP transport, the on-disk event store,
// transmit-profile evaluation, and bandwidth throttling are not implemented
// here. The Manager is handed a profile Provider and a Packager (which
// fronts the store and transport); it takes no bandwidth collaborator.
package tpm

// EventLatency is an ordered latency class: the higher the value, the
// sooner the event must leave the device.
type EventLatency int

const (
	// Normal events ride the slow cadence timer.
	Normal EventLatency = iota
	// CostDeferred events wait for a cost-favorable network condition;
	// the scheduler treats it the same as Normal for timing purposes.
	CostDeferred
	// RealTime events ride the fast cadence timer and are the default
	// scheduling latency.
	RealTime
	// Max events bypass the timer entirely and upload immediately.
	Max
)

func (l EventLatency) String() string {
	switch l {
	case Normal:
		return "Normal"
	case CostDeferred:
		return "CostDeferred"
	case RealTime:
		return "RealTime"
	case Max:
		return "Max"
	default:
		return "Unknown"
	}
}

// EventPersistence is the survivability tier of an event in the on-disk
// queue. The scheduler reads it but never modifies it.
type EventPersistence int

const (
	PersistenceNormal EventPersistence = iota
	PersistenceCritical
)

// IncomingEvent is the arrival signal a producer hands to the manager. The
// event record itself (serialization, PII tagging, storage) is out of
// scope; only the fields the scheduler acts on are carried here.
type IncomingEvent struct {
	ID          string
	Latency     EventLatency
	Persistence EventPersistence
}

// UploadContext is one upload attempt: a unique identity and the minimum
// latency class it was created to satisfy. It is created by the Manager,
// owned by the UploadRegistry for the duration of the attempt, and carried
// to the Packager.
type UploadContext struct {
	ID                  string
	RequestedMinLatency EventLatency
}

// LifecycleState is the manager's start/pause/stop state.
type LifecycleState int

const (
	// Paused is the initial state: no uploads are scheduled.
	Paused LifecycleState = iota
	Running
	Stopping
	Stopped
)

func (s LifecycleState) String() string {
	switch s {
	case Paused:
		return "Paused"
	case Running:
		return "Running"
	case Stopping:
		return "Stopping"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Packager receives a registered UploadContext and drives it to one of the
// terminal outcomes in outcomes.go by calling back into the Manager. The
// real implementation packages events from the store and hands them to an
// HTTP client; both are out of scope here (see pkg/ingest for a stub).
type Packager interface {
	Package(ctx UploadContext)
}

// BandwidthController is an optional collaborator that proposes an
// acceptable upload bandwidth. The interface is declared only: New does not
// accept one and the scheduling path never consults it.
type BandwidthController interface {
	ProposedBandwidthBps() uint32
}

// DebugObserver receives scheduling debug events outside of any lock.
type DebugObserver interface {
	OnDebugEvent(kind string, param1, param2 int64)
}

// NopObserver discards every debug event.
type NopObserver struct{}

// OnDebugEvent implements DebugObserver.
func (NopObserver) OnDebugEvent(string, int64, int64) {}
