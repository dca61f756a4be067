// Package view holds the per-instance state machines behind the dashboard
// pages: the sign-up and sign-in forms and the car list. A view instance is
// created when a page is mounted and lives until it is unmounted; nothing is
// shared between instances.
package view

// Phase is the lifecycle position of a view's network dependency.
type Phase int

const (
	// Idle means no request has been issued yet.
	Idle Phase = iota
	// Loading means exactly one request is in flight.
	Loading
	// Loaded means the last request succeeded.
	Loaded
	// Failed means the last request failed.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a tagged union over Phase. Data is the last successful payload
// and is retained through Loading and Failed; Err is set only when Failed.
type State[T any] struct {
	Phase Phase
	Data  T
	Err   error
}

func (s State[T]) loading() State[T] {
	return State[T]{Phase: Loading, Data: s.Data}
}

func (s State[T]) loaded(data T) State[T] {
	return State[T]{Phase: Loaded, Data: data}
}

func (s State[T]) failed(err error) State[T] {
	return State[T]{Phase: Failed, Data: s.Data, Err: err}
}
