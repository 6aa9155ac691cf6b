package store

// Phase is the fixed variant set every repository state stream uses.
type Phase int

const (
	PhaseInitial Phase = iota
	PhaseLoading
	PhaseUpdating
	PhaseLoaded
	PhaseEmpty
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseInitial:
		return "initial"
	case PhaseLoading:
		return "loading"
	case PhaseUpdating:
		return "updating"
	case PhaseLoaded:
		return "loaded"
	case PhaseEmpty:
		return "empty"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Value is one state of a stream. Data is meaningful when loaded, and while
// updating it holds the data the mutation started from.
type Value[T any] struct {
	Phase   Phase
	Data    T
	Message string
}

func Initial[T any]() Value[T] {
	return Value[T]{Phase: PhaseInitial}
}

func Loading[T any]() Value[T] {
	return Value[T]{Phase: PhaseLoading}
}

func Updating[T any](current T) Value[T] {
	return Value[T]{Phase: PhaseUpdating, Data: current}
}

func Loaded[T any](data T) Value[T] {
	return Value[T]{Phase: PhaseLoaded, Data: data}
}

func Empty[T any]() Value[T] {
	return Value[T]{Phase: PhaseEmpty}
}

func Failed[T any](message string) Value[T] {
	return Value[T]{Phase: PhaseError, Message: message}
}

func (v Value[T]) IsLoaded() bool {
	return v.Phase == PhaseLoaded
}

// Busy reports whether a request is in flight.
func (v Value[T]) Busy() bool {
	return v.Phase == PhaseLoading || v.Phase == PhaseUpdating
}

func (v Value[T]) String() string {
	if v.Phase == PhaseError {
		return "error(" + v.Message + ")"
	}
	return v.Phase.String()
}
