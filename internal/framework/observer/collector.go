package observer

import "time"

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 . DispatchCollector

// DispatchCollector records the outcome of dispatches.
type DispatchCollector interface {
	// ObserveDispatch is called once at the end of every dispatch.
	ObserveDispatch(duration time.Duration, delivered, failed, notDelivered int)
}

type noopCollector struct{}

func (noopCollector) ObserveDispatch(time.Duration, int, int, int) {}
