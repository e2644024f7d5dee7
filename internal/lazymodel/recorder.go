package lazymodel

import "time"

// Recorder receives request and construction measurements. internal/metrics
// provides the Prometheus implementation.
type Recorder interface {
	ObserveRequest(outcome string, d time.Duration)
	ObserveConstruction(outcome string, d time.Duration)
	SetReady(ready bool)
	AddInFlight(delta float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, time.Duration)      {}
func (nopRecorder) ObserveConstruction(string, time.Duration) {}
func (nopRecorder) SetReady(bool)                             {}
func (nopRecorder) AddInFlight(float64)                       {}
