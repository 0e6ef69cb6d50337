package metrics

import (
	"time"

	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
)

var _ secondary.MetricsRecorder = NopRecorder{}

// NopRecorder discards every measurement
type NopRecorder struct{}

func (NopRecorder) ObserveExecution(string, string, time.Duration) {}
func (NopRecorder) IncTeardownFailure(string)                      {}
func (NopRecorder) ObserveVerdict(string, string)                  {}
func (NopRecorder) SetQueueDepth(int64)                            {}
func (NopRecorder) IncBusyWorkers()                                {}
func (NopRecorder) DecBusyWorkers()                                {}
func (NopRecorder) IncRateLimited()                                {}
