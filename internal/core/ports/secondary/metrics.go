package secondary

import "time"

// MetricsRecorder receives operational measurements from the services
type MetricsRecorder interface {
	ObserveExecution(language, outcome string, duration time.Duration)
	IncTeardownFailure(stage string)
	ObserveVerdict(language, state string)
	SetQueueDepth(depth int64)
	IncBusyWorkers()
	DecBusyWorkers()
	IncRateLimited()
}
