package jobscheduler

import "time"

type DispatchStatus string

const (
	StatusRunning   DispatchStatus = "running"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

// Job names of the competition maintenance triggers.
const (
	JobEnsureCompetitions   = "competitions.ensure"
	JobRefreshCompetitions  = "competitions.refresh"
	JobRolloverCompetitions = "competitions.rollover"
)

// JobNames lists every job the internal trigger endpoints can run.
var JobNames = []string{JobEnsureCompetitions, JobRefreshCompetitions, JobRolloverCompetitions}

func KnownJob(name string) bool {
	for _, known := range JobNames {
		if name == known {
			return true
		}
	}
	return false
}

// DispatchEvent records one run of an internal job, keyed by DispatchID.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	Trigger      string
	Status       DispatchStatus
	Payload      map[string]any
	Result       map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
