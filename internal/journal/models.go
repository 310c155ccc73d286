package journal

import "time"

// Status represents the lifecycle of a journalled unit run.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAccounting  Status = "accounting"
	StatusReconciling Status = "reconciling"
	StatusDetecting   Status = "detecting"
	StatusReporting   Status = "reporting"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusAccounting,
	StatusReconciling,
	StatusDetecting,
	StatusReporting,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is part of the lifecycle.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Run is one participant and interview type unit within a pipeline run.
type Run struct {
	ID            string
	Participant   string
	InterviewType string
	Status        Status
	WarningCount  int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
