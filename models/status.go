package models

type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusSuspended  Status = "Suspended"
	StatusCancelled  Status = "Cancelled"
)

var AllStatuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusSuspended, StatusCancelled}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Halted reports whether work under this status is paused or abandoned.
func (s Status) Halted() bool {
	return s == StatusSuspended || s == StatusCancelled
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}
