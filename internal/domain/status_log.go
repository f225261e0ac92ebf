package domain

import "time"

// StatusLogEntry is an immutable audit trail entry for a status transition.
type StatusLogEntry struct {
	ID          string
	ComplaintID string
	Sequence    int
	FromStatus  *ComplaintStatus
	ToStatus    ComplaintStatus
	Comment     *string
	ActorID     *string
	Timestamp   time.Time
}
