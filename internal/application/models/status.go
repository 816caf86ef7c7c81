package models

import dErrors "barangaylink/pkg/domain-errors"

// Status is the closed enumeration of application states across all document
// types. Each policy declares which subset its type uses and which moves
// between them are legal; free-form status strings never enter the system.
type Status string

const (
	// Review lifecycle (clearances, permits, cedulas, certificates).
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusReleased    Status = "released"
	StatusCompleted   Status = "completed"

	// Blotter lifecycle.
	StatusFiled              Status = "filed"
	StatusUnderInvestigation Status = "under_investigation"
	StatusResolved           Status = "resolved"
	StatusClosed             Status = "closed"

	// Ambulance dispatch lifecycle.
	StatusDispatched Status = "dispatched"
	StatusEnRoute    Status = "en_route"
	StatusArrived    Status = "arrived"
	StatusCancelled  Status = "cancelled"
)

var knownStatuses = map[Status]bool{
	StatusPending: true, StatusProcessing: true, StatusUnderReview: true,
	StatusApproved: true, StatusRejected: true, StatusReleased: true,
	StatusCompleted: true, StatusFiled: true, StatusUnderInvestigation: true,
	StatusResolved: true, StatusClosed: true, StatusDispatched: true,
	StatusEnRoute: true, StatusArrived: true, StatusCancelled: true,
}

// ParseStatus constructs a Status from external input. Whether the status is
// legal for a given document type is the policy's call, not this function's.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !knownStatuses[st] {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", s)
	}
	return st, nil
}
