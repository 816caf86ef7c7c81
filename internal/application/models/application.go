package models

import (
	"time"

	id "barangaylink/pkg/domain"
)

// Payload holds the type-specific form fields of an application. Values are
// kept as submitted strings; the payload schema validates format at the
// boundary (see payloads.go). Keeping the shape uniform is what lets one
// lifecycle engine serve every document type.
type Payload map[string]string

// Field returns the payload value for key, or "" when absent.
func (p Payload) Field(key string) string { return p[key] }

// Decision carries the admin-supplied data accompanying a status transition.
type Decision struct {
	RejectionReason string
	AdminRemarks    string
}

// Application is the aggregate shared by every document type.
//
// Invariants:
//   - ReferenceNumber is assigned before first persistence and never mutated.
//   - OwnerID is set at creation and never mutated.
//   - Status only changes through a policy-checked transition.
//   - IssuedNumber is present iff the application has been approved and has
//     not since been rejected.
//   - RejectionReason is non-empty iff Status is rejected.
//   - Attachments reference vault paths owned exclusively by this record.
//
// Version implements optimistic concurrency: every store update is a
// compare-and-swap on (ID, Version), so two admins racing on the same
// application cannot silently overwrite each other.
type Application struct {
	ID              id.ApplicationID  `json:"id"`
	Type            DocumentType      `json:"document_type"`
	ReferenceNumber string            `json:"reference_number"`
	OwnerID         id.UserID         `json:"owner_id"`
	Status          Status            `json:"status"`
	Payload         Payload           `json:"payload"`
	Attachments     map[string]string `json:"attachments,omitempty"`

	IssuedNumber    string    `json:"issued_number,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	AdminRemarks    string    `json:"admin_remarks,omitempty"`
	ProcessedBy     id.UserID `json:"processed_by,omitempty"`

	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty"`
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	ArrivedAt    *time.Time `json:"arrived_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"-"`
}

// IsOwnedBy reports whether the caller submitted this application.
func (a *Application) IsOwnedBy(userID id.UserID) bool { return a.OwnerID == userID }

// TimestampFor returns the "first reached" timestamp slot for a status, or
// nil when the status has no dedicated timestamp (pending, processing,
// en_route and friends are tracked by UpdatedAt only).
func (a *Application) TimestampFor(s Status) **time.Time {
	switch s {
	case StatusApproved:
		return &a.ApprovedAt
	case StatusRejected:
		return &a.RejectedAt
	case StatusReleased:
		return &a.ReleasedAt
	case StatusDispatched:
		return &a.DispatchedAt
	case StatusArrived:
		return &a.ArrivedAt
	case StatusCompleted, StatusResolved, StatusClosed:
		return &a.CompletedAt
	case StatusCancelled:
		return &a.CancelledAt
	default:
		return nil
	}
}

// ClearIssuance removes the issued number and its validity window. Called
// when a rejection invalidates a previous approval.
func (a *Application) ClearIssuance() {
	a.IssuedNumber = ""
	a.ApprovedAt = nil
	a.ExpiresAt = nil
}
