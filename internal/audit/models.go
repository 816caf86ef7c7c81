// Package audit records who did what to which application. Events are written
// to an outbox by the domain services and shipped to kafka by a background
// worker, so a broker outage never blocks a citizen submission.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names the audited operation.
type Action string

const (
	ActionApplicationSubmitted Action = "application_submitted"
	ActionApplicationUpdated   Action = "application_updated"
	ActionApplicationDeleted   Action = "application_deleted"
	ActionStatusChanged        Action = "status_changed"
	ActionDocumentIssued       Action = "document_issued"
	ActionAmbulanceCancelled   Action = "ambulance_cancelled"

	ActionUserRegistered    Action = "user_registered"
	ActionUserLoggedIn      Action = "user_logged_in"
	ActionUserStatusChanged Action = "user_status_changed"
)

// Event is one audit record. Emitted from domain logic; transport-agnostic so
// stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`

	ActorID   string `json:"actor_id,omitempty"`
	ActorRole string `json:"actor_role,omitempty"`

	ApplicationID string `json:"application_id,omitempty"`
	DocumentType  string `json:"document_type,omitempty"`
	Reference     string `json:"reference,omitempty"`

	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Reason     string `json:"reason,omitempty"`

	RequestID string `json:"request_id,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}
