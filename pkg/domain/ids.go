package domain

import (
	"github.com/google/uuid"

	dErrors "barangaylink/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types keep a user id from ever being
// passed where an application id is expected; the compiler enforces it.
type (
	UserID        uuid.UUID
	ApplicationID uuid.UUID
)

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) String() string {
	return uuid.UUID(id).String()
}

// NewUserID generates a fresh random user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewApplicationID generates a fresh random application id.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// ParseUserID constructs a UserID from external input.
// Call from handlers/adapters at trust boundaries; direct casting bypasses validation.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseApplicationID constructs an ApplicationID from external input.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ApplicationID{}, err
	}
	return ApplicationID(u), nil
}
