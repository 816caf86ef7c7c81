package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	emailpkg "barangaylink/pkg/email"
)

// User is a registered account: a citizen by default, staff when Role says
// so. PasswordHash never serializes.
type User struct {
	ID           id.UserID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         id.Role   `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser validates registration input and hashes the password. An omitted
// name is derived from the email local part.
func NewUser(name, email, password string, role id.Role) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "a valid email is required")
	}
	if name == "" {
		first, last := emailpkg.DeriveNameFromEmail(email)
		name = first + " " + last
	}
	if len(password) < 8 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	return &User{
		ID:           id.NewUserID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}, nil
}

// CheckPassword reports whether the candidate matches the stored hash.
func (u *User) CheckPassword(candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}
