package store

import (
	"context"

	"barangaylink/internal/auth/models"
	id "barangaylink/pkg/domain"
)

// UserPage is one page of the admin user listing.
type UserPage struct {
	Items    []models.User `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PerPage  int           `json:"per_page"`
	LastPage int           `json:"last_page"`
}

// UserStore persists accounts. Create returns sentinel.ErrConflict when the
// email is already registered; lookups return sentinel.ErrNotFound.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	// List pages users newest first, optionally filtering by a
	// case-insensitive substring of name or email.
	List(ctx context.Context, search string, page, perPage int) (UserPage, error)
}
