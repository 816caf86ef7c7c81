package store

import (
	"context"

	"barangaylink/internal/application/models"
	id "barangaylink/pkg/domain"
)

// ListFilter narrows and pages a listing query. Zero values mean "no
// constraint": a nil OwnerID lists everyone's records (admin view), an empty
// Status skips status filtering, an empty Search skips the text scan.
type ListFilter struct {
	Type    models.DocumentType
	OwnerID id.UserID
	Status  models.Status

	// Search is matched case-insensitively as a substring against
	// reference_number and each payload field in SearchFields, OR'd together.
	Search       string
	SearchFields []string

	Page    int
	PerPage int
}

// Page is one page of listing results with the pagination frame the clients
// render from.
type Page struct {
	Items    []models.Application `json:"items"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PerPage  int                  `json:"per_page"`
	LastPage int                  `json:"last_page"`
}

// ApplicationStore persists applications for every document type.
//
// Create returns sentinel.ErrConflict when (type, reference_number) already
// exists; callers regenerate and retry. Update is a compare-and-swap on
// (ID, Version) and returns sentinel.ErrConflict when the row moved underneath
// the caller. Lookups return sentinel.ErrNotFound for absent records.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	FindByReference(ctx context.Context, t models.DocumentType, reference string) (*models.Application, error)
	List(ctx context.Context, f ListFilter) (Page, error)
	Update(ctx context.Context, app *models.Application) error
	Delete(ctx context.Context, appID id.ApplicationID) error

	// LastIssuedNumber returns the lexicographically greatest issued number
	// matching a SQL LIKE pattern (e.g. "BP-2026-%"), or "" when none exists.
	// Zero-padded sequences make lexicographic and numeric order agree.
	LastIssuedNumber(ctx context.Context, t models.DocumentType, pattern string) (string, error)

	// CountByStatus returns per-status record counts for one type, for the
	// admin dashboard.
	CountByStatus(ctx context.Context, t models.DocumentType) (map[models.Status]int, error)
}
