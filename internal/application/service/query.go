package service

import (
	"context"
	"time"

	"barangaylink/internal/application/models"
	"barangaylink/internal/application/policy"
	"barangaylink/internal/application/store"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/requestcontext"
)

// Get loads one application. Citizens only see their own records; a foreign
// id reads as not found so record existence is never leaked.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, notFoundOr(err, "application not found")
	}
	if err := s.authorizeRead(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// GetByReference resolves a tracking reference for the status lookup page.
// Same visibility rule as Get.
func (s *Service) GetByReference(ctx context.Context, t models.DocumentType, reference string) (*models.Application, error) {
	if _, err := policy.For(t); err != nil {
		return nil, err
	}
	app, err := s.store.FindByReference(ctx, t, reference)
	if err != nil {
		return nil, notFoundOr(err, "application not found")
	}
	if err := s.authorizeRead(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// ListInput narrows a listing. Status and Search are optional; the status
// values "" and "all" both mean unfiltered.
type ListInput struct {
	Type    models.DocumentType
	Status  string
	Search  string
	Page    int
	PerPage int
}

// List pages applications of one type. Citizens are always scoped to their
// own submissions regardless of what the request asks for; admins see all.
func (s *Service) List(ctx context.Context, in ListInput) (store.Page, error) {
	defer s.observeList(time.Now())

	caller := requestcontext.Caller(ctx)
	if caller.ID.IsNil() {
		return store.Page{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	pol, err := policy.For(in.Type)
	if err != nil {
		return store.Page{}, err
	}

	f := store.ListFilter{
		Type:         in.Type,
		Search:       in.Search,
		SearchFields: pol.SearchFields,
		Page:         in.Page,
		PerPage:      in.PerPage,
	}
	// "all" is the explicit no-filter sentinel the admin UI sends.
	if in.Status != "" && in.Status != "all" {
		status, err := models.ParseStatus(in.Status)
		if err != nil {
			return store.Page{}, err
		}
		f.Status = status
	}
	if !caller.IsAdmin() {
		f.OwnerID = caller.ID
	}
	return s.store.List(ctx, f)
}

// AttachmentURL returns a time-limited download link for one attachment slot.
func (s *Service) AttachmentURL(ctx context.Context, appID id.ApplicationID, slot string) (string, error) {
	app, err := s.Get(ctx, appID)
	if err != nil {
		return "", err
	}
	path, ok := app.Attachments[slot]
	if !ok {
		return "", dErrors.Newf(dErrors.CodeNotFound, "no attachment %q", slot)
	}
	return s.vault.URL(ctx, path)
}

// TypeStatistics is the per-type block of the admin dashboard.
type TypeStatistics struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"by_status"`
}

// Statistics aggregates record counts per document type and status.
// Admin only.
func (s *Service) Statistics(ctx context.Context) (map[models.DocumentType]TypeStatistics, error) {
	caller := requestcontext.Caller(ctx)
	if !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin access required")
	}

	out := make(map[models.DocumentType]TypeStatistics, len(models.AllDocumentTypes))
	for _, t := range models.AllDocumentTypes {
		counts, err := s.store.CountByStatus(ctx, t)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		out[t] = TypeStatistics{Total: total, ByStatus: counts}
	}
	return out, nil
}

// authorizeRead hides foreign records from citizens.
func (s *Service) authorizeRead(ctx context.Context, app *models.Application) error {
	caller := requestcontext.Caller(ctx)
	if caller.ID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if caller.IsAdmin() || app.IsOwnedBy(caller.ID) {
		return nil
	}
	return dErrors.New(dErrors.CodeNotFound, "application not found")
}
