package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barangaylink/internal/application/models"
	"barangaylink/internal/application/policy"
	"barangaylink/internal/audit"
	"barangaylink/internal/refnum"
	"barangaylink/internal/vault"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/sentinel"
	"barangaylink/pkg/requestcontext"
)

// CreateInput is one citizen submission: the form fields plus any attachment
// files keyed by slot name.
type CreateInput struct {
	Type    models.DocumentType
	Payload models.Payload
	Files   map[string]vault.Upload
}

// Create validates the submission, stages attachment files, assigns a unique
// reference number and persists the application in its initial status.
// Staged files are purged if persistence ultimately fails, so the vault never
// accumulates orphans from failed submissions.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Create")
	defer span.End()
	defer s.observeCreate(time.Now())

	caller := requestcontext.Caller(ctx)
	if caller.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	pol, err := policy.For(in.Type)
	if err != nil {
		return nil, err
	}

	payload, err := models.ValidatePayload(in.Type, in.Payload)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if in.Type == models.TypeAmbulanceRequest {
		payload["estimated_arrival"] = estimatedArrival(now, payload.Field("emergency")).Format(time.RFC3339)
	}

	if err := s.checkSlots(pol, in.Files); err != nil {
		return nil, err
	}

	attachments, err := s.stageFiles(ctx, pol, in.Files)
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		ID:          id.NewApplicationID(),
		Type:        in.Type,
		OwnerID:     caller.ID,
		Status:      pol.Initial,
		Payload:     payload,
		Attachments: attachments,
	}

	if err := s.createWithReference(ctx, pol, app, now); err != nil {
		s.purgeAttachments(ctx, attachments)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementSubmitted(string(in.Type))
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionApplicationSubmitted,
		ApplicationID: app.ID.String(),
		DocumentType:  string(app.Type),
		Reference:     app.ReferenceNumber,
		ToStatus:      string(app.Status),
	})
	s.logger.InfoContext(ctx, "application submitted",
		"document_type", app.Type,
		"reference", app.ReferenceNumber,
	)
	return app, nil
}

// createWithReference assigns a fresh reference number and inserts, retrying
// on the store's uniqueness conflict up to refnum.MaxAttempts.
func (s *Service) createWithReference(ctx context.Context, pol policy.Policy, app *models.Application, now time.Time) error {
	for attempt := 0; attempt < refnum.MaxAttempts; attempt++ {
		ref, err := refnum.Reference(pol.RefPrefix, now)
		if err != nil {
			return err
		}
		app.ReferenceNumber = ref

		err = s.store.Create(ctx, app)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		if s.metrics != nil {
			s.metrics.RefRetries.Inc()
		}
	}
	return dErrors.New(dErrors.CodeGenerationExhausted,
		"could not assign a unique reference number, try again")
}

func (s *Service) checkSlots(pol policy.Policy, files map[string]vault.Upload) error {
	for slot := range files {
		if !pol.SlotNamed(slot) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unexpected file %q", slot)
		}
	}
	for _, slot := range pol.RequiredSlots() {
		if _, ok := files[slot]; !ok {
			return dErrors.Newf(dErrors.CodeInvalidInput, "file %q is required", slot)
		}
	}
	for slot, up := range files {
		if err := vault.ValidateUpload(up, s.maxUploadBytes); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, fmt.Sprintf("file %q rejected", slot))
		}
	}
	return nil
}

// stageFiles stores each upload and returns slot -> stored path. On any
// failure, everything staged so far is purged before returning.
func (s *Service) stageFiles(ctx context.Context, pol policy.Policy, files map[string]vault.Upload) (map[string]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	dir := string(pol.Type)
	staged := make(map[string]string, len(files))
	for slot, up := range files {
		path, err := s.vault.Store(ctx, dir, up)
		if err != nil {
			s.purgeAttachments(ctx, staged)
			return nil, err
		}
		staged[slot] = path
	}
	return staged, nil
}

// purgeAttachments best-effort deletes stored files. Failures are logged;
// a leaked object is preferable to failing the citizen's request twice.
func (s *Service) purgeAttachments(ctx context.Context, attachments map[string]string) {
	for slot, path := range attachments {
		if err := s.vault.Delete(ctx, path); err != nil {
			s.logger.WarnContext(ctx, "attachment cleanup failed",
				"slot", slot,
				"path", path,
				"error", err,
			)
		}
	}
}

// estimatedArrival projects when the ambulance should reach the caller.
// Dispatchers treat cardiac and breathing emergencies as top priority.
func estimatedArrival(now time.Time, emergency string) time.Time {
	var m time.Duration
	switch emergency {
	case "cardiac", "breathing":
		m = 5
	case "medical", "accident", "injury":
		m = 10
	default:
		m = 15
	}
	return now.Add(m * time.Minute)
}
