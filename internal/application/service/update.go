package service

import (
	"context"
	"errors"

	"barangaylink/internal/application/models"
	"barangaylink/internal/application/policy"
	"barangaylink/internal/audit"
	"barangaylink/internal/vault"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/sentinel"
	"barangaylink/pkg/requestcontext"
)

// UpdateInput carries the replacement form fields and any replacement files.
// Files are per-slot: a slot not present keeps its current attachment.
type UpdateInput struct {
	Payload models.Payload
	Files   map[string]vault.Upload
}

// Update lets the owner revise an application while it still sits in its
// draft status. Replacement files are staged first and the old objects are
// deleted only after the record persists, so a failed update never loses the
// original attachment.
func (s *Service) Update(ctx context.Context, appID id.ApplicationID, in UpdateInput) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Update")
	defer span.End()

	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, notFoundOr(err, "application not found")
	}
	pol := policy.MustFor(app.Type)

	caller := requestcontext.Caller(ctx)
	if caller.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !app.IsOwnedBy(caller.ID) {
		if caller.IsAdmin() {
			return nil, dErrors.New(dErrors.CodeForbidden, "only the applicant can edit an application")
		}
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if !pol.OwnerCanUpdate {
		return nil, dErrors.Newf(dErrors.CodeForbidden, "%s applications cannot be edited", app.Type)
	}
	if app.Status != pol.DraftStatus {
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"only %s applications can be edited", pol.DraftStatus)
	}

	payload, err := models.ValidatePayload(app.Type, in.Payload)
	if err != nil {
		return nil, err
	}
	if eta := app.Payload.Field("estimated_arrival"); eta != "" {
		payload["estimated_arrival"] = eta
	}

	if err := s.checkReplacementSlots(pol, in.Files); err != nil {
		return nil, err
	}
	staged, err := s.stageFiles(ctx, pol, in.Files)
	if err != nil {
		return nil, err
	}

	var replaced []string
	if len(staged) > 0 && app.Attachments == nil {
		app.Attachments = make(map[string]string, len(staged))
	}
	for slot, path := range staged {
		if old, ok := app.Attachments[slot]; ok {
			replaced = append(replaced, old)
		}
		app.Attachments[slot] = path
	}
	app.Payload = payload

	if err := s.store.Update(ctx, app); err != nil {
		s.purgeAttachments(ctx, staged)
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict,
				"application was modified concurrently, retry")
		}
		return nil, notFoundOr(err, "application not found")
	}

	for _, old := range replaced {
		if err := s.vault.Delete(ctx, old); err != nil {
			s.logger.WarnContext(ctx, "replaced attachment cleanup failed",
				"path", old,
				"error", err,
			)
		}
	}

	s.emit(ctx, audit.Event{
		Action:        audit.ActionApplicationUpdated,
		ApplicationID: app.ID.String(),
		DocumentType:  string(app.Type),
		Reference:     app.ReferenceNumber,
	})
	return app, nil
}

// checkReplacementSlots validates files against the slot set. Unlike
// submission, no slot is required: absent means keep the current file.
func (s *Service) checkReplacementSlots(pol policy.Policy, files map[string]vault.Upload) error {
	for slot, up := range files {
		if !pol.SlotNamed(slot) {
			return dErrors.Newf(dErrors.CodeInvalidInput, "unexpected file %q", slot)
		}
		if err := vault.ValidateUpload(up, s.maxUploadBytes); err != nil {
			return err
		}
	}
	return nil
}
