package service

import (
	"context"

	"barangaylink/internal/application/policy"
	"barangaylink/internal/audit"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/requestcontext"
)

// Delete removes an application. Owners may withdraw while the record sits in
// its draft status; admins may delete anything. Stored attachments are purged
// best-effort after the record is gone.
func (s *Service) Delete(ctx context.Context, appID id.ApplicationID) error {
	ctx, span := s.tracer.Start(ctx, "application.Delete")
	defer span.End()

	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return notFoundOr(err, "application not found")
	}
	pol := policy.MustFor(app.Type)

	caller := requestcontext.Caller(ctx)
	if caller.ID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !caller.IsAdmin() {
		if !app.IsOwnedBy(caller.ID) {
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		if !pol.OwnerCanDelete {
			return dErrors.Newf(dErrors.CodeForbidden, "%s applications cannot be withdrawn", app.Type)
		}
		if app.Status != pol.DraftStatus {
			return dErrors.Newf(dErrors.CodeInvalidTransition,
				"only %s applications can be withdrawn", pol.DraftStatus)
		}
	}

	if err := s.store.Delete(ctx, appID); err != nil {
		return notFoundOr(err, "application not found")
	}
	s.purgeAttachments(ctx, app.Attachments)

	if s.metrics != nil {
		s.metrics.IncrementDeleted(string(app.Type))
	}
	s.emit(ctx, audit.Event{
		Action:        audit.ActionApplicationDeleted,
		ApplicationID: app.ID.String(),
		DocumentType:  string(app.Type),
		Reference:     app.ReferenceNumber,
		FromStatus:    string(app.Status),
	})
	s.logger.InfoContext(ctx, "application deleted",
		"document_type", app.Type,
		"reference", app.ReferenceNumber,
	)
	return nil
}
