package service

import (
	"context"
	"errors"
	"time"

	"barangaylink/internal/application/models"
	"barangaylink/internal/application/policy"
	"barangaylink/internal/audit"
	"barangaylink/internal/refnum"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/sentinel"
	"barangaylink/pkg/requestcontext"
)

// Transition moves an application to a new status, applying the type's
// side effects: issuing document numbers on approval, recording rejection
// reasons, clearing stale decision state, stamping timestamps.
//
// Admins may perform any move the status graph allows. Citizens may only
// cancel their own application when the type grants an owner cancel target.
//
// The mutation is replayed on version conflicts so concurrent clerks cannot
// silently overwrite each other; after casRetries the conflict surfaces.
func (s *Service) Transition(ctx context.Context, appID id.ApplicationID, to models.Status, decision models.Decision) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.Transition")
	defer span.End()
	defer s.observeTransition(time.Now())

	var lastErr error
	for attempt := 0; attempt <= casRetries; attempt++ {
		app, err := s.transitionOnce(ctx, appID, to, decision)
		if err == nil {
			return app, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	s.logger.WarnContext(ctx, "transition lost version race repeatedly",
		"application_id", appID,
		"to_status", to,
	)
	return nil, dErrors.Wrap(lastErr, dErrors.CodeConflict,
		"application was modified concurrently, retry")
}

func (s *Service) transitionOnce(ctx context.Context, appID id.ApplicationID, to models.Status, decision models.Decision) (*models.Application, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		return nil, notFoundOr(err, "application not found")
	}
	pol := policy.MustFor(app.Type)

	ownerCancel, err := s.authorizeTransition(ctx, pol, app, to)
	if err != nil {
		return nil, err
	}

	if !pol.CanTransition(app.Status, to) {
		if s.metrics != nil {
			s.metrics.IncrementTransitionRejected(string(app.Type))
		}
		return nil, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot move %s from %s to %s", app.Type, app.Status, to)
	}

	now := requestcontext.Now(ctx)
	from := app.Status
	issuedBefore := app.IssuedNumber

	if err := s.applyEffects(ctx, pol, app, to, decision, now); err != nil {
		return nil, err
	}
	app.Status = to

	caller := requestcontext.Caller(ctx)
	if caller.IsAdmin() {
		app.ProcessedBy = caller.ID
	}

	if err := s.store.Update(ctx, app); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, err
		}
		return nil, notFoundOr(err, "application not found")
	}

	if s.metrics != nil {
		s.metrics.IncrementTransition(string(app.Type), string(to))
	}
	action := audit.ActionStatusChanged
	if ownerCancel {
		action = audit.ActionAmbulanceCancelled
	}
	s.emit(ctx, audit.Event{
		Action:        action,
		ApplicationID: app.ID.String(),
		DocumentType:  string(app.Type),
		Reference:     app.ReferenceNumber,
		FromStatus:    string(from),
		ToStatus:      string(to),
		Reason:        decision.RejectionReason,
	})
	if app.IssuedNumber != "" && app.IssuedNumber != issuedBefore {
		s.emit(ctx, audit.Event{
			Action:        audit.ActionDocumentIssued,
			ApplicationID: app.ID.String(),
			DocumentType:  string(app.Type),
			Reference:     app.ReferenceNumber,
			ToStatus:      string(to),
		})
	}
	s.logger.InfoContext(ctx, "application status changed",
		"document_type", app.Type,
		"reference", app.ReferenceNumber,
		"from", from,
		"to", to,
	)
	return app, nil
}

// authorizeTransition returns whether this is an owner cancellation.
func (s *Service) authorizeTransition(ctx context.Context, pol policy.Policy, app *models.Application, to models.Status) (bool, error) {
	caller := requestcontext.Caller(ctx)
	if caller.ID.IsNil() {
		return false, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if caller.IsAdmin() {
		return false, nil
	}
	if !app.IsOwnedBy(caller.ID) {
		return false, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	if pol.OwnerCancelTarget == "" || to != pol.OwnerCancelTarget {
		return false, dErrors.New(dErrors.CodeForbidden, "only staff can change this status")
	}
	if pol.IsTerminal(app.Status) {
		return false, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot cancel a %s request", app.Status)
	}
	return true, nil
}

// applyEffects mutates the aggregate for the target status before persisting.
func (s *Service) applyEffects(ctx context.Context, pol policy.Policy, app *models.Application, to models.Status, decision models.Decision, now time.Time) error {
	switch {
	case to == models.StatusRejected:
		if decision.RejectionReason == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "a rejection reason is required")
		}
		app.RejectionReason = decision.RejectionReason
		app.ClearIssuance()

	case app.Status == models.StatusRejected:
		// Leaving rejected: the old verdict no longer applies.
		app.RejectionReason = ""
		app.RejectedAt = nil
	}

	if decision.AdminRemarks != "" {
		app.AdminRemarks = decision.AdminRemarks
	}

	if to == models.StatusApproved && pol.IssueMode != policy.IssueNone {
		if err := s.issueNumber(ctx, pol, app, now); err != nil {
			return err
		}
	}

	if ts := app.TimestampFor(to); ts != nil {
		if pol.TimestampMode == policy.TimestampOverwrite || *ts == nil {
			stamp := now
			*ts = &stamp
		}
	}
	return nil
}

// issueNumber assigns the official document number and validity window.
// Idempotent types keep an existing number across repeat approvals; the
// others regenerate so the newest approval governs.
func (s *Service) issueNumber(ctx context.Context, pol policy.Policy, app *models.Application, now time.Time) error {
	if pol.IssueIdempotent && app.IssuedNumber != "" {
		if app.ExpiresAt == nil {
			app.ExpiresAt = pol.ExpiryFrom(now)
		}
		return nil
	}

	var (
		number string
		err    error
	)
	switch pol.IssueMode {
	case policy.IssueRandom:
		number, err = refnum.RandomIssue(pol.IssuePrefix)
	case policy.IssueYearSequence:
		var last string
		last, err = s.store.LastIssuedNumber(ctx, app.Type, refnum.SequencePattern(pol.IssuePrefix, now))
		if err == nil {
			number, err = refnum.NextInSequence(pol.IssuePrefix, now, last)
		}
	default:
		return nil
	}
	if err != nil {
		return err
	}
	app.IssuedNumber = number
	app.ExpiresAt = pol.ExpiryFrom(now)
	return nil
}
