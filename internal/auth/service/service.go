// Package service implements account registration, login and the admin user
// directory.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"barangaylink/internal/audit"
	"barangaylink/internal/auth/models"
	"barangaylink/internal/auth/store"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/platform/sentinel"
	"barangaylink/pkg/requestcontext"
)

// TokenIssuer abstracts the JWT manager so tests can issue deterministic
// tokens.
type TokenIssuer interface {
	Issue(userID id.UserID, role id.Role, now time.Time) (string, time.Time, error)
}

// AuditRecorder decouples the service from the audit outbox wiring.
type AuditRecorder interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service orchestrates accounts.
type Service struct {
	users  store.UserStore
	tokens TokenIssuer
	logger *slog.Logger

	recorder AuditRecorder
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// New constructs a Service.
func New(users store.UserStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.recorder != nil {
		s.recorder.Emit(ctx, event)
	}
}

// Session is a successful login: the user plus their bearer token.
type Session struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Register creates a citizen account and logs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	user, err := models.NewUser(name, email, password, id.RoleCitizen)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create user")
	}

	s.emit(ctx, audit.Event{
		Action:  audit.ActionUserRegistered,
		ActorID: user.ID.String(),
	})
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)

	return s.startSession(ctx, user)
}

// Login verifies credentials. Disabled accounts cannot log in. The error for
// a wrong password and an unknown email is identical.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load user")
	}
	if !user.CheckPassword(password) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if !user.Active {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is disabled")
	}

	s.emit(ctx, audit.Event{
		Action:  audit.ActionUserLoggedIn,
		ActorID: user.ID.String(),
	})
	return s.startSession(ctx, user)
}

func (s *Service) startSession(ctx context.Context, user *models.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Me returns the calling user's own account.
func (s *Service) Me(ctx context.Context) (*models.User, error) {
	caller := requestcontext.Caller(ctx)
	if caller.ID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.users.FindByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load user")
	}
	return user, nil
}

// ListUsers pages the user directory. Admin only.
func (s *Service) ListUsers(ctx context.Context, search string, page, perPage int) (store.UserPage, error) {
	if !requestcontext.Caller(ctx).IsAdmin() {
		return store.UserPage{}, dErrors.New(dErrors.CodeForbidden, "admin access required")
	}
	return s.users.List(ctx, search, page, perPage)
}

// SetUserStatus enables or disables an account. Admin only; admins cannot
// disable themselves.
func (s *Service) SetUserStatus(ctx context.Context, userID id.UserID, active bool) (*models.User, error) {
	caller := requestcontext.Caller(ctx)
	if !caller.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin access required")
	}
	if caller.ID == userID && !active {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "cannot disable your own account")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load user")
	}
	if user.Active == active {
		return user, nil
	}
	user.Active = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update user")
	}

	s.emit(ctx, audit.Event{
		Action: audit.ActionUserStatusChanged,
		Reason: statusWord(active),
	})
	s.logger.InfoContext(ctx, "user status changed",
		"user_id", userID,
		"active", active,
	)
	return user, nil
}

func statusWord(active bool) string {
	if active {
		return "enabled"
	}
	return "disabled"
}
