package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"barangaylink/internal/audit"
	"barangaylink/internal/auth/store"
	"barangaylink/internal/auth/token"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite
	users   *store.Memory
	tokens  *token.Manager
	outbox  *audit.MemoryStore
	service *Service
	now     time.Time
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.users = store.NewMemory()
	s.tokens = token.NewManager("test-signing-key", time.Hour)
	s.outbox = audit.NewMemoryStore()
	s.service = New(s.users, s.tokens,
		WithLogger(logger),
		WithAuditRecorder(audit.NewRecorder(s.outbox, logger)),
	)
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
}

func (s *AuthServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *AuthServiceSuite) asCaller(c id.Caller) context.Context {
	return requestcontext.WithCaller(s.ctx(), c)
}

func (s *AuthServiceSuite) register(email string) *Session {
	sess, err := s.service.Register(s.ctx(), "Juan Dela Cruz", email, "kalayaan1898")
	s.Require().NoError(err)
	return sess
}

func (s *AuthServiceSuite) TestRegister() {
	sess := s.register("juan@example.com")

	s.Equal(id.RoleCitizen, sess.User.Role)
	s.True(sess.User.Active)
	s.NotEmpty(sess.Token)
	s.Equal(s.now.Add(time.Hour), sess.ExpiresAt)

	s.Run("token verifies back to the user", func() {
		caller, err := s.tokens.VerifyToken(sess.Token)
		s.Require().NoError(err)
		s.Equal(sess.User.ID, caller.ID)
		s.Equal(id.RoleCitizen, caller.Role)
	})

	s.Run("registration is audited", func() {
		events := s.outbox.Events()
		s.Require().NotEmpty(events)
		s.Equal(audit.ActionUserRegistered, events[0].Action)
	})
}

func (s *AuthServiceSuite) TestRegisterDuplicateEmail() {
	s.register("juan@example.com")

	_, err := s.service.Register(s.ctx(), "Impostor", "JUAN@example.com", "password123")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *AuthServiceSuite) TestRegisterWeakPassword() {
	_, err := s.service.Register(s.ctx(), "Juan", "juan@example.com", "short")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AuthServiceSuite) TestLogin() {
	s.register("juan@example.com")

	sess, err := s.service.Login(s.ctx(), "juan@example.com", "kalayaan1898")
	s.Require().NoError(err)
	s.NotEmpty(sess.Token)
}

func (s *AuthServiceSuite) TestLoginErrorsAreIndistinguishable() {
	s.register("juan@example.com")

	_, wrongPassword := s.service.Login(s.ctx(), "juan@example.com", "not-the-password")
	_, unknownEmail := s.service.Login(s.ctx(), "nobody@example.com", "kalayaan1898")

	s.True(dErrors.HasCode(wrongPassword, dErrors.CodeUnauthorized))
	s.True(dErrors.HasCode(unknownEmail, dErrors.CodeUnauthorized))
	s.Equal(wrongPassword.Error(), unknownEmail.Error())
}

func (s *AuthServiceSuite) TestLoginDisabledAccount() {
	sess := s.register("juan@example.com")
	admin := id.Caller{ID: id.NewUserID(), Role: id.RoleAdmin}

	_, err := s.service.SetUserStatus(s.asCaller(admin), sess.User.ID, false)
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx(), "juan@example.com", "kalayaan1898")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *AuthServiceSuite) TestMe() {
	sess := s.register("juan@example.com")

	me, err := s.service.Me(s.asCaller(id.Caller{ID: sess.User.ID, Role: id.RoleCitizen}))
	s.Require().NoError(err)
	s.Equal(sess.User.Email, me.Email)

	s.Run("anonymous is refused", func() {
		_, err := s.service.Me(s.ctx())
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("deleted account invalidates the session", func() {
		_, err := s.service.Me(s.asCaller(id.Caller{ID: id.NewUserID(), Role: id.RoleCitizen}))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthServiceSuite) TestListUsers() {
	s.register("juan@example.com")
	s.register("maria@example.com")
	admin := id.Caller{ID: id.NewUserID(), Role: id.RoleAdmin}

	page, err := s.service.ListUsers(s.asCaller(admin), "", 1, 10)
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	s.Run("search by email", func() {
		page, err := s.service.ListUsers(s.asCaller(admin), "maria", 1, 10)
		s.Require().NoError(err)
		s.Equal(1, page.Total)
	})

	s.Run("citizens are refused", func() {
		_, err := s.service.ListUsers(s.asCaller(id.Caller{ID: id.NewUserID(), Role: id.RoleCitizen}), "", 1, 10)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *AuthServiceSuite) TestSetUserStatus() {
	sess := s.register("juan@example.com")
	admin := id.Caller{ID: id.NewUserID(), Role: id.RoleAdmin}

	user, err := s.service.SetUserStatus(s.asCaller(admin), sess.User.ID, false)
	s.Require().NoError(err)
	s.False(user.Active)

	s.Run("no-op when already in that state", func() {
		before := len(s.outbox.Events())
		_, err := s.service.SetUserStatus(s.asCaller(admin), sess.User.ID, false)
		s.Require().NoError(err)
		s.Len(s.outbox.Events(), before)
	})

	s.Run("admins cannot disable themselves", func() {
		_, err := s.service.SetUserStatus(s.asCaller(admin), admin.ID, false)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown user", func() {
		_, err := s.service.SetUserStatus(s.asCaller(admin), id.NewUserID(), true)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
