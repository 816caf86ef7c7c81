package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "barangaylink/pkg/domain"
	"barangaylink/pkg/requestcontext"
)

type capturePublisher struct {
	published []Event
	fail      error
}

func (p *capturePublisher) Publish(ctx context.Context, events []Event) error {
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, events...)
	return nil
}

func (p *capturePublisher) Close() {}

type AuditSuite struct {
	suite.Suite
	store  *MemoryStore
	logger *slog.Logger
}

func TestAuditSuite(t *testing.T) {
	suite.Run(t, new(AuditSuite))
}

func (s *AuditSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *AuditSuite) TestRecorderEnrichesFromContext() {
	caller := id.Caller{ID: id.NewUserID(), Role: id.RoleCitizen}
	now := time.Date(2026, 4, 2, 14, 0, 0, 0, time.UTC)

	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithCaller(ctx, caller)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", "curl/8")

	NewRecorder(s.store, s.logger).Emit(ctx, Event{Action: ActionApplicationSubmitted})

	events := s.store.Events()
	s.Require().Len(events, 1)
	e := events[0]
	s.NotZero(e.ID)
	s.Equal(now, e.Timestamp)
	s.Equal(caller.ID.String(), e.ActorID)
	s.Equal("citizen", e.ActorRole)
	s.Equal("req-42", e.RequestID)
	s.Equal("203.0.113.9", e.IP)
	s.Equal("curl/8", e.UserAgent)
}

func (s *AuditSuite) TestRecorderKeepsExplicitActor() {
	ctx := requestcontext.WithCaller(context.Background(),
		id.Caller{ID: id.NewUserID(), Role: id.RoleAdmin})

	NewRecorder(s.store, s.logger).Emit(ctx, Event{
		Action:  ActionUserStatusChanged,
		ActorID: "someone-else",
	})

	s.Equal("someone-else", s.store.Events()[0].ActorID)
}

func (s *AuditSuite) TestWorkerDrainsAndMarksPublished() {
	recorder := NewRecorder(s.store, s.logger)
	for range 3 {
		recorder.Emit(context.Background(), Event{Action: ActionStatusChanged})
	}

	pub := &capturePublisher{}
	w := NewWorker(s.store, pub, s.logger)

	s.Require().NoError(w.drainOnce(context.Background()))
	s.Len(pub.published, 3)

	s.Run("drained events stay drained", func() {
		s.Require().NoError(w.drainOnce(context.Background()))
		s.Len(pub.published, 3)
	})
}

func (s *AuditSuite) TestWorkerLeavesEventsOnPublishFailure() {
	NewRecorder(s.store, s.logger).Emit(context.Background(), Event{Action: ActionStatusChanged})

	pub := &capturePublisher{fail: errors.New("broker down")}
	w := NewWorker(s.store, pub, s.logger)
	s.Error(w.drainOnce(context.Background()))

	pub.fail = nil
	s.Require().NoError(w.drainOnce(context.Background()))
	s.Len(pub.published, 1)
}

func (s *AuditSuite) TestWorkerBatches() {
	recorder := NewRecorder(s.store, s.logger)
	for range 5 {
		recorder.Emit(context.Background(), Event{Action: ActionStatusChanged})
	}

	pub := &capturePublisher{}
	w := NewWorker(s.store, pub, s.logger)
	w.batchSize = 2

	s.Require().NoError(w.drainOnce(context.Background()))
	s.Len(pub.published, 5)
}
