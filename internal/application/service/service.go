// Package service implements the application lifecycle engine: one engine
// serves every document type, consulting the type's policy for the parts that
// differ.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"barangaylink/internal/application/metrics"
	"barangaylink/internal/application/store"
	"barangaylink/internal/audit"
	"barangaylink/internal/vault"
)

// casRetries bounds how many times a transition is replayed when another
// writer bumps the version underneath it.
const casRetries = 3

// AuditRecorder decouples the engine from the audit outbox wiring.
type AuditRecorder interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service orchestrates the lifecycle of citizen applications across all
// document types.
type Service struct {
	store  store.ApplicationStore
	vault  vault.Vault
	logger *slog.Logger

	recorder AuditRecorder
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	maxUploadBytes int64
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditRecorder(r AuditRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) { s.maxUploadBytes = n }
}

// New constructs a Service.
func New(st store.ApplicationStore, v vault.Vault, opts ...Option) *Service {
	s := &Service{
		store:  st,
		vault:  v,
		logger: slog.Default(),
		tracer: otel.Tracer("barangaylink/application"),
	}
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

func (s *Service) observeCreate(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveCreate(start)
	}
}

func (s *Service) observeTransition(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(start)
	}
}

func (s *Service) observeList(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveList(start)
	}
}
