package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"barangaylink/internal/platform/config"
	dErrors "barangaylink/pkg/domain-errors"
)

// Publisher ships outbox batches to a downstream sink.
type Publisher interface {
	Publish(ctx context.Context, events []Event) error
	Close()
}

// KafkaPublisher produces audit events to a kafka topic, keyed by application
// id so one application's trail stays ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
// Returns nil (no error) when no brokers are configured: events then stay in
// the outbox until a publisher is deployed.
func NewKafkaPublisher(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "connect kafka")
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, cfg.Topic)
	if err != nil {
		client.Close()
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "ensure audit topic")
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			// Tolerated at startup; a real broker problem will surface when
			// the worker tries to produce.
			logger.Warn("create audit topic", "topic", res.Topic, "error", res.Err)
		}
	}
	return &KafkaPublisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "encode audit event")
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(e.ApplicationID),
			Value: body,
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "produce audit events")
	}
	return nil
}

func (p *KafkaPublisher) Close() { p.client.Close() }
