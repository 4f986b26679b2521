package repository

import (
	"context"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/repository"
	pkgkafka "SalesPulse/pkg/kafka"
	applogger "SalesPulse/pkg/logger"
)

// KafkaAlertPublisher implements AlertPublisher for Kafka. Alerts are keyed
// by group so one channel's alerts stay ordered on a partition.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates Kafka publisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) repository.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishRedFlags(ctx context.Context, alerts []models.RedFlagAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(alerts))
	for i, a := range alerts {
		msgs[i] = pkgkafka.Message{Key: []byte(a.Group), Value: a}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaAlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// LogAlertPublisher writes alerts to the log when no broker is configured.
type LogAlertPublisher struct {
	log *applogger.Logger
}

func NewLogAlertPublisher(log *applogger.Logger) repository.AlertPublisher {
	return &LogAlertPublisher{log: log}
}

func (p *LogAlertPublisher) PublishRedFlags(_ context.Context, alerts []models.RedFlagAlert) error {
	for _, a := range alerts {
		p.log.Warn("red flag",
			applogger.String("id", a.ID),
			applogger.String("kind", a.Kind),
			applogger.String("day", a.Day),
			applogger.String("group", a.Group),
			applogger.String("bucket", a.Bucket),
			applogger.Int("actual", a.Actual),
			applogger.Int("benchmark", a.Benchmark),
			applogger.String("percent_diff", a.PercentDiff),
		)
	}
	return nil
}

func (p *LogAlertPublisher) Close() error { return nil }
