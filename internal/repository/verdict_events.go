package repository

import (
	"context"
	"fmt"

	"tradyxa/internal/domain/models"
	domrepo "tradyxa/internal/domain/repository"
	pkgkafka "tradyxa/pkg/kafka"
)

// KafkaVerdictEvents publishes a compact verdict event per snapshot refresh so
// downstream consumers react without polling the snapshot files.
type KafkaVerdictEvents struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaVerdictEvents(producer *pkgkafka.Producer, topic string) *KafkaVerdictEvents {
	return &KafkaVerdictEvents{producer: producer, topic: topic}
}

func (p *KafkaVerdictEvents) PublishVerdict(ctx context.Context, snap *models.TickerSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	return p.producer.Publish(ctx, p.topic, []byte(snap.Ticker), map[string]interface{}{
		"ticker":       snap.Ticker,
		"ts":           snap.GeneratedAt.Unix(),
		"direction":    string(snap.Verdict.Direction),
		"points":       snap.Verdict.Points,
		"confidence":   snap.Verdict.Confidence,
		"data_quality": string(snap.Verdict.DataQuality),
		"sizing":       snap.Sizing,
	})
}

var _ domrepo.VerdictEvents = (*KafkaVerdictEvents)(nil)
