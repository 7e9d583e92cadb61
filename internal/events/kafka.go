package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaPublisher forwards events to a topic for downstream consumers
// (BI pipelines, master-data alerting).
type KafkaPublisher struct {
	writer *kafka.Writer
	log    logrus.FieldLogger
}

func NewKafkaPublisher(brokers []string, topic string, log logrus.FieldLogger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Async:    true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.WithError(err).WithField("count", len(messages)).Error("kafka delivery failed")
			}
		},
	}
	return &KafkaPublisher{writer: w, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	value, err := json.Marshal(e)
	if err != nil {
		p.log.WithError(err).WithField("event", e.Type).Error("failed to encode event")
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.Type), Value: value}); err != nil {
		p.log.WithError(err).WithField("event", e.Type).Warn("failed to enqueue event")
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
