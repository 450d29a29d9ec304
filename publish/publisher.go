// Package publish announces stored rewrites on a Kafka topic.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rewritebot/types"

	"github.com/IBM/sarama"
)

// Publisher announces a stored rewrite.
type Publisher interface {
	Publish(ctx context.Context, a *types.RewrittenArticle) error
	Close() error
}

// Message is the JSON payload, keyed by rewrite ID.
type Message struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	OriginalURL string    `json:"original_url"`
	Slug        string    `json:"slug,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// KafkaPublisher sends synchronously and waits for all in-sync replicas.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// ProducerConfig returns the sarama settings the publisher needs.
func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	return cfg
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, a *types.RewrittenArticle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(Message{
		ID:          a.ID,
		SourceID:    a.SourceArticleID,
		Title:       a.Title,
		Category:    a.Category.String(),
		OriginalURL: a.OriginalURL,
		Slug:        a.Slug,
		CreatedAt:   a.CreatedAt,
	})
	if err != nil {
		return err
	}
	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(a.ID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", a.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// Nop discards everything. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, *types.RewrittenArticle) error { return nil }
func (Nop) Close() error                                           { return nil }
