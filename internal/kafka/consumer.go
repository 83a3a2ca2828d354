package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jmehdipour/crmbeat/internal/config"
)

// Consumer is a thin wrapper around segmentio/kafka-go Reader.
type Consumer struct {
	r *kafka.Reader
}

// NewConsumer builds a group consumer for the purge event topic.
func NewConsumer(cfg config.KafkaConfig) *Consumer {
	min := cfg.MinBytes
	if min <= 0 {
		min = 1 << 10 // 1KB
	}
	max := cfg.MaxBytes
	if max <= 0 {
		max = 10 << 20 // 10MB
	}
	ci := time.Duration(cfg.CommitInterval) * time.Millisecond
	if ci <= 0 {
		ci = time.Second
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "crmbeat-archiver"
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        groupID,
		Topic:          cfg.Topic,
		MinBytes:       min,
		MaxBytes:       max,
		CommitInterval: ci,
		MaxWait:        50 * time.Millisecond,
	})

	return &Consumer{r: r}
}

type Message = kafka.Message

func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	return c.r.FetchMessage(ctx)
}

// Commit acknowledges one or more fetched messages. The archiver commits
// a whole batch after the archive write succeeds.
func (c *Consumer) Commit(ctx context.Context, msgs ...Message) error {
	return c.r.CommitMessages(ctx, msgs...)
}

func (c *Consumer) Close() error { return c.r.Close() }
