package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the message is done and its offset may be
// committed.
type Handler func(ctx context.Context, m kafka.Message) error

const (
	maxAttempts = 3
	retryDelay  = 200 * time.Millisecond
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       messageReader
	workers int
	log     *slog.Logger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r messageReader, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{r: r, workers: workers, log: log}
}

// Start fetches until ctx is done. Messages are routed to a worker by a hash
// of their key, so events for one order are handled in the order they were
// produced. A group offset cannot leave a gap, so a message that still fails
// after maxAttempts is logged and committed rather than redelivered.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	route := &kafka.Hash{}
	slots := make([]int, c.workers)
	queues := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range queues {
		slots[i] = i
		queues[i] = make(chan kafka.Message, 128)
		wg.Add(1)
		go func(jobs <-chan kafka.Message) {
			defer wg.Done()
			for m := range jobs {
				c.handle(ctx, h, m)
			}
		}(queues[i])
	}
	defer wg.Wait()
	defer func() {
		for _, q := range queues {
			close(q)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		select {
		case queues[route.Balance(m, slots...)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) handle(ctx context.Context, h Handler, m kafka.Message) {
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			// Left uncommitted for the next group member.
			return
		}
		if attempt >= maxAttempts {
			c.log.Error("kafka handler gave up", "action", "message_skipped", "topic", m.Topic,
				"offset", m.Offset, "attempts", attempt, "error", err)
			break
		}
		c.log.Warn("kafka handler failed", "topic", m.Topic, "offset", m.Offset, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
	if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		c.log.Warn("kafka commit failed", "offset", m.Offset, "error", err)
	}
}
