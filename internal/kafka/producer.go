package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer queues messages on an inbox and writes them from one goroutine,
// so publishing never blocks a handler on the broker.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *slog.Logger
}

func NewProducer(brokers []string, topic string, buf int, log *slog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}, buf, log)
}

func newProducer(w messageWriter, buf int, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Start runs the write loop until ctx is done, then flushes what is queued.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m := <-p.inbox:
				p.write(context.Background(), m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(context.Background(), m)
		default:
			if err := p.w.Close(); err != nil {
				p.log.Warn("kafka writer close", "error", err)
			}
			return
		}
	}
}

func (p *Producer) write(ctx context.Context, m kafka.Message) {
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error("kafka publish failed", "action", "publish_failed", "key", string(m.Key), "error", err)
	}
}

// Publish enqueues a message. A full inbox drops the message rather than
// stalling the caller; lifecycle events are best-effort.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	m := kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}
	select {
	case p.inbox <- m:
	default:
		p.log.Warn("kafka inbox full, event dropped", "action", "publish_dropped", "key", string(key))
	}
}

// WaitClosed blocks until the write loop has flushed and exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
