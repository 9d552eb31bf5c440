package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrMessageGone is returned by a transport when the target message was
// deleted on the far side. It is permanent: retrying cannot help.
var ErrMessageGone = errors.New("message no longer exists")

// DeliveryFailure reports that every attempt of an outbound call failed.
type DeliveryFailure struct {
	Op       string
	Attempts int
	Err      error
}

func (e *DeliveryFailure) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *DeliveryFailure) Unwrap() error { return e.Err }

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

type RetryConfig struct {
	MaxAttempts int
	Base        time.Duration
	Source      string
}

// RetrySender puts every outbound call through the limiter and retries it
// with exponential backoff (base * 2^attempt) up to MaxAttempts times.
type RetrySender struct {
	transport Transport
	limiter   *Limiter
	tracker   Tracker
	cfg       RetryConfig
	log       *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	newID func() string
}

func NewRetrySender(t Transport, l *Limiter, tr Tracker, cfg RetryConfig, log *slog.Logger) *RetrySender {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Base <= 0 {
		cfg.Base = 500 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &RetrySender{
		transport: t,
		limiter:   l,
		tracker:   tr,
		cfg:       cfg,
		log:       log,
		sleep:     sleep,
		newID:     uuid.NewString,
	}
}

func (s *RetrySender) Send(ctx context.Context, msg Message) (MessageRef, error) {
	// correlation id for the audit trail, independent of the transport id
	correlationID := s.newID()

	var ref MessageRef
	err := s.do(ctx, "send to "+msg.Destination.String(), func(ctx context.Context) error {
		var err error
		ref, err = s.transport.Send(ctx, msg)
		return err
	})
	if err != nil {
		return MessageRef{}, err
	}

	if s.tracker != nil {
		rec := Record{
			MessageID:   correlationID,
			OrderID:     msg.OrderID,
			Source:      s.cfg.Source,
			Destination: msg.Destination.String(),
			Content:     content(msg),
			SentTime:    time.Now().UTC(),
		}
		if err := s.tracker.Track(ctx, rec); err != nil {
			s.log.Error("message tracking failed", "action", "persistence_failed",
				"order_id", msg.OrderID, "message_id", correlationID, "error", err)
		}
	}
	return ref, nil
}

func (s *RetrySender) EditControls(ctx context.Context, ref MessageRef, controls Controls) error {
	return s.do(ctx, "edit controls", func(ctx context.Context) error {
		return s.transport.EditControls(ctx, ref, controls)
	})
}

func (s *RetrySender) AnswerAction(ctx context.Context, actionID, text string, alert bool) error {
	return s.do(ctx, "answer action", func(ctx context.Context) error {
		return s.transport.AnswerAction(ctx, actionID, text, alert)
	})
}

func (s *RetrySender) do(ctx context.Context, op string, call func(context.Context) error) error {
	var last error
	attempts := 0
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Acquire(ctx); err != nil {
				return &DeliveryFailure{Op: op, Attempts: attempts, Err: err}
			}
		}
		attempts++
		if last = call(ctx); last == nil {
			return nil
		}
		if IsPermanent(last) {
			break
		}
		if attempt == s.cfg.MaxAttempts-1 {
			break
		}
		backoff := s.cfg.Base * time.Duration(1<<attempt)
		s.log.Warn("outbound call failed, retrying", "op", op, "attempt", attempts, "backoff", backoff, "error", last)
		if err := s.sleep(ctx, backoff); err != nil {
			last = err
			break
		}
	}
	return &DeliveryFailure{Op: op, Attempts: attempts, Err: last}
}

func content(m Message) string {
	if m.Text != "" {
		return m.Text
	}
	if m.Location != nil {
		return fmt.Sprintf("location %.6f,%.6f", m.Location.Latitude, m.Location.Longitude)
	}
	return ""
}
