package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-order-relay/internal/notify"
	"github.com/ariefcatur/go-order-relay/internal/relay"
)

const Source = "telegram"

// Handler is what the poller feeds; *relay.Relay implements it.
type Handler interface {
	HandleText(ctx context.Context, in relay.Inbound, text string)
	HandleLocation(ctx context.Context, in relay.Inbound, loc notify.Location, orderID string)
	HandleAction(ctx context.Context, req relay.ActionRequest) error
	HandleCommand(ctx context.Context, text string)
}

type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poller long-polls for updates and runs one handler goroutine per update,
// at most Workers at a time.
type Poller struct {
	Bot     updateSource
	Chats   Chats
	Handler Handler
	Workers int
	Timeout int // long-poll seconds
	Log     *slog.Logger
}

func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.Timeout
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}
	cfg.AllowedUpdates = []string{"message", "channel_post", "callback_query"}
	updates := p.Bot.GetUpdatesChan(cfg)
	defer p.Bot.StopReceivingUpdates()

	g := new(errgroup.Group)
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}
	p.Log.Info("telegram poller started", "workers", p.Workers)
	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return g.Wait()
			}
			g.Go(func() error {
				p.dispatch(ctx, u)
				return nil
			})
		}
	}
}

// dispatch routes one update. Posts from chats other than the configured
// ones are dropped.
func (p *Poller) dispatch(ctx context.Context, u tgbotapi.Update) {
	switch {
	case u.ChannelPost != nil:
		m := u.ChannelPost
		if m.Chat == nil || m.Chat.ID != p.Chats.Channel {
			return
		}
		in := relay.Inbound{Source: Source, EventID: fmt.Sprintf("%d:%d", m.Chat.ID, m.MessageID), MessageID: m.MessageID}
		if m.Location != nil {
			p.Handler.HandleLocation(ctx, in, notify.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}, "")
			return
		}
		text := m.Text
		if text == "" {
			text = m.Caption
		}
		if text != "" {
			p.Handler.HandleText(ctx, in, text)
		}

	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.Message == nil || q.Message.Chat == nil || q.Message.Chat.ID != p.Chats.Cashier {
			return
		}
		if err := p.Handler.HandleAction(ctx, relay.ActionRequest{ID: q.ID, Data: q.Data}); err != nil {
			p.Log.Debug("action outcome", "error", err)
		}

	case u.Message != nil:
		m := u.Message
		if m.Chat == nil || m.Chat.ID != p.Chats.Cashier || !m.IsCommand() {
			return
		}
		p.Handler.HandleCommand(ctx, m.Text)
	}
}
