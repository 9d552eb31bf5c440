package relay

import (
	"context"
	"errors"
	"strings"

	"github.com/ariefcatur/go-order-relay/internal/notify"
	"github.com/ariefcatur/go-order-relay/internal/orders"
)

// Stats answers a reporting query for this restaurant.
func (r *Relay) Stats(ctx context.Context, p orders.Period) (orders.Stats, error) {
	from, to, err := orders.Range(p, r.now())
	if err != nil {
		return orders.Stats{}, err
	}
	if r.store == nil {
		return orders.Stats{}, nil
	}
	return r.store.Stats(ctx, r.cfg.RestaurantID, from, to)
}

// HandleCommand serves the cashier's slash commands. Unknown commands are
// ignored.
func (r *Relay) HandleCommand(ctx context.Context, text string) {
	defer r.recoverHandler(ctx, "cashier_command", true)

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}
	// "/stats@SomeBot" is how group chats address a bot.
	cmd, _, _ := strings.Cut(fields[0], "@")
	switch cmd {
	case "/stats":
		period := orders.PeriodToday
		if len(fields) > 1 {
			period = orders.Period(strings.ToLower(fields[1]))
		}
		msg := notify.Message{Destination: notify.DestCashier, Text: textStatsUsage}
		st, err := r.Stats(ctx, period)
		switch {
		case err == nil:
			msg.Text, msg.Markdown = statsText(period, st), true
		case errors.Is(err, orders.ErrUnknownPeriod):
		default:
			r.log.Error("stats query failed", "action", "persistence_failed", "op", "stats", "error", err)
			msg.Text = textStatsFailed
		}
		_, _ = r.send(ctx, msg)
	case "/orders":
		_, _ = r.send(ctx, notify.Message{Destination: notify.DestCashier, Text: liveOrdersText(r.registry.List())})
	}
}
