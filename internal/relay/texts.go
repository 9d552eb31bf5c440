package relay

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-order-relay/internal/action"
	"github.com/ariefcatur/go-order-relay/internal/classify"
	"github.com/ariefcatur/go-order-relay/internal/orders"
)

const (
	textUnexpected     = "❌ An unexpected error occurred while processing the action. It has been logged for review."
	textOrderGone      = "⚠️ This order is no longer available."
	textNotAllowed     = "⚠️ That step is not possible for this order right now."
	textUnknownAction  = "⚠️ Unknown action."
	textNoDelivery     = "⚠️ No delivery persons are registered. Add one before marking orders ready."
	textDeliveryFailed = "⚠️ Could not load the delivery persons. Try again in a moment."
	textBadCandidate   = "⚠️ That delivery person is no longer on the list."
	textLocationNote   = "\n\n📍 *Location attached*"
	textStatsUsage     = "Usage: /stats <today|yesterday|this_month|last_month|this_year|last_year|total>"
	textStatsFailed    = "⚠️ Could not load statistics right now."
)

var reasonLabels = map[action.Reason]string{
	action.ReasonDeliveryNotFound: "Delivery person could not find the customer",
	action.ReasonBadPhone:         "Phone number is wrong",
	action.ReasonBadLocation:      "Location is wrong",
	action.ReasonOther:            "Other",
}

func idLine(id string) string {
	return fmt.Sprintf("🆔 *Order ID:* `%s`", id)
}

func minutes(t string) string {
	if strings.HasSuffix(t, "+") {
		return "more than " + strings.TrimSuffix(t, "+") + " minutes"
	}
	return t + " minutes"
}

func cashierNewOrder(o orders.Order) string {
	return fmt.Sprintf("🆕 *New order from the channel:*\n\n%s\n\n📌 Order ID: `%s`", o.Details, o.ID)
}

// Channel notices start with classify.RelayMarker so they are never read back
// as customer events.

func channelAccepted(o orders.Order) string {
	return fmt.Sprintf("%s🔥 *The order is being prepared!*\n\n%s\n⏳ *Preparation time:* %s",
		classify.RelayMarker, idLine(o.ID), minutes(o.SelectedTime))
}

func cashierTimeSet(o orders.Order) string {
	return fmt.Sprintf("✅ Preparation time for order `%s` set to %s.", o.ID, minutes(o.SelectedTime))
}

func channelRejected(o orders.Order) string {
	return fmt.Sprintf("%s❌ *The restaurant has rejected this order.*\n\n%s", classify.RelayMarker, idLine(o.ID))
}

func cashierRejected(o orders.Order) string {
	return fmt.Sprintf("❌ Order `%s` rejected.", o.ID)
}

func channelComplaint(o orders.Order, r action.Reason) string {
	return fmt.Sprintf("%s⚠️ *The order was cancelled after a complaint.*\n\n%s\n📝 *Reason:* %s",
		classify.RelayMarker, idLine(o.ID), reasonLabels[r])
}

func complaintReport(o orders.Order, r action.Reason) string {
	return fmt.Sprintf("📣 *Complaint*\n\n%s\n📝 *Reason:* %s\n\n%s", idLine(o.ID), reasonLabels[r], o.Details)
}

func cashierComplained(o orders.Order, r action.Reason) string {
	return fmt.Sprintf("📣 Complaint filed for order `%s`: %s.", o.ID, reasonLabels[r])
}

func channelDispatched(o orders.Order, p orders.DeliveryPerson) string {
	return fmt.Sprintf("%s🛵 *The order is on its way!*\n\n%s\n👤 *Delivery:* %s\n📞 *Phone:* %s",
		classify.RelayMarker, idLine(o.ID), p.Name, p.Phone)
}

func cashierDispatched(o orders.Order, p orders.DeliveryPerson) string {
	return fmt.Sprintf("🛵 Order `%s` handed to %s (%s).", o.ID, p.Name, p.Phone)
}

func cashierReady(o orders.Order) string {
	return fmt.Sprintf("📦 Order `%s` is ready. Pick the delivery person:", o.ID)
}

func cashierRated(o orders.Order, ev classify.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Customer received order %s", orderLabel(o))
	if ev.Rating > 0 {
		fmt.Fprintf(&b, " and rated it %s", classify.Stars(ev.Rating))
	}
	if ev.Comment != "" {
		fmt.Fprintf(&b, "\n💬 Comment: %s", ev.Comment)
	}
	return b.String()
}

func cashierCancelled(o orders.Order, v classify.CancelVariant) string {
	if v == classify.CancelReport {
		return fmt.Sprintf("🚫 Customer cancelled order %s because of a delay and filed a report.", orderLabel(o))
	}
	return fmt.Sprintf("🚫 Customer cancelled order %s.", orderLabel(o))
}

func cashierForward(kind classify.Kind, text string) string {
	prefix := "🔔 *Customer reminder:*"
	if kind == classify.KindTimeLeft {
		prefix = "⏳ *Customer asks how much longer:*"
	}
	return prefix + "\n\n" + classify.Truncate(text, 3500)
}

func orderLabel(o orders.Order) string {
	if o.Number > 0 {
		return fmt.Sprintf("#%d (`%s`)", o.Number, o.ID)
	}
	return fmt.Sprintf("`%s`", o.ID)
}

func statsText(p orders.Period, st orders.Stats) string {
	return fmt.Sprintf("📊 *Statistics (%s)*\n\nOrders: %d\nTotal: %d", strings.ReplaceAll(string(p), "_", " "), st.Count, st.Total)
}

func liveOrdersText(list []orders.Order) string {
	if len(list) == 0 {
		return "No live orders."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Live orders: %d\n", len(list))
	for _, o := range list {
		fmt.Fprintf(&b, "\n%s  %s", o.ID, o.Status)
		if o.Number > 0 {
			fmt.Fprintf(&b, "  #%d", o.Number)
		}
		if o.SelectedTime != "" {
			fmt.Fprintf(&b, "  %s", minutes(o.SelectedTime))
		}
	}
	return b.String()
}
