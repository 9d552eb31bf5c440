package relay

import (
	"github.com/ariefcatur/go-order-relay/internal/action"
	"github.com/ariefcatur/go-order-relay/internal/notify"
	"github.com/ariefcatur/go-order-relay/internal/orders"
)

const timesPerRow = 3

func btn(label string, a action.Action) notify.Button {
	return notify.Button{Label: label, Action: a}
}

func mainControls(id string) notify.Controls {
	return notify.Controls{
		{btn("✅ Accept", action.Accept(id)), btn("❌ Reject", action.Reject(id))},
		{btn("📣 Complaint", action.Complain(id))},
	}
}

// timeControls lists the preparation times; the selected one is marked and,
// once a time is set, the Ready button appears.
func (r *Relay) timeControls(id, selected string) notify.Controls {
	opts := append(append([]string(nil), r.cfg.TimeOptions...), OpenEndedTime)
	var (
		c   notify.Controls
		row []notify.Button
	)
	for _, t := range opts {
		label := t + " min"
		if t == OpenEndedTime {
			label = "More than " + t[:len(t)-1] + " min"
		}
		if t == selected {
			label = "✅ " + label
		}
		row = append(row, btn(label, action.SelectTime(id, t)))
		if len(row) == timesPerRow {
			c = append(c, row)
			row = nil
		}
	}
	if len(row) > 0 {
		c = append(c, row)
	}
	if selected != "" {
		c = append(c, []notify.Button{btn("📦 Ready", action.Ready(id))})
	}
	return append(c, []notify.Button{btn("⬅️ Back", action.Back(id))})
}

func confirmRejectControls(id string) notify.Controls {
	return notify.Controls{
		{btn("❌ Yes, reject", action.ConfirmReject(id))},
		{btn("⬅️ Back", action.Back(id))},
	}
}

func reasonControls(id string) notify.Controls {
	c := make(notify.Controls, 0, len(action.Reasons)+1)
	for _, reason := range action.Reasons {
		c = append(c, []notify.Button{btn(reasonLabels[reason], action.Report(id, reason))})
	}
	return append(c, []notify.Button{btn("⬅️ Back", action.Back(id))})
}

func deliveryControls(id string, people []orders.DeliveryPerson) notify.Controls {
	c := make(notify.Controls, 0, len(people)+1)
	for i, p := range people {
		c = append(c, []notify.Button{btn("🛵 "+p.Name, action.SelectDelivery(id, i))})
	}
	return append(c, []notify.Button{btn("⬅️ Back", action.Back(id))})
}

func dispatchedControls(id string) notify.Controls {
	return notify.Controls{{btn("📣 Complaint", action.Complain(id))}}
}

// backControls is the keyboard Back returns to. A dispatched order only
// keeps the complaint path.
func backControls(o orders.Order) notify.Controls {
	if o.Status == orders.StatusDispatched {
		return dispatchedControls(o.ID)
	}
	return mainControls(o.ID)
}
