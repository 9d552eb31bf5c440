package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const newOrderText = "🛒 *New order*\n" +
	"🔢 *Order number:* `42`\n" +
	"🆔 *Order ID:* `X1`\n" +
	"👤 Sam, 0999 123 456\n" +
	"🍕 2x Margherita\n" +
	"💰 Total: 12,500"

func TestOrderID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"current", "🆔 *Order ID:* `abc123`", "abc123", true},
		{"legacy", "Order ID: abc123", "abc123", true},
		{"legacy markdown", "📌 *Order ID:* `abc-9`", "abc-9", true},
		{"lowercase legacy", "order id:abc_1", "abc_1", true},
		{"absent", "hello there", "", false},
		{"label without value", "Order ID: ", "", false},
		{"longer word is not the label", "Order identifier: abc123", "", false},
		{"longer word then label", "Order identifier pending\nOrder ID: k7", "k7", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := OrderID(tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOrderNumber(t *testing.T) {
	n, ok := OrderNumber(newOrderText)
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	n, ok = OrderNumber("Order number: 17")
	assert.True(t, ok)
	assert.Equal(t, 17, n)

	n, ok = OrderNumber("✅ Customer received order #8 and rated it ⭐⭐")
	assert.True(t, ok)
	assert.Equal(t, 8, n)

	_, ok = OrderNumber("Order number: 99999999999999999999999")
	assert.False(t, ok, "overflow must read as absent")

	_, ok = OrderNumber("no number here")
	assert.False(t, ok)
}

func TestRating(t *testing.T) {
	n, ok := Rating("⭐ *Rating:* 4")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = Rating("Customer received order #3 and rated it ⭐⭐⭐")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = Rating("Customer received order #3 and rated it ⭐️⭐️")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = Rating("⭐ *Rating:* 9")
	assert.False(t, ok)

	_, ok = Rating("nothing")
	assert.False(t, ok)
}

func TestCommentAndTotal(t *testing.T) {
	c, ok := Comment("💬 *Comment:* very tasty ")
	assert.True(t, ok)
	assert.Equal(t, "very tasty", c)

	c, ok = Comment("Comment: late but hot")
	assert.True(t, ok)
	assert.Equal(t, "late but hot", c)

	_, ok = Comment("Comment:   ")
	assert.False(t, ok)

	total, ok := Total(newOrderText)
	assert.True(t, ok)
	assert.Equal(t, 12500, total)
}

func TestClassify_Priority(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind Kind
	}{
		{"new order", newOrderText, KindNewOrder},
		{"rating with id is not a new order",
			"✅ Customer received order #42 and rated it ⭐⭐⭐⭐\n🆔 *Order ID:* `X1`", KindRating},
		{"cancellation with id is not a new order",
			"🚫 Cancelled order #42 by the customer.\n🆔 *Order ID:* `X1`\nReason: customer hesitated", KindCancellation},
		{"reminder", "🔔 Reminder from customer about order #42", KindReminder},
		{"time left", "⏳ How much longer for order #42?", KindTimeLeft},
		{"own notice", RelayMarker + "Order rejected.\n🆔 *Order ID:* `X1`", KindEcho},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := Classify(tc.text)
			assert.True(t, ok)
			assert.Equal(t, tc.kind, ev.Kind)
		})
	}
}

func TestClassify_Miss(t *testing.T) {
	_, ok := Classify("good morning everyone")
	assert.False(t, ok)
}

func TestClassify_Fields(t *testing.T) {
	ev, ok := Classify("✅ Customer received order #42 and rated it ⭐⭐⭐⭐\n🆔 *Order ID:* `X1`\n💬 *Comment:* great")
	assert.True(t, ok)
	assert.Equal(t, "X1", ev.OrderID)
	assert.Equal(t, 42, ev.OrderNumber)
	assert.Equal(t, 4, ev.Rating)
	assert.Equal(t, "great", ev.Comment)

	ev, _ = Classify("🚫 Cancelled order #7 because of restaurant delay, report created.\nOrder ID: Z9")
	assert.Equal(t, CancelReport, ev.Cancel)
	assert.Equal(t, "Z9", ev.OrderID)
	assert.Equal(t, 7, ev.OrderNumber)

	ev, _ = Classify("🚫 Cancelled order #7, customer hesitated.\nOrder ID: Z9")
	assert.Equal(t, CancelStandard, ev.Cancel)
}

func TestRulesEndWithNewOrder(t *testing.T) {
	assert.Equal(t, KindNewOrder, Rules[len(Rules)-1].Kind)
}
