// Package classify turns free-form channel text into typed events.
//
// Kind predicates are evaluated in a fixed priority order, most specific
// first. A rating or cancellation notice also carries an order id, so the
// new-order rule must stay last or it would swallow them.
package classify

import (
	"regexp"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindEcho
	KindRating
	KindCancellation
	KindReminder
	KindTimeLeft
	KindNewOrder
)

func (k Kind) String() string {
	switch k {
	case KindEcho:
		return "echo"
	case KindRating:
		return "rating"
	case KindCancellation:
		return "cancellation"
	case KindReminder:
		return "reminder"
	case KindTimeLeft:
		return "time_left"
	case KindNewOrder:
		return "new_order"
	}
	return "unknown"
}

type CancelVariant int

const (
	CancelStandard CancelVariant = iota
	CancelReport
)

// Phrases recognised in channel posts.
const (
	// RelayMarker prefixes every notice this relay posts to the channel, so
	// its own posts are never re-read as customer events.
	RelayMarker = "🏪 "

	cancelMarker   = "🚫 Cancelled order"
	reportPhrase   = "report created"
	receivedPhrase = "received order"
	ratedPhrase    = "rated it"
	reminderPhrase = "reminder from customer"
)

var timeLeftPattern = regexp.MustCompile(`(?is)how much longer.*order #[0-9]+`)

// Event is a classified channel post. Zero values mean absent.
type Event struct {
	Kind        Kind
	OrderID     string
	OrderNumber int
	Rating      int
	Comment     string
	Cancel      CancelVariant
	Text        string
}

type Rule struct {
	Kind  Kind
	Match func(text string) bool
}

// Rules is the registration order. Reordering it changes behaviour.
var Rules = []Rule{
	{KindEcho, IsEcho},
	{KindRating, IsRating},
	{KindCancellation, IsCancellation},
	{KindReminder, IsReminder},
	{KindTimeLeft, IsTimeLeft},
	{KindNewOrder, IsNewOrder},
}

func IsEcho(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), RelayMarker)
}

func IsRating(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, receivedPhrase) && strings.Contains(lower, ratedPhrase)
}

func IsCancellation(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), cancelMarker)
}

func IsReminder(text string) bool {
	return strings.Contains(strings.ToLower(text), reminderPhrase)
}

func IsTimeLeft(text string) bool {
	return timeLeftPattern.MatchString(text)
}

func IsNewOrder(text string) bool {
	_, ok := OrderID(text)
	return ok
}

// Classify returns the event for text, or false when no rule matches.
func Classify(text string) (Event, bool) {
	kind := KindUnknown
	for _, r := range Rules {
		if r.Match(text) {
			kind = r.Kind
			break
		}
	}
	if kind == KindUnknown {
		return Event{}, false
	}

	ev := Event{Kind: kind, Text: text}
	ev.OrderID, _ = OrderID(text)
	ev.OrderNumber, _ = OrderNumber(text)
	switch kind {
	case KindRating:
		ev.Rating, _ = Rating(text)
		ev.Comment, _ = Comment(text)
	case KindCancellation:
		if strings.Contains(strings.ToLower(text), reportPhrase) {
			ev.Cancel = CancelReport
		}
	}
	return ev, true
}
