// Package action encodes the cashier's interactive choices into callback
// payloads and back.
//
// Wire form: v1|<kind>|<order id>[|<arg>]. Every field is query-escaped, so a
// '|' (or any other byte) inside an order identifier never collides with the
// separator.
package action

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	version = "v1"
	sep     = "|"

	// MaxLen is the callback payload ceiling imposed by the messaging API.
	MaxLen = 64
)

var (
	ErrMalformed = errors.New("malformed action payload")
	ErrTooLong   = errors.New("action payload exceeds limit")
)

type Kind string

const (
	KindAccept         Kind = "acc"
	KindReject         Kind = "rej"
	KindConfirmReject  Kind = "crj"
	KindBack           Kind = "bck"
	KindComplain       Kind = "cmp"
	KindReport         Kind = "rpt"
	KindSelectTime     Kind = "tim"
	KindReady          Kind = "rdy"
	KindSelectDelivery Kind = "dlv"
)

// Reason is the complaint subtype picked by the cashier.
type Reason string

const (
	ReasonDeliveryNotFound Reason = "delivery"
	ReasonBadPhone         Reason = "phone"
	ReasonBadLocation      Reason = "location"
	ReasonOther            Reason = "other"
)

var Reasons = []Reason{ReasonDeliveryNotFound, ReasonBadPhone, ReasonBadLocation, ReasonOther}

func (r Reason) Valid() bool {
	for _, v := range Reasons {
		if r == v {
			return true
		}
	}
	return false
}

// Action is one decoded cashier choice. Only the fields relevant to Kind are
// set: Reason for KindReport, Time for KindSelectTime, Index for
// KindSelectDelivery.
type Action struct {
	Kind    Kind
	OrderID string
	Reason  Reason
	Time    string
	Index   int
}

func Accept(orderID string) Action        { return Action{Kind: KindAccept, OrderID: orderID} }
func Reject(orderID string) Action        { return Action{Kind: KindReject, OrderID: orderID} }
func ConfirmReject(orderID string) Action { return Action{Kind: KindConfirmReject, OrderID: orderID} }
func Back(orderID string) Action          { return Action{Kind: KindBack, OrderID: orderID} }
func Complain(orderID string) Action      { return Action{Kind: KindComplain, OrderID: orderID} }
func Ready(orderID string) Action         { return Action{Kind: KindReady, OrderID: orderID} }

func Report(orderID string, r Reason) Action {
	return Action{Kind: KindReport, OrderID: orderID, Reason: r}
}

func SelectTime(orderID, t string) Action {
	return Action{Kind: KindSelectTime, OrderID: orderID, Time: t}
}

func SelectDelivery(orderID string, index int) Action {
	return Action{Kind: KindSelectDelivery, OrderID: orderID, Index: index}
}

func (a Action) arg() (string, bool) {
	switch a.Kind {
	case KindReport:
		return string(a.Reason), true
	case KindSelectTime:
		return a.Time, true
	case KindSelectDelivery:
		return strconv.Itoa(a.Index), true
	}
	return "", false
}

func (a Action) Encode() (string, error) {
	if err := a.validate(); err != nil {
		return "", err
	}
	parts := []string{version, string(a.Kind), url.QueryEscape(a.OrderID)}
	if arg, ok := a.arg(); ok {
		parts = append(parts, url.QueryEscape(arg))
	}
	s := strings.Join(parts, sep)
	if len(s) > MaxLen {
		return "", fmt.Errorf("%w: %d bytes for order %q", ErrTooLong, len(s), a.OrderID)
	}
	return s, nil
}

func Decode(s string) (Action, error) {
	parts := strings.Split(s, sep)
	if len(parts) < 3 || parts[0] != version {
		return Action{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	id, err := url.QueryUnescape(parts[2])
	if err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	a := Action{Kind: Kind(parts[1]), OrderID: id}

	_, wantArg := a.arg()
	switch {
	case wantArg && len(parts) != 4, !wantArg && len(parts) != 3:
		return Action{}, fmt.Errorf("%w: wrong field count in %q", ErrMalformed, s)
	}
	if wantArg {
		arg, err := url.QueryUnescape(parts[3])
		if err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch a.Kind {
		case KindReport:
			a.Reason = Reason(arg)
		case KindSelectTime:
			a.Time = arg
		case KindSelectDelivery:
			if a.Index, err = strconv.Atoi(arg); err != nil {
				return Action{}, fmt.Errorf("%w: index %q", ErrMalformed, arg)
			}
		}
	}
	if err := a.validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}

func (a Action) validate() error {
	if a.OrderID == "" {
		return fmt.Errorf("%w: empty order id", ErrMalformed)
	}
	switch a.Kind {
	case KindAccept, KindReject, KindConfirmReject, KindBack, KindComplain, KindReady:
		return nil
	case KindReport:
		if !a.Reason.Valid() {
			return fmt.Errorf("%w: unknown reason %q", ErrMalformed, a.Reason)
		}
	case KindSelectTime:
		if !ValidTime(a.Time) {
			return fmt.Errorf("%w: time %q", ErrMalformed, a.Time)
		}
	case KindSelectDelivery:
		if a.Index < 0 {
			return fmt.Errorf("%w: negative index", ErrMalformed)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformed, a.Kind)
	}
	return nil
}

// ValidTime accepts a minute count ("15") or the open-ended "more than N"
// sentinel ("90+").
func ValidTime(t string) bool {
	t = strings.TrimSuffix(t, "+")
	n, err := strconv.Atoi(t)
	return err == nil && n > 0
}
