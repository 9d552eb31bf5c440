// Package telegram adapts the Telegram Bot API to notify.Transport and feeds
// incoming updates to the relay.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ariefcatur/go-order-relay/internal/notify"
)

// botAPI is the part of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Chats struct {
	Cashier    int64
	Channel    int64
	Complaints int64
}

func (c Chats) id(d notify.Destination) (int64, error) {
	switch d {
	case notify.DestCashier:
		return c.Cashier, nil
	case notify.DestChannel:
		return c.Channel, nil
	case notify.DestComplaints:
		return c.Complaints, nil
	}
	return 0, fmt.Errorf("unknown destination %d", d)
}

// Client implements notify.Transport. It makes one API call per method; the
// retry and rate policy lives in notify.RetrySender.
type Client struct {
	bot   botAPI
	chats Chats
}

func NewClient(bot botAPI, chats Chats) *Client {
	return &Client{bot: bot, chats: chats}
}

func (c *Client) Send(ctx context.Context, msg notify.Message) (notify.MessageRef, error) {
	chatID, err := c.chats.id(msg.Destination)
	if err != nil {
		return notify.MessageRef{}, notify.Permanent(err)
	}

	if msg.Location != nil && msg.Text == "" {
		sent, err := c.bot.Send(tgbotapi.NewLocation(chatID, msg.Location.Latitude, msg.Location.Longitude))
		if err != nil {
			return notify.MessageRef{}, mapError(err)
		}
		return notify.MessageRef{Destination: msg.Destination, MessageID: sent.MessageID}, nil
	}

	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	if msg.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(msg.Controls) > 0 {
		kb, err := keyboard(msg.Controls)
		if err != nil {
			return notify.MessageRef{}, notify.Permanent(err)
		}
		cfg.ReplyMarkup = kb
	}

	sent, err := c.bot.Send(cfg)
	if err != nil && msg.Markdown && isParseError(err) {
		// Customer text can carry unbalanced markup; deliver it plain.
		cfg.ParseMode = ""
		sent, err = c.bot.Send(cfg)
	}
	if err != nil {
		return notify.MessageRef{}, mapError(err)
	}
	return notify.MessageRef{Destination: msg.Destination, MessageID: sent.MessageID}, nil
}

func (c *Client) EditControls(ctx context.Context, ref notify.MessageRef, controls notify.Controls) error {
	chatID, err := c.chats.id(ref.Destination)
	if err != nil {
		return notify.Permanent(err)
	}
	kb := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	if len(controls) > 0 {
		if kb, err = keyboard(controls); err != nil {
			return notify.Permanent(err)
		}
	}
	_, err = c.bot.Request(tgbotapi.NewEditMessageReplyMarkup(chatID, ref.MessageID, kb))
	if err != nil && isNotModified(err) {
		return nil
	}
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (c *Client) AnswerAction(ctx context.Context, actionID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(actionID, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(actionID, text)
	}
	if _, err := c.bot.Request(cb); err != nil {
		return mapError(err)
	}
	return nil
}

func keyboard(controls notify.Controls) (tgbotapi.InlineKeyboardMarkup, error) {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(controls))
	for _, r := range controls {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			data, err := b.Action.Encode()
			if err != nil {
				return tgbotapi.InlineKeyboardMarkup{}, err
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, data))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), nil
}

// mapError maps API errors onto the retry policy. Client errors (4xx other
// than 429) will not succeed on retry.
func mapError(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	desc := strings.ToLower(apiErr.Message)
	switch {
	case strings.Contains(desc, "message to edit not found"), strings.Contains(desc, "message not found"):
		return notify.Permanent(fmt.Errorf("%w: %s", notify.ErrMessageGone, apiErr.Message))
	case apiErr.Code == 429:
		return err
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return notify.Permanent(err)
	}
	return err
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "message is not modified")
}

func isParseError(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Message), "can't parse entities")
}
