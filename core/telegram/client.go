package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"

	"github.com/AvaProtocol/ercx-bot/core/conversation"
	"github.com/AvaProtocol/ercx-bot/pkg/logger"
	"github.com/AvaProtocol/ercx-bot/version"
)

const DefaultAPIURL = "https://api.telegram.org"

type Config struct {
	Token  string
	APIURL string
	// PollTimeout is the long polling window of getUpdates.
	PollTimeout time.Duration
}

// Client is a minimal Bot API client. It implements conversation.Messenger.
type Client struct {
	rest        *resty.Client
	pollTimeout time.Duration
	logger      logger.Logger
}

func NewClient(c Config, log logger.Logger) *Client {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 30 * time.Second
	}

	rest := resty.New().
		SetBaseURL(strings.TrimRight(c.APIURL, "/") + "/bot" + c.Token).
		// a long poll holds the request open for the whole window
		SetTimeout(c.PollTimeout + 15*time.Second).
		SetHeaders(map[string]string{
			"Content-Type": "application/json",
			"User-Agent":   "ercx-bot/" + version.Get(),
		})

	return &Client{
		rest:        rest,
		pollTimeout: c.PollTimeout,
		logger:      logger.OrNop(log),
	}
}

func (c *Client) call(ctx context.Context, method string, body any, result any) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("telegram %s: decoding response with status %d: %w", method, resp.StatusCode(), err)
	}
	if !envelope.OK {
		code := envelope.ErrorCode
		if code == 0 {
			code = resp.StatusCode()
		}
		return &APIError{Method: method, Code: code, Description: envelope.Description}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("telegram %s: decoding result: %w", method, err)
	}
	return nil
}

// GetUpdates long polls for updates with an id of at least offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(c.pollTimeout.Seconds()),
		AllowedUpdates: []string{"message", "callback_query"},
	}, &updates)
	return updates, err
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *conversation.Keyboard) (int64, error) {
	req := sendMessageRequest{ChatID: chatID, Text: text}
	if keyboard != nil {
		req.ReplyMarkup = markup(keyboard)
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	return c.call(ctx, "editMessageText", editMessageRequest{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}, nil)
}

// AnswerCallback stops the loading indicator of a pressed inline button.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: callbackID}, nil)
}

func markup(k *conversation.Keyboard) any {
	if k.Inline {
		return InlineKeyboardMarkup{
			InlineKeyboard: lo.Map(k.Rows, func(row []conversation.Button, _ int) []InlineKeyboardButton {
				return lo.Map(row, func(b conversation.Button, _ int) InlineKeyboardButton {
					return InlineKeyboardButton{Text: b.Text, CallbackData: lo.Ternary(b.Data != "", b.Data, b.Text)}
				})
			}),
		}
	}

	return ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: lo.Map(k.Rows, func(row []conversation.Button, _ int) []KeyboardButton {
			return lo.Map(row, func(b conversation.Button, _ int) KeyboardButton {
				return KeyboardButton{Text: b.Text}
			})
		}),
	}
}
