// Package telegram implements the transport contracts against the Telegram
// Bot API: an outbound sender and a long-poll update loop that dispatches
// inbound events to a handler, serialized per user.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/collectiontracker/internal/transport"
)

const (
	// DefaultEndpoint is the public Bot API host.
	DefaultEndpoint = "https://api.telegram.org"

	defaultRequestTimeout = 80 * time.Second
	pollTimeoutSeconds    = 50
	maxErrorBodyBytes     = 16 * 1024
)

// Config defines the inputs for the Bot API client.
type Config struct {
	Token    string
	Endpoint string
	// HTTPClient overrides the default client; mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the Telegram Bot API. It implements transport.Sender.
type Client struct {
	base       string
	httpClient *http.Client
}

// New creates a Client. The bot token is required.
func New(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		base:       strings.TrimRight(endpoint, "/") + "/bot" + token,
		httpClient: httpClient,
	}, nil
}

// APIError reports a failed Bot API call.
type APIError struct {
	Method      string
	Status      int
	Description string
	Err         error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("telegram %s: %v", e.Method, e.Err)
	case e.Description != "":
		return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.Status, e.Description)
	default:
		return fmt.Sprintf("telegram %s: status %d", e.Method, e.Status)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return &APIError{Method: method, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+method, bytes.NewReader(body))
	if err != nil {
		return &APIError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return &APIError{Method: method, Status: resp.StatusCode, Err: err}
	}
	var envelope apiEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return &APIError{Method: method, Status: resp.StatusCode, Err: err}
	}
	if !envelope.OK {
		return &APIError{Method: method, Status: resp.StatusCode, Description: envelope.Description}
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return &APIError{Method: method, Status: resp.StatusCode, Err: err}
		}
	}
	return nil
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

func markupFor(msg transport.Message) *replyMarkup {
	if len(msg.Buttons) == 0 {
		return nil
	}
	rows := make([][]inlineButton, 0, len(msg.Buttons))
	for _, row := range msg.Buttons {
		buttons := make([]inlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineButton{Text: b.Label, CallbackData: b.Token})
		}
		rows = append(rows, buttons)
	}
	return &replyMarkup{InlineKeyboard: rows}
}

type sendMessageParams struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type editMessageParams struct {
	ChatID      int64        `json:"chat_id"`
	MessageID   int64        `json:"message_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

func chatID(userID string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(userID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", userID, err)
	}
	return id, nil
}

// SendMessage delivers a reply. Text longer than the chunk budget is split
// into several messages; only the first chunk carries the buttons.
func (c *Client) SendMessage(ctx context.Context, userID string, msg transport.Message) error {
	chat, err := chatID(userID)
	if err != nil {
		return err
	}
	chunks := transport.SplitMessage(msg.Text, transport.MaxChunkChars)
	for i, chunk := range chunks {
		params := sendMessageParams{ChatID: chat, Text: chunk}
		if i == 0 {
			params.ReplyMarkup = markupFor(msg)
		}
		if err := c.call(ctx, "sendMessage", params, nil); err != nil {
			return err
		}
	}
	return nil
}

// EditMessage rewrites a previously sent message in place. Text beyond the
// chunk budget is truncated; an edit cannot grow into extra messages.
func (c *Client) EditMessage(ctx context.Context, userID, messageID string, msg transport.Message) error {
	chat, err := chatID(userID)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(strings.TrimSpace(messageID), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", messageID, err)
	}
	text := msg.Text
	if len(text) > transport.MaxChunkChars {
		text = transport.SplitMessage(text, transport.MaxChunkChars)[0]
	}
	params := editMessageParams{ChatID: chat, MessageID: id, Text: text, ReplyMarkup: markupFor(msg)}
	return c.call(ctx, "editMessageText", params, nil)
}

func (c *Client) answerCallback(ctx context.Context, callbackID string) error {
	params := struct {
		CallbackQueryID string `json:"callback_query_id"`
	}{CallbackQueryID: callbackID}
	return c.call(ctx, "answerCallbackQuery", params, nil)
}
