package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/collectiontracker/internal/transport"
)

type update struct {
	ID            int64          `json:"update_id"`
	Message       *incoming      `json:"message"`
	CallbackQuery *callbackQuery `json:"callback_query"`
}

type incoming struct {
	MessageID int64   `json:"message_id"`
	Chat      chatRef `json:"chat"`
	Text      string  `json:"text"`
}

type callbackQuery struct {
	ID      string    `json:"id"`
	Data    string    `json:"data"`
	Message *incoming `json:"message"`
}

type chatRef struct {
	ID int64 `json:"id"`
}

type getUpdatesParams struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// laneWork is one inbound event bound for a user's lane.
type laneWork func(ctx context.Context)

// Poller long-polls getUpdates and dispatches inbound events to a handler.
// Events for the same user run in order on a dedicated lane; different users
// run concurrently.
type Poller struct {
	client  *Client
	handler transport.Handler
	logf    func(format string, args ...any)

	mu    sync.Mutex
	lanes map[string]chan laneWork
	wg    sync.WaitGroup
}

// NewPoller creates a Poller dispatching to handler. logf receives dispatch
// failures; it must not be nil.
func NewPoller(client *Client, handler transport.Handler, logf func(format string, args ...any)) *Poller {
	return &Poller{
		client:  client,
		handler: handler,
		logf:    logf,
		lanes:   make(map[string]chan laneWork),
	}
}

// Run polls for updates until ctx is canceled, then drains the user lanes
// and returns. Poll failures are logged and retried after a short pause.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, err := p.fetchUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logf("telegram poll: %v", err)
			select {
			case <-time.After(3 * time.Second):
			case <-ctx.Done():
			}
			continue
		}
		for _, u := range updates {
			if u.ID >= offset {
				offset = u.ID + 1
			}
			p.dispatch(ctx, u)
		}
		if ctx.Err() != nil {
			break
		}
	}

	p.mu.Lock()
	for _, lane := range p.lanes {
		close(lane)
	}
	p.lanes = nil
	p.mu.Unlock()
	p.wg.Wait()
	return ctx.Err()
}

func (p *Poller) fetchUpdates(ctx context.Context, offset int64) ([]update, error) {
	params := getUpdatesParams{
		Offset:         offset,
		Timeout:        pollTimeoutSeconds,
		AllowedUpdates: []string{"message", "callback_query"},
	}
	var updates []update
	if err := p.client.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (p *Poller) dispatch(ctx context.Context, u update) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		q := u.CallbackQuery
		tap := transport.ButtonTap{
			UserID:    strconv.FormatInt(q.Message.Chat.ID, 10),
			MessageID: strconv.FormatInt(q.Message.MessageID, 10),
			Token:     q.Data,
		}
		callbackID := q.ID
		p.submit(ctx, tap.UserID, func(ctx context.Context) {
			// Acknowledge first so the client stops its spinner even when
			// handling fails.
			if err := p.client.answerCallback(ctx, callbackID); err != nil {
				p.logf("telegram answer callback: %v", err)
			}
			if err := p.handler.HandleTap(ctx, tap); err != nil {
				p.logf("telegram tap %q: %v", tap.Token, err)
			}
		})
	case u.Message != nil:
		userID := strconv.FormatInt(u.Message.Chat.ID, 10)
		body := strings.TrimSpace(u.Message.Text)
		if name, args, ok := parseCommand(body); ok {
			cmd := transport.Command{UserID: userID, Name: name, Args: args}
			p.submit(ctx, userID, func(ctx context.Context) {
				if err := p.handler.HandleCommand(ctx, cmd); err != nil {
					p.logf("telegram command /%s: %v", cmd.Name, err)
				}
			})
			return
		}
		if body == "" {
			return
		}
		text := transport.Text{UserID: userID, Body: body}
		p.submit(ctx, userID, func(ctx context.Context) {
			if err := p.handler.HandleText(ctx, text); err != nil {
				p.logf("telegram text: %v", err)
			}
		})
	}
}

// parseCommand splits "/name arg1 arg2" into its parts. A "@botname" suffix
// on the command, as sent in group chats, is stripped.
func parseCommand(body string) (name string, args []string, ok bool) {
	if !strings.HasPrefix(body, "/") {
		return "", nil, false
	}
	fields := strings.Fields(body[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	name = fields[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}

func (p *Poller) submit(ctx context.Context, userID string, work laneWork) {
	p.mu.Lock()
	if p.lanes == nil {
		p.mu.Unlock()
		return
	}
	lane, ok := p.lanes[userID]
	if !ok {
		lane = make(chan laneWork, 16)
		p.lanes[userID] = lane
		p.wg.Add(1)
		go p.runLane(ctx, lane)
	}
	p.mu.Unlock()

	select {
	case lane <- work:
	default:
		// A full lane means the user is flooding faster than we handle;
		// dropping keeps one slow handler from stalling the poll loop.
		p.logf("telegram dispatch: lane full for user %s, dropping event", userID)
	}
}

func (p *Poller) runLane(ctx context.Context, lane chan laneWork) {
	defer p.wg.Done()
	for work := range lane {
		work(ctx)
	}
}
