package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/collectiontracker/internal/transport"
)

type apiCall struct {
	Method string
	Params map[string]any
}

// botServer fakes the Bot API, recording every call and answering with the
// queued results per method (defaulting to ok:true with an empty result).
type botServer struct {
	t *testing.T

	mu      sync.Mutex
	calls   []apiCall
	results map[string][]string
}

func newBotServer(t *testing.T) (*botServer, *Client) {
	t.Helper()
	bs := &botServer{t: t, results: make(map[string][]string)}
	srv := httptest.NewServer(http.HandlerFunc(bs.handle))
	t.Cleanup(srv.Close)

	client, err := New(Config{Token: "test-token", Endpoint: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return bs, client
}

func (bs *botServer) handle(w http.ResponseWriter, r *http.Request) {
	prefix := "/bottest-token/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		bs.t.Errorf("unexpected path %q", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	method := strings.TrimPrefix(r.URL.Path, prefix)

	var params map[string]any
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		bs.t.Errorf("decode %s params: %v", method, err)
	}

	bs.mu.Lock()
	bs.calls = append(bs.calls, apiCall{Method: method, Params: params})
	body := `{"ok":true,"result":{}}`
	if method == "getUpdates" {
		body = `{"ok":true,"result":[]}`
	}
	if queue := bs.results[method]; len(queue) > 0 {
		body = queue[0]
		bs.results[method] = queue[1:]
	}
	bs.mu.Unlock()

	fmt.Fprint(w, body)
}

func (bs *botServer) queue(method string, bodies ...string) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.results[method] = append(bs.results[method], bodies...)
}

func (bs *botServer) recorded() []apiCall {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return append([]apiCall(nil), bs.calls...)
}

func TestSendMessageSingleChunkWithButtons(t *testing.T) {
	bs, client := newBotServer(t)

	msg := transport.Message{
		Text: "pick one",
		Buttons: [][]transport.Button{
			{{Label: "Prev", Token: "find:prev"}, {Label: "Next", Token: "find:next"}},
		},
	}
	if err := client.SendMessage(context.Background(), "42", msg); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	calls := bs.recorded()
	if len(calls) != 1 || calls[0].Method != "sendMessage" {
		t.Fatalf("expected one sendMessage call, got %v", calls)
	}
	params := calls[0].Params
	if params["chat_id"] != float64(42) {
		t.Errorf("chat_id = %v, want 42", params["chat_id"])
	}
	if params["text"] != "pick one" {
		t.Errorf("text = %v", params["text"])
	}
	markup, ok := params["reply_markup"].(map[string]any)
	if !ok {
		t.Fatalf("missing reply_markup: %v", params)
	}
	rows, _ := markup["inline_keyboard"].([]any)
	if len(rows) != 1 {
		t.Fatalf("inline_keyboard rows = %v", markup)
	}
	row, _ := rows[0].([]any)
	if len(row) != 2 {
		t.Fatalf("row = %v", row)
	}
	first, _ := row[0].(map[string]any)
	if first["text"] != "Prev" || first["callback_data"] != "find:prev" {
		t.Errorf("first button = %v", first)
	}
}

func TestSendMessageSplitsLongTextButtonsOnFirstChunk(t *testing.T) {
	bs, client := newBotServer(t)

	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, strings.Repeat("x", 60))
	}
	msg := transport.Message{
		Text:    strings.Join(lines, "\n"),
		Buttons: [][]transport.Button{{{Label: "Close", Token: "prog:close"}}},
	}
	if err := client.SendMessage(context.Background(), "42", msg); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	calls := bs.recorded()
	if len(calls) < 2 {
		t.Fatalf("expected multiple sendMessage calls, got %d", len(calls))
	}
	for i, call := range calls {
		_, hasMarkup := call.Params["reply_markup"]
		wantMarkup := i == 0
		if hasMarkup != wantMarkup {
			t.Errorf("call %d: reply_markup present = %v, want %v", i, hasMarkup, wantMarkup)
		}
		if text, _ := call.Params["text"].(string); len(text) > transport.MaxChunkChars {
			t.Errorf("call %d: chunk of %d chars exceeds budget", i, len(text))
		}
	}
}

func TestEditMessage(t *testing.T) {
	bs, client := newBotServer(t)

	msg := transport.Message{Text: "updated"}
	if err := client.EditMessage(context.Background(), "42", "1007", msg); err != nil {
		t.Fatalf("EditMessage: %v", err)
	}

	calls := bs.recorded()
	if len(calls) != 1 || calls[0].Method != "editMessageText" {
		t.Fatalf("expected one editMessageText call, got %v", calls)
	}
	params := calls[0].Params
	if params["message_id"] != float64(1007) {
		t.Errorf("message_id = %v, want 1007", params["message_id"])
	}
	if params["text"] != "updated" {
		t.Errorf("text = %v", params["text"])
	}
}

func TestSendMessageAPIErrorSurfacesDescription(t *testing.T) {
	bs, client := newBotServer(t)
	bs.queue("sendMessage", `{"ok":false,"description":"Bad Request: chat not found"}`)

	err := client.SendMessage(context.Background(), "42", transport.Message{Text: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Description != "Bad Request: chat not found" {
		t.Errorf("description = %q", apiErr.Description)
	}
}

func TestSendMessageRejectsNonNumericChatID(t *testing.T) {
	_, client := newBotServer(t)
	if err := client.SendMessage(context.Background(), "not-a-chat", transport.Message{Text: "hi"}); err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		body     string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{"/start", "start", nil, true},
		{"/FindCollection drag queen", "findcollection", []string{"drag", "queen"}, true},
		{"/start@trackerbot", "start", nil, true},
		{"plain text", "", nil, false},
		{"/", "", nil, false},
	}
	for _, tt := range tests {
		name, args, ok := parseCommand(tt.body)
		if ok != tt.wantOK || name != tt.wantName {
			t.Errorf("parseCommand(%q) = %q, %v; want %q, %v", tt.body, name, ok, tt.wantName, tt.wantOK)
			continue
		}
		if len(args) != len(tt.wantArgs) {
			t.Errorf("parseCommand(%q) args = %v, want %v", tt.body, args, tt.wantArgs)
			continue
		}
		for i := range args {
			if args[i] != tt.wantArgs[i] {
				t.Errorf("parseCommand(%q) args = %v, want %v", tt.body, args, tt.wantArgs)
				break
			}
		}
	}
}

// recordingHandler collects dispatched events.
type recordingHandler struct {
	mu       sync.Mutex
	commands []transport.Command
	taps     []transport.ButtonTap
	texts    []transport.Text
}

func (h *recordingHandler) HandleCommand(_ context.Context, cmd transport.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, cmd)
	return nil
}

func (h *recordingHandler) HandleTap(_ context.Context, tap transport.ButtonTap) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taps = append(h.taps, tap)
	return nil
}

func (h *recordingHandler) HandleText(_ context.Context, text transport.Text) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.texts = append(h.texts, text)
	return nil
}

func TestPollerDispatchesUpdates(t *testing.T) {
	bs, client := newBotServer(t)
	bs.queue("getUpdates", `{"ok":true,"result":[
		{"update_id":1,"message":{"message_id":10,"chat":{"id":42},"text":"/setcollection 7777"}},
		{"update_id":2,"message":{"message_id":11,"chat":{"id":42},"text":"drag queen"}},
		{"update_id":3,"callback_query":{"id":"cb1","data":"prog:next","message":{"message_id":12,"chat":{"id":42}}}}
	]}`)

	handler := &recordingHandler{}
	poller := NewPoller(client, handler, t.Logf)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx)
	}()

	deadline := time.After(5 * time.Second)
	for {
		handler.mu.Lock()
		ready := len(handler.commands) == 1 && len(handler.texts) == 1 && len(handler.taps) == 1
		handler.mu.Unlock()
		if ready {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for dispatch")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if got := handler.commands[0]; got.Name != "setcollection" || got.UserID != "42" || len(got.Args) != 1 || got.Args[0] != "7777" {
		t.Errorf("command = %+v", got)
	}
	if got := handler.texts[0]; got.Body != "drag queen" || got.UserID != "42" {
		t.Errorf("text = %+v", got)
	}
	if got := handler.taps[0]; got.Token != "prog:next" || got.MessageID != "12" {
		t.Errorf("tap = %+v", got)
	}

	// The tap must have been acknowledged.
	answered := false
	for _, call := range bs.recorded() {
		if call.Method == "answerCallbackQuery" {
			answered = true
			if call.Params["callback_query_id"] != "cb1" {
				t.Errorf("callback_query_id = %v", call.Params["callback_query_id"])
			}
		}
	}
	if !answered {
		t.Error("callback query was never answered")
	}

	// Offset must advance past the delivered batch.
	for _, call := range bs.recorded() {
		if call.Method != "getUpdates" {
			continue
		}
		if off, ok := call.Params["offset"].(float64); ok && off != 0 && off != 4 {
			t.Errorf("getUpdates offset = %v, want 4", off)
		}
	}
}
