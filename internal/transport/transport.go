// Package transport defines the messaging boundary of the tracker: the
// inbound events a chat platform delivers and the outbound replies the
// navigation machine produces. The machine depends only on these contracts;
// platform clients live in subpackages.
package transport

import "context"

// Button is one inline control under a message.
type Button struct {
	Label string
	Token string
}

// Message is one outbound reply: text plus optional button rows.
type Message struct {
	Text    string
	Buttons [][]Button
}

// Command is an inbound slash command.
type Command struct {
	UserID string
	Name   string
	Args   []string
}

// ButtonTap is an inbound tap on an inline button. MessageID identifies the
// message carrying the button so the reply can edit it in place.
type ButtonTap struct {
	UserID    string
	MessageID string
	Token     string
}

// Text is an inbound plain-text message.
type Text struct {
	UserID string
	Body   string
}

// Sender delivers replies to a user.
type Sender interface {
	SendMessage(ctx context.Context, userID string, msg Message) error
	EditMessage(ctx context.Context, userID, messageID string, msg Message) error
}

// Handler consumes inbound events. The platform client serializes calls per
// user; events from different users may arrive concurrently.
type Handler interface {
	HandleCommand(ctx context.Context, cmd Command) error
	HandleTap(ctx context.Context, tap ButtonTap) error
	HandleText(ctx context.Context, text Text) error
}
