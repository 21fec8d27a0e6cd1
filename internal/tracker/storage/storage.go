// Package storage defines persistence contracts for tracker state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Session is the durable per-user record. It carries identity and linkage
// facts plus the most recent state of each view so a restart resumes at the
// last rendered screen. Stored page indices are re-clamped on render, never
// trusted verbatim.
type Session struct {
	UserID             string               `json:"user_id"`
	WalletAddress      string               `json:"wallet_address,omitempty"`
	SelectedCollection string               `json:"selected_collection,omitempty"`
	LastView           domain.ViewKind      `json:"last_view,omitempty"`
	AwaitingSearchTerm bool                 `json:"awaiting_search_term,omitempty"`
	Search             *domain.SearchView   `json:"search,omitempty"`
	Owned              *domain.OwnedView    `json:"owned,omitempty"`
	Progress           *domain.ProgressView `json:"progress,omitempty"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// SessionStore persists sessions: a durable map keyed by user id with
// per-key atomicity only.
type SessionStore interface {
	Load(ctx context.Context, userID string) (Session, error)
	Save(ctx context.Context, session Session) error
}

// NameIndex maps collection ids to display names.
type NameIndex interface {
	// Search returns collections whose name contains term,
	// case-insensitively, ordered by name, capped at limit rows.
	Search(ctx context.Context, term string, limit int) ([]domain.CollectionRef, error)
	// Name returns the stored display name; ErrNotFound when unknown.
	Name(ctx context.Context, collectionID string) (string, error)
	// Upsert stores or replaces a display name.
	Upsert(ctx context.Context, collectionID, name string) error
}
