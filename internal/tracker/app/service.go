// Package app implements the tracker's navigation machine: it consumes
// commands, button taps, and plain text from the messaging transport, drives
// the search, owned-collections, and progress views, and persists every
// transition to the session store before replying.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/collectiontracker/internal/enjin"
	"github.com/louisbranch/collectiontracker/internal/tracker/cache"
	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
	"github.com/louisbranch/collectiontracker/internal/tracker/storage"
	"github.com/louisbranch/collectiontracker/internal/transport"
)

const (
	searchPageSize   = 8
	ownedPageSize    = 10
	progressPageSize = 20

	searchResultLimit = 400

	verifyAttempts = 60
	verifyInterval = 2 * time.Second
)

// UniverseProvider serves the full token list of a collection.
type UniverseProvider interface {
	Get(ctx context.Context, collectionID string, maxAge time.Duration, force bool) (cache.Universe, error)
}

// OwnershipProvider serves reconciled wallet ownership.
type OwnershipProvider interface {
	Serve(ctx context.Context, userID, address string) (cache.Snapshot, error)
	Refresh(ctx context.Context, userID, address string) (cache.Snapshot, error)
}

// Ledger covers the non-cached upstream operations: the wallet-link
// handshake, collection name lookups, and tracked-collection registration.
type Ledger interface {
	RequestAccountLink(ctx context.Context) (enjin.AccountLink, error)
	WaitForVerification(ctx context.Context, verificationID string, attempts int, interval time.Duration) (string, error)
	CollectionName(ctx context.Context, collectionID string) (string, error)
	AddToTracked(ctx context.Context, collectionIDs []string) error
}

// Config defines the collaborators of the navigation machine.
type Config struct {
	Sessions  storage.SessionStore
	Names     storage.NameIndex
	Universes UniverseProvider
	Ownership OwnershipProvider
	Ledger    Ledger
	Sender    transport.Sender

	// UniverseMaxAge overrides the default universe freshness window.
	UniverseMaxAge time.Duration
	// Logf receives background failures; defaults to log.Printf.
	Logf func(format string, args ...any)
}

// Service is the navigation machine. It implements transport.Handler. The
// transport serializes events per user, so per-session state needs no
// locking here.
type Service struct {
	sessions  storage.SessionStore
	names     storage.NameIndex
	universes UniverseProvider
	ownership OwnershipProvider
	ledger    Ledger
	sender    transport.Sender

	universeMaxAge time.Duration
	logf           func(format string, args ...any)
	clock          func() time.Time
}

// New creates a Service. All collaborators in cfg are required.
func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Sessions == nil:
		return nil, errors.New("session store is required")
	case cfg.Names == nil:
		return nil, errors.New("name index is required")
	case cfg.Universes == nil:
		return nil, errors.New("universe provider is required")
	case cfg.Ownership == nil:
		return nil, errors.New("ownership provider is required")
	case cfg.Ledger == nil:
		return nil, errors.New("ledger client is required")
	case cfg.Sender == nil:
		return nil, errors.New("sender is required")
	}
	maxAge := cfg.UniverseMaxAge
	if maxAge <= 0 {
		maxAge = cache.DefaultUniverseMaxAge
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(format string, args ...any) {}
	}
	return &Service{
		sessions:       cfg.Sessions,
		names:          cfg.Names,
		universes:      cfg.Universes,
		ownership:      cfg.Ownership,
		ledger:         cfg.Ledger,
		sender:         cfg.Sender,
		universeMaxAge: maxAge,
		logf:           logf,
		clock:          time.Now,
	}, nil
}

// loadSession returns the stored session or a fresh default for the user.
func (s *Service) loadSession(ctx context.Context, userID string) (storage.Session, error) {
	session, err := s.sessions.Load(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Session{UserID: userID}, nil
	}
	if err != nil {
		return storage.Session{}, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

// saveSession persists the session before the caller acknowledges the
// action, so a restart resumes at the last rendered view.
func (s *Service) saveSession(ctx context.Context, session *storage.Session) error {
	session.UpdatedAt = s.clock()
	if err := s.sessions.Save(ctx, *session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// displayName resolves a collection's display name, consulting the local
// index first and falling back to the ledger. Resolved names are stored for
// later searches. The collection id is returned when no name is known.
func (s *Service) displayName(ctx context.Context, collectionID string) string {
	name, err := s.names.Name(ctx, collectionID)
	if err == nil && name != "" {
		return name
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logf("name index lookup %s: %v", collectionID, err)
	}

	name, err = s.ledger.CollectionName(ctx, collectionID)
	if err != nil {
		s.logf("resolve collection name %s: %v", collectionID, err)
		return collectionID
	}
	if name == "" {
		return collectionID
	}
	if err := s.names.Upsert(ctx, collectionID, name); err != nil {
		s.logf("store collection name %s: %v", collectionID, err)
	}
	if err := s.ledger.AddToTracked(ctx, []string{collectionID}); err != nil {
		s.logf("track collection %s: %v", collectionID, err)
	}
	return name
}

// notice sends a plain-text message with no buttons.
func (s *Service) notice(ctx context.Context, userID, text string) error {
	return s.sender.SendMessage(ctx, userID, transport.Message{Text: text})
}

// editNotice rewrites a tapped message into a plain-text notice.
func (s *Service) editNotice(ctx context.Context, userID, messageID, text string) error {
	return s.sender.EditMessage(ctx, userID, messageID, transport.Message{Text: text})
}

// userMessage maps the recoverable error taxonomy onto user-facing notices.
// Unknown errors get a generic failure line; details go to the log.
func (s *Service) userMessage(err error) string {
	var upstream *enjin.UpstreamError
	switch {
	case errors.Is(err, domain.ErrNotLinked):
		return "No wallet linked yet. Use /connect to link one."
	case errors.Is(err, domain.ErrNoCollectionSelected):
		return "No collection selected. Use /findcollection or /setcollection <id> first."
	case errors.Is(err, domain.ErrEmptyResult):
		return "Nothing to show."
	case errors.As(err, &upstream):
		s.logf("upstream failure: %v", err)
		return "The token service is not responding. Try again in a moment."
	default:
		s.logf("request failed: %v", err)
		return "Something went wrong. Try again."
	}
}
