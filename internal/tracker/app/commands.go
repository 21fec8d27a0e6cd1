package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/collectiontracker/internal/enjin"
	"github.com/louisbranch/collectiontracker/internal/tracker/cache"
	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
	"github.com/louisbranch/collectiontracker/internal/tracker/storage"
	"github.com/louisbranch/collectiontracker/internal/transport"
)

const welcomeText = `Collection tracker commands:

/connect - link an Enjin wallet
/disconnect - unlink the wallet
/mywallet - show the linked wallet
/findcollection [name] - search collections by name
/setcollection <id> - select a collection by id
/collections - show progress for the selected collection
/mycollections - list collections you own tokens in`

// HandleCommand routes a slash command.
func (s *Service) HandleCommand(ctx context.Context, cmd transport.Command) error {
	switch cmd.Name {
	case "start", "help":
		return s.start(ctx, cmd.UserID)
	case "connect":
		return s.connect(ctx, cmd.UserID)
	case "disconnect":
		return s.disconnect(ctx, cmd.UserID)
	case "mywallet":
		return s.myWallet(ctx, cmd.UserID)
	case "setcollection":
		return s.setCollection(ctx, cmd.UserID, cmd.Args)
	case "collections":
		return s.showProgress(ctx, cmd.UserID)
	case "mycollections":
		return s.ownedCollections(ctx, cmd.UserID)
	case "findcollection":
		return s.findCollection(ctx, cmd.UserID, cmd.Args)
	default:
		return s.notice(ctx, cmd.UserID, "Unknown command. Use /start for the command list.")
	}
}

// start resumes the last persisted view, or shows the welcome menu when no
// view is active.
func (s *Service) start(ctx context.Context, userID string) error {
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	switch session.LastView {
	case domain.ViewSearch:
		if session.Search != nil {
			return s.sendView(ctx, &session, renderSearch(session.Search))
		}
	case domain.ViewOwned:
		if session.Owned != nil {
			return s.sendView(ctx, &session, s.renderOwned(ctx, session.Owned))
		}
	case domain.ViewProgress:
		if session.Progress != nil {
			return s.sendView(ctx, &session, renderProgress(session.Progress))
		}
	}
	return s.notice(ctx, userID, welcomeText)
}

// sendView persists the transition and sends the rendered view. Render
// functions clamp the page index in place, so the save captures the
// re-derived value.
func (s *Service) sendView(ctx context.Context, session *storage.Session, msg transport.Message) error {
	if err := s.saveSession(ctx, session); err != nil {
		return err
	}
	return s.sender.SendMessage(ctx, session.UserID, msg)
}

// connect runs the wallet-link handshake: request a linking code, show it,
// then poll until the wallet verifies or the window closes.
func (s *Service) connect(ctx context.Context, userID string) error {
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	if session.WalletAddress != "" {
		return s.notice(ctx, userID, fmt.Sprintf("Already linked to %s. Use /disconnect first to relink.", session.WalletAddress))
	}

	link, err := s.ledger.RequestAccountLink(ctx)
	if err != nil {
		return s.notice(ctx, userID, s.userMessage(err))
	}
	prompt := "Scan this code with the Enjin wallet app to link your account:\n" + link.QRCode
	if err := s.notice(ctx, userID, prompt); err != nil {
		return err
	}

	address, err := s.ledger.WaitForVerification(ctx, link.VerificationID, verifyAttempts, verifyInterval)
	if err != nil {
		if errors.Is(err, enjin.ErrVerificationPending) {
			return s.notice(ctx, userID, "The link was not confirmed in time. Use /connect to try again.")
		}
		return s.notice(ctx, userID, s.userMessage(err))
	}

	session.WalletAddress = address
	if err := s.saveSession(ctx, &session); err != nil {
		return err
	}
	return s.notice(ctx, userID, fmt.Sprintf("Wallet linked: %s", address))
}

func (s *Service) disconnect(ctx context.Context, userID string) error {
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	if session.WalletAddress == "" {
		return s.notice(ctx, userID, "No wallet is linked.")
	}
	session.WalletAddress = ""
	if err := s.saveSession(ctx, &session); err != nil {
		return err
	}
	return s.notice(ctx, userID, "Wallet unlinked.")
}

func (s *Service) myWallet(ctx context.Context, userID string) error {
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	if session.WalletAddress == "" {
		return s.notice(ctx, userID, s.userMessage(domain.ErrNotLinked))
	}
	return s.notice(ctx, userID, fmt.Sprintf("Linked wallet: %s", session.WalletAddress))
}

// setCollection selects a collection by id without opening any view.
func (s *Service) setCollection(ctx context.Context, userID string, args []string) error {
	if len(args) == 0 {
		return s.notice(ctx, userID, "Usage: /setcollection <collection id>")
	}
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	if session.WalletAddress == "" {
		return s.notice(ctx, userID, s.userMessage(domain.ErrNotLinked))
	}

	collectionID := domain.NormalizeID(args[0])
	if collectionID == "" {
		return s.notice(ctx, userID, "Usage: /setcollection <collection id>")
	}
	name := s.displayName(ctx, collectionID)
	session.SelectedCollection = collectionID
	if err := s.saveSession(ctx, &session); err != nil {
		return err
	}
	return s.notice(ctx, userID, fmt.Sprintf("Selected %s (%s). Use /collections to see progress.", name, collectionID))
}

// showProgress opens the progress view for the selected collection.
func (s *Service) showProgress(ctx context.Context, userID string) error {
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	if session.WalletAddress == "" {
		return s.notice(ctx, userID, s.userMessage(domain.ErrNotLinked))
	}
	if session.SelectedCollection == "" {
		return s.notice(ctx, userID, s.userMessage(domain.ErrNoCollectionSelected))
	}

	view, err := s.composeProgress(ctx, &session, session.SelectedCollection, domain.OriginNone, false)
	if err != nil {
		return s.notice(ctx, userID, s.userMessage(err))
	}
	session.Progress = view
	session.LastView = domain.ViewProgress
	return s.sendView(ctx, &session, renderProgress(view))
}

// composeProgress fetches the token universe and an ownership snapshot and
// composes them into a fresh progress view. The two snapshots are read once
// here and never re-synchronized until an explicit refresh.
func (s *Service) composeProgress(ctx context.Context, session *storage.Session, collectionID string, origin domain.Origin, force bool) (*domain.ProgressView, error) {
	universe, err := s.universes.Get(ctx, collectionID, s.universeMaxAge, force)
	if err != nil {
		return nil, err
	}
	if len(universe.IDs) == 0 {
		return nil, fmt.Errorf("collection %s: %w", collectionID, domain.ErrEmptyResult)
	}

	var snapshot cache.Snapshot
	if force {
		snapshot, err = s.ownership.Refresh(ctx, session.UserID, session.WalletAddress)
	} else {
		snapshot, err = s.ownership.Serve(ctx, session.UserID, session.WalletAddress)
	}
	if err != nil {
		return nil, err
	}

	return &domain.ProgressView{
		CollectionID: collectionID,
		Name:         s.displayName(ctx, collectionID),
		Universe:     universe.IDs,
		Owned:        snapshot.Owned.Tokens(collectionID),
		Page:         0,
		Mode:         domain.ModeAll,
		Origin:       origin,
	}, nil
}

// ownedCollections lists the collections the wallet holds tokens in, most
// held first.
func (s *Service) ownedCollections(ctx context.Context, userID string) error {
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	if session.WalletAddress == "" {
		return s.notice(ctx, userID, s.userMessage(domain.ErrNotLinked))
	}

	snapshot, err := s.ownership.Serve(ctx, userID, session.WalletAddress)
	if err != nil {
		return s.notice(ctx, userID, s.userMessage(err))
	}
	rows := ownedRows(snapshot.Owned)
	if len(rows) == 0 {
		return s.notice(ctx, userID, "Your wallet holds no tokens yet.")
	}

	session.Owned = &domain.OwnedView{Rows: rows, Page: 0}
	session.LastView = domain.ViewOwned
	return s.sendView(ctx, &session, s.renderOwned(ctx, session.Owned))
}

// findCollection searches the name index, or arms the free-text prompt when
// called without a term.
func (s *Service) findCollection(ctx context.Context, userID string, args []string) error {
	session, err := s.loadSession(ctx, userID)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		session.AwaitingSearchTerm = true
		if err := s.saveSession(ctx, &session); err != nil {
			return err
		}
		return s.notice(ctx, userID, "Send me a collection name to search for.")
	}
	return s.search(ctx, &session, strings.Join(args, " "))
}

// HandleText consumes a plain-text message. Only the armed search prompt
// reacts to free text; anything else is ignored.
func (s *Service) HandleText(ctx context.Context, text transport.Text) error {
	session, err := s.loadSession(ctx, text.UserID)
	if err != nil {
		return err
	}
	if !session.AwaitingSearchTerm {
		return nil
	}
	session.AwaitingSearchTerm = false
	return s.search(ctx, &session, text.Body)
}

// search queries the name index and enters the search-results view.
func (s *Service) search(ctx context.Context, session *storage.Session, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.notice(ctx, session.UserID, "Send me a collection name to search for.")
	}
	matches, err := s.names.Search(ctx, term, searchResultLimit)
	if err != nil {
		return s.notice(ctx, session.UserID, s.userMessage(err))
	}
	if len(matches) == 0 {
		session.LastView = domain.ViewNone
		if err := s.saveSession(ctx, session); err != nil {
			return err
		}
		return s.notice(ctx, session.UserID, fmt.Sprintf("No collections match %q.", term))
	}

	session.Search = &domain.SearchView{Term: term, Matches: matches, Page: 0}
	session.LastView = domain.ViewSearch
	return s.sendView(ctx, session, renderSearch(session.Search))
}
