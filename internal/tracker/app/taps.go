package app

import (
	"context"
	"strings"

	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
	"github.com/louisbranch/collectiontracker/internal/tracker/storage"
	"github.com/louisbranch/collectiontracker/internal/transport"
)

// Callback token prefixes. A token is "<prefix>:<action>"; selection actions
// carry a collection id after a second colon.
const (
	tokenSearch   = "find"
	tokenOwned    = "owned"
	tokenProgress = "prog"
	tokenSelect   = "setcol"
)

// HandleTap routes an inline-button tap. Replies edit the tapped message in
// place so the view appears to update.
func (s *Service) HandleTap(ctx context.Context, tap transport.ButtonTap) error {
	prefix, action, _ := strings.Cut(tap.Token, ":")

	session, err := s.loadSession(ctx, tap.UserID)
	if err != nil {
		return err
	}

	switch prefix {
	case tokenSearch:
		return s.tapSearch(ctx, &session, tap, action)
	case tokenSelect:
		return s.selectCollection(ctx, &session, tap, action, domain.OriginSearch)
	case tokenOwned:
		if id, ok := strings.CutPrefix(action, "set:"); ok {
			return s.selectCollection(ctx, &session, tap, id, domain.OriginOwned)
		}
		return s.tapOwned(ctx, &session, tap, action)
	case tokenProgress:
		return s.tapProgress(ctx, &session, tap, action)
	default:
		s.logf("unknown callback token %q from user %s", tap.Token, tap.UserID)
		return nil
	}
}

func (s *Service) tapSearch(ctx context.Context, session *storage.Session, tap transport.ButtonTap, action string) error {
	if session.Search == nil {
		return s.editNotice(ctx, tap.UserID, tap.MessageID, "This view has expired. Use /findcollection to search again.")
	}
	switch action {
	case "prev", "next":
		session.Search.Page = stepPage(session.Search.Page, action)
		session.LastView = domain.ViewSearch
		return s.editView(ctx, session, tap, renderSearch(session.Search))
	case "close":
		return s.closeView(ctx, session, tap)
	default:
		return nil
	}
}

func (s *Service) tapOwned(ctx context.Context, session *storage.Session, tap transport.ButtonTap, action string) error {
	if session.Owned == nil {
		return s.editNotice(ctx, tap.UserID, tap.MessageID, "This view has expired. Use /mycollections to reopen it.")
	}
	switch action {
	case "prev", "next":
		session.Owned.Page = stepPage(session.Owned.Page, action)
		session.LastView = domain.ViewOwned
		return s.editView(ctx, session, tap, s.renderOwned(ctx, session.Owned))
	case "close":
		return s.closeView(ctx, session, tap)
	default:
		return nil
	}
}

// selectCollection enters the progress view from search results or the
// owned list. Without a linked wallet nothing is fetched.
func (s *Service) selectCollection(ctx context.Context, session *storage.Session, tap transport.ButtonTap, collectionID string, origin domain.Origin) error {
	if session.WalletAddress == "" {
		return s.editNotice(ctx, tap.UserID, tap.MessageID, s.userMessage(domain.ErrNotLinked))
	}
	collectionID = domain.NormalizeID(collectionID)
	if collectionID == "" {
		return nil
	}

	view, err := s.composeProgress(ctx, session, collectionID, origin, false)
	if err != nil {
		return s.editNotice(ctx, tap.UserID, tap.MessageID, s.userMessage(err))
	}
	session.SelectedCollection = collectionID
	session.Progress = view
	session.LastView = domain.ViewProgress
	return s.editView(ctx, session, tap, renderProgress(view))
}

func (s *Service) tapProgress(ctx context.Context, session *storage.Session, tap transport.ButtonTap, action string) error {
	if session.Progress == nil {
		return s.editNotice(ctx, tap.UserID, tap.MessageID, "This view has expired. Use /collections to reopen it.")
	}
	view := session.Progress

	switch action {
	case "prev", "next":
		view.Page = stepPage(view.Page, action)
	case "toggle":
		view.Mode = view.Mode.Next()
		view.Page = 0
	case "refresh":
		fresh, err := s.composeProgress(ctx, session, view.CollectionID, view.Origin, true)
		if err != nil {
			return s.editNotice(ctx, tap.UserID, tap.MessageID, s.userMessage(err))
		}
		fresh.Mode = view.Mode
		session.Progress = fresh
		view = fresh
	case "back":
		return s.backFromProgress(ctx, session, tap, view.Origin)
	case "close":
		return s.closeView(ctx, session, tap)
	default:
		return nil
	}

	session.LastView = domain.ViewProgress
	return s.editView(ctx, session, tap, renderProgress(view))
}

// backFromProgress restores the stored origin view without recomputing it.
func (s *Service) backFromProgress(ctx context.Context, session *storage.Session, tap transport.ButtonTap, origin domain.Origin) error {
	switch origin {
	case domain.OriginSearch:
		if session.Search == nil {
			return s.closeView(ctx, session, tap)
		}
		session.LastView = domain.ViewSearch
		return s.editView(ctx, session, tap, renderSearch(session.Search))
	case domain.OriginOwned:
		if session.Owned == nil {
			return s.closeView(ctx, session, tap)
		}
		session.LastView = domain.ViewOwned
		return s.editView(ctx, session, tap, s.renderOwned(ctx, session.Owned))
	default:
		return nil
	}
}

// closeView drops the last-view pointer so /start no longer resumes it. The
// stored view data stays in the session for a later explicit reopen.
func (s *Service) closeView(ctx context.Context, session *storage.Session, tap transport.ButtonTap) error {
	session.LastView = domain.ViewNone
	if err := s.saveSession(ctx, session); err != nil {
		return err
	}
	return s.editNotice(ctx, tap.UserID, tap.MessageID, "View closed. Use /start to see the commands.")
}

// editView persists the transition, then edits the tapped message in place.
func (s *Service) editView(ctx context.Context, session *storage.Session, tap transport.ButtonTap, msg transport.Message) error {
	if err := s.saveSession(ctx, session); err != nil {
		return err
	}
	return s.sender.EditMessage(ctx, tap.UserID, tap.MessageID, msg)
}

// stepPage moves a page index one step. The result may overshoot the last
// page; rendering clamps it and writes the clamped value back.
func stepPage(page int, action string) int {
	if action == "prev" {
		if page > 0 {
			return page - 1
		}
		return 0
	}
	return page + 1
}
