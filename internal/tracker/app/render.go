package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
	"github.com/louisbranch/collectiontracker/internal/transport"
)

// Render functions clamp the view's page index in place, so the persisted
// session always carries the index that was actually shown.

func renderSearch(v *domain.SearchView) transport.Message {
	page := domain.Paginate(v.Matches, v.Page, searchPageSize)
	v.Page = page.Index

	var b strings.Builder
	fmt.Fprintf(&b, "Collections matching %q\n", v.Term)
	fmt.Fprintf(&b, "Page %d/%d (%d results)\n\n", page.Index+1, page.Last+1, page.Total)
	b.WriteString("Tap a collection to see your progress.")

	var buttons [][]transport.Button
	for _, match := range page.Items {
		label := match.Name
		if label == "" {
			label = match.ID
		}
		buttons = append(buttons, []transport.Button{
			{Label: label, Token: tokenSelect + ":" + match.ID},
		})
	}
	buttons = append(buttons, navRow(tokenSearch, page.HasPrev, page.HasNext))
	return transport.Message{Text: b.String(), Buttons: buttons}
}

func (s *Service) renderOwned(ctx context.Context, v *domain.OwnedView) transport.Message {
	page := domain.Paginate(v.Rows, v.Page, ownedPageSize)
	v.Page = page.Index

	var b strings.Builder
	b.WriteString("Collections you own tokens in\n")
	fmt.Fprintf(&b, "Page %d/%d (%d collections)\n", page.Index+1, page.Last+1, page.Total)

	var buttons [][]transport.Button
	for _, row := range page.Items {
		name := s.displayName(ctx, row.ID)
		label := fmt.Sprintf("%s (%d owned)", name, row.Count)
		buttons = append(buttons, []transport.Button{
			{Label: label, Token: tokenOwned + ":set:" + row.ID},
		})
	}
	buttons = append(buttons, navRow(tokenOwned, page.HasPrev, page.HasNext))
	return transport.Message{Text: b.String(), Buttons: buttons}
}

func renderProgress(v *domain.ProgressView) transport.Message {
	ids := v.FilteredIDs()
	page := domain.Paginate(ids, v.Page, progressPageSize)
	v.Page = page.Index

	ownedCount := domain.OwnedCount(v.Universe, v.Owned)
	pct := domain.ProgressPercent(ownedCount, len(v.Universe))

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", v.Name, v.CollectionID)
	fmt.Fprintf(&b, "%d/%d owned (%.2f%%)\n", ownedCount, len(v.Universe), pct)
	fmt.Fprintf(&b, "%s, page %d/%d\n\n", v.Mode.Label(), page.Index+1, page.Last+1)

	if len(ids) == 0 {
		fmt.Fprintf(&b, "No tokens in this filter. Tap %q to change it.", "Filter: "+v.Mode.Next().Label())
	}
	for _, id := range page.Items {
		mark := "❌"
		if v.Owned.Contains(id) {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, id)
	}

	row := navRow(tokenProgress, page.HasPrev, page.HasNext)
	buttons := [][]transport.Button{
		row,
		{
			{Label: "Filter: " + v.Mode.Next().Label(), Token: tokenProgress + ":toggle"},
			{Label: "Refresh", Token: tokenProgress + ":refresh"},
		},
	}
	if v.Origin != domain.OriginNone {
		buttons = append(buttons, []transport.Button{{Label: "Back", Token: tokenProgress + ":back"}})
	}
	return transport.Message{Text: b.String(), Buttons: buttons}
}

// navRow builds the shared pagination row: prev and next when available,
// always a close control.
func navRow(prefix string, hasPrev, hasNext bool) []transport.Button {
	var row []transport.Button
	if hasPrev {
		row = append(row, transport.Button{Label: "◀ Prev", Token: prefix + ":prev"})
	}
	if hasNext {
		row = append(row, transport.Button{Label: "Next ▶", Token: prefix + ":next"})
	}
	row = append(row, transport.Button{Label: "Close", Token: prefix + ":close"})
	return row
}

// ownedRows flattens an ownership map into display rows, most tokens first,
// ties broken by collection id.
func ownedRows(owned domain.OwnershipMap) []domain.OwnedRow {
	rows := make([]domain.OwnedRow, 0, len(owned))
	for id, set := range owned {
		if len(set) == 0 {
			continue
		}
		rows = append(rows, domain.OwnedRow{ID: id, Count: len(set)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].ID < rows[j].ID
	})
	return rows
}
