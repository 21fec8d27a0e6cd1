package domain

// ViewKind discriminates which view, if any, a session last rendered.
type ViewKind string

const (
	// ViewNone means no active view.
	ViewNone ViewKind = ""
	// ViewSearch is the paginated search-results list.
	ViewSearch ViewKind = "search"
	// ViewOwned is the paginated owned-collections list.
	ViewOwned ViewKind = "owned"
	// ViewProgress is the per-collection progress view.
	ViewProgress ViewKind = "progress"
)

// Origin records which view a progress view was entered from, so back()
// can restore it without recomputation.
type Origin string

const (
	// OriginNone means progress was opened directly; back is a no-op.
	OriginNone Origin = ""
	// OriginSearch means progress was entered from search results.
	OriginSearch Origin = "search"
	// OriginOwned means progress was entered from the owned list.
	OriginOwned Origin = "owned"
)

// CollectionRef pairs a collection id with its display name.
type CollectionRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchView is the state of one name search: the term, its ordered matches,
// and the current page.
type SearchView struct {
	Term    string          `json:"term"`
	Matches []CollectionRef `json:"matches"`
	Page    int             `json:"page"`
}

// OwnedRow is one owned-collections entry: a collection and how many of its
// tokens the wallet holds.
type OwnedRow struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// OwnedView is the state of the owned-collections list.
type OwnedView struct {
	Rows []OwnedRow `json:"rows"`
	Page int        `json:"page"`
}

// ProgressView is the state of the per-collection progress view. Universe
// and Owned are snapshots composed when the view was entered; they are not
// re-synchronized until an explicit refresh.
type ProgressView struct {
	CollectionID string     `json:"collection_id"`
	Name         string     `json:"name"`
	Universe     []string   `json:"universe"`
	Owned        TokenSet   `json:"owned"`
	Page         int        `json:"page"`
	Mode         FilterMode `json:"mode"`
	Origin       Origin     `json:"origin,omitempty"`
}

// FilteredIDs returns the universe slice selected by the current mode.
func (v ProgressView) FilteredIDs() []string {
	return FilterIDs(v.Universe, v.Owned, v.Mode)
}
