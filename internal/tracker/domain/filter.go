package domain

import "math"

// FilterMode selects which slice of a token universe the progress view shows.
type FilterMode string

const (
	// ModeAll shows the full universe.
	ModeAll FilterMode = "all"
	// ModeMissing shows universe tokens the wallet does not hold.
	ModeMissing FilterMode = "missing"
	// ModeOwned shows universe tokens the wallet holds.
	ModeOwned FilterMode = "owned"
)

// Next cycles all -> missing -> owned -> all. Unknown values reset to all.
func (m FilterMode) Next() FilterMode {
	switch m {
	case ModeAll:
		return ModeMissing
	case ModeMissing:
		return ModeOwned
	case ModeOwned:
		return ModeAll
	default:
		return ModeAll
	}
}

// Label returns the human-readable name of the mode.
func (m FilterMode) Label() string {
	switch m {
	case ModeMissing:
		return "Only missing"
	case ModeOwned:
		return "Only owned"
	default:
		return "All tokens"
	}
}

// FilterIDs returns the universe ids selected by mode. The missing and owned
// slices partition the universe: together they cover it and never overlap.
func FilterIDs(universe []string, owned TokenSet, mode FilterMode) []string {
	switch mode {
	case ModeMissing:
		out := make([]string, 0, len(universe))
		for _, id := range universe {
			if !owned.Contains(id) {
				out = append(out, id)
			}
		}
		return out
	case ModeOwned:
		out := make([]string, 0, len(owned))
		for _, id := range universe {
			if owned.Contains(id) {
				out = append(out, id)
			}
		}
		return out
	default:
		return universe
	}
}

// OwnedCount counts universe tokens present in the owned set. Owned tokens
// outside the universe do not count toward progress.
func OwnedCount(universe []string, owned TokenSet) int {
	count := 0
	for _, id := range universe {
		if owned.Contains(id) {
			count++
		}
	}
	return count
}

// ProgressPercent returns the completion percentage rounded to two decimals.
// An empty universe yields zero; callers render that as an explicit "no
// tokens" outcome instead of a ratio.
func ProgressPercent(ownedCount, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(10000*float64(ownedCount)/float64(total)) / 100
}
