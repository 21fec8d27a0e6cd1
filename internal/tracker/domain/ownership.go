package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// TokenHolding is one raw token-account record from the upstream ledger.
// Balances arrive as unbounded decimal integers in string form; an empty
// string means zero.
type TokenHolding struct {
	CollectionID    string
	TokenID         string
	Balance         string
	ReservedBalance string
}

// TokenSet is a set of normalized token ids.
//
// Sets serialize as sorted id lists so persisted sessions stay stable and
// diffable across saves.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from the given ids, normalizing each.
func NewTokenSet(ids ...string) TokenSet {
	set := make(TokenSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

// Add inserts a normalized id into the set.
func (s TokenSet) Add(id string) {
	s[NormalizeID(id)] = struct{}{}
}

// Contains reports whether the normalized id is in the set.
func (s TokenSet) Contains(id string) bool {
	_, ok := s[NormalizeID(id)]
	return ok
}

// MarshalJSON encodes the set as a sorted id list.
func (s TokenSet) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return json.Marshal(SortTokenIDs(ids))
}

// UnmarshalJSON decodes an id list back into a set.
func (s *TokenSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewTokenSet(ids...)
	return nil
}

// OwnershipMap maps a collection id to the set of token ids one wallet holds.
type OwnershipMap map[string]TokenSet

// Tokens returns the owned set for a collection, never nil.
func (m OwnershipMap) Tokens(collectionID string) TokenSet {
	if set, ok := m[NormalizeID(collectionID)]; ok {
		return set
	}
	return TokenSet{}
}

// Reconcile converts raw token-account records into an ownership map. A
// holding counts as owned when its effective balance, spendable plus
// reserved, is greater than zero. The result is independent of input order.
//
// A record missing its collection or token id, or carrying a malformed
// balance, fails the whole reconciliation rather than producing a partial
// map.
func Reconcile(holdings []TokenHolding) (OwnershipMap, error) {
	owned := make(OwnershipMap)
	for _, holding := range holdings {
		collectionID := NormalizeID(holding.CollectionID)
		tokenID := NormalizeID(holding.TokenID)
		if collectionID == "" || tokenID == "" {
			return nil, fmt.Errorf("token holding is missing collection or token id")
		}
		effective, err := effectiveBalance(holding.Balance, holding.ReservedBalance)
		if err != nil {
			return nil, fmt.Errorf("holding %s/%s: %w", collectionID, tokenID, err)
		}
		if effective.Sign() <= 0 {
			continue
		}
		set, ok := owned[collectionID]
		if !ok {
			set = TokenSet{}
			owned[collectionID] = set
		}
		set.Add(tokenID)
	}
	return owned, nil
}

func effectiveBalance(balance, reserved string) (*big.Int, error) {
	total := new(big.Int)
	for _, raw := range []string{balance, reserved} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		value, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("malformed balance %q", raw)
		}
		total.Add(total, value)
	}
	return total, nil
}
