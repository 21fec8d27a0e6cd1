package domain

import "errors"

var (
	// ErrNotLinked indicates an action that requires a linked wallet.
	ErrNotLinked = errors.New("no wallet linked")
	// ErrNoCollectionSelected indicates progress was requested before a
	// collection was chosen.
	ErrNoCollectionSelected = errors.New("no collection selected")
	// ErrEmptyResult indicates a search with no matches or a collection
	// with no tokens.
	ErrEmptyResult = errors.New("empty result")
)
