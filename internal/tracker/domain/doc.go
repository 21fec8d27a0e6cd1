// Package domain holds the pure core of the collection tracker: token id
// ordering, ownership reconciliation, progress filtering, pagination math,
// and the view states the navigation machine moves between.
//
// Everything in this package is deterministic and side-effect free. Network
// fetching, caching, and persistence live in sibling packages and depend on
// these types, never the other way around.
package domain
