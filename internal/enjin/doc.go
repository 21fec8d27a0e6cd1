// Package enjin is the client for the upstream Enjin platform GraphQL API.
//
// It covers the two paginated fetches the tracker needs (wallet token
// accounts and collection token listings), the wallet-link verification
// handshake, and collection name resolution. Pagination follows the
// upstream's cursor protocol; the client performs no retries, leaving retry
// policy to callers.
package enjin
