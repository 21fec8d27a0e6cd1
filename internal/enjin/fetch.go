package enjin

import (
	"context"
	"encoding/json"

	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	fetchPageSize = 200

	// DefaultUniversePageCap bounds how many token ids one collection
	// fetch may accumulate.
	DefaultUniversePageCap = 20000
)

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

const walletTokenAccountsQuery = `
query WalletTokens($account: String, $after: String, $first: Int) {
  GetWallet(account: $account) {
    tokenAccounts(after: $after, first: $first) {
      pageInfo { endCursor hasNextPage }
      edges {
        node {
          balance
          reservedBalance
          token { tokenId collection { collectionId } }
        }
      }
    }
  }
}`

const collectionTokensQuery = `
query GetCollectionTokens($cid: BigInt!, $after: String) {
  GetCollection(collectionId: $cid) {
    tokens(after: $after) {
      pageInfo { endCursor hasNextPage }
      edges { node { tokenId } }
    }
  }
}`

// WalletHoldings fetches every token-account record of a wallet, following
// the upstream cursor until the last page.
func (c *Client) WalletHoldings(ctx context.Context, account string) ([]domain.TokenHolding, error) {
	ctx, span := c.tracer.Start(ctx, "enjin.wallet_holdings",
		trace.WithAttributes(attribute.String("enjin.account", account)))
	defer span.End()

	var holdings []domain.TokenHolding
	after := ""
	for {
		var resp struct {
			GetWallet struct {
				TokenAccounts struct {
					PageInfo pageInfo `json:"pageInfo"`
					Edges    []struct {
						Node struct {
							Balance         scalar `json:"balance"`
							ReservedBalance scalar `json:"reservedBalance"`
							Token           struct {
								TokenID    scalar `json:"tokenId"`
								Collection struct {
									CollectionID scalar `json:"collectionId"`
								} `json:"collection"`
							} `json:"token"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"tokenAccounts"`
			} `json:"GetWallet"`
		}

		vars := map[string]any{"account": account, "first": fetchPageSize}
		if after != "" {
			vars["after"] = after
		}
		if err := c.query(ctx, "wallet_token_accounts", walletTokenAccountsQuery, vars, &resp); err != nil {
			return nil, err
		}

		accounts := resp.GetWallet.TokenAccounts
		for _, edge := range accounts.Edges {
			holdings = append(holdings, domain.TokenHolding{
				CollectionID:    string(edge.Node.Token.Collection.CollectionID),
				TokenID:         string(edge.Node.Token.TokenID),
				Balance:         string(edge.Node.Balance),
				ReservedBalance: string(edge.Node.ReservedBalance),
			})
		}
		if !accounts.PageInfo.HasNextPage {
			break
		}
		if accounts.PageInfo.EndCursor == "" {
			return nil, &UpstreamError{
				Operation: "wallet_token_accounts",
				Payload:   json.RawMessage(`"page reports a next page but carries no cursor"`),
			}
		}
		after = accounts.PageInfo.EndCursor
	}
	span.SetAttributes(attribute.Int("enjin.holdings", len(holdings)))
	return holdings, nil
}

// CollectionTokenIDs fetches the token ids of a collection, following the
// upstream cursor until the last page or until pageCap ids have been
// accumulated. The result is truncated to pageCap.
func (c *Client) CollectionTokenIDs(ctx context.Context, collectionID string, pageCap int) ([]string, error) {
	if pageCap <= 0 {
		pageCap = DefaultUniversePageCap
	}
	ctx, span := c.tracer.Start(ctx, "enjin.collection_tokens",
		trace.WithAttributes(attribute.String("enjin.collection", collectionID)))
	defer span.End()

	var ids []string
	after := ""
	for {
		var resp struct {
			GetCollection struct {
				Tokens struct {
					PageInfo pageInfo `json:"pageInfo"`
					Edges    []struct {
						Node struct {
							TokenID scalar `json:"tokenId"`
						} `json:"node"`
					} `json:"edges"`
				} `json:"tokens"`
			} `json:"GetCollection"`
		}

		vars := map[string]any{"cid": json.Number(domain.NormalizeID(collectionID))}
		if after != "" {
			vars["after"] = after
		}
		if err := c.query(ctx, "collection_tokens", collectionTokensQuery, vars, &resp); err != nil {
			return nil, err
		}

		tokens := resp.GetCollection.Tokens
		for _, edge := range tokens.Edges {
			ids = append(ids, string(edge.Node.TokenID))
		}
		if !tokens.PageInfo.HasNextPage || len(ids) >= pageCap {
			break
		}
		if tokens.PageInfo.EndCursor == "" {
			return nil, &UpstreamError{
				Operation: "collection_tokens",
				Payload:   json.RawMessage(`"page reports a next page but carries no cursor"`),
			}
		}
		after = tokens.PageInfo.EndCursor
	}
	if len(ids) > pageCap {
		ids = ids[:pageCap]
	}
	span.SetAttributes(attribute.Int("enjin.tokens", len(ids)))
	return ids, nil
}
