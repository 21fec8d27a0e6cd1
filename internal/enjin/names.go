package enjin

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
)

const collectionMetaQuery = `
query GetCollectionMeta($cid: BigInt!) {
  GetCollection(collectionId: $cid) { attributes { key value } }
}`

const addToTrackedMutation = `
mutation Track($ids: [String!]!) {
  AddToTracked(type: COLLECTION, chainIds: $ids)
}`

// CollectionName resolves the display name of a collection from its on-chain
// attributes. It returns the empty string when the collection carries no
// name attribute.
func (c *Client) CollectionName(ctx context.Context, collectionID string) (string, error) {
	var resp struct {
		GetCollection struct {
			Attributes []struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			} `json:"attributes"`
		} `json:"GetCollection"`
	}
	vars := map[string]any{"cid": json.Number(domain.NormalizeID(collectionID))}
	if err := c.query(ctx, "collection_meta", collectionMetaQuery, vars, &resp); err != nil {
		return "", err
	}
	for _, attr := range resp.GetCollection.Attributes {
		if strings.EqualFold(attr.Key, "name") && strings.TrimSpace(attr.Value) != "" {
			return strings.TrimSpace(attr.Value), nil
		}
	}
	return "", nil
}

// AddToTracked registers collections with the upstream indexer so their
// holdings appear in wallet queries. Callers treat failures as best-effort.
func (c *Client) AddToTracked(ctx context.Context, collectionIDs []string) error {
	if len(collectionIDs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(collectionIDs))
	for _, id := range collectionIDs {
		ids = append(ids, domain.NormalizeID(id))
	}
	return c.query(ctx, "add_to_tracked", addToTrackedMutation, map[string]any{"ids": ids}, nil)
}
