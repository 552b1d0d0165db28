package gemini

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"design-companion-be/internal/entity"
)

const storesPageSize = "20"

// ListStores walks every page of the caller's document stores.
func (c *Client) ListStores(ctx context.Context) ([]entity.FileSearchStore, error) {
	stores := make([]entity.FileSearchStore, 0)
	seen := make(map[string]struct{})
	pageToken := ""
	for {
		query := url.Values{"pageSize": {storesPageSize}}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var page listStoresResponse
		if err := c.doJSON(ctx, http.MethodGet, "/v1beta/fileSearchStores", query, nil, &page); err != nil {
			return nil, err
		}
		stores = append(stores, page.FileSearchStores...)

		if page.NextPageToken == "" {
			return stores, nil
		}
		if _, repeated := seen[page.NextPageToken]; repeated {
			c.logger.Warn(logModule, "Store listing repeated a page token, stopping", map[string]interface{}{
				"page_token": page.NextPageToken,
				"stores":     len(stores),
			})
			return stores, nil
		}
		seen[page.NextPageToken] = struct{}{}
		pageToken = page.NextPageToken
	}
}

func (c *Client) CreateStore(ctx context.Context, displayName string) (*entity.FileSearchStore, error) {
	var store entity.FileSearchStore
	body := map[string]string{"displayName": displayName}
	if err := c.doJSON(ctx, http.MethodPost, "/v1beta/fileSearchStores", nil, body, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

// GetOrCreateStore returns the first store whose display name matches,
// creating one when none exists.
func (c *Client) GetOrCreateStore(ctx context.Context, displayName string) (*entity.FileSearchStore, error) {
	stores, err := c.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	for i := range stores {
		if stores[i].DisplayName == displayName {
			return &stores[i], nil
		}
	}

	c.logger.Info(logModule, "Creating document store", map[string]interface{}{"display_name": displayName})
	return c.CreateStore(ctx, displayName)
}

func (c *Client) GetStore(ctx context.Context, name string) (*entity.FileSearchStore, error) {
	var store entity.FileSearchStore
	if err := c.doJSON(ctx, http.MethodGet, "/v1beta/"+name, nil, nil, &store); err != nil {
		return nil, err
	}
	return &store, nil
}

func (c *Client) DeleteStore(ctx context.Context, name string) error {
	query := url.Values{"force": {"true"}}
	return c.doJSON(ctx, http.MethodDelete, "/v1beta/"+name, query, nil, nil)
}

// DeleteDocument force-deletes a document. documentName may be a full
// resource name or an id relative to storeName.
func (c *Client) DeleteDocument(ctx context.Context, storeName, documentName string) error {
	name := documentName
	if !strings.HasPrefix(documentName, "fileSearchStores/") {
		name = storeName + "/documents/" + documentName
	}
	query := url.Values{"force": {"true"}}
	return c.doJSON(ctx, http.MethodDelete, "/v1beta/"+name, query, nil, nil)
}
