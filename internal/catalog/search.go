package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/readingnook/readingnook-server/internal/domain"
)

// Search returns candidate books for term. An empty term returns an empty list
// without calling the catalog. maxResults <= 0 uses the configured default;
// values above the catalog's page limit are clamped. Failures are logged and
// yield an empty list.
func (c *Client) Search(ctx context.Context, term string, maxResults int) []domain.Book {
	q := BuildQuery(term)
	if q == "" {
		return []domain.Book{}
	}

	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("printType", "books")

	body, err := c.get(ctx, "/volumes", params)
	if err != nil {
		c.logger.Warn("catalog search failed", "q", q, "error", err)
		return []domain.Book{}
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("catalog search returned malformed body", "q", q, "error", err)
		return []domain.Book{}
	}

	books := make([]domain.Book, 0, len(resp.Items))
	for i := range resp.Items {
		books = append(books, toBook(&resp.Items[i]))
	}

	c.logger.Debug("catalog search results", "q", q, "count", len(books), "total", resp.TotalItems)
	return books
}

// GetByID fetches one volume by its catalog id. Returns nil on any failure,
// including an unknown id.
func (c *Client) GetByID(ctx context.Context, id string) *domain.Book {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	body, err := c.get(ctx, "/volumes/"+url.PathEscape(id), url.Values{})
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			c.logger.Info("catalog volume unavailable", "id", id, "status", se.status)
		} else {
			c.logger.Warn("catalog volume fetch failed", "id", id, "error", err)
		}
		return nil
	}

	var v volume
	if err := json.Unmarshal(body, &v); err != nil {
		c.logger.Warn("catalog volume returned malformed body", "id", id, "error", err)
		return nil
	}
	if v.ID == "" {
		v.ID = id
	}

	b := toBook(&v)
	return &b
}
