package rankcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/followrank/internal/domain/types"
)

// client wraps http.Client with the service's base URL.
type client struct {
	http    *http.Client
	baseURL string
}

// newClient creates a client with timeout.
func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// do sends one request and decodes a JSON answer into out when the status matches want.
func (c *client) do(ctx context.Context, method, path string, body, out any, want int) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

func (c *client) categories(ctx context.Context) (types.CategoriesResponse, error) {
	var out types.CategoriesResponse
	err := c.do(ctx, http.MethodGet, "/categories", nil, &out, http.StatusOK)
	return out, err
}

func (c *client) entitiesByMetric(ctx context.Context) (types.EntitiesResponse, error) {
	var out types.EntitiesResponse
	err := c.do(ctx, http.MethodGet, "/entities?order="+types.OrderMetric, nil, &out, http.StatusOK)
	return out, err
}

func (c *client) ranking(ctx context.Context, category string, page int) (types.View, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("page", strconv.Itoa(page))
	var out types.View
	err := c.do(ctx, http.MethodGet, "/ranking?"+q.Encode(), nil, &out, http.StatusOK)
	return out, err
}

func (c *client) createSession(ctx context.Context) (types.SessionResponse, error) {
	var out types.SessionResponse
	err := c.do(ctx, http.MethodPost, "/sessions", nil, &out, http.StatusCreated)
	return out, err
}

func (c *client) requestPage(ctx context.Context, id string, page int) (types.SessionResponse, error) {
	var out types.SessionResponse
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/page", types.PageRequest{Page: page}, &out, http.StatusOK)
	return out, err
}

func (c *client) selectCategory(ctx context.Context, id, category string) (types.SessionResponse, error) {
	var out types.SessionResponse
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/category", types.CategoryRequest{Category: category}, &out, http.StatusOK)
	return out, err
}

func (c *client) deleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}
