// Package menu implements the HTTP client for the meal-menu data provider.
package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kykmenu/yemekbot/internal/biz/domain"
)

// Client queries the menu API by date and meal slot
type Client struct {
	baseURL string
	city    string
	http    *http.Client
}

// NewClient creates a menu API client
func NewClient(baseURL, city string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		city:    city,
		http:    &http.Client{Timeout: timeout},
	}
}

// Fetch returns the menu for the given ISO date and meal slot, or nil when
// the provider has no data. A response whose echoed date does not match the
// requested one is treated as not found.
func (c *Client) Fetch(ctx context.Context, date string, slot domain.MealSlot) (*domain.Menu, error) {
	q := url.Values{}
	q.Set("tarih", date)
	q.Set("sehir", c.city)
	q.Set("ogun", string(slot))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build menu request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("menu request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("menu api status %d", resp.StatusCode)
	}

	var m domain.Menu
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode menu response: %w", err)
	}
	if !m.HasDishes() {
		return nil, nil
	}
	if m.Date != date {
		fmt.Printf("[Menu] date mismatch: requested %s, got %s\n", date, m.Date)
		return nil, nil
	}
	return &m, nil
}
