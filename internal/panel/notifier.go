// Package panel forwards bot activity to the admin panel API. Every call is
// best-effort: a short timeout, errors swallowed, and the primary message
// path is never blocked or failed by a panel outage.
package panel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MessageRecord mirrors an inbound message to the panel
type MessageRecord struct {
	From      string `json:"from"`
	Body      string `json:"body"`
	IsGroup   bool   `json:"isGroup"`
	GroupName string `json:"groupName,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
	IsCommand bool   `json:"isCommand"`
	Timestamp string `json:"timestamp"`
}

// GroupRecord mirrors a discovered group to the panel
type GroupRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Notifier posts activity records to the admin panel
type Notifier struct {
	baseURL string
	http    *http.Client
}

// NewNotifier creates a panel notifier. An empty baseURL disables it.
func NewNotifier(baseURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Notify posts the payload to the panel endpoint without awaiting the result
func (n *Notifier) Notify(endpoint string, payload any) {
	if n.baseURL == "" {
		return
	}
	go func() {
		if err := n.post(endpoint, payload); err != nil {
			// Panel down is business as usual; stay quiet.
			_ = err
		}
	}()
}

// post performs a single synchronous POST
func (n *Notifier) post(endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal panel payload: %w", err)
	}
	resp, err := n.http.Post(n.baseURL+"/api/"+endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("panel status %d", resp.StatusCode)
	}
	return nil
}
