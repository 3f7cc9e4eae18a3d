package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hue-bridge-integration/internal/domain/model"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client delivers persistent notifications through the Home Assistant REST API.
type Client struct {
	url        string
	token      string
	httpClient *http.Client
	mu         sync.RWMutex
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configure(url, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.url = strings.TrimSuffix(url, "/")
	c.token = token
}

func (c *Client) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.url != "" && c.token != ""
}

// Create calls persistent_notification.create.
func (c *Client) Create(ctx context.Context, n model.Notification) error {
	return c.callService(ctx, "persistent_notification", "create", map[string]interface{}{
		"message":         n.Message,
		"title":           n.Title,
		"notification_id": n.ID,
	})
}

// Dismiss calls persistent_notification.dismiss.
func (c *Client) Dismiss(ctx context.Context, id string) error {
	return c.callService(ctx, "persistent_notification", "dismiss", map[string]interface{}{
		"notification_id": id,
	})
}

func (c *Client) callService(ctx context.Context, domain, service string, payload map[string]interface{}) error {
	c.mu.RLock()
	urlBase := c.url
	token := c.token
	c.mu.RUnlock()

	if urlBase == "" || token == "" {
		return fmt.Errorf("Home Assistant not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/services/%s/%s", urlBase, domain, service)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HA API error: %d", resp.StatusCode)
	}
	return nil
}
