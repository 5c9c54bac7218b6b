// Package notify pushes operational alerts to an ntfy server. The MCP
// server uses it to flag renderer outages without coupling tool results to
// the alerting path.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	PriorityUrgent  = "urgent"
	PriorityHigh    = "high"
	PriorityDefault = "default"
	PriorityLow     = "low"
	PriorityMin     = "min"
)

// NtfyClient is a client for sending notifications to an ntfy server. A nil
// NtfyClient is valid and drops all notifications.
type NtfyClient struct {
	serverURL  string
	topic      string
	httpClient *http.Client
}

// NewNtfyClient creates a new NtfyClient. An empty serverURL returns nil,
// which disables notifications.
func NewNtfyClient(serverURL, topic string) *NtfyClient {
	if serverURL == "" {
		return nil
	}
	return &NtfyClient{
		serverURL:  serverURL,
		topic:      topic,
		httpClient: http.DefaultClient,
	}
}

// Send sends a notification with a given priority.
func (c *NtfyClient) Send(ctx context.Context, title, message, priority string) error {
	if c == nil {
		return nil
	}
	return c.send(ctx, title, message, priority, nil)
}

// RenderFailure reports a failed diagram render.
func (c *NtfyClient) RenderFailure(ctx context.Context, format string, err error) error {
	if c == nil {
		return nil
	}
	title := fmt.Sprintf("PlantUML %s render failed", format)
	return c.send(ctx, title, err.Error(), PriorityHigh, []string{"warning", "plantuml"})
}

func (c *NtfyClient) send(ctx context.Context, title, message, priority string, tags []string) error {
	url := fmt.Sprintf("%s/%s", c.serverURL, c.topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return err
	}

	req.Header.Set("Title", title)
	if priority != "" {
		req.Header.Set("Priority", priority)
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ntfy request failed: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}
