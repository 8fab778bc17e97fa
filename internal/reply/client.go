// Package reply issues the outbound reply call to the messaging platform.
package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mattjoyce/linegate/internal/log"
)

const defaultTimeout = 10 * time.Second

// replyRequest is the platform's reply endpoint body.
type replyRequest struct {
	ReplyToken string         `json:"replyToken"`
	Messages   []replyMessage `json:"messages"`
}

type replyMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Client posts reply messages to the configured reply endpoint with the
// channel access token. Safe for concurrent use; the underlying
// http.Client pools connections.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
	logger   *slog.Logger
}

// New creates a reply Client.
func New(endpoint, accessToken string) *Client {
	return &Client{
		endpoint: endpoint,
		token:    accessToken,
		http:     &http.Client{Timeout: defaultTimeout},
		logger:   log.WithComponent("reply"),
	}
}

// Send posts one text reply tied to replyToken and returns the platform's
// JSON response as a map. A timeout or transport error is an ordinary
// error for the caller to log; no retry happens here.
func (c *Client) Send(ctx context.Context, replyToken, text string) (map[string]any, error) {
	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []replyMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal reply body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reply call: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read reply response: %w", err)
	}

	c.logger.Debug("reply response", "status", resp.StatusCode, "body", string(raw))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("reply endpoint returned %d: %s", resp.StatusCode, raw)
	}

	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode reply response: %w", err)
		}
	}
	return out, nil
}
