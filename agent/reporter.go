package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the LagSense backend on behalf of one user.
type Client struct {
	BaseURL    string
	UserID     string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, userID, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		UserID:  userID,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

func (c *Client) do(req *http.Request) error {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// PostStat reports one sample for the currently running game.
func (c *Client) PostStat(ctx context.Context, game string, ping, jitter, loss float64) error {
	payload := map[string]interface{}{
		"user_id":   c.UserID,
		"game":      game,
		"ping":      ping,
		"jitter":    jitter,
		"loss":      loss,
		"timestamp": time.Now().UTC(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode stat: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/stat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// EndSession tells the backend the game closed.
func (c *Client) EndSession(ctx context.Context, game string) error {
	url := fmt.Sprintf("%s/end-session/%s/%s", c.BaseURL, c.UserID, game)
	req, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req)
}

// GameThresholds fetches the user's effective thresholds for one game,
// falling back to the generic profile when the backend is unreachable or the
// game is missing from the response.
func (c *Client) GameThresholds(ctx context.Context, game string) Thresholds {
	fallback := Thresholds{Ping: 100, Jitter: 20, Loss: 5}

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/settings/"+c.UserID, nil)
	if err != nil {
		return fallback
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var settings struct {
		Thresholds map[string]Thresholds `json:"thresholds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return fallback
	}

	th, ok := settings.Thresholds[game]
	if !ok {
		return fallback
	}
	return th
}
