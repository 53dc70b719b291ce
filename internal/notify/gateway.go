// Package notify contains the HTTP client for the external notification
// gateway used for email and SMS delivery.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Gateway posts notifications to the brokerage's delivery gateway. The
// gateway fans messages out to email and SMS providers; this client only
// reports whether the hand-off was accepted.
type Gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewGateway constructs a gateway client. A nil logger falls back to
// slog.Default.
func NewGateway(baseURL, apiKey string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type deliveryRequest struct {
	Recipient string `json:"recipient"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Channel   string `json:"channel"`
}

type deliveryResponse struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// Send hands one notification to the gateway for delivery over the given
// channel.
func (g *Gateway) Send(ctx context.Context, recipientID, title, message, channel string) error {
	if g == nil || g.baseURL == "" {
		return fmt.Errorf("notification gateway not configured")
	}

	payload, err := json.Marshal(deliveryRequest{
		Recipient: recipientID,
		Title:     title,
		Message:   message,
		Channel:   channel,
	})
	if err != nil {
		return fmt.Errorf("encode delivery request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/deliveries", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification gateway returned status %d", resp.StatusCode)
	}

	var decoded deliveryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		// Some gateway versions reply with an empty body on success.
		g.logger.Debug("gateway response not decodable", "error", err)
		return nil
	}
	if !decoded.Accepted && decoded.Error != "" {
		return fmt.Errorf("notification gateway rejected delivery: %s", decoded.Error)
	}
	return nil
}
