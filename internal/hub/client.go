// Package hub implements the PubSubHubbub subscribe/unsubscribe primitive.
package hub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Subscription modes accepted by the hub.
const (
	ModeSubscribe   = "subscribe"
	ModeUnsubscribe = "unsubscribe"
)

const topicURL = "https://www.youtube.com/xml/feeds/videos.xml?channel_id="

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues subscription handshakes against a PubSubHubbub hub. It is a
// thin protocol primitive: it performs one request per call and never
// retries; retry policy belongs to the caller.
type Client struct {
	client      HTTPClient
	hubURL      string
	callbackURL string
}

// New creates a Client posting to hubURL with callbackURL as the base of this
// server's webhook route. The default HTTP client carries a bounded timeout
// so an unreachable hub cannot stall a sweep indefinitely.
func New(hubURL, callbackURL string) *Client {
	return &Client{
		client:      &http.Client{Timeout: 10 * time.Second},
		hubURL:      hubURL,
		callbackURL: strings.TrimRight(callbackURL, "/"),
	}
}

// NewWithClient creates a Client with a custom HTTP client (useful for testing).
func NewWithClient(client HTTPClient, hubURL, callbackURL string) *Client {
	c := New(hubURL, callbackURL)
	c.client = client
	return c
}

// ToggleSubscription asks the hub to subscribe or unsubscribe this server's
// callback for the given channel's upload topic. It returns the raw response
// status code for the caller to interpret.
func (c *Client) ToggleSubscription(ctx context.Context, channelID, mode string) (int, error) {
	form := url.Values{
		"hub.callback": {c.callbackURL + "/webhook/youtube"},
		"hub.topic":    {topicURL + channelID},
		"hub.verify":   {"async"},
		"hub.mode":     {mode},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hubURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post %s %s: %w", mode, channelID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, nil
}
