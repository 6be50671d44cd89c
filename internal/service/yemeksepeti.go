package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokens are issued for 30 minutes; refresh early instead of racing expiry
const tokenLifetime = 25 * time.Minute

// StatusNotFound marks an order the platform no longer knows about.
const StatusNotFound = "NOT_FOUND"

// YemekSepetiClient talks to the integration middleware of the first
// platform: client-credentials login plus per-order status lookup.
type YemekSepetiClient struct {
	baseURL   string
	chainCode string
	username  string
	password  string
	client    *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

type RemoteOrder struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
}

func NewYemekSepetiClient(baseURL, chainCode, username, password string) *YemekSepetiClient {
	return &YemekSepetiClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		chainCode: chainCode,
		username:  username,
		password:  password,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether upstream credentials are present. Without them
// the relay degrades to polling-only mode.
func (c *YemekSepetiClient) Configured() bool {
	return c.username != "" && c.password != "" && c.chainCode != ""
}

// Token returns a cached access token, authenticating when the cache is
// empty or past its soft expiry.
func (c *YemekSepetiClient) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{
		"username":   {c.username},
		"password":   {c.password},
		"grant_type": {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	c.token = res.AccessToken
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	slog.Info("yemeksepeti token refreshed")
	return c.token, nil
}

// OrderStatus fetches the authoritative state of one order. A 404 is not an
// error: it comes back as a RemoteOrder with StatusNotFound so the caller
// can treat the order as gone.
func (c *YemekSepetiClient) OrderStatus(ctx context.Context, orderToken string) (*RemoteOrder, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	u := fmt.Sprintf("%s/v2/chains/%s/orders/%s", c.baseURL, c.chainCode, orderToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res struct {
			Order RemoteOrder `json:"order"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &res.Order, nil
	case http.StatusNotFound:
		return &RemoteOrder{Status: StatusNotFound}, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(body))
	}
}
