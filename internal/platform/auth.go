package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	tokenPath     = "/oauth2/token"
	devicePath    = "/oauth2/device/authorize"
	deviceGrant   = "urn:ietf:params:oauth:grant-type:device_code"
	expirySkew    = 30 * time.Second
	deviceTimeout = 5 * time.Minute
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// ClientCredentials is a TokenSource using the OAuth client-credentials
// grant, refreshing automatically as expiry approaches. This is the
// service-account path for unattended runs.
type ClientCredentials struct {
	host         string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewClientCredentials creates a client-credentials token source against
// the platform host.
func NewClientCredentials(host, clientID, clientSecret string) *ClientCredentials {
	return &ClientCredentials{
		host:         host,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns a valid access token, fetching a fresh one when the
// cached token is within the skew of expiring.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expires.Add(-expirySkew)) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	tok, err := requestToken(ctx, c.httpClient, c.host+tokenPath, form)
	if err != nil {
		return "", err
	}
	c.token = tok.AccessToken
	c.expires = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

type deviceAuthResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

// DeviceAuthorize performs the RFC 8628 device-code flow for interactive
// runs: it prints the verification URI and user code via notify, then
// polls the token endpoint until the user grants access or ctx expires.
// The returned token source carries the granted token.
func DeviceAuthorize(ctx context.Context, host, clientID string, notify func(uri, code string)) (TokenSource, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	form := url.Values{"client_id": {clientID}}
	resp, err := httpClient.PostForm(host+devicePath, form)
	if err != nil {
		return nil, fmt.Errorf("device authorization request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read device authorization response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var auth deviceAuthResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, fmt.Errorf("failed to decode device authorization response: %w", err)
	}

	uri := auth.VerificationURIComplete
	if uri == "" {
		uri = auth.VerificationURI
	}
	notify(uri, auth.UserCode)

	interval := time.Duration(auth.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(deviceTimeout)
	if auth.ExpiresIn > 0 {
		deadline = time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second)
	}

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		tok, err := requestToken(ctx, httpClient, host+tokenPath, url.Values{
			"grant_type":  {deviceGrant},
			"device_code": {auth.DeviceCode},
			"client_id":   {clientID},
		})
		if err != nil {
			// authorization_pending means keep polling; slow_down widens
			// the interval per RFC 8628.
			msg := err.Error()
			if strings.Contains(msg, "authorization_pending") {
				continue
			}
			if strings.Contains(msg, "slow_down") {
				interval += 5 * time.Second
				continue
			}
			return nil, err
		}
		return StaticToken(tok.AccessToken), nil
	}
	return nil, fmt.Errorf("device authorization timed out")
}

func requestToken(ctx context.Context, httpClient *http.Client, endpoint string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || tok.Error != "" {
		if tok.Error != "" {
			return nil, fmt.Errorf("token endpoint error: %s", tok.Error)
		}
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}
	return &tok, nil
}
