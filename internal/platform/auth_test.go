package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCredentials_Token(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "my-client", r.Form.Get("client_id"))
		assert.Equal(t, "my-secret", r.Form.Get("client_secret"))

		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "issued-token",
			TokenType:   "Bearer",
			ExpiresIn:   3600,
		})
	}))
	defer server.Close()

	creds := NewClientCredentials(server.URL, "my-client", "my-secret")

	tok, err := creds.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "issued-token", tok)

	// The second call reuses the cached token.
	tok, err = creds.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "issued-token", tok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientCredentials_RefreshesExpiredToken(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		// Expiry inside the refresh skew forces a refetch next call.
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "token-" + string(rune('a'+n-1)),
			ExpiresIn:   1,
		})
	}))
	defer server.Close()

	creds := NewClientCredentials(server.URL, "c", "s")

	tok, err := creds.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-a", tok)

	tok, err = creds.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-b", tok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientCredentials_ErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(tokenResponse{Error: "invalid_client"})
	}))
	defer server.Close()

	creds := NewClientCredentials(server.URL, "c", "bad")
	_, err := creds.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
}

func TestDeviceAuthorize(t *testing.T) {
	var tokenCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/device/authorize":
			_ = json.NewEncoder(w).Encode(deviceAuthResponse{
				DeviceCode:      "dev-123",
				UserCode:        "ABCD-EFGH",
				VerificationURI: "https://verify.test/activate",
				ExpiresIn:       60,
				Interval:        1,
			})
		case "/oauth2/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, deviceGrant, r.Form.Get("grant_type"))
			assert.Equal(t, "dev-123", r.Form.Get("device_code"))

			// Pending on the first poll, granted on the second.
			if tokenCalls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(tokenResponse{Error: "authorization_pending"})
				return
			}
			_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "device-token", ExpiresIn: 3600})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	var notifiedURI, notifiedCode string
	source, err := DeviceAuthorize(context.Background(), server.URL, "cli-client", func(uri, code string) {
		notifiedURI = uri
		notifiedCode = code
	})
	require.NoError(t, err)

	assert.Equal(t, "https://verify.test/activate", notifiedURI)
	assert.Equal(t, "ABCD-EFGH", notifiedCode)
	assert.Equal(t, int32(2), tokenCalls.Load())

	tok, err := source.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "device-token", tok)
}

func TestDeviceAuthorize_AccessDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/device/authorize":
			_ = json.NewEncoder(w).Encode(deviceAuthResponse{
				DeviceCode: "dev-123",
				UserCode:   "ABCD",
				ExpiresIn:  60,
				Interval:   1,
			})
		case "/oauth2/token":
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(tokenResponse{Error: "access_denied"})
		}
	}))
	defer server.Close()

	_, err := DeviceAuthorize(context.Background(), server.URL, "cli-client", func(string, string) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
}

func TestStaticToken(t *testing.T) {
	tok, err := StaticToken("fixed").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", tok)
}
