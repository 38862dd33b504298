package onboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"modelbench/internal/platform"
)

func TestCreateServiceAccount(t *testing.T) {
	var boundRole platform.PostRoleBinding
	var groupMembers platform.PostGroupMembership

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/organization/service_accounts", func(w http.ResponseWriter, r *http.Request) {
		var spec platform.PostServiceAccount
		require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))
		_ = json.NewEncoder(w).Encode(platform.ServiceAccount{
			ID:   "sa-1",
			Name: spec.Name,
			Credentials: &platform.ServiceAccountCredentials{
				ClientID:     "client-1",
				ClientSecret: "secret-1",
			},
		})
	})
	mux.HandleFunc("GET /api/v1/roles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Model Onboarding", r.URL.Query().Get("name"))
		assert.Equal(t, "true", r.URL.Query().Get("organization_bindable"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []platform.Role{{ID: "role-1", Name: "Model Onboarding"}},
		})
	})
	mux.HandleFunc("POST /api/v1/organization/role_bindings", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&boundRole))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/v1/groups", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []platform.Group{{ID: "grp-1", Name: "automation"}},
		})
	})
	mux.HandleFunc("POST /api/v1/groups/grp-1/users", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&groupMembers))
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := platform.NewClient(server.URL, platform.StaticToken("t"), zap.NewNop())
	account, err := New(client, zap.NewNop()).CreateServiceAccount(context.Background(), ServiceAccountConfig{
		Name:      "nightly-runner",
		RoleName:  "Model Onboarding",
		GroupName: "automation",
	})
	require.NoError(t, err)

	assert.Equal(t, "sa-1", account.ID)
	assert.Equal(t, "nightly-runner", account.Name)
	require.NotNil(t, account.Credentials)
	assert.Equal(t, "client-1", account.Credentials.ClientID)
	assert.Equal(t, "secret-1", account.Credentials.ClientSecret)

	assert.Equal(t, platform.PostRoleBinding{RoleID: "role-1", UserID: "sa-1"}, boundRole)
	assert.Equal(t, []string{"sa-1"}, groupMembers.UserIDs)
}

func TestCreateServiceAccount_NoCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/organization/service_accounts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(platform.ServiceAccount{ID: "sa-1"})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := platform.NewClient(server.URL, platform.StaticToken("t"), zap.NewNop())
	_, err := New(client, zap.NewNop()).CreateServiceAccount(context.Background(), ServiceAccountConfig{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without credentials")
}

func TestCreateServiceAccount_RoleNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/organization/service_accounts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(platform.ServiceAccount{
			ID:          "sa-1",
			Credentials: &platform.ServiceAccountCredentials{ClientID: "c", ClientSecret: "s"},
		})
	})
	mux.HandleFunc("GET /api/v1/roles", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"records": []platform.Role{}})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := platform.NewClient(server.URL, platform.StaticToken("t"), zap.NewNop())
	_, err := New(client, zap.NewNop()).CreateServiceAccount(context.Background(), ServiceAccountConfig{
		Name:     "x",
		RoleName: "No Such Role",
	})
	require.ErrorIs(t, err, platform.ErrNotFound)
}
