package integration

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"design-companion-be/internal/bootstrap"
	"design-companion-be/internal/config"
	"design-companion-be/internal/server"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T, apiKey string) *server.Server {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}

	cfg := config.Load()
	cfg.App.NatsURL = ""
	cfg.App.RedisURL = ""
	cfg.App.JwtSecret = "integration-secret"
	cfg.App.TokenTTL = time.Hour
	cfg.App.WorkspaceIdleTTL = time.Hour
	cfg.Storage.Backend = "memory"
	cfg.Keys.GoogleGemini = apiKey
	cfg.Log = config.LogConfig{Level: "error"}

	container := bootstrap.NewContainer(cfg)
	t.Cleanup(container.Close)
	return server.New(cfg, container)
}

func call(t *testing.T, srv *server.Server, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.GetApp().Test(req, -1)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestSessionLifecycle(t *testing.T) {
	srv := newApp(t, "integration-key")

	status, env := call(t, srv, "POST", "/api/auth/v1/role", "", map[string]string{"role": "ARCHITECT"})
	require.Equal(t, 200, status)
	var login struct {
		Token    string `json:"token"`
		ClientId string `json:"clientId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.ClientId)

	status, _ = call(t, srv, "POST", "/api/consultation/v1/sessions", login.Token, map[string]string{"title": "Clinic waiting room"})
	require.Equal(t, 201, status)

	status, env = call(t, srv, "GET", "/api/consultation/v1/sessions", login.Token, nil)
	require.Equal(t, 200, status)
	var list struct {
		Sessions []struct {
			Title    string `json:"title"`
			IsActive bool   `json:"isActive"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "Clinic waiting room", list.Sessions[0].Title)
	assert.True(t, list.Sessions[0].IsActive)

	status, _ = call(t, srv, "POST", "/api/consultation/v1/reset", login.Token, nil)
	require.Equal(t, 200, status)

	status, env = call(t, srv, "GET", "/api/consultation/v1/sessions", login.Token, nil)
	require.Equal(t, 200, status)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list.Sessions)
}

func TestMissingKeyIsReported(t *testing.T) {
	srv := newApp(t, "")

	status, env := call(t, srv, "GET", "/api/setup/v1/status", "", nil)
	require.Equal(t, 200, status)
	assert.Contains(t, string(env.Data), `"hasApiKey":false`)

	_, env = call(t, srv, "POST", "/api/auth/v1/role", "", map[string]string{"role": "ARCHITECT"})
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))

	status, _ = call(t, srv, "GET", "/api/library/v1", login.Token, nil)
	assert.Equal(t, 412, status)
}
