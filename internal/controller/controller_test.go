package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/internal/pkg/serverutils"
	"design-companion-be/internal/repository/memory"
	"design-companion-be/internal/service"
	"design-companion-be/pkg/apperror"
	consultEvents "design-companion-be/pkg/consult/events"
	"design-companion-be/pkg/consult/library"
	"design-companion-be/pkg/gemini"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGemini struct{}

func (fakeGemini) Analyze(ctx context.Context, prompt, imageURI string, opts gemini.SearchOptions) (*gemini.AnalysisResult, error) {
	return &gemini.AnalysisResult{Text: "ok"}, nil
}

func (fakeGemini) Chat(ctx context.Context, message string, history []entity.Message, opts gemini.SearchOptions) (*gemini.ChatResult, error) {
	return &gemini.ChatResult{Text: "Use wide, well-lit corridors."}, nil
}

func (fakeGemini) GetOrCreateStore(ctx context.Context, displayName string) (*entity.FileSearchStore, error) {
	return &entity.FileSearchStore{Name: "fileSearchStores/t", DisplayName: displayName}, nil
}

func (fakeGemini) GetStore(ctx context.Context, name string) (*entity.FileSearchStore, error) {
	return &entity.FileSearchStore{Name: name}, nil
}

func (fakeGemini) ListStores(ctx context.Context) ([]entity.FileSearchStore, error) {
	return nil, nil
}

func (fakeGemini) DeleteStore(ctx context.Context, name string) error {
	return nil
}

func (fakeGemini) DeleteDocument(ctx context.Context, storeName, documentName string) error {
	return nil
}

func (fakeGemini) UploadAndIndex(ctx context.Context, storeName string, file gemini.UploadFile, sourceContext string, onProgress gemini.ProgressFunc) (*gemini.UploadResult, error) {
	return &gemini.UploadResult{DocumentName: storeName + "/documents/d"}, nil
}

type testLogReader struct{}

func (testLogReader) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return []logger.LogEntry{{Id: "abc", Level: "info", Module: "SESSION", Message: "Session created"}}, nil
}

func (testLogReader) GetLogById(id string) (*logger.LogEntry, error) {
	if id != "abc" {
		return nil, apperror.New(apperror.KindNotFound, "Log not found")
	}
	return &logger.LogEntry{Id: "abc", Level: "info"}, nil
}

type harness struct {
	app    *fiber.App
	apiKey string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNopLogger()
	h := &harness{apiKey: "key"}
	hasKey := func() bool { return h.apiKey != "" }

	tokens := serverutils.NewTokenManager("secret", time.Hour)
	publisher := consultEvents.NewNatsPublisher(nil, log)
	workspaces := service.NewWorkspaceRegistry(memory.NewKVRepository(), fakeGemini{}, library.Options{}, nil, time.Hour, log)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(log))
	api := app.Group("/api")
	NewSetupController(service.NewSetupService(func() string { return h.apiKey }, "m", library.DefaultMaxFileSizeBytes)).RegisterRoutes(api)
	NewAuthController(service.NewRoleService(workspaces, tokens, log), tokens).RegisterRoutes(api)
	NewConsultationController(service.NewConsultationService(workspaces, fakeGemini{}, publisher, log), tokens, hasKey).RegisterRoutes(api)
	NewLibraryController(service.NewLibraryService(workspaces, publisher, log), tokens, hasKey).RegisterRoutes(api)
	NewUIController(service.NewUIService(workspaces), tokens).RegisterRoutes(api)
	NewAdminController(service.NewLogService(testLogReader{}), tokens).RegisterRoutes(api)

	h.app = app
	return h
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind string `json:"kind"`
	} `json:"error"`
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.send(t, req)
}

func (h *harness) send(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func (h *harness) login(t *testing.T, role string) string {
	t.Helper()
	resp, env := h.do(t, "POST", "/api/auth/v1/role", "", map[string]string{"role": role})
	require.Equal(t, 200, resp.StatusCode)
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func TestSetupStatusIsPublic(t *testing.T) {
	h := newHarness(t)
	resp, env := h.do(t, "GET", "/api/setup/v1/status", "", nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"hasApiKey":true`)
}

func TestRoleSelection(t *testing.T) {
	h := newHarness(t)

	resp, env := h.do(t, "POST", "/api/auth/v1/role", "", map[string]string{"role": "GUEST"})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "validation", env.Error.Kind)

	resp, _ = h.do(t, "GET", "/api/auth/v1/me", "", nil)
	assert.Equal(t, 401, resp.StatusCode)

	token := h.login(t, "ARCHITECT")
	resp, env = h.do(t, "GET", "/api/auth/v1/me", token, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"isAuthenticated":true`)

	resp, _ = h.do(t, "POST", "/api/auth/v1/logout", token, nil)
	assert.Equal(t, 200, resp.StatusCode)
	_, env = h.do(t, "GET", "/api/auth/v1/me", token, nil)
	assert.Contains(t, string(env.Data), `"isAuthenticated":false`)
}

func TestConsultationFlow(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "ARCHITECT")

	resp, _ := h.do(t, "POST", "/api/consultation/v1/messages", token, map[string]string{"content": "Hi"})
	assert.Equal(t, 202, resp.StatusCode, "no active session yet")

	resp, env := h.do(t, "POST", "/api/consultation/v1/sessions", token, nil)
	require.Equal(t, 201, resp.StatusCode)
	var created struct {
		Session entity.ChatSession `json:"session"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	resp, _ = h.do(t, "POST", "/api/consultation/v1/messages", token, map[string]string{"content": "Safe corridor layout"})
	require.Equal(t, 200, resp.StatusCode)

	resp, env = h.do(t, "GET", "/api/consultation/v1/sessions/"+created.Session.Id, token, nil)
	require.Equal(t, 200, resp.StatusCode)
	var sess entity.ChatSession
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Len(t, sess.Messages, 2)
	assert.Equal(t, "Safe corridor layout", sess.Title)

	resp, env = h.do(t, "GET", "/api/consultation/v1/sessions/missing", token, nil)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "not_found", env.Error.Kind)

	resp, _ = h.do(t, "DELETE", "/api/consultation/v1/sessions/"+created.Session.Id, token, nil)
	assert.Equal(t, 200, resp.StatusCode)

	_, env = h.do(t, "GET", "/api/ui/v1", token, nil)
	assert.Contains(t, string(env.Data), `"activeSessionId":null`)
}

func TestMissingCredentialBlocksConsultation(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "ARCHITECT")
	h.apiKey = ""

	resp, env := h.do(t, "GET", "/api/consultation/v1/sessions", token, nil)
	assert.Equal(t, 412, resp.StatusCode)
	assert.Equal(t, apperror.MessageFor(apperror.KindCredential), env.Message)

	resp, _ = h.do(t, "GET", "/api/library/v1", token, nil)
	assert.Equal(t, 412, resp.StatusCode)
}

func TestAdminLogsNeedAdminRole(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(t, "GET", "/api/admin/v1/logs", h.login(t, "ARCHITECT"), nil)
	assert.Equal(t, 403, resp.StatusCode)

	admin := h.login(t, "ADMIN")
	resp, env := h.do(t, "GET", "/api/admin/v1/logs", admin, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(env.Data), "Session created")

	resp, _ = h.do(t, "GET", "/api/admin/v1/logs/unknown", admin, nil)
	assert.Equal(t, 404, resp.StatusCode)
}

func uploadRequest(t *testing.T, token, name, mimeType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="` + name + `"`},
		"Content-Type":        {mimeType},
	})
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("context", "egress study"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/library/v1/files", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestLibraryUpload(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "ARCHITECT")

	resp, env := h.send(t, uploadRequest(t, token, "egress.pdf", "application/pdf", []byte("%PDF")))
	require.Equal(t, 201, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"displayName":"egress.pdf"`)

	resp, env = h.send(t, uploadRequest(t, token, "tool.exe", "application/x-msdownload", []byte("MZ")))
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "file", env.Error.Kind)

	resp, env = h.do(t, "GET", "/api/library/v1", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"state":"READY"`)

	resp, env = h.do(t, "DELETE", "/api/library/v1/progress", token, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"uploadProgress":""`)

	resp, _ = h.do(t, "DELETE", "/api/library/v1/files/egress.pdf", token, nil)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestUIToggle(t *testing.T) {
	h := newHarness(t)
	token := h.login(t, "ARCHITECT")

	_, env := h.do(t, "POST", "/api/ui/v1/sidebar/toggle", token, nil)
	assert.Contains(t, string(env.Data), `"isSidebarOpen":false`)

	resp, env := h.do(t, "PATCH", "/api/ui/v1", token, map[string]bool{"isSettingsOpen": true})
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"isSettingsOpen":true`)
}
