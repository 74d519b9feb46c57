package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appauth "github.com/JupyterEverywhere/sharing-service-sub000/internal/application/auth"
	appnotebook "github.com/JupyterEverywhere/sharing-service-sub000/internal/application/notebook"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infra/memory"
	authinfra "github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/auth"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/config"
	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/storage"

	"github.com/gin-gonic/gin"
)

const (
	testSecret      = "test-secret"
	minimalNotebook = `{"cells":[],"metadata":{},"nbformat":4,"nbformat_minor":5}`
)

type testServer struct {
	server *Server
	codec  *authinfra.TokenCodec
}

func newTestServer(t *testing.T, cfg config.Config) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	blobs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	codec := authinfra.NewTokenCodec(testSecret, 0)
	hasher := authinfra.BcryptHasher{Cost: 4}

	schema, err := appnotebook.NewSchemaValidator()
	if err != nil {
		t.Fatalf("NewSchemaValidator failed: %v", err)
	}
	maxBytes := cfg.Notebook.MaxSizeBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxNotebookBytes
	}
	notebooks := appnotebook.NewService(store, blobs, appnotebook.NewPipeline(schema, maxBytes), codec, hasher)
	tokens := appauth.NewTokenService(codec, memory.NewSessionStore(), notebooks, hasher, time.Hour)

	srv := NewServer(cfg, Deps{
		Tokens:    tokens,
		Notebooks: notebooks,
		ResolveHost: func(_ context.Context, ip string) string {
			return "host-" + ip
		},
	})
	return testServer{server: srv, codec: codec}
}

type apiResponse struct {
	Success    bool            `json:"success"`
	Error      string          `json:"error"`
	ErrorCode  string          `json:"error_code"`
	Token      string          `json:"token"`
	ID         string          `json:"id"`
	DomainID   string          `json:"domain_id"`
	ReadableID string          `json:"readable_id"`
	Content    json.RawMessage `json:"content"`
	Violations []string        `json:"violations"`
	Details    map[string]any  `json:"details"`
	Notebook   struct {
		ID         string `json:"id"`
		DomainID   string `json:"domain_id"`
		ReadableID string `json:"readable_id"`
	} `json:"notebook"`
	Notebooks []map[string]any `json:"notebooks"`
}

func (ts testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.0.2.10:5555"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)

	var resp apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (ts testServer) issue(t *testing.T, body any) string {
	t.Helper()
	w, resp := ts.do(t, http.MethodPost, "/api/auth/issue", "", body)
	if w.Code != http.StatusOK || resp.Token == "" {
		t.Fatalf("issue failed: %d %s", w.Code, w.Body.String())
	}
	return resp.Token
}

func notebookBody(doc string, password string) map[string]any {
	body := map[string]any{"notebook": json.RawMessage(doc)}
	if password != "" {
		body["password"] = password
	}
	return body
}
