package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/config"
)

func TestNotebookHandlers_CreateAndRead(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	token := ts.issue(t, nil)

	w, created := ts.do(t, http.MethodPost, "/api/notebooks", token, notebookBody(minimalNotebook, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if created.Notebook.ID == "" || created.Notebook.ReadableID == "" {
		t.Fatalf("missing ids: %s", w.Body.String())
	}
	if created.Notebook.DomainID != "host-192.0.2.10" {
		t.Errorf("unexpected domain %q", created.Notebook.DomainID)
	}

	w, got := ts.do(t, http.MethodGet, "/api/notebooks/"+created.Notebook.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get failed: %d %s", w.Code, w.Body.String())
	}
	var content map[string]any
	if err := json.Unmarshal(got.Content, &content); err != nil || content["nbformat"] != float64(4) {
		t.Errorf("unexpected content %s: %v", got.Content, err)
	}

	w, byAlias := ts.do(t, http.MethodGet, "/api/notebooks/get-by-readable-id/"+created.Notebook.ReadableID, token, nil)
	if w.Code != http.StatusOK || byAlias.ID != created.Notebook.ID {
		t.Errorf("get by readable id failed: %d %s", w.Code, w.Body.String())
	}

	w, list := ts.do(t, http.MethodGet, "/api/notebooks", token, nil)
	if w.Code != http.StatusOK || len(list.Notebooks) != 1 {
		t.Errorf("expected one notebook in list, got %d %s", w.Code, w.Body.String())
	}

	w, resp := ts.do(t, http.MethodGet, "/api/notebooks/does-not-exist", token, nil)
	if w.Code != http.StatusNotFound || resp.ErrorCode != errCodeNotFound {
		t.Errorf("expected 404, got %d %s", w.Code, w.Body.String())
	}
}

func TestNotebookHandlers_CapabilityUpdate(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	tokenA := ts.issue(t, nil)
	tokenB := ts.issue(t, nil)

	_, open := ts.do(t, http.MethodPost, "/api/notebooks", tokenA, notebookBody(minimalNotebook, ""))
	w, resp := ts.do(t, http.MethodPut, "/api/notebooks/"+open.Notebook.ID, tokenB, notebookBody(minimalNotebook, ""))
	if w.Code != http.StatusUnauthorized || resp.ErrorCode != errCodeUnauthorized {
		t.Fatalf("foreign update should be 401, got %d %s", w.Code, w.Body.String())
	}

	w, _ = ts.do(t, http.MethodPut, "/api/notebooks/update-by-readable-id/"+open.Notebook.ReadableID, tokenA, notebookBody(minimalNotebook, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("owner update by readable id failed: %d %s", w.Code, w.Body.String())
	}

	_, locked := ts.do(t, http.MethodPost, "/api/notebooks", tokenA, notebookBody(minimalNotebook, "p"))
	w, _ = ts.do(t, http.MethodGet, "/api/notebooks/"+locked.Notebook.ID, tokenB, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("protected read by stranger should be 401, got %d", w.Code)
	}

	capability := ts.issue(t, map[string]string{"notebook_id": locked.Notebook.ID, "password": "p"})
	w, _ = ts.do(t, http.MethodPut, "/api/notebooks/"+locked.Notebook.ID, capability, notebookBody(minimalNotebook, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("capability update failed: %d %s", w.Code, w.Body.String())
	}

	_, list := ts.do(t, http.MethodGet, "/api/notebooks", capability, nil)
	if len(list.Notebooks) != 1 || list.Notebooks[0]["id"] != locked.Notebook.ID {
		t.Errorf("expected ownership moved to capability session, got %+v", list.Notebooks)
	}
	_, list = ts.do(t, http.MethodGet, "/api/notebooks", tokenA, nil)
	if len(list.Notebooks) != 1 {
		t.Errorf("expected original owner to keep only the open notebook, got %+v", list.Notebooks)
	}
}

func TestNotebookHandlers_Rejections(t *testing.T) {
	cfg := config.Config{}
	cfg.Notebook.MaxSizeBytes = 200
	ts := newTestServer(t, cfg)
	token := ts.issue(t, nil)

	w, resp := ts.do(t, http.MethodPost, "/api/notebooks", token, notebookBody(`{"metadata":{},"nbformat":4,"nbformat_minor":5}`, ""))
	if w.Code != http.StatusBadRequest || resp.ErrorCode != errCodeInvalidNotebook || len(resp.Violations) == 0 {
		t.Errorf("expected 400 %s with violations, got %d %s", errCodeInvalidNotebook, w.Code, w.Body.String())
	}

	w, resp = ts.do(t, http.MethodPost, "/api/notebooks", token, map[string]string{"password": "x"})
	if w.Code != http.StatusBadRequest || resp.ErrorCode != errCodeBadRequest {
		t.Errorf("expected 400 %s, got %d %s", errCodeBadRequest, w.Code, w.Body.String())
	}

	big := `{"cells":[{"cell_type":"markdown","id":"a","metadata":{},"source":"` + strings.Repeat("x", 120) + `"}],"metadata":{},"nbformat":4,"nbformat_minor":5}`
	w, resp = ts.do(t, http.MethodPost, "/api/notebooks", token, notebookBody(big, ""))
	if w.Code != http.StatusRequestEntityTooLarge || resp.ErrorCode != errCodeNotebookTooLarge {
		t.Fatalf("expected 413 %s, got %d %s", errCodeNotebookTooLarge, w.Code, w.Body.String())
	}
	if resp.Details["maxSizeBytes"] != float64(200) {
		t.Errorf("unexpected details: %v", resp.Details)
	}
}
