package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/config"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	var nilDB *sql.DB
	tests := []struct {
		name   string
		db     Pinger
		wantDB string
	}{
		{name: "memory", db: nil, wantDB: "using_memory"},
		{name: "typed nil db", db: nilDB, wantDB: "using_memory"},
		{name: "db ok", db: fakePinger{}, wantDB: "ok"},
		{name: "db down", db: fakePinger{err: errors.New("refused")}, wantDB: "error: refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(config.Config{}, Deps{DB: tt.db})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			srv.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var resp map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp["status"] != "OK" || resp["service"] != serviceName || resp["version"] != serviceVersion {
				t.Errorf("unexpected body: %v", resp)
			}
			if resp["db"] != tt.wantDB {
				t.Errorf("expected db=%s, got %v", tt.wantDB, resp["db"])
			}
		})
	}
}
