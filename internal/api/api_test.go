package api_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/assay/internal/api"
	"github.com/JaimeStill/assay/internal/config"
	"github.com/JaimeStill/assay/internal/infrastructure"
	"github.com/JaimeStill/assay/internal/workflow"
	"github.com/JaimeStill/assay/pkg/module"
	"github.com/JaimeStill/assay/pkg/taxonomy"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newRouter(t *testing.T) *module.Router {
	t.Helper()
	t.Setenv("ASSAY_STORAGE_CONNECTION_STRING", "")
	t.Setenv("ASSAY_CACHE_URL", "")

	cfg := &config.Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	infra, err := infrastructure.New(cfg, discard)
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}

	tx := taxonomy.New()
	tx.Add("Metal", "Ferrous", "Steel-A36")
	tx.Add("Metal", "Ferrous", "Steel-1018")
	tx.Add("Polymer", "Thermoplastic", "ABS")

	wf := workflow.NewRuntime(&cfg.Workflow, tx, nil, nil, discard)

	m, err := api.NewModule(cfg, infra, wf)
	if err != nil {
		t.Fatalf("NewModule: %v", err)
	}

	router := module.NewRouter()
	router.Mount(m)
	return router
}

func TestTaxonomyRoute(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/taxonomy", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var tree []taxonomy.Category
	if err := json.NewDecoder(rec.Body).Decode(&tree); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tree) != 2 || tree[0].Name != "Metal" || tree[1].Name != "Polymer" {
		t.Fatalf("tree = %+v", tree)
	}
	if got := tree[0].Subcategories[0].Grades; len(got) != 2 || got[0] != "Steel-A36" {
		t.Errorf("grades = %v", got)
	}
}

func TestClassificationRoutesValidateInput(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed classify body", "/api/classifications", `{`, http.StatusBadRequest},
		{"blank material", "/api/classifications", `{"material":""}`, http.StatusBadRequest},
		{"empty batch", "/api/classifications/batch", `{"materials":[]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Setenv("ASSAY_CORS_ENABLED", "true")
	t.Setenv("ASSAY_CORS_ORIGINS", "http://localhost:3000")
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/taxonomy", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
