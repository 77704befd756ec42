package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/containerhub/containerhub/internal/importer"
)

// stubCatalog is an in-memory importer.Catalog for driving runs
// without a database or network.
type stubCatalog struct {
	mu      sync.Mutex
	created int

	beforeBulk func()
}

func (s *stubCatalog) CreateItem(_ context.Context, item importer.NormalizedItem) (*importer.CreatedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	return &importer.CreatedItem{ID: uint(s.created), Title: item.Title}, nil
}

func (s *stubCatalog) BulkCreate(_ context.Context, items []importer.NormalizedItem) (int, error) {
	if s.beforeBulk != nil {
		s.beforeBulk()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created += len(items)
	return len(items), nil
}

func (s *stubCatalog) RegisteredSourceURLs(_ context.Context) ([]string, error) {
	return nil, nil
}

func (s *stubCatalog) FetchPage(_ context.Context, _ string) (*importer.FetchResult, error) {
	return &importer.FetchResult{Content: "<html><title>Stub</title></html>", ContentType: "text/html"}, nil
}

func setupImportRouter(t *testing.T, catalog importer.Catalog) (*gin.Engine, *importer.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	runner := importer.NewRunner(catalog, importer.RunnerConfig{FileBatchSize: 2})
	registry := importer.NewRegistry(time.Hour)
	router := NewRouter(RouterConfig{
		ImportRunner:   runner,
		ImportRegistry: registry,
		Version:        "test",
	})
	return router, registry
}

func importPayload(n int) string {
	var b strings.Builder
	b.WriteString(`{"apps": [`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"name": "App %d", "description": %q}`, i+1, strings.Repeat("d", 60))
	}
	b.WriteString("]}")
	return b.String()
}

func waitForPhase(t *testing.T, router *gin.Engine, id string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		w := performRequest(router, http.MethodGet, "/api/import/runs/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		if decodeBody(t, w)["phase"] == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("run %s never reached phase %s", id, want)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestImportsAPI_FileRunLifecycle(t *testing.T) {
	catalog := &stubCatalog{}
	router, _ := setupImportRouter(t, catalog)

	w := performRequest(router, http.MethodPost, "/api/import/runs", gin.H{
		"mode":      "file",
		"item_type": "app",
		"format":    "json",
		"content":   importPayload(5),
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	started := decodeBody(t, w)
	id := started["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "file", started["mode"])

	waitForPhase(t, router, id, "completed")

	w = performRequest(router, http.MethodGet, "/api/import/runs/"+id+"/result", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, float64(5), result["created"])
	assert.Equal(t, 5, catalog.created)
}

func TestHealthReportsImportRuns(t *testing.T) {
	router, registry := setupImportRouter(t, &stubCatalog{})

	w := performRequest(router, http.MethodPost, "/api/import/runs", gin.H{
		"mode":      "file",
		"item_type": "app",
		"format":    "json",
		"content":   importPayload(3),
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	id := decodeBody(t, w)["id"].(string)
	waitForPhase(t, router, id, "completed")
	require.Equal(t, 1, registry.Len())

	w = performRequest(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	imports, ok := decodeBody(t, w)["imports"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), imports["tracked_runs"])
	assert.Equal(t, float64(0), imports["active_runs"])
}

func TestImportsAPI_MalformedInputRejectedSynchronously(t *testing.T) {
	router, registry := setupImportRouter(t, &stubCatalog{})

	w := performRequest(router, http.MethodPost, "/api/import/runs", gin.H{
		"mode":      "file",
		"item_type": "app",
		"format":    "json",
		"content":   "{not json",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "json", body["format"])
	assert.Zero(t, registry.Len())
}

func TestImportsAPI_StartValidation(t *testing.T) {
	router, _ := setupImportRouter(t, &stubCatalog{})

	t.Run("missing mode", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/import/runs", gin.H{"item_type": "app"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown mode", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/import/runs", gin.H{
			"mode": "batch", "item_type": "app", "content": importPayload(1),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown item type", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/api/import/runs", gin.H{
			"mode": "file", "item_type": "gadget", "content": importPayload(1),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestImportsAPI_ResultConflictWhileRunning(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	firstBatch := make(chan struct{})
	catalog := &stubCatalog{beforeBulk: func() {
		once.Do(func() { close(firstBatch) })
		<-release
	}}
	router, _ := setupImportRouter(t, catalog)

	w := performRequest(router, http.MethodPost, "/api/import/runs", gin.H{
		"mode":      "file",
		"item_type": "app",
		"format":    "json",
		"content":   importPayload(4),
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	id := decodeBody(t, w)["id"].(string)

	<-firstBatch
	w = performRequest(router, http.MethodGet, "/api/import/runs/"+id+"/result", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "running", decodeBody(t, w)["phase"])

	close(release)
	waitForPhase(t, router, id, "completed")
}

func TestImportsAPI_Cancel(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	firstBatch := make(chan struct{})
	catalog := &stubCatalog{beforeBulk: func() {
		once.Do(func() { close(firstBatch) })
		<-release
	}}
	router, _ := setupImportRouter(t, catalog)

	w := performRequest(router, http.MethodPost, "/api/import/runs", gin.H{
		"mode":      "file",
		"item_type": "app",
		"format":    "json",
		"content":   importPayload(6),
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	id := decodeBody(t, w)["id"].(string)

	<-firstBatch
	w = performRequest(router, http.MethodPost, "/api/import/runs/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	close(release)
	waitForPhase(t, router, id, "cancelled")

	// The in-flight batch still lands before the run stops.
	w = performRequest(router, http.MethodGet, "/api/import/runs/"+id+"/result", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decodeBody(t, w)["result"].(map[string]interface{})
	assert.Equal(t, float64(2), result["created"])
}

func TestImportsAPI_UnknownRun(t *testing.T) {
	router, _ := setupImportRouter(t, &stubCatalog{})

	for _, path := range []string{
		"/api/import/runs/nope",
		"/api/import/runs/nope/result",
	} {
		assert.Equal(t, http.StatusNotFound, performRequest(router, http.MethodGet, path, nil).Code)
	}
	assert.Equal(t, http.StatusNotFound, performRequest(router, http.MethodPost, "/api/import/runs/nope/cancel", nil).Code)
}
