package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/containerhub/containerhub/internal/fetchproxy"
)

func setupFetchProxyRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		Fetcher: fetchproxy.NewFetcher(2*time.Second, 0),
		Version: "test",
	})
}

func TestFetchProxyAPI_Success(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><title>Target</title></html>"))
	}))
	defer target.Close()

	router := setupFetchProxyRouter(t)
	w := performRequest(router, http.MethodPost, "/api/fetch-proxy", gin.H{"url": target.URL})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["content"], "Target")
	assert.Equal(t, "text/html", body["content_type"])
}

// Fetch failures come back in-band with 200 so the caller can attach
// the message to the offending URL instead of failing the whole call.
func TestFetchProxyAPI_FailureReportedInBand(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer target.Close()

	router := setupFetchProxyRouter(t)
	w := performRequest(router, http.MethodPost, "/api/fetch-proxy", gin.H{"url": target.URL})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "404")
}

func TestFetchProxyAPI_RequiresURL(t *testing.T) {
	router := setupFetchProxyRouter(t)
	w := performRequest(router, http.MethodPost, "/api/fetch-proxy", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
