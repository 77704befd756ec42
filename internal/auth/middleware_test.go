package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/containerhub/containerhub/internal/config"
	"github.com/containerhub/containerhub/internal/entities"
)

func newAuthedRouter(t *testing.T, mode config.AuthMode) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service, _ := newTestService()
	middleware := NewMiddleware(service, config.Auth{Mode: mode, BcryptCost: 4}, 1)

	router := gin.New()
	router.Use(middleware.Handler())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": RoleFromContext(c), "org": OrgFromContext(c)})
	})
	router.POST("/write", RequireWriter(), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.DELETE("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return router, service
}

func get(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_NoneModeActsAsAdmin(t *testing.T) {
	router, _ := newAuthedRouter(t, config.AuthModeNone)

	w := get(router, "/whoami", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"admin"`)

	req, _ := http.NewRequest(http.MethodPost, "/write", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_TokenModeRequiresBearer(t *testing.T) {
	router, _ := newAuthedRouter(t, config.AuthModeToken)

	assert.Equal(t, http.StatusUnauthorized, get(router, "/whoami", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "/whoami", "bogus").Code)
}

func TestMiddleware_TokenModeHealthStaysPublic(t *testing.T) {
	router, _ := newAuthedRouter(t, config.AuthModeToken)

	assert.Equal(t, http.StatusOK, get(router, "/health", "").Code)
}

func TestMiddleware_TokenModeValidToken(t *testing.T) {
	router, service := newAuthedRouter(t, config.AuthModeToken)

	user, err := service.CreateUser(7, "alice", "", testPassword, entities.UserRoleEditor)
	require.NoError(t, err)
	token, err := service.GenerateToken(user.ID)
	require.NoError(t, err)

	w := get(router, "/whoami", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"editor"`)
	assert.Contains(t, w.Body.String(), `"org":7`)
}

func TestRequireRole_ViewerCannotWrite(t *testing.T) {
	router, service := newAuthedRouter(t, config.AuthModeToken)

	viewer, err := service.CreateUser(1, "viewer", "", testPassword, entities.UserRoleViewer)
	require.NoError(t, err)
	token, err := service.GenerateToken(viewer.ID)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, "/write", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_EditorForbidden(t *testing.T) {
	router, service := newAuthedRouter(t, config.AuthModeToken)

	editor, err := service.CreateUser(1, "editor", "", testPassword, entities.UserRoleEditor)
	require.NoError(t, err)
	token, err := service.GenerateToken(editor.ID)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodDelete, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Equal(t, "", bearerToken(""))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken("Bearer"))
}
