package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttapp-api/internal/models"
	"github.com/noah-isme/ttapp-api/internal/service"
	"github.com/noah-isme/ttapp-api/pkg/config"
)

func guardedRouter(tokens *service.TokenService, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/guarded", JWT(tokens), RequireRoles(roles...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "s", Expiration: time.Hour})
	router := guardedRouter(tokens, models.RoleAdmin)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "s", Expiration: time.Hour})
	router := guardedRouter(tokens, models.RoleAdmin)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACForbidsWrongRole(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "s", Expiration: time.Hour})
	router := guardedRouter(tokens, models.RoleAdmin)

	signed, _, err := tokens.IssueToken("u1", "Staff", models.RoleStaff)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACAllowsPermittedRole(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "s", Expiration: time.Hour})
	router := guardedRouter(tokens, models.RoleAdmin, models.RoleStaff)

	signed, _, err := tokens.IssueToken("u1", "Staff", models.RoleStaff)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
