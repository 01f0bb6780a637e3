package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authkit/pkg/jwt"
	"authkit/pkg/models"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func staticResolver(accounts map[string]models.Role) AccountResolver {
	return ResolverFunc(func(ctx context.Context, accountID string) (*Identity, error) {
		role, ok := accounts[accountID]
		if !ok {
			return nil, ErrAccountGone
		}
		return &Identity{AccountID: accountID, Role: role}, nil
	})
}

func protectedRouter(jwtService *jwt.Service, resolver AccountResolver, gates ...gin.HandlerFunc) *gin.Engine {
	router := setupTestRouter()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(jwtService, resolver)}, gates...)
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := UserIDFromContext(c)
		role, _ := RoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
	})
	router.GET("/test", handlers...)
	return router
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, err := jwtService.GenerateToken("user-123")
	require.NoError(t, err)

	router := protectedRouter(jwtService, staticResolver(map[string]models.Role{"user-123": models.RoleMember}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-123"`)
	assert.Contains(t, w.Body.String(), `"role":"member"`)
}

func TestAuthMiddleware_ValidCookie(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, err := jwtService.GenerateToken("user-123")
	require.NoError(t, err)

	router := protectedRouter(jwtService, staticResolver(map[string]models.Role{"user-123": models.RoleMember}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_NoCredential(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	router := protectedRouter(jwtService, staticResolver(nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidFormat(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	router := protectedRouter(jwtService, staticResolver(nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "InvalidFormat token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	router := protectedRouter(jwtService, staticResolver(nil))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_TokenFromOtherKey(t *testing.T) {
	other := jwt.NewService("other-secret")
	token, err := other.GenerateToken("user-123")
	require.NoError(t, err)

	jwtService := jwt.NewService("test-secret-key")
	router := protectedRouter(jwtService, staticResolver(map[string]models.Role{"user-123": models.RoleCreator}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	issued := time.Now().Add(-jwt.SessionTTL - time.Hour)
	expired, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, jwt.Claims{
		UserID: "user-123",
		RegisteredClaims: gojwt.RegisteredClaims{
			IssuedAt:  gojwt.NewNumericDate(issued),
			ExpiresAt: gojwt.NewNumericDate(issued.Add(jwt.SessionTTL)),
		},
	}).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	jwtService := jwt.NewService("test-secret-key")
	router := protectedRouter(jwtService, staticResolver(map[string]models.Role{"user-123": models.RoleAdmin}))

	for _, attach := range []func(*http.Request){
		func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+expired) },
		func(req *http.Request) { req.AddCookie(&http.Cookie{Name: SessionCookie, Value: expired}) },
	} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		attach(req)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), ErrUnauthenticated.Error())
	}
}

func TestAuthMiddleware_AccountGone(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, err := jwtService.GenerateToken("deleted-user")
	require.NoError(t, err)

	router := protectedRouter(jwtService, staticResolver(map[string]models.Role{}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ResolverFailure(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	token, err := jwtService.GenerateToken("user-123")
	require.NoError(t, err)

	resolver := ResolverFunc(func(ctx context.Context, accountID string) (*Identity, error) {
		return nil, errors.New("connection refused")
	})
	router := protectedRouter(jwtService, resolver)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRoleGates(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	resolver := staticResolver(map[string]models.Role{
		"member-1":  models.RoleMember,
		"admin-1":   models.RoleAdmin,
		"creator-1": models.RoleCreator,
	})

	tests := []struct {
		name    string
		gate    gin.HandlerFunc
		account string
		want    int
	}{
		{"member on admin route", AdminMiddleware(), "member-1", http.StatusForbidden},
		{"admin on admin route", AdminMiddleware(), "admin-1", http.StatusOK},
		{"creator on admin route", AdminMiddleware(), "creator-1", http.StatusOK},
		{"member on creator route", CreatorMiddleware(), "member-1", http.StatusForbidden},
		{"admin on creator route", CreatorMiddleware(), "admin-1", http.StatusForbidden},
		{"creator on creator route", CreatorMiddleware(), "creator-1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwtService.GenerateToken(tt.account)
			require.NoError(t, err)

			router := protectedRouter(jwtService, resolver, tt.gate)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRole_WithoutAuthentication(t *testing.T) {
	router := setupTestRouter()
	router.GET("/test", CreatorMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_MemberFloor(t *testing.T) {
	jwtService := jwt.NewService("test-secret-key")
	resolver := staticResolver(map[string]models.Role{
		"member-1": models.RoleMember,
		"legacy-1": models.Role("superuser"),
	})

	tests := []struct {
		account string
		want    int
	}{
		{"member-1", http.StatusOK},
		{"legacy-1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.account, func(t *testing.T) {
			token, err := jwtService.GenerateToken(tt.account)
			require.NoError(t, err)

			router := protectedRouter(jwtService, resolver, RequireRole(models.RoleMember))

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/test", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
