package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"authkit/pkg/jwt"
	"authkit/pkg/models"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie carries the session credential.
	SessionCookie = "token"

	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

var (
	ErrUnauthenticated = errors.New("not authorized, please login")
	ErrForbidden       = errors.New("forbidden: insufficient role")
	ErrAccountGone     = errors.New("account no longer exists")
)

type Identity struct {
	AccountID string
	Role      models.Role
}

// AccountResolver loads the identity behind a validated session. It returns
// ErrAccountGone when the account does not exist.
type AccountResolver interface {
	ResolveIdentity(ctx context.Context, accountID string) (*Identity, error)
}

type ResolverFunc func(ctx context.Context, accountID string) (*Identity, error)

func (f ResolverFunc) ResolveIdentity(ctx context.Context, accountID string) (*Identity, error) {
	return f(ctx, accountID)
}

// TokenFromRequest reads the session cookie, falling back to a Bearer Authorization header.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware authenticates the caller and stores user_id and user_role on the context.
func AuthMiddleware(jwtService *jwt.Service, resolver AccountResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			abort(c, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			abort(c, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}

		identity, err := resolver.ResolveIdentity(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrAccountGone) {
				abort(c, http.StatusUnauthorized, ErrUnauthenticated)
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(ContextUserID, identity.AccountID)
		c.Set(ContextUserRole, identity.Role)
		c.Next()
	}
}

// RequireRole lets the request through only if the authenticated role covers minimum.
// It must run after AuthMiddleware.
func RequireRole(minimum models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}
		if !role.Covers(minimum) {
			abort(c, http.StatusForbidden, ErrForbidden)
			return
		}
		c.Next()
	}
}

// AdminMiddleware admits admins and creators.
func AdminMiddleware() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

func CreatorMiddleware() gin.HandlerFunc {
	return RequireRole(models.RoleCreator)
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}

func RoleFromContext(c *gin.Context) (models.Role, bool) {
	v, exists := c.Get(ContextUserRole)
	if !exists {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
