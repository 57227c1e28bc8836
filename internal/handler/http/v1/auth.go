package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/ems_dispatch_system/internal/access"
	"github.com/sirupsen/logrus"
)

const identityContextKey = "identity"

// IdentityProvider - абстракция над механизмом проверки личности вызывающего.
// Движок не знает, как именно подтверждена роль; он получает готовый контекст.
type IdentityProvider interface {
	FromRequest(c *gin.Context) (access.Identity, error)
}

// HeaderIdentityProvider читает доверенный контекст из заголовков,
// проставленных вышестоящим шлюзом аутентификации:
// X-User-Role (обязателен), X-User-ID, X-User-Name.
type HeaderIdentityProvider struct{}

func (HeaderIdentityProvider) FromRequest(c *gin.Context) (access.Identity, error) {
	role := access.Role(c.GetHeader("X-User-Role"))
	if role == "" {
		return access.Identity{}, fmt.Errorf("missing X-User-Role header")
	}
	if !access.KnownRole(role) {
		return access.Identity{}, fmt.Errorf("unknown role %q", role)
	}

	ident := access.Identity{
		Role: role,
		Name: c.GetHeader("X-User-Name"),
	}

	// Отсутствие X-User-ID допустимо: это анонимная отправка через публичный API
	if raw := c.GetHeader("X-User-ID"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return access.Identity{}, fmt.Errorf("invalid X-User-ID header: %w", err)
		}
		ident.UserID = &userID
	}

	return ident, nil
}

// IdentityMiddleware - middleware, требующее контекст аутентификации на каждом запросе
func IdentityMiddleware(provider IdentityProvider, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, err := provider.FromRequest(c)
		if err != nil {
			log.WithError(err).Warn("Request rejected: no authentication context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication context required"})
			return
		}
		c.Set(identityContextKey, ident)
		c.Next()
	}
}

// identityFrom достает контекст вызывающего, сохраненный middleware
func identityFrom(c *gin.Context) access.Identity {
	if v, ok := c.Get(identityContextKey); ok {
		if ident, ok := v.(access.Identity); ok {
			return ident
		}
	}
	return access.Identity{Role: access.RolePublic}
}
