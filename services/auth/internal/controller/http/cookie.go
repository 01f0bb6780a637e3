package http

import (
	"net/http"

	"authkit/pkg/jwt"
	"authkit/pkg/middleware"

	"github.com/gin-gonic/gin"
)

type CookieSettings struct {
	Secure bool
}

func (s CookieSettings) set(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.SessionCookie, token, int(jwt.SessionTTL.Seconds()), "/", "", s.Secure, true)
}

func (s CookieSettings) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", s.Secure, true)
}
