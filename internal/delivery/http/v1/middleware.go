package v1

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-tenants/internal/identity"
)

const userIDCtxKey = "user_id"

// HandleAuthMiddleware requires a live session and stores its user ID in
// the context.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	userID, err := h.resolveIdentity(c)
	if err != nil {
		if errors.Is(err, identity.ErrNoIdentity) {
			h.logger.Debug().
				Str("path", c.Request.URL.Path).
				Msg("no identity")
			abort(c, newUnauthorizedError(identity.ErrNoIdentity.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to resolve identity")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.Set(userIDCtxKey, userID)
	c.Next()
}

// HandleAdminGate guards every path that starts with the admin prefix.
// A caller without identity is sent to sign-in with the original
// destination, a caller that is not on the allow-list is sent to the
// root. Any resolution error is treated as a denial.
func (h *handlerImpl) HandleAdminGate(c *gin.Context) {
	if !strings.HasPrefix(c.Request.URL.Path, h.gate.RoutePrefix) {
		c.Next()
		return
	}

	userID, err := h.resolveIdentity(c)
	if err != nil {
		if !errors.Is(err, identity.ErrNoIdentity) {
			h.logger.Error().
				Err(err).
				Msg("failed to resolve identity")
		}
		redirectURL := h.gate.SignInPath + "?" + url.Values{
			"redirect_url": {c.Request.URL.RequestURI()},
		}.Encode()
		c.Redirect(http.StatusTemporaryRedirect, redirectURL)
		c.Abort()
		return
	}

	err = identity.CheckPrivileged(c, h.resolver, h.gate.AllowList, userID)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("user_id", userID).
			Str("path", c.Request.URL.Path).
			Msg("denied admin route")
		c.Redirect(http.StatusTemporaryRedirect, "/")
		c.Abort()
		return
	}

	c.Set(userIDCtxKey, userID)
	c.Next()
}

func (h *handlerImpl) resolveIdentity(c *gin.Context) (string, error) {
	fingerprint, err := generateFingerprint(c)
	if err != nil {
		return "", err
	}

	return h.resolver.ResolveIdentity(c, identity.Credentials{
		AccessToken: accessToken(c),
		Fingerprint: fingerprint,
	})
}

// accessToken reads the bearer token, falling back to the access token
// cookie.
func accessToken(c *gin.Context) string {
	const bearerPrefix = "Bearer"
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == bearerPrefix {
			return parts[1]
		}
		return ""
	}

	token, _ := c.Cookie(accessTokenCookie)
	return token
}

func ownerID(c *gin.Context) string {
	userID, _ := getStringFromContext(c, userIDCtxKey)
	return userID
}
