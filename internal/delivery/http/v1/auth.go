package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-tenants/internal/services"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
)

type credentialsRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=255"`
}

type sessionResponse struct {
	UserID               string    `json:"user_id"`
	AccessToken          string    `json:"access_token"`
	AccessTokenExpiresAt time.Time `json:"access_token_expires_at"`
}

type authenticateFunc func(ctx context.Context, params services.LoginParams) (*services.LoginResult, error)

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	h.handleCredentials(c, http.StatusCreated, h.auth.Register, "failed to register user")
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	h.handleCredentials(c, http.StatusOK, h.auth.Login, "failed to login")
}

func (h *handlerImpl) handleCredentials(c *gin.Context, status int, authenticate authenticateFunc, failure string) {
	var req credentialsRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind credentials")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	fingerprint, ok := h.fingerprint(c)
	if !ok {
		return
	}

	result, err := authenticate(c, services.LoginParams{
		Email:       req.Email,
		Password:    req.Password,
		Fingerprint: fingerprint,
	})
	if err != nil {
		h.failureEvent(err).Msg(failure)
		abort(c, fromServiceError(err))
		return
	}
	h.startSession(c, status, result)
}

func (h *handlerImpl) HandleRefresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshTokenCookie)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("no refresh token cookie")
		abort(c, newBadRequestError(errMandatoryCookieNotFound.Error()))
		return
	}

	fingerprint, ok := h.fingerprint(c)
	if !ok {
		return
	}

	result, err := h.auth.Refresh(c, services.RefreshParams{
		RefreshToken: refreshToken,
		Fingerprint:  fingerprint,
	})
	if err != nil {
		h.failureEvent(err).Msg("failed to refresh session")
		abort(c, fromServiceError(err))
		return
	}
	h.startSession(c, http.StatusOK, result)
}

func (h *handlerImpl) HandleLogout(c *gin.Context) {
	err := h.auth.Logout(c, ownerID(c))
	if err != nil {
		h.failureEvent(err).Msg("failed to logout")
		abort(c, fromServiceError(err))
		return
	}

	clearCookie(c, accessTokenCookie)
	clearCookie(c, refreshTokenCookie)
	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) fingerprint(c *gin.Context) (string, bool) {
	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return "", false
	}
	return fingerprint, true
}

// startSession hands out both tokens as cookies. The access token is
// also returned in the body for clients that send it as a bearer token.
func (h *handlerImpl) startSession(c *gin.Context, status int, result *services.LoginResult) {
	now := time.Now()

	// httpOnly is off so that client-side code can move the access
	// token into the Authorization header.
	c.SetCookie(accessTokenCookie, result.AccessToken,
		int(result.AccessTokenExpiresAt.Sub(now).Seconds()), "/", "", false, false)
	c.SetCookie(refreshTokenCookie, result.RefreshToken,
		int(result.RefreshTokenExpiresAt.Sub(now).Seconds()), "/", "", false, true)

	c.JSON(status, sessionResponse{
		UserID:               result.UserID,
		AccessToken:          result.AccessToken,
		AccessTokenExpiresAt: result.AccessTokenExpiresAt,
	})
}

// generateFingerprint binds a session to the client address and agent.
func generateFingerprint(c *gin.Context) (string, error) {
	fingerprintBytes, err := json.Marshal(map[string]string{
		"client_ip":  c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal json: %w", err)
	}
	return string(fingerprintBytes), nil
}

func getStringFromContext(c *gin.Context, key string) (string, bool) {
	value, exists := c.Get(key)
	if !exists {
		return "", false
	}
	str, ok := value.(string)
	return str, ok
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", "", false, false)
}
