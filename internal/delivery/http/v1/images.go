package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultImageContentType = "image/jpeg"
	imageCacheControl       = "public, max-age=31536000, immutable"
)

// HandleGetImage serves a stored object by key. Keys are never reused,
// so responses are cached for good.
func (h *handlerImpl) HandleGetImage(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		abort(c, newBadRequestError(errMissingImageKey.Error()))
		return
	}

	media, err := h.profiles.FetchProfileImage(c, key)
	if err != nil {
		h.failureEvent(err).
			Str("media_ref", key).
			Msg("failed to fetch image")
		abort(c, fromServiceError(err))
		return
	}

	contentType := media.ContentType
	if contentType == "" {
		contentType = defaultImageContentType
	}

	c.Header("Cache-Control", imageCacheControl)
	c.Data(http.StatusOK, contentType, media.Data)
}
