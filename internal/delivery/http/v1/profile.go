package v1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-tenants/internal/services"
)

const (
	imageFormField = "image"
	imagesRoute    = "/images/"
)

type getProfileResponse struct {
	MediaRef  *string    `json:"media_ref"`
	ImageURL  *string    `json:"image_url"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type uploadProfileImageResponse struct {
	MediaRef string `json:"media_ref"`
	ImageURL string `json:"image_url"`
}

func (h *handlerImpl) HandleGetProfile(c *gin.Context) {
	profile, err := h.profiles.GetProfile(c, ownerID(c))
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			c.JSON(http.StatusOK, getProfileResponse{})
			return
		}

		h.failureEvent(err).Msg("failed to get profile")
		abort(c, fromServiceError(err))
		return
	}

	response := getProfileResponse{
		MediaRef:  profile.MediaRef,
		CreatedAt: &profile.CreatedAt,
		UpdatedAt: &profile.UpdatedAt,
	}
	if profile.MediaRef != nil {
		imageURL := imagesRoute + *profile.MediaRef
		response.ImageURL = &imageURL
	}
	c.JSON(http.StatusOK, response)
}

// HandleUploadProfileImage reads the "image" multipart field. A missing
// field is passed on as an empty upload so that it is rejected the same
// way as an empty file.
func (h *handlerImpl) HandleUploadProfileImage(c *gin.Context) {
	var upload services.MediaUpload

	fileHeader, err := c.FormFile(imageFormField)
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		h.logger.Debug().
			Err(err).
			Msg("failed to read multipart form")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	if fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to open uploaded file")
			abort(c, newStatusTextError(http.StatusInternalServerError))
			return
		}
		defer file.Close()

		// One byte over the limit is enough to reject the upload.
		data, err := io.ReadAll(io.LimitReader(file, services.MaxMediaSize+1))
		if err != nil {
			h.logger.Error().
				Err(err).
				Msg("failed to read uploaded file")
			abort(c, newStatusTextError(http.StatusInternalServerError))
			return
		}

		upload = services.MediaUpload{
			Name:        fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	ref, err := h.profiles.UploadProfileImage(c, ownerID(c), upload)
	if err != nil {
		h.failureEvent(err).Msg("failed to upload profile image")
		abort(c, fromServiceError(err))
		return
	}

	c.JSON(http.StatusOK, uploadProfileImageResponse{
		MediaRef: ref,
		ImageURL: imagesRoute + ref,
	})
}

func (h *handlerImpl) HandleDeleteProfileImage(c *gin.Context) {
	err := h.profiles.DeleteProfileImage(c, ownerID(c))
	if err != nil {
		h.failureEvent(err).Msg("failed to delete profile image")
		abort(c, fromServiceError(err))
		return
	}
	c.Status(http.StatusNoContent)
}
