package v1

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-tenants/internal/models"
	"github.com/adanyl0v/go-todo-tenants/internal/services"
)

func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if field != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile/image", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleUploadProfileImage(t *testing.T) {
	var got services.MediaUpload
	profiles := &fakeProfileService{
		uploadFn: func(ownerID string, upload services.MediaUpload) (string, error) {
			got = upload
			return "profiles/" + ownerID + "/1-abc-avatar.png", nil
		},
	}
	router := newTestRouter(Services{Profiles: profiles, Resolver: userResolver})

	w := serve(t, router, multipartRequest(t, imageFormField, "avatar.png", "image/png", []byte("png")), "user-token")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "avatar.png", got.Name)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, []byte("png"), got.Data)
	assert.JSONEq(t,
		`{"media_ref":"profiles/u1/1-abc-avatar.png","image_url":"/images/profiles/u1/1-abc-avatar.png"}`,
		w.Body.String())
}

func TestHandleUploadProfileImage_Rejects(t *testing.T) {
	profiles := &fakeProfileService{
		uploadFn: func(_ string, upload services.MediaUpload) (string, error) {
			if len(upload.Data) == 0 {
				return "", fmt.Errorf("%w: no file provided", services.ErrInvalidMedia)
			}
			if len(upload.Data) > services.MaxMediaSize {
				return "", fmt.Errorf("%w: file size must be less than 5MB", services.ErrInvalidMedia)
			}
			return "", fmt.Errorf("%w: file must be an image", services.ErrInvalidMedia)
		},
	}
	router := newTestRouter(Services{Profiles: profiles, Resolver: userResolver})

	tests := []struct {
		name        string
		req         *http.Request
		wantMessage string
	}{
		{
			name:        "missing field",
			req:         multipartRequest(t, "", "", "", nil),
			wantMessage: "invalid media: no file provided",
		},
		{
			name:        "not an image",
			req:         multipartRequest(t, imageFormField, "notes.txt", "text/plain", []byte("hi")),
			wantMessage: "invalid media: file must be an image",
		},
		{
			name: "too large",
			req: multipartRequest(t, imageFormField, "big.png", "image/png",
				bytes.Repeat([]byte{1}, services.MaxMediaSize+10)),
			wantMessage: "invalid media: file size must be less than 5MB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, router, tt.req, "user-token")

			require.Equal(t, http.StatusBadRequest, w.Code)
			message, _ := decodeError(t, w)
			assert.Equal(t, tt.wantMessage, message)
		})
	}
}

func TestHandleDeleteProfileImage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "deleted", wantStatus: http.StatusNoContent},
		{name: "nothing to delete", err: services.ErrNoMediaToDelete, wantStatus: http.StatusConflict},
		{
			name:       "store failure",
			err:        fmt.Errorf("%w: timeout", services.ErrStoreFailure),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := &fakeProfileService{
				deleteFn: func(string) error { return tt.err },
			}
			router := newTestRouter(Services{Profiles: profiles, Resolver: userResolver})

			w := serve(t, router, httptest.NewRequest(http.MethodDelete, "/api/v1/profile/image", nil), "user-token")
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleGetProfile(t *testing.T) {
	ref := "profiles/u1/1-abc-a.png"
	profiles := &fakeProfileService{
		getFn: func(ownerID string) (*models.Profile, error) {
			if ownerID == "u1" {
				return &models.Profile{OwnerID: ownerID, MediaRef: &ref}, nil
			}
			return nil, services.ErrProfileNotFound
		},
	}
	resolver := tokenResolver(map[string]string{"user-token": "u1", "new-token": "u2"}, nil)
	router := newTestRouter(Services{Profiles: profiles, Resolver: resolver})

	w := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil), "user-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"image_url":"/images/profiles/u1/1-abc-a.png"`)

	w = serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil), "new-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"media_ref":null,"image_url":null}`, w.Body.String())
}

func TestHandleGetImage(t *testing.T) {
	profiles := &fakeProfileService{
		fetchFn: func(ref string) (*services.Media, error) {
			switch ref {
			case "profiles/u1/png":
				return &services.Media{Data: []byte("png"), ContentType: "image/png"}, nil
			case "profiles/u1/bare":
				return &services.Media{Data: []byte("raw")}, nil
			case "profiles/u1/broken":
				return nil, fmt.Errorf("%w: nats: timeout", services.ErrStoreFailure)
			default:
				return nil, services.ErrMediaNotFound
			}
		},
	}
	router := newTestRouter(Services{Profiles: profiles})

	t.Run("stored content type", func(t *testing.T) {
		w := serve(t, router, httptest.NewRequest(http.MethodGet, "/images/profiles/u1/png", nil), "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, imageCacheControl, w.Header().Get("Cache-Control"))
		assert.Equal(t, "png", w.Body.String())
	})

	t.Run("default content type", func(t *testing.T) {
		w := serve(t, router, httptest.NewRequest(http.MethodGet, "/images/profiles/u1/bare", nil), "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, defaultImageContentType, w.Header().Get("Content-Type"))
	})

	t.Run("errors", func(t *testing.T) {
		for path, want := range map[string]int{
			"/images/":                   http.StatusBadRequest,
			"/images/profiles/u1/gone":   http.StatusNotFound,
			"/images/profiles/u1/broken": http.StatusInternalServerError,
		} {
			w := serve(t, router, httptest.NewRequest(http.MethodGet, path, nil), "")
			assert.Equal(t, want, w.Code, path)
		}
	})
}

func TestHandleDeleteProfileImage_LogLevels(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
	}{
		{name: "nothing to delete", err: services.ErrNoMediaToDelete, wantLevel: `"level":"debug"`},
		{name: "store failure", err: fmt.Errorf("%w: timeout", services.ErrStoreFailure), wantLevel: `"level":"error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := New(zerolog.New(&logs).Level(zerolog.DebugLevel), Services{
				Profiles: &fakeProfileService{deleteFn: func(string) error { return tt.err }},
				Resolver: userResolver,
			}, GateParams{RoutePrefix: "/admin", SignInPath: "/sign-in"})
			router := gin.New()
			RegisterRoutes(router, h, "/admin")

			serve(t, router, httptest.NewRequest(http.MethodDelete, "/api/v1/profile/image", nil), "user-token")
			assert.Contains(t, logs.String(), tt.wantLevel)
			assert.Contains(t, logs.String(), "failed to delete profile image")
		})
	}
}
