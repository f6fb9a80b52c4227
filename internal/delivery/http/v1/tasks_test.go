package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-tenants/internal/models"
	"github.com/adanyl0v/go-todo-tenants/internal/services"
	"github.com/adanyl0v/go-todo-tenants/internal/validation"
)

var userResolver = tokenResolver(map[string]string{"user-token": "u1"}, nil)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, map[string]string) {
	t.Helper()

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error, body.Fields
}

func TestHandleCreateTask(t *testing.T) {
	var created validation.CreateTask
	tasks := &fakeTaskService{
		createFn: func(ownerID string, input validation.CreateTask) (*models.Task, error) {
			created = input
			return &models.Task{
				ID:          "t1",
				OwnerID:     ownerID,
				Title:       input.Title,
				Description: input.Description,
				Completed:   input.Completed,
				CreatedAt:   time.Now(),
				UpdatedAt:   time.Now(),
			}, nil
		},
	}
	router := newTestRouter(Services{Tasks: tasks, Resolver: userResolver})

	w := serve(t, router, jsonRequest(http.MethodPost, "/api/v1/tasks",
		`{"title":"buy milk","description":"","completed":true,"priority":"high"}`), "user-token")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "buy milk", created.Title)
	assert.Nil(t, created.Description)
	assert.True(t, created.Completed)

	var response getTaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "t1", response.ID)
	assert.Nil(t, response.Description)
}

func TestHandleCreateTask_Rejects(t *testing.T) {
	tasks := &fakeTaskService{
		createFn: func(string, validation.CreateTask) (*models.Task, error) {
			t.Fatal("store must not be called for invalid input")
			return nil, nil
		},
	}
	router := newTestRouter(Services{Tasks: tasks, Resolver: userResolver})

	tests := []struct {
		name       string
		body       string
		wantFields map[string]string
	}{
		{
			name:       "empty title",
			body:       `{"title":""}`,
			wantFields: map[string]string{"title": "Title is required"},
		},
		{
			name: "long title and description",
			body: fmt.Sprintf(`{"title":%q,"description":%q}`,
				strings.Repeat("a", validation.MaxTitleLength+1),
				strings.Repeat("b", validation.MaxDescriptionLength+1)),
			wantFields: map[string]string{
				"title":       "Title must be at most 200 characters",
				"description": "Description must be at most 1000 characters",
			},
		},
		{
			name:       "wrong type",
			body:       `{"title":42}`,
			wantFields: map[string]string{"title": "must be a string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, router, jsonRequest(http.MethodPost, "/api/v1/tasks", tt.body), "user-token")

			require.Equal(t, http.StatusBadRequest, w.Code)
			message, fields := decodeError(t, w)
			assert.Equal(t, errValidationFailed.Error(), message)
			assert.Equal(t, tt.wantFields, fields)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		w := serve(t, router, jsonRequest(http.MethodPost, "/api/v1/tasks", `{"title":`), "user-token")

		require.Equal(t, http.StatusBadRequest, w.Code)
		message, _ := decodeError(t, w)
		assert.Equal(t, errInvalidRequestBody.Error(), message)
	})
}

func TestHandleTask_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: services.ErrTaskNotFound, wantStatus: http.StatusNotFound},
		{name: "unauthorized", err: services.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{
			name:       "store failure",
			err:        fmt.Errorf("%w: connection reset", services.ErrStoreFailure),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &fakeTaskService{
				getFn:    func(string, string) (*models.Task, error) { return nil, tt.err },
				toggleFn: func(string, string) (*models.Task, error) { return nil, tt.err },
				deleteFn: func(string, string) error { return tt.err },
				updateFn: func(string, string, validation.UpdateTask) (*models.Task, error) { return nil, tt.err },
			}
			router := newTestRouter(Services{Tasks: tasks, Resolver: userResolver})

			requests := []*http.Request{
				httptest.NewRequest(http.MethodGet, "/api/v1/tasks/t1", nil),
				httptest.NewRequest(http.MethodPost, "/api/v1/tasks/t1/toggle", nil),
				httptest.NewRequest(http.MethodDelete, "/api/v1/tasks/t1", nil),
				jsonRequest(http.MethodPatch, "/api/v1/tasks/t1", `{"completed":true}`),
			}
			for _, req := range requests {
				w := serve(t, router, req, "user-token")
				assert.Equal(t, tt.wantStatus, w.Code, req.Method+" "+req.URL.Path)
			}
		})
	}

	t.Run("store failure is not described", func(t *testing.T) {
		tasks := &fakeTaskService{
			getFn: func(string, string) (*models.Task, error) {
				return nil, fmt.Errorf("%w: password authentication failed", services.ErrStoreFailure)
			},
		}
		router := newTestRouter(Services{Tasks: tasks, Resolver: userResolver})

		w := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/tasks/t1", nil), "user-token")
		message, _ := decodeError(t, w)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), message)
	})
}

func TestHandleUpdateTask_PassesOnlySuppliedFields(t *testing.T) {
	var got validation.UpdateTask
	tasks := &fakeTaskService{
		updateFn: func(id, ownerID string, input validation.UpdateTask) (*models.Task, error) {
			got = input
			return &models.Task{ID: id, OwnerID: ownerID, Title: "kept"}, nil
		},
	}
	router := newTestRouter(Services{Tasks: tasks, Resolver: userResolver})

	w := serve(t, router, jsonRequest(http.MethodPatch, "/api/v1/tasks/t1", `{"description":""}`), "user-token")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, got.Title)
	assert.Nil(t, got.Completed)
	require.NotNil(t, got.Description)
	assert.Equal(t, "", *got.Description)
}

func TestHandleGetTasks_Empty(t *testing.T) {
	tasks := &fakeTaskService{
		listFn: func(string) ([]*models.Task, error) { return []*models.Task{}, nil },
	}
	router := newTestRouter(Services{Tasks: tasks, Resolver: userResolver})

	w := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil), "user-token")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
