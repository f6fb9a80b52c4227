package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-tenants/internal/models"
	"github.com/adanyl0v/go-todo-tenants/internal/validation"
)

type getTaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	return getTaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	tasks, err := h.tasks.ListTasks(c, ownerID(c))
	if err != nil {
		h.failureEvent(err).Msg("failed to list tasks")
		abort(c, fromServiceError(err))
		return
	}

	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	task, err := h.tasks.GetTask(c, c.Param("id"), ownerID(c))
	if err != nil {
		h.failureEvent(err).
			Str("task_id", c.Param("id")).
			Msg("failed to get task")
		abort(c, fromServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req validation.CreateTaskInput
	if !h.bindTaskInput(c, &req) {
		return
	}

	input, err := validation.ValidateCreateTask(req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("rejected task")
		abort(c, fromServiceError(err))
		return
	}

	task, err := h.tasks.CreateTask(c, ownerID(c), input)
	if err != nil {
		h.failureEvent(err).Msg("failed to create task")
		abort(c, fromServiceError(err))
		return
	}
	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	var req validation.UpdateTaskInput
	if !h.bindTaskInput(c, &req) {
		return
	}

	input, err := validation.ValidateUpdateTask(req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("rejected task update")
		abort(c, fromServiceError(err))
		return
	}

	task, err := h.tasks.UpdateTask(c, c.Param("id"), ownerID(c), input)
	if err != nil {
		h.failureEvent(err).
			Str("task_id", c.Param("id")).
			Msg("failed to update task")
		abort(c, fromServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleToggleTask(c *gin.Context) {
	task, err := h.tasks.ToggleTaskCompletion(c, c.Param("id"), ownerID(c))
	if err != nil {
		h.failureEvent(err).
			Str("task_id", c.Param("id")).
			Msg("failed to toggle task")
		abort(c, fromServiceError(err))
		return
	}
	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	err := h.tasks.DeleteTask(c, c.Param("id"), ownerID(c))
	if err != nil {
		h.failureEvent(err).
			Str("task_id", c.Param("id")).
			Msg("failed to delete task")
		abort(c, fromServiceError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// bindTaskInput decodes the JSON body. Type mismatches are reported as
// field errors; anything else is an invalid body.
func (h *handlerImpl) bindTaskInput(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	h.logger.Debug().
		Err(err).
		Msg("failed to bind json")

	var validationErrs validation.Errors
	if errors.As(validation.FromDecodeError(err), &validationErrs) {
		abort(c, newValidationError(validationErrs))
	} else {
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
	}
	return false
}
