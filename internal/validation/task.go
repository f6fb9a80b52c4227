package validation

import "github.com/adanyl0v/go-todo-tenants/internal/models"

// CreateTaskInput is the raw create payload. Unknown JSON fields are
// ignored by the decoder.
type CreateTaskInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Completed   *bool   `json:"completed"`
}

// UpdateTaskInput is the raw partial update payload. Nil fields are
// left untouched.
type UpdateTaskInput struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string `json:"description" validate:"omitnil,max=1000"`
	Completed   *bool   `json:"completed"`
}

type CreateTask struct {
	Title       string
	Description *string
	Completed   bool
}

type UpdateTask struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Empty reports whether the update carries no fields.
func (u UpdateTask) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil
}

func ValidateCreateTask(in CreateTaskInput) (CreateTask, error) {
	if err := check(in); err != nil {
		return CreateTask{}, err
	}

	out := CreateTask{
		Title:       in.Title,
		Description: normalizeDescription(in.Description),
	}
	if in.Completed != nil {
		out.Completed = *in.Completed
	}
	return out, nil
}

func ValidateUpdateTask(in UpdateTaskInput) (UpdateTask, error) {
	if err := check(in); err != nil {
		return UpdateTask{}, err
	}

	return UpdateTask{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
	}, nil
}

// Apply copies the supplied fields onto task. A supplied empty
// description clears it.
func (u UpdateTask) Apply(task *models.Task) {
	if u.Title != nil {
		task.Title = *u.Title
	}
	if u.Description != nil {
		task.Description = normalizeDescription(u.Description)
	}
	if u.Completed != nil {
		task.Completed = *u.Completed
	}
}

// An empty description is stored as absent.
func normalizeDescription(description *string) *string {
	if description == nil || *description == "" {
		return nil
	}
	d := *description
	return &d
}
