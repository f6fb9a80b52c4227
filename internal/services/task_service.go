package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-tenants/internal/models"
	"github.com/adanyl0v/go-todo-tenants/internal/validation"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	pgPool Pool
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool Pool,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, ownerID string) ([]*models.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	const selectTasksByOwnerIDQuery = `
SELECT id,
       title,
       description,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE owner_id = $1
ORDER BY created_at DESC
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTasksByOwnerIDQuery,
		ownerID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("owner_id", ownerID).
			Msg("failed to select tasks by owner id")
		return nil, storeFailure(err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := &models.Task{OwnerID: ownerID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Completed,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, storeFailure(err)
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, storeFailure(err)
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("owner_id", ownerID).
		Msg("selected tasks by owner id")
	return tasks, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id, ownerID string) (*models.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	task := &models.Task{
		ID:      id,
		OwnerID: ownerID,
	}

	const selectTaskQuery = `
SELECT title,
       description,
       completed,
       created_at,
       updated_at
FROM tasks
WHERE id = $1 AND owner_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskQuery,
		task.ID,
		task.OwnerID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug().
				Str("task_id", task.ID).
				Str("owner_id", task.OwnerID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to select task")
		return nil, storeFailure(err)
	}
	return task, nil
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, ownerID string, input validation.CreateTask) (*models.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		ID:          taskUUID.String(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   owner_id,
                   title,
                   description,
                   completed,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("owner_id", ownerID).
			Msg("failed to insert task")
		return nil, storeFailure(err)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("owner_id", task.OwnerID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, id, ownerID string, input validation.UpdateTask) (*models.Task, error) {
	task, err := s.GetTask(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	input.Apply(task)
	task.UpdatedAt = time.Now()

	err = s.saveTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("owner_id", task.OwnerID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) ToggleTaskCompletion(ctx context.Context, id, ownerID string) (*models.Task, error) {
	task, err := s.GetTask(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed
	task.UpdatedAt = time.Now()

	err = s.saveTask(ctx, task)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("owner_id", task.OwnerID).
		Bool("completed", task.Completed).
		Msg("toggled task completion")
	return task, nil
}

// saveTask writes the mutable fields back. The owner predicate is kept
// so a task deleted between read and write reports ErrTaskNotFound.
func (s *taskServiceImpl) saveTask(ctx context.Context, task *models.Task) error {
	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    completed = $3,
    updated_at = $4
WHERE id = $5 AND owner_id = $6
`
	tag, err := s.pgPool.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Completed,
		task.UpdatedAt,
		task.ID,
		task.OwnerID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return storeFailure(err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug().
			Str("task_id", task.ID).
			Str("owner_id", task.OwnerID).
			Msg("task vanished before update")
		return ErrTaskNotFound
	}
	return nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id, ownerID string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1 AND owner_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		id,
		ownerID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		return storeFailure(err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug().
			Str("task_id", id).
			Str("owner_id", ownerID).
			Msg("task not found")
		return ErrTaskNotFound
	}

	s.logger.Info().
		Str("task_id", id).
		Str("owner_id", ownerID).
		Msg("deleted task")
	return nil
}
