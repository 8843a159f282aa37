package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"todo-manager/internal/models"
	"todo-manager/internal/repositories"
)

// TaskService runs task operations on behalf of a signed-in user. Every
// operation on an existing task checks ownership first.
type TaskService interface {
	Create(ctx context.Context, user *models.User, fields models.TaskFields) (*models.Task, error)
	GetOwned(ctx context.Context, user *models.User, id uint) (*models.Task, error)
	Update(ctx context.Context, user *models.User, id uint, fields models.TaskFields) (*models.Task, error)
	Delete(ctx context.Context, user *models.User, id uint) error
	Toggle(ctx context.Context, user *models.User, id uint) (*models.Task, error)
	List(ctx context.Context, user *models.User, filter models.TaskFilter) ([]models.Task, error)
}

type TaskServiceImpl struct {
	tasks repositories.TaskRepository
}

func NewTaskService(tasks repositories.TaskRepository) *TaskServiceImpl {
	return &TaskServiceImpl{tasks: tasks}
}

func translateTaskError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	return err
}

func (s *TaskServiceImpl) Create(ctx context.Context, user *models.User, fields models.TaskFields) (*models.Task, error) {
	return s.tasks.Create(ctx, user.ID, fields)
}

func (s *TaskServiceImpl) GetOwned(ctx context.Context, user *models.User, id uint) (*models.Task, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, translateTaskError(err)
	}
	if !user.Owns(task) {
		return nil, ErrForbidden
	}
	return task, nil
}

func (s *TaskServiceImpl) Update(ctx context.Context, user *models.User, id uint, fields models.TaskFields) (*models.Task, error) {
	task, err := s.GetOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	task, err = s.tasks.Update(ctx, task, fields)
	if err != nil {
		return nil, translateTaskError(err)
	}
	return task, nil
}

func (s *TaskServiceImpl) Delete(ctx context.Context, user *models.User, id uint) error {
	if _, err := s.GetOwned(ctx, user, id); err != nil {
		return err
	}
	return translateTaskError(s.tasks.Delete(ctx, id))
}

func (s *TaskServiceImpl) Toggle(ctx context.Context, user *models.User, id uint) (*models.Task, error) {
	task, err := s.GetOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}

	task, err = s.tasks.ToggleCompletion(ctx, task)
	if err != nil {
		return nil, translateTaskError(err)
	}
	return task, nil
}

func (s *TaskServiceImpl) List(ctx context.Context, user *models.User, filter models.TaskFilter) ([]models.Task, error) {
	return s.tasks.ListByOwner(ctx, user.ID, filter)
}
