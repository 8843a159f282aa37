package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"todo-manager/internal/models"
)

// priorityRank mirrors models.Priority.Rank in SQL: unset sorts below Low.
const priorityRank = "CASE priority WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END"

type TaskRepository interface {
	Create(ctx context.Context, ownerID uint, fields models.TaskFields) (*models.Task, error)
	Get(ctx context.Context, id uint) (*models.Task, error)
	Update(ctx context.Context, task *models.Task, fields models.TaskFields) (*models.Task, error)
	Delete(ctx context.Context, id uint) error
	ToggleCompletion(ctx context.Context, task *models.Task) (*models.Task, error)
	ListByOwner(ctx context.Context, ownerID uint, filter models.TaskFilter) ([]models.Task, error)
}

type TaskRepositoryImpl struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTaskRepository(db *gorm.DB) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{db: db, now: utcNow}
}

// WithClock replaces the timestamp source.
func (r *TaskRepositoryImpl) WithClock(now func() time.Time) *TaskRepositoryImpl {
	r.now = func() time.Time { return now().UTC() }
	return r
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, ownerID uint, fields models.TaskFields) (*models.Task, error) {
	now := r.now()
	task := &models.Task{
		UserID:      ownerID,
		IsCompleted: false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	task.Apply(fields)

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (r *TaskRepositoryImpl) Get(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &task, nil
}

// Update overwrites the editable fields and refreshes updated_at. Identity,
// ownership, creation time and completion state are left alone.
func (r *TaskRepositoryImpl) Update(ctx context.Context, task *models.Task, fields models.TaskFields) (*models.Task, error) {
	updated := *task
	updated.Apply(fields)
	updated.UpdatedAt = r.now()

	result := r.db.WithContext(ctx).
		Model(&updated).
		Select("Title", "Description", "DueDate", "Priority", "Category", "Reminder", "UpdatedAt").
		Updates(&updated)
	if result.Error != nil {
		return nil, fmt.Errorf("update task %d: %w", task.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("update task %d: %w", task.ID, gorm.ErrRecordNotFound)
	}

	*task = updated
	return task, nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete task %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete task %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *TaskRepositoryImpl) ToggleCompletion(ctx context.Context, task *models.Task) (*models.Task, error) {
	updated := *task
	updated.IsCompleted = !task.IsCompleted
	updated.UpdatedAt = r.now()

	result := r.db.WithContext(ctx).
		Model(&updated).
		Select("IsCompleted", "UpdatedAt").
		Updates(&updated)
	if result.Error != nil {
		return nil, fmt.Errorf("toggle task %d: %w", task.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("toggle task %d: %w", task.ID, gorm.ErrRecordNotFound)
	}

	*task = updated
	return task, nil
}

// ListByOwner runs a fresh query for the owner's tasks, selected and ordered
// by filter.
func (r *TaskRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint, filter models.TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", ownerID)

	switch filter {
	case models.FilterActive:
		query = query.Where("is_completed = ?", false).
			Order("due_date IS NULL").
			Order("due_date ASC").
			Order(priorityRank + " DESC").
			Order("id ASC")
	case models.FilterInactive:
		query = query.Where("is_completed = ?", true).
			Order("updated_at DESC").
			Order("id DESC")
	default:
		query = query.
			Order("is_completed ASC").
			Order("due_date IS NULL").
			Order("due_date ASC").
			Order("id ASC")
	}

	tasks := []models.Task{}
	if err := query.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list %s tasks for user %d: %w", filter, ownerID, err)
	}
	return tasks, nil
}
