package models

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Rank orders priorities for sorting. Unset ranks below Low.
func (p *Priority) Rank() int {
	if p == nil {
		return 0
	}
	switch *p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"size:2000"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *Priority  `json:"priority" gorm:"size:10"`
	Category    *string    `json:"category" gorm:"size:100"`
	Reminder    *time.Time `json:"reminder"`
	IsCompleted bool       `json:"is_completed" gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// TaskFields is the user-editable part of a Task.
type TaskFields struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    *Priority
	Category    *string
	Reminder    *time.Time
}

// Normalize turns empty optional values into absent ones and stores
// timestamps in UTC.
func (f TaskFields) Normalize() TaskFields {
	if f.Category != nil && strings.TrimSpace(*f.Category) == "" {
		f.Category = nil
	}
	if f.Priority != nil && *f.Priority == "" {
		f.Priority = nil
	}
	if f.DueDate != nil {
		if f.DueDate.IsZero() {
			f.DueDate = nil
		} else {
			t := f.DueDate.UTC()
			f.DueDate = &t
		}
	}
	if f.Reminder != nil {
		if f.Reminder.IsZero() {
			f.Reminder = nil
		} else {
			t := f.Reminder.UTC()
			f.Reminder = &t
		}
	}
	return f
}

// Apply overwrites the editable fields of t with f.
func (t *Task) Apply(f TaskFields) {
	f = f.Normalize()
	t.Title = f.Title
	t.Description = f.Description
	t.DueDate = f.DueDate
	t.Priority = f.Priority
	t.Category = f.Category
	t.Reminder = f.Reminder
}

type TaskFilter string

const (
	FilterActive   TaskFilter = "active"
	FilterInactive TaskFilter = "inactive"
	FilterAll      TaskFilter = "all"
)

// ParseTaskFilter maps anything other than active or inactive to all.
func ParseTaskFilter(s string) TaskFilter {
	switch TaskFilter(s) {
	case FilterActive:
		return FilterActive
	case FilterInactive:
		return FilterInactive
	default:
		return FilterAll
	}
}

// Matches reports whether the task belongs in the filtered set.
func (f TaskFilter) Matches(t Task) bool {
	switch f {
	case FilterActive:
		return !t.IsCompleted
	case FilterInactive:
		return t.IsCompleted
	default:
		return true
	}
}
