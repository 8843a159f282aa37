// Package forms holds the typed request inputs and their validation rules.
package forms

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"todo-manager/internal/models"
)

// DateTimeLayout is the layout of the task form's date inputs. RFC 3339 is
// accepted as well.
const DateTimeLayout = "2006-01-02 15:04"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("datetime_input", func(fl validator.FieldLevel) bool {
		_, err := ParseDateTime(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}

	return v
}

type Registration struct {
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func (r *Registration) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return check(r)
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (l *Login) Validate() error {
	l.Email = strings.TrimSpace(l.Email)
	return check(l)
}

// TaskForm is the create/edit input. Empty optional values mean absent.
type TaskForm struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime_input"`
	Priority    string `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Category    string `json:"category" validate:"max=100"`
	Reminder    string `json:"reminder" validate:"omitempty,datetime_input"`
}

func (f *TaskForm) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	f.Category = strings.TrimSpace(f.Category)
	f.DueDate = strings.TrimSpace(f.DueDate)
	f.Reminder = strings.TrimSpace(f.Reminder)
	return check(f)
}

// Fields validates the form and converts it to repository input.
func (f *TaskForm) Fields() (models.TaskFields, error) {
	if err := f.Validate(); err != nil {
		return models.TaskFields{}, err
	}

	// Both parse; Validate already checked them.
	due, _ := ParseDateTime(f.DueDate)
	reminder, _ := ParseDateTime(f.Reminder)

	fields := models.TaskFields{
		Title:       f.Title,
		Description: f.Description,
		DueDate:     due,
		Reminder:    reminder,
	}
	if f.Priority != "" {
		p := models.Priority(f.Priority)
		fields.Priority = &p
	}
	if f.Category != "" {
		category := f.Category
		fields.Category = &category
	}
	return fields.Normalize(), nil
}

// TaskFormFrom fills a form from a stored task, for edit screens.
func TaskFormFrom(task *models.Task) TaskForm {
	form := TaskForm{
		Title:       task.Title,
		Description: task.Description,
	}
	if task.DueDate != nil {
		form.DueDate = task.DueDate.UTC().Format(DateTimeLayout)
	}
	if task.Reminder != nil {
		form.Reminder = task.Reminder.UTC().Format(DateTimeLayout)
	}
	if task.Priority != nil {
		form.Priority = string(*task.Priority)
	}
	if task.Category != nil {
		form.Category = *task.Category
	}
	return form
}

// ParseDateTime reads DateTimeLayout (as UTC) or RFC 3339. Empty input is
// absent, not an error.
func ParseDateTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(DateTimeLayout, s, time.UTC); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid datetime %q", s)
	}
	t = t.UTC()
	return &t, nil
}
