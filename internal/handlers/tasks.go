package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todo-manager/internal/forms"
	"todo-manager/internal/middleware"
	"todo-manager/internal/models"
	"todo-manager/internal/services"
)

type TaskHandler struct {
	taskService services.TaskService
	logger      *log.Logger
}

func NewTaskHandler(taskService services.TaskService, logger *log.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

// currentUser reads the user set by middleware.RequireSession.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, middleware.EntryPath)
		c.Abort()
	}
	return user, ok
}

func taskID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return 0, false
	}
	return uint(id), true
}

// ListTasks shows the dashboard. Without a filter parameter it lists active
// tasks.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	filter := models.ParseTaskFilter(c.DefaultQuery("filter", string(models.FilterActive)))

	tasks, err := h.taskService.List(c.Request.Context(), user, filter)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user.Name,
		"filter": filter,
		"count":  len(tasks),
		"tasks":  tasks,
	})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var form forms.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBindError(c, err)
		return
	}
	fields, err := form.Fields()
	if err != nil {
		respondValidation(c, err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), user, fields)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	h.logger.Info("task created", "user_id", user.ID, "task_id", task.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created.",
		"task":    task,
	})
}

// GetTask returns the task with its edit form values.
func (h *TaskHandler) GetTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetOwned(c.Request.Context(), user, id)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task": task,
		"form": forms.TaskFormFrom(task),
	})
}

func (h *TaskHandler) EditTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	var form forms.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondBindError(c, err)
		return
	}
	fields, err := form.Fields()
	if err != nil {
		respondValidation(c, err)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), user, id, fields)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	h.logger.Info("task updated", "user_id", user.ID, "task_id", task.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated.",
		"task":    task,
	})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), user, id); err != nil {
		h.handleTaskError(c, err)
		return
	}

	h.logger.Info("task deleted", "user_id", user.ID, "task_id", id)
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted."})
}

// ToggleTask flips completion and names the filter to show next: inactive
// after completing, active after reopening.
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := taskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Toggle(c.Request.Context(), user, id)
	if err != nil {
		h.handleTaskError(c, err)
		return
	}

	message, next := "Task marked active.", models.FilterActive
	if task.IsCompleted {
		message, next = "Task completed.", models.FilterInactive
	}

	h.logger.Info("task toggled", "user_id", user.ID, "task_id", task.ID, "completed", task.IsCompleted)
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"filter":  next,
		"task":    task,
	})
}

func (h *TaskHandler) handleTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "task not found",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You do not have permission to access this task.",
		})
	default:
		h.logger.Error("task request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to process task request",
		})
	}
}
