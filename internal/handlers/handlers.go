package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"todo-manager/internal/forms"
	"todo-manager/internal/models"
)

type UserProfileResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func userProfile(user *models.User) *UserProfileResponse {
	return &UserProfileResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": "Invalid request format",
		"details": err.Error(),
	})
}

// respondValidation writes field errors as 400.
func respondValidation(c *gin.Context, err error) {
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		respondBindError(c, err)
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "validation_failed",
		"fields": verr.Messages(),
	})
}
