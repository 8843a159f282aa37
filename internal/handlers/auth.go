package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todo-manager/internal/forms"
	"todo-manager/internal/middleware"
	"todo-manager/internal/services"
)

type AuthHandler struct {
	authService    services.AuthService
	sessionService services.SessionService
	logger         *log.Logger
}

type LoginResponse struct {
	Message   string               `json:"message"`
	Token     string               `json:"token"`
	TokenType string               `json:"token_type"`
	User      *UserProfileResponse `json:"user"`
	Redirect  string               `json:"redirect"`
}

func NewAuthHandler(authService services.AuthService, sessionService services.SessionService, logger *log.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, sessionService: sessionService, logger: logger}
}

// Home is the entry point for anonymous callers.
func (h *AuthHandler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome. Register or log in to manage your tasks.",
		"links": gin.H{
			"register": "/register",
			"login":    "/login",
		},
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req forms.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			c.JSON(http.StatusConflict, gin.H{
				"warning":  "Email already registered.",
				"redirect": "/register",
			})
			return
		}
		h.logger.Error("registration failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Registration failed. Please try again later.",
		})
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Registration successful. Please log in.",
		"redirect": middleware.EntryPath,
		"user":     userProfile(user),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req forms.Login
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondValidation(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.authService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
			return
		}
		h.logger.Error("login failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	token, err := h.sessionService.Start(ctx, user)
	if err != nil {
		h.logger.Error("session start failed", "user_id", user.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID)
	c.JSON(http.StatusOK, LoginResponse{
		Message:   "Logged in.",
		Token:     token,
		TokenType: "Bearer",
		User:      userProfile(user),
		Redirect:  "/tasks",
	})
}

// Logout ends the caller's session. It succeeds whether or not there was
// one.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c)
	if token == "" {
		token = middleware.BearerToken(c)
	}

	if err := h.sessionService.End(c.Request.Context(), token); err != nil {
		h.logger.Error("session end failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Logged out.",
		"redirect": middleware.EntryPath,
	})
}
