package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"todo-manager/internal/middleware"
	"todo-manager/internal/models"
	"todo-manager/internal/services"
)

type mockSessionService struct {
	mock.Mock
}

func (m *mockSessionService) Start(ctx context.Context, user *models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *mockSessionService) Resolve(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockSessionService) End(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func newSessionRouter(sessions services.SessionService, logger *log.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.LoadSession(sessions, logger))
	router.GET("/open", func(c *gin.Context) {
		user, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Name})
	})

	protected := router.Group("/tasks", middleware.RequireSession())
	protected.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	router.GET("/login", middleware.RedirectIfAuthenticated("/tasks"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "login form"})
	})
	return router
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def", "abc.def"},
		{"Basic dXNlcjpwYXNz", ""},
		{"bearer lowercase", ""},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request, _ = http.NewRequest("GET", "/", nil)
		if tt.header != "" {
			c.Request.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, middleware.BearerToken(c), "header %q", tt.header)
	}
}

func TestRequireSession_NoTokenRedirects(t *testing.T) {
	sessions := new(mockSessionService)
	router := newSessionRouter(sessions, log.New(&bytes.Buffer{}))

	req, _ := http.NewRequest("GET", "/tasks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	sessions.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestRequireSession_EndedSessionRedirects(t *testing.T) {
	sessions := new(mockSessionService)
	sessions.On("Resolve", mock.Anything, "stale").Return(nil, services.ErrNoSession)
	router := newSessionRouter(sessions, log.New(&bytes.Buffer{}))

	req, _ := http.NewRequest("GET", "/tasks", nil)
	req.Header.Set("Authorization", "Bearer stale")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	sessions.AssertExpectations(t)
}

func TestRequireSession_ValidSession(t *testing.T) {
	sessions := new(mockSessionService)
	sessions.On("Resolve", mock.Anything, "good").Return(&models.User{ID: 1, Name: "Ann"}, nil)
	router := newSessionRouter(sessions, log.New(&bytes.Buffer{}))

	req, _ := http.NewRequest("GET", "/tasks", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	sessions.AssertExpectations(t)
}

func TestLoadSession_AnonymousPassesThrough(t *testing.T) {
	sessions := new(mockSessionService)
	sessions.On("Resolve", mock.Anything, "stale").Return(nil, services.ErrNoSession)
	router := newSessionRouter(sessions, log.New(&bytes.Buffer{}))

	req, _ := http.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "Bearer stale")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":null}`, w.Body.String())
}

func TestLoadSession_StoreFailure(t *testing.T) {
	var buf bytes.Buffer
	sessions := new(mockSessionService)
	sessions.On("Resolve", mock.Anything, "tok").Return(nil, errors.New("redis down"))
	router := newSessionRouter(sessions, log.New(&buf))

	req, _ := http.NewRequest("GET", "/open", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	assert.True(t, strings.Contains(buf.String(), "redis down"))
}

func TestRedirectIfAuthenticated(t *testing.T) {
	sessions := new(mockSessionService)
	sessions.On("Resolve", mock.Anything, "good").Return(&models.User{ID: 1, Name: "Ann"}, nil)
	router := newSessionRouter(sessions, log.New(&bytes.Buffer{}))

	req, _ := http.NewRequest("GET", "/login", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/tasks", w.Header().Get("Location"))

	req, _ = http.NewRequest("GET", "/login", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
