package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"todo-manager/internal/handlers"
	"todo-manager/internal/middleware"
	"todo-manager/internal/models"
	"todo-manager/internal/services"
)

func setupAuthHandler() (*MockAuthService, *MockSessionService, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	authService := new(MockAuthService)
	sessionService := new(MockSessionService)
	handler := handlers.NewAuthHandler(authService, sessionService, quietLogger())

	router := gin.New()
	router.Use(middleware.LoadSession(sessionService, quietLogger()))
	anonymous := router.Group("", middleware.RedirectIfAuthenticated("/tasks"))
	anonymous.GET("/", handler.Home)
	anonymous.POST("/register", handler.Register)
	anonymous.POST("/login", handler.Login)
	router.POST("/logout", handler.Logout)

	return authService, sessionService, router
}

func validRegistration() map[string]string {
	return map[string]string{
		"name":             "Ann",
		"email":            "ann@x.com",
		"password":         "secret1",
		"confirm_password": "secret1",
	}
}

func TestHome_Anonymous(t *testing.T) {
	_, _, router := setupAuthHandler()

	w := performJSON(router, "GET", "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(w), "links")
}

func TestHome_AuthenticatedRedirects(t *testing.T) {
	_, sessions, router := setupAuthHandler()
	sessions.On("Resolve", mock.Anything, "tok").Return(&models.User{ID: 1}, nil)

	w := performJSON(router, "GET", "/", nil, "Authorization", "Bearer tok")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/tasks", w.Header().Get("Location"))
}

func TestRegister_Success(t *testing.T) {
	auth, _, router := setupAuthHandler()
	auth.On("Register", mock.Anything, "Ann", "ann@x.com", "secret1").
		Return(&models.User{ID: 1, Name: "Ann", Email: "ann@x.com", PasswordHash: "hash"}, nil)

	w := performJSON(router, "POST", "/register", validRegistration())

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(w)
	assert.Equal(t, "Registration successful. Please log in.", body["message"])
	assert.Equal(t, "/", body["redirect"])
	assert.NotContains(t, w.Body.String(), "hash")
	auth.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	auth, _, router := setupAuthHandler()
	auth.On("Register", mock.Anything, "Ann", "ann@x.com", "secret1").Return(nil, services.ErrDuplicateEmail)

	w := performJSON(router, "POST", "/register", validRegistration())

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(w)
	assert.Equal(t, "Email already registered.", body["warning"])
	assert.Equal(t, "/register", body["redirect"])
}

func TestRegister_ValidationFailure(t *testing.T) {
	auth, _, router := setupAuthHandler()

	req := validRegistration()
	req["confirm_password"] = "different"
	w := performJSON(router, "POST", "/register", req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields, ok := decode(w)["fields"].(map[string]interface{})
	if assert.True(t, ok) {
		assert.Contains(t, fields, "confirm_password")
	}
	auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_InvalidJSON(t *testing.T) {
	_, _, router := setupAuthHandler()

	w := performJSON(router, "POST", "/register", "invalid json")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decode(w)["error"])
}

func TestRegister_StoreFailure(t *testing.T) {
	auth, _, router := setupAuthHandler()
	auth.On("Register", mock.Anything, "Ann", "ann@x.com", "secret1").Return(nil, errors.New("disk full"))

	w := performJSON(router, "POST", "/register", validRegistration())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestLogin_Success(t *testing.T) {
	auth, sessions, router := setupAuthHandler()
	ann := &models.User{ID: 1, Name: "Ann", Email: "ann@x.com"}
	auth.On("Authenticate", mock.Anything, "ann@x.com", "secret1").Return(ann, nil)
	sessions.On("Start", mock.Anything, ann).Return("signed-token", nil)

	w := performJSON(router, "POST", "/login", map[string]string{"email": "ann@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(w)
	assert.Equal(t, "signed-token", body["token"])
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, "/tasks", body["redirect"])
	user, _ := body["user"].(map[string]interface{})
	assert.Equal(t, "Ann", user["name"])
}

func TestLogin_InvalidCredentialsAreGeneric(t *testing.T) {
	auth, sessions, router := setupAuthHandler()
	auth.On("Authenticate", mock.Anything, "ann@x.com", "wrong").Return(nil, services.ErrInvalidCredentials)
	auth.On("Authenticate", mock.Anything, "nobody@x.com", "secret1").Return(nil, services.ErrInvalidCredentials)

	wrongPassword := performJSON(router, "POST", "/login", map[string]string{"email": "ann@x.com", "password": "wrong"})
	unknownEmail := performJSON(router, "POST", "/login", map[string]string{"email": "nobody@x.com", "password": "secret1"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
	assert.Equal(t, "Invalid credentials.", decode(wrongPassword)["error"])
	sessions.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
}

func TestLogin_AlreadyAuthenticated(t *testing.T) {
	auth, sessions, router := setupAuthHandler()
	sessions.On("Resolve", mock.Anything, "tok").Return(&models.User{ID: 1}, nil)

	w := performJSON(router, "POST", "/login", map[string]string{"email": "ann@x.com", "password": "secret1"},
		"Authorization", "Bearer tok")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/tasks", w.Header().Get("Location"))
	auth.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogout(t *testing.T) {
	_, sessions, router := setupAuthHandler()
	sessions.On("Resolve", mock.Anything, "tok").Return(&models.User{ID: 1}, nil)
	sessions.On("End", mock.Anything, "tok").Return(nil)

	w := performJSON(router, "POST", "/logout", nil, "Authorization", "Bearer tok")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out.", decode(w)["message"])
	sessions.AssertExpectations(t)
}

func TestLogout_WithoutSession(t *testing.T) {
	_, sessions, router := setupAuthHandler()
	sessions.On("End", mock.Anything, "").Return(nil)

	w := performJSON(router, "POST", "/logout", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Logged out.", decode(w)["message"])
}
