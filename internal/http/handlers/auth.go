package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryapradana/galeri/internal/http/middleware"
	"github.com/aryapradana/galeri/internal/storage"
)

// AuthHandler serves registration, login, logout and password updates.
type AuthHandler struct {
	logger     *slog.Logger
	users      storage.Users
	store      sessions.Store
	cookieName string
}

func NewAuthHandler(logger *slog.Logger, users storage.Users, store sessions.Store, cookieName string) *AuthHandler {
	return &AuthHandler{
		logger:     logger,
		users:      users,
		store:      store,
		cookieName: cookieName,
	}
}

type registerForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and logs the new user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "name, email and password are required")
		return
	}

	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))

	switch {
	case form.Name == "":
		respondError(c, http.StatusUnprocessableEntity, "name is required")
		return
	case form.Email == "" || !strings.Contains(form.Email, "@"):
		respondError(c, http.StatusUnprocessableEntity, "a valid email is required")
		return
	case len(form.Password) < 8:
		respondError(c, http.StatusUnprocessableEntity, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to register")
		return
	}

	user, err := h.users.Create(c.Request.Context(), storage.UserCreate{
		Name:         form.Name,
		Email:        form.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			respondError(c, http.StatusUnprocessableEntity, "email is already registered")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to register")
		return
	}

	if !h.startSession(c, user.ID) {
		return
	}

	h.logger.Info("user registered", "userID", user.ID)
	respondOK(c, http.StatusCreated, "registered", gin.H{"name": user.Name, "email": user.Email})
}

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user by email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "email and password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(form.Email))

	user, err := h.users.GetByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.logger.Warn("login attempt for unknown email", "ip", c.ClientIP())
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error("failed to load user", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to log in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)) != nil {
		h.logger.Warn("invalid login attempt", "userID", user.ID, "ip", c.ClientIP())
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !h.startSession(c, user.ID) {
		return
	}

	h.logger.Info("user logged in", "userID", user.ID)
	respondOK(c, http.StatusOK, "logged in", gin.H{"name": user.Name, "email": user.Email})
}

// Logout drops the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session, err := h.store.Get(c.Request, h.cookieName)
	if err == nil {
		session.Options.MaxAge = -1
		if err := session.Save(c.Request, c.Writer); err != nil {
			h.logger.Error("failed to clear session", "error", err)
		}
	}

	respondOK(c, http.StatusOK, "logged out", nil)
}

type passwordForm struct {
	CurrentPassword      string `json:"current_password"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UpdatePassword changes the password of the logged-in user after verifying
// the current one.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var form passwordForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "current and new password are required")
		return
	}

	switch {
	case form.CurrentPassword == "":
		respondError(c, http.StatusUnprocessableEntity, "current password is required")
		return
	case len(form.Password) < 8:
		respondError(c, http.StatusUnprocessableEntity, "new password must be at least 8 characters")
		return
	case form.Password != form.PasswordConfirmation:
		respondError(c, http.StatusUnprocessableEntity, "password confirmation does not match")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load user", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to update password")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.CurrentPassword)) != nil {
		respondError(c, http.StatusUnprocessableEntity, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to update password")
		return
	}

	if err := h.users.UpdatePassword(c.Request.Context(), userID, string(hash)); err != nil {
		h.logger.Error("failed to update password", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to update password")
		return
	}

	h.logger.Info("password updated", "userID", userID)
	respondOK(c, http.StatusOK, "password updated", nil)
}

func (h *AuthHandler) startSession(c *gin.Context, userID int64) bool {
	session, err := h.store.Get(c.Request, h.cookieName)
	if err != nil {
		// A stale or tampered cookie still yields a fresh session.
		session, err = h.store.New(c.Request, h.cookieName)
		if err != nil {
			h.logger.Error("failed to create session", "error", err)
			respondError(c, http.StatusInternalServerError, "failed to start session")
			return false
		}
	}

	session.Values[middleware.SessionUserID] = userID
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.logger.Error("failed to save session", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to start session")
		return false
	}

	return true
}
