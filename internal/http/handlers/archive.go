package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryapradana/galeri/internal/crypt"
	"github.com/aryapradana/galeri/internal/http/middleware"
	"github.com/aryapradana/galeri/internal/storage"
)

// sessionArchiveVerified marks a session that has re-entered the account
// password to view the archive.
const sessionArchiveVerified = "archive_verified"

// ArchiveHandler gates the archived-photo listing behind a password
// re-verification step.
type ArchiveHandler struct {
	logger     *slog.Logger
	users      storage.Users
	photos     storage.Photos
	ids        *crypt.IDCodec
	store      sessions.Store
	cookieName string
}

func NewArchiveHandler(
	logger *slog.Logger,
	users storage.Users,
	photos storage.Photos,
	ids *crypt.IDCodec,
	store sessions.Store,
	cookieName string,
) *ArchiveHandler {
	return &ArchiveHandler{
		logger:     logger,
		users:      users,
		photos:     photos,
		ids:        ids,
		store:      store,
		cookieName: cookieName,
	}
}

type verifyForm struct {
	Password string `json:"password"`
}

// Verify checks the account password and unlocks the archive for this
// session.
func (h *ArchiveHandler) Verify(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var form verifyForm
	if err := c.ShouldBindJSON(&form); err != nil || form.Password == "" {
		respondError(c, http.StatusUnprocessableEntity, "password is required")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load user", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to verify password")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)) != nil {
		h.logger.Warn("archive verification failed", "userID", userID, "ip", c.ClientIP())
		respondError(c, http.StatusUnauthorized, "incorrect password")
		return
	}

	session, err := h.store.Get(c.Request, h.cookieName)
	if err != nil {
		h.logger.Error("failed to load session", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to verify password")
		return
	}

	session.Values[sessionArchiveVerified] = true
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.logger.Error("failed to save session", "error", err)
		respondError(c, http.StatusInternalServerError, "failed to verify password")
		return
	}

	respondOK(c, http.StatusOK, "archive unlocked", nil)
}

// Content lists the user's archived photos. The session must have passed
// Verify first.
func (h *ArchiveHandler) Content(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	session, err := h.store.Get(c.Request, h.cookieName)
	if err != nil || session.Values[sessionArchiveVerified] != true {
		respondError(c, http.StatusForbidden, "archive verification required")
		return
	}

	photos, err := h.photos.List(c.Request.Context(), userID, storage.PhotoFilter{Archived: true})
	if err != nil {
		h.logger.Error("failed to list archived photos", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load archive")
		return
	}

	items := make([]gin.H, 0, len(photos))
	for _, photo := range photos {
		items = append(items, gin.H{
			"id":          h.ids.Encode(photo.ID),
			"title":       photo.Title,
			"path":        photo.FilePath,
			"is_favorite": photo.IsFavorite,
			"created_at":  photo.CreatedAt.Format(time.RFC3339),
		})
	}

	respondOK(c, http.StatusOK, "archive loaded", gin.H{"photos": items})
}
