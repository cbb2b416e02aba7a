package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aryapradana/galeri/internal/crypt"
	"github.com/aryapradana/galeri/internal/http/middleware"
	"github.com/aryapradana/galeri/internal/storage"
)

// AlbumHandler serves album CRUD and album membership endpoints.
type AlbumHandler struct {
	logger *slog.Logger
	albums storage.Albums
	photos storage.Photos
	ids    *crypt.IDCodec
}

func NewAlbumHandler(logger *slog.Logger, albums storage.Albums, photos storage.Photos, ids *crypt.IDCodec) *AlbumHandler {
	return &AlbumHandler{
		logger: logger,
		albums: albums,
		photos: photos,
		ids:    ids,
	}
}

// List returns the user's albums with photo counts.
func (h *AlbumHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	albums, err := h.albums.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list albums", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load albums")
		return
	}

	items := make([]gin.H, 0, len(albums))
	for _, album := range albums {
		items = append(items, h.albumJSON(album))
	}

	respondOK(c, http.StatusOK, "albums loaded", gin.H{"albums": items})
}

type albumForm struct {
	Name string `json:"name"`
}

// Create adds a new album for the user.
func (h *AlbumHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var form albumForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "album name is required")
		return
	}

	name := strings.TrimSpace(form.Name)
	if name == "" || len(name) > 255 {
		respondError(c, http.StatusUnprocessableEntity, "album name must be between 1 and 255 characters")
		return
	}

	album, err := h.albums.Create(c.Request.Context(), storage.AlbumCreate{
		UserID: userID,
		Name:   name,
	})
	if err != nil {
		h.logger.Error("failed to create album", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to create album")
		return
	}

	h.logger.Info("album created", "albumID", album.ID, "userID", userID)
	respondOK(c, http.StatusCreated, "album created", gin.H{"album": h.albumJSON(album)})
}

// Show returns one album and the photos in it.
func (h *AlbumHandler) Show(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	album, ok := h.lookupAlbum(c, userID)
	if !ok {
		return
	}

	photos, err := h.photos.List(c.Request.Context(), userID, storage.PhotoFilter{AlbumID: &album.ID})
	if err != nil {
		h.logger.Error("failed to list album photos", "albumID", album.ID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load album")
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

	respondOK(c, http.StatusOK, "album loaded", gin.H{
		"album":  h.albumJSON(album),
		"photos": items,
	})
}

// Rename updates the album name.
func (h *AlbumHandler) Rename(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.ids.Decode(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "album not found")
		return
	}

	var form albumForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "album name is required")
		return
	}

	name := strings.TrimSpace(form.Name)
	if name == "" || len(name) > 255 {
		respondError(c, http.StatusUnprocessableEntity, "album name must be between 1 and 255 characters")
		return
	}

	album, err := h.albums.Rename(c.Request.Context(), userID, id, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "album not found")
			return
		}
		h.logger.Error("failed to rename album", "albumID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to rename album")
		return
	}

	respondOK(c, http.StatusOK, "album renamed", gin.H{"album": h.albumJSON(album)})
}

// Delete removes an album. Photos keep their rows; their album reference is
// nulled by the schema.
func (h *AlbumHandler) Delete(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.ids.Decode(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "album not found")
		return
	}

	if err := h.albums.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "album not found")
			return
		}
		h.logger.Error("failed to delete album", "albumID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to delete album")
		return
	}

	h.logger.Info("album deleted", "albumID", id, "userID", userID)
	respondOK(c, http.StatusOK, "album deleted", nil)
}

// AddPhotos assigns existing photos to the album, all-or-nothing.
func (h *AlbumHandler) AddPhotos(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	album, ok := h.lookupAlbum(c, userID)
	if !ok {
		return
	}

	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "no photos selected")
		return
	}

	tokens := req.tokens()
	if len(tokens) == 0 {
		respondError(c, http.StatusUnprocessableEntity, "no photos selected")
		return
	}

	ids := make([]int64, 0, len(tokens))
	for _, token := range tokens {
		id, err := h.ids.Decode(token)
		if err != nil {
			respondError(c, http.StatusNotFound, "photo not found")
			return
		}
		ids = append(ids, id)
	}

	if err := h.photos.MoveToAlbum(c.Request.Context(), userID, ids, &album.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "photo not found")
			return
		}
		h.logger.Error("failed to add photos to album", "albumID", album.ID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to add photos to album")
		return
	}

	respondOK(c, http.StatusOK, fmt.Sprintf("%d photo(s) added to album %s", len(ids), album.Name), gin.H{"count": len(ids)})
}

func (h *AlbumHandler) lookupAlbum(c *gin.Context, userID int64) (storage.Album, bool) {
	id, err := h.ids.Decode(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "album not found")
		return storage.Album{}, false
	}

	album, err := h.albums.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "album not found")
			return storage.Album{}, false
		}
		h.logger.Error("failed to load album", "albumID", id, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load album")
		return storage.Album{}, false
	}

	return album, true
}

func (h *AlbumHandler) albumJSON(album storage.Album) gin.H {
	return gin.H{
		"id":          h.ids.Encode(album.ID),
		"name":        album.Name,
		"photo_count": album.PhotoCount,
		"created_at":  album.CreatedAt.Format(time.RFC3339),
		"updated_at":  album.UpdatedAt.Format(time.RFC3339),
	}
}
