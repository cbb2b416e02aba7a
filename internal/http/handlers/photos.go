package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aryapradana/galeri/internal/blob"
	"github.com/aryapradana/galeri/internal/crypt"
	"github.com/aryapradana/galeri/internal/http/middleware"
	"github.com/aryapradana/galeri/internal/ingest"
	"github.com/aryapradana/galeri/internal/storage"
)

// PhotoHandler serves every photo-facing endpoint: uploads, browsing, the
// archive/favorite/move/retitle/delete family, and blob access.
type PhotoHandler struct {
	logger        *slog.Logger
	photos        storage.Photos
	albums        storage.Albums
	blobs         *blob.Store
	pipeline      *ingest.Pipeline
	ids           *crypt.IDCodec
	maxFileBytes  int64
	uploadTimeout time.Duration
}

func NewPhotoHandler(
	logger *slog.Logger,
	photos storage.Photos,
	albums storage.Albums,
	blobs *blob.Store,
	pipeline *ingest.Pipeline,
	ids *crypt.IDCodec,
	maxFileBytes int64,
	uploadTimeout time.Duration,
) *PhotoHandler {
	return &PhotoHandler{
		logger:        logger,
		photos:        photos,
		albums:        albums,
		blobs:         blobs,
		pipeline:      pipeline,
		ids:           ids,
		maxFileBytes:  maxFileBytes,
		uploadTimeout: uploadTimeout,
	}
}

// List returns the user's non-archived photos grouped by day, newest first by
// default. Supports ?search= on titles and ?sort=asc|desc on created_at.
func (h *PhotoHandler) List(c *gin.Context) {
	h.listGrouped(c, storage.PhotoFilter{
		Search:  strings.TrimSpace(c.Query("search")),
		SortAsc: strings.EqualFold(c.Query("sort"), "asc"),
	})
}

// Favorites returns the user's favorite, non-archived photos grouped by day.
func (h *PhotoHandler) Favorites(c *gin.Context) {
	h.listGrouped(c, storage.PhotoFilter{
		FavoriteOnly: true,
		SortAsc:      strings.EqualFold(c.Query("sort"), "asc"),
	})
}

func (h *PhotoHandler) listGrouped(c *gin.Context, filter storage.PhotoFilter) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	photos, err := h.photos.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.logger.Error("failed to list photos", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load photos")
		return
	}

	respondOK(c, http.StatusOK, "photos loaded", gin.H{
		"groups": h.groupByDay(photos),
	})
}

// groupByDay buckets photos by their creation day, preserving query order.
// The two most recent days get the friendly labels.
func (h *PhotoHandler) groupByDay(photos []storage.Photo) []gin.H {
	now := time.Now()
	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")

	groups := make([]gin.H, 0)
	index := map[string]int{}

	for _, photo := range photos {
		day := photo.CreatedAt.Local().Format("2006-01-02")

		label := photo.CreatedAt.Local().Format("2 Jan 2006")
		switch day {
		case today:
			label = "Today"
		case yesterday:
			label = "Yesterday"
		}

		i, ok := index[label]
		if !ok {
			groups = append(groups, gin.H{"label": label, "photos": []gin.H{}})
			i = len(groups) - 1
			index[label] = i
		}
		groups[i]["photos"] = append(groups[i]["photos"].([]gin.H), h.photoJSON(photo))
	}

	return groups
}

// Detail returns a single photo by its opaque id.
func (h *PhotoHandler) Detail(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := h.ids.Decode(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "photo not found")
		return
	}

	photo, err := h.photos.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "photo not found")
			return
		}
		h.logger.Error("failed to load photo", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to load photo")
		return
	}

	respondOK(c, http.StatusOK, "photo loaded", gin.H{"photo": h.photoJSON(photo)})
}

// MultiUpload ingests a batch of photos atomically. The batch is either fully
// stored or leaves no trace.
func (h *PhotoHandler) MultiUpload(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	items, err := h.readItems(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid multipart form")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.uploadTimeout)
	defer cancel()

	uploaded, err := h.pipeline.Ingest(ctx, userID, items)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"status":  "error",
				"message": "validation failed",
				"errors":  verr.Fields,
			})
			return
		}
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("failed to upload photos: %v", err))
		return
	}

	files := make([]gin.H, 0, len(uploaded))
	for _, f := range uploaded {
		files = append(files, gin.H{
			"id":       h.ids.Encode(f.ID),
			"title":    f.Title,
			"filename": f.Filename,
			"path":     f.Path,
		})
	}

	respondOK(c, http.StatusOK, fmt.Sprintf("%d photos uploaded", len(files)), gin.H{
		"uploadedFiles": files,
		"data":          files,
		"redirect":      c.Request.Referer(),
	})
}

// SingleUpload stores one photo. It runs the same pipeline as MultiUpload
// with a batch of one.
func (h *PhotoHandler) SingleUpload(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":  "error",
			"message": "validation failed",
			"errors":  map[string]string{"photo": "photo file is required"},
		})
		return
	}

	data, err := h.readFile(fileHeader)
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	items := []ingest.Item{{
		Title:    strings.TrimSpace(c.PostForm("title")),
		Filename: fileHeader.Filename,
		Data:     data,
	}}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.uploadTimeout)
	defer cancel()

	uploaded, err := h.pipeline.Ingest(ctx, userID, items)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"status":  "error",
				"message": "validation failed",
				"errors":  verr.Fields,
			})
			return
		}
		respondError(c, http.StatusInternalServerError, fmt.Sprintf("failed to upload photo: %v", err))
		return
	}

	respondOK(c, http.StatusOK, "photo uploaded", gin.H{
		"photo": gin.H{
			"id":       h.ids.Encode(uploaded[0].ID),
			"title":    uploaded[0].Title,
			"filename": uploaded[0].Filename,
			"path":     uploaded[0].Path,
		},
	})
}

type idsRequest struct {
	ID  string   `json:"id"`
	IDs []string `json:"ids"`
}

// tokens returns every supplied opaque id, single and list forms combined.
func (r idsRequest) tokens() []string {
	tokens := make([]string, 0, len(r.IDs)+1)
	if r.ID != "" {
		tokens = append(tokens, r.ID)
	}
	tokens = append(tokens, r.IDs...)
	return tokens
}

// Archive marks the supplied photos as archived. Accepts a single opaque id
// or a list; the mutation is all-or-nothing.
func (h *PhotoHandler) Archive(c *gin.Context) {
	h.setArchived(c, true, "photo(s) archived", "failed to archive photos")
}

// Unarchive clears the archived flag on the supplied photos.
func (h *PhotoHandler) Unarchive(c *gin.Context) {
	h.setArchived(c, false, "photo(s) unarchived", "failed to unarchive photos")
}

func (h *PhotoHandler) setArchived(c *gin.Context, archived bool, okMsg, failMsg string) {
	userID, ids, ok := h.userAndIDs(c)
	if !ok {
		return
	}

	if err := h.photos.SetArchived(c.Request.Context(), userID, ids, archived); err != nil {
		h.respondMutationError(c, err, failMsg)
		return
	}

	respondOK(c, http.StatusOK, fmt.Sprintf("%d %s", len(ids), okMsg), gin.H{"count": len(ids)})
}

type favoriteRequest struct {
	ID string `json:"id" binding:"required"`
}

// Favorite toggles the favorite flag of one photo and returns the new state.
func (h *PhotoHandler) Favorite(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "no photo selected")
		return
	}

	id, err := h.ids.Decode(req.ID)
	if err != nil {
		respondError(c, http.StatusNotFound, "photo not found")
		return
	}

	photo, err := h.photos.ToggleFavorite(c.Request.Context(), userID, id)
	if err != nil {
		h.respondMutationError(c, err, "failed to update favorite")
		return
	}

	respondOK(c, http.StatusOK, "favorite updated", gin.H{"is_favorite": photo.IsFavorite})
}

type retitleRequest struct {
	ID    string `json:"id" binding:"required"`
	Title string `json:"title"`
}

// Retitle updates one photo's title.
func (h *PhotoHandler) Retitle(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req retitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "no photo selected")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > 255 {
		respondError(c, http.StatusUnprocessableEntity, "title must be between 1 and 255 characters")
		return
	}

	id, err := h.ids.Decode(req.ID)
	if err != nil {
		respondError(c, http.StatusNotFound, "photo not found")
		return
	}

	photo, err := h.photos.SetTitle(c.Request.Context(), userID, id, title)
	if err != nil {
		h.respondMutationError(c, err, "failed to update title")
		return
	}

	respondOK(c, http.StatusOK, "title updated", gin.H{"photo": h.photoJSON(photo)})
}

type moveRequest struct {
	idsRequest
	AlbumID string `json:"album_id" binding:"required"`
}

// Move assigns the supplied photos to an album owned by the same user.
func (h *PhotoHandler) Move(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "no album selected")
		return
	}

	ids, err := h.decodeTokens(req.tokens())
	if err != nil || len(ids) == 0 {
		respondError(c, http.StatusUnprocessableEntity, "no photos selected")
		return
	}

	albumID, err := h.ids.Decode(req.AlbumID)
	if err != nil {
		respondError(c, http.StatusNotFound, "album not found")
		return
	}

	album, err := h.albums.GetByID(c.Request.Context(), userID, albumID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "album not found")
			return
		}
		h.logger.Error("failed to load album", "userID", userID, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to move photos")
		return
	}

	if err := h.photos.MoveToAlbum(c.Request.Context(), userID, ids, &album.ID); err != nil {
		h.respondMutationError(c, err, "failed to move photos")
		return
	}

	respondOK(c, http.StatusOK, fmt.Sprintf("%d photo(s) moved to album %s", len(ids), album.Name), gin.H{"count": len(ids)})
}

// Delete removes the supplied photo records. The underlying blobs are kept.
func (h *PhotoHandler) Delete(c *gin.Context) {
	userID, ids, ok := h.userAndIDs(c)
	if !ok {
		return
	}

	if err := h.photos.Delete(c.Request.Context(), userID, ids); err != nil {
		h.respondMutationError(c, err, "failed to delete photos")
		return
	}

	respondOK(c, http.StatusOK, fmt.Sprintf("%d photo(s) deleted", len(ids)), gin.H{"count": len(ids)})
}

// Access streams a stored blob inline.
func (h *PhotoHandler) Access(c *gin.Context) {
	h.streamBlob(c, false)
}

// Download streams a stored blob as an attachment.
func (h *PhotoHandler) Download(c *gin.Context) {
	h.streamBlob(c, true)
}

func (h *PhotoHandler) streamBlob(c *gin.Context, attachment bool) {
	key := strings.TrimPrefix(c.Param("path"), "/")

	reader, err := h.blobs.Open(key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			respondError(c, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("failed to open blob", "key", key, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		h.logger.Error("failed to read blob", "key", key, "error", err)
		respondError(c, http.StatusInternalServerError, "failed to read file")
		return
	}

	if attachment {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(key)))
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// userAndIDs binds the common {id, ids} body and resolves the opaque tokens.
// It writes the error response itself when something is off.
func (h *PhotoHandler) userAndIDs(c *gin.Context) (int64, []int64, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return 0, nil, false
	}

	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "no photos selected")
		return 0, nil, false
	}

	ids, err := h.decodeTokens(req.tokens())
	if err != nil {
		respondError(c, http.StatusNotFound, "photo not found")
		return 0, nil, false
	}
	if len(ids) == 0 {
		respondError(c, http.StatusUnprocessableEntity, "no photos selected")
		return 0, nil, false
	}

	return userID, ids, true
}

func (h *PhotoHandler) decodeTokens(tokens []string) ([]int64, error) {
	ids := make([]int64, 0, len(tokens))
	for _, token := range tokens {
		id, err := h.ids.Decode(token)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *PhotoHandler) respondMutationError(c *gin.Context, err error, failMsg string) {
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, "photo not found")
		return
	}
	h.logger.Error(failMsg, "error", err)
	respondError(c, http.StatusInternalServerError, failMsg)
}

func (h *PhotoHandler) photoJSON(photo storage.Photo) gin.H {
	var albumID any
	if photo.AlbumID != nil {
		albumID = h.ids.Encode(*photo.AlbumID)
	}

	var takenAt any
	if photo.TakenAt != nil {
		takenAt = photo.TakenAt.Format(time.RFC3339)
	}

	return gin.H{
		"id":          h.ids.Encode(photo.ID),
		"title":       photo.Title,
		"path":        photo.FilePath,
		"is_archived": photo.IsArchived,
		"is_favorite": photo.IsFavorite,
		"album_id":    albumID,
		"taken_at":    takenAt,
		"created_at":  photo.CreatedAt.Format(time.RFC3339),
		"updated_at":  photo.UpdatedAt.Format(time.RFC3339),
	}
}

// readItems pairs the repeated title[]/photo[] multipart fields by index.
func (h *PhotoHandler) readItems(c *gin.Context) ([]ingest.Item, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	titles := formValues(form.Value, "title")
	files := formFiles(form.File, "photo")

	items := make([]ingest.Item, 0, len(files))
	for i, fileHeader := range files {
		title := ""
		if i < len(titles) {
			title = strings.TrimSpace(titles[i])
		}

		data, err := h.readFile(fileHeader)
		if err != nil {
			return nil, err
		}

		items = append(items, ingest.Item{
			Title:    title,
			Filename: fileHeader.Filename,
			Data:     data,
		})
	}

	return items, nil
}

// readFile loads an upload into memory, reading at most one byte past the
// size limit so oversized files are detected without buffering them whole.
func (h *PhotoHandler) readFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, h.maxFileBytes+1))
}

func formValues(values map[string][]string, key string) []string {
	if v, ok := values[key+"[]"]; ok {
		return v
	}
	return values[key]
}

func formFiles(files map[string][]*multipart.FileHeader, key string) []*multipart.FileHeader {
	if f, ok := files[key+"[]"]; ok {
		return f
	}
	return files[key]
}
