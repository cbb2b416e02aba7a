package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aryapradana/galeri/internal/http/handlers"
	"github.com/aryapradana/galeri/internal/storage"
)

func TestAlbumHandlerList(t *testing.T) {
	albums := &stubAlbums{
		list: []storage.Album{
			{ID: 1, UserID: testUserID, Name: "Summer Roadtrip", PhotoCount: 3, CreatedAt: time.Now(), UpdatedAt: time.Now()},
			{ID: 2, UserID: testUserID, Name: "Family", CreatedAt: time.Now(), UpdatedAt: time.Now()},
		},
	}
	h := newAlbumHandler(t, albums, &stubPhotos{})

	rec := httptest.NewRecorder()
	ctx := authedContext(t, rec, httptest.NewRequest(http.MethodGet, "/albums", nil))

	h.List(ctx)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Summer Roadtrip") || !strings.Contains(body, "Family") {
		t.Fatalf("response body missing album names: %s", body)
	}
	if !strings.Contains(body, `"photo_count":3`) {
		t.Fatalf("response body missing photo count: %s", body)
	}
}

func TestAlbumHandlerCreateSuccess(t *testing.T) {
	albums := &stubAlbums{createResp: storage.Album{ID: 42, UserID: testUserID, Name: "Summer Roadtrip"}}
	h := newAlbumHandler(t, albums, &stubPhotos{})

	rec := httptest.NewRecorder()
	ctx := authedContext(t, rec, jsonRequest(t, http.MethodPost, "/albums", map[string]any{
		"name": "Summer Roadtrip",
	}))

	h.Create(ctx)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Summer Roadtrip") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAlbumHandlerCreateRejectsEmptyName(t *testing.T) {
	h := newAlbumHandler(t, &stubAlbums{}, &stubPhotos{})

	rec := httptest.NewRecorder()
	ctx := authedContext(t, rec, jsonRequest(t, http.MethodPost, "/albums", map[string]any{
		"name": "   ",
	}))

	h.Create(ctx)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
}

func TestAlbumHandlerShow(t *testing.T) {
	albums := &stubAlbums{getResp: storage.Album{ID: 11, UserID: testUserID, Name: "Trips", PhotoCount: 1}}
	photos := &stubPhotos{
		list: []storage.Photo{{ID: 5, UserID: testUserID, Title: "Mountain pass", FilePath: "photos/m.jpg"}},
	}
	h := newAlbumHandler(t, albums, photos)

	rec := httptest.NewRecorder()
	ctx := authedContext(t, rec, httptest.NewRequest(http.MethodGet, "/albums/x", nil))
	ctx.Params = gin.Params{{Key: "id", Value: testCodec(t).Encode(11)}}

	h.Show(ctx)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Trips") || !strings.Contains(body, "Mountain pass") {
		t.Fatalf("response body missing album or photo: %s", body)
	}
}

func TestAlbumHandlerRenameUnknownAlbum(t *testing.T) {
	albums := &stubAlbums{renameErr: storage.ErrNotFound}
	h := newAlbumHandler(t, albums, &stubPhotos{})

	rec := httptest.NewRecorder()
	ctx := authedContext(t, rec, jsonRequest(t, http.MethodPut, "/albums/x", map[string]any{
		"name": "New name",
	}))
	ctx.Params = gin.Params{{Key: "id", Value: testCodec(t).Encode(99)}}

	h.Rename(ctx)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestAlbumHandlerDelete(t *testing.T) {
	albums := &stubAlbums{}
	h := newAlbumHandler(t, albums, &stubPhotos{})

	rec := httptest.NewRecorder()
	ctx := authedContext(t, rec, httptest.NewRequest(http.MethodDelete, "/albums/x", nil))
	ctx.Params = gin.Params{{Key: "id", Value: testCodec(t).Encode(7)}}

	h.Delete(ctx)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if albums.deletedID != 7 {
		t.Fatalf("expected album 7 to be deleted, got %d", albums.deletedID)
	}
}

func TestAlbumHandlerAddPhotos(t *testing.T) {
	albums := &stubAlbums{getResp: storage.Album{ID: 11, UserID: testUserID, Name: "Trips"}}
	photos := &stubPhotos{}
	h := newAlbumHandler(t, albums, photos)

	codec := testCodec(t)
	rec := httptest.NewRecorder()
	ctx := authedContext(t, rec, jsonRequest(t, http.MethodPost, "/albums/x/photos", map[string]any{
		"ids": []string{codec.Encode(1), codec.Encode(2)},
	}))
	ctx.Params = gin.Params{{Key: "id", Value: codec.Encode(11)}}

	h.AddPhotos(ctx)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if photos.movedAlbum == nil || *photos.movedAlbum != 11 {
		t.Fatalf("expected photos moved to album 11, got %v", photos.movedAlbum)
	}
	if len(photos.movedIDs) != 2 {
		t.Fatalf("expected 2 photos moved, got %v", photos.movedIDs)
	}
}

func TestAlbumHandlerAddPhotosEmptySelection(t *testing.T) {
	albums := &stubAlbums{getResp: storage.Album{ID: 11, UserID: testUserID, Name: "Trips"}}
	photos := &stubPhotos{}
	h := newAlbumHandler(t, albums, photos)

	rec := httptest.NewRecorder()
	ctx := authedContext(t, rec, jsonRequest(t, http.MethodPost, "/albums/x/photos", map[string]any{
		"ids": []string{},
	}))
	ctx.Params = gin.Params{{Key: "id", Value: testCodec(t).Encode(11)}}

	h.AddPhotos(ctx)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	if photos.movedIDs != nil {
		t.Fatalf("expected no move for an empty selection")
	}
}

func newAlbumHandler(t *testing.T, albums *stubAlbums, photos *stubPhotos) *handlers.AlbumHandler {
	t.Helper()
	return handlers.NewAlbumHandler(newTestLogger(), albums, photos, testCodec(t))
}
