package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aryapradana/galeri/internal/storage"
	"github.com/aryapradana/galeri/internal/storage/sqlite"
)

func TestOpenCreatesSchema(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)

	ctx := context.Background()

	albums, err := store.Albums().List(ctx, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(albums) != 0 {
		t.Fatalf("expected no albums, got %d", len(albums))
	}

	photos, err := store.Photos().List(ctx, 1, storage.PhotoFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(photos) != 0 {
		t.Fatalf("expected no photos, got %d", len(photos))
	}
}

func TestUserLifecycle(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	created, err := store.Users().Create(ctx, storage.UserCreate{
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "hash-1",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected user ID to be set")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be populated")
	}

	_, err = store.Users().Create(ctx, storage.UserCreate{
		Name:         "Other",
		Email:        "ana@example.com",
		PasswordHash: "hash-2",
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}

	fetched, err := store.Users().GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if fetched.ID != created.ID {
		t.Fatalf("expected ID %d, got %d", created.ID, fetched.ID)
	}

	if err := store.Users().UpdatePassword(ctx, created.ID, "hash-3"); err != nil {
		t.Fatalf("UpdatePassword returned error: %v", err)
	}
	fetched, err = store.Users().GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if fetched.PasswordHash != "hash-3" {
		t.Fatalf("expected updated password hash, got %q", fetched.PasswordHash)
	}

	if err := store.Users().UpdatePassword(ctx, 9999, "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestAlbumLifecycle(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")
	other := createUser(t, store, "other@example.com")

	created, err := store.Albums().Create(ctx, storage.AlbumCreate{
		UserID: user.ID,
		Name:   "Holiday",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.PhotoCount != 0 {
		t.Fatalf("expected empty album, got %d photos", created.PhotoCount)
	}

	// Albums are invisible to other users.
	if _, err := store.Albums().GetByID(ctx, other.ID, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign album, got %v", err)
	}

	renamed, err := store.Albums().Rename(ctx, user.ID, created.ID, "Holiday 2026")
	if err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}
	if renamed.Name != "Holiday 2026" {
		t.Fatalf("expected renamed album, got %q", renamed.Name)
	}

	photo := addPhoto(t, store, user.ID, "Sunset")
	if err := store.Photos().MoveToAlbum(ctx, user.ID, []int64{photo.ID}, &created.ID); err != nil {
		t.Fatalf("MoveToAlbum returned error: %v", err)
	}

	withCount, err := store.Albums().GetByID(ctx, user.ID, created.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if withCount.PhotoCount != 1 {
		t.Fatalf("expected photo count 1, got %d", withCount.PhotoCount)
	}

	if err := store.Albums().Delete(ctx, user.ID, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	// Deleting the album keeps the photo but clears its album reference.
	kept, err := store.Photos().GetByID(ctx, user.ID, photo.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if kept.AlbumID != nil {
		t.Fatalf("expected album reference to be cleared, got %d", *kept.AlbumID)
	}

	if err := store.Albums().Delete(ctx, user.ID, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestPhotoBatchCommit(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")

	batch, err := store.Photos().BeginBatch(ctx)
	if err != nil {
		t.Fatalf("BeginBatch returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		_, err := batch.Create(ctx, storage.PhotoCreate{
			UserID:   user.ID,
			FilePath: fmt.Sprintf("photos/2026/08/foto-%d.jpg", i),
			Title:    fmt.Sprintf("photo %d", i),
		})
		if err != nil {
			t.Fatalf("batch Create returned error: %v", err)
		}
	}

	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}

	count, err := store.Photos().Count(ctx, user.ID)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 photos after commit, got %d", count)
	}
}

func TestPhotoBatchRollbackLeavesNothing(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")

	batch, err := store.Photos().BeginBatch(ctx)
	if err != nil {
		t.Fatalf("BeginBatch returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err := batch.Create(ctx, storage.PhotoCreate{
			UserID:   user.ID,
			FilePath: fmt.Sprintf("photos/2026/08/foto-rb-%d.jpg", i),
			Title:    fmt.Sprintf("photo %d", i),
		})
		if err != nil {
			t.Fatalf("batch Create returned error: %v", err)
		}
	}

	if err := batch.Rollback(); err != nil {
		t.Fatalf("Rollback returned error: %v", err)
	}

	count, err := store.Photos().Count(ctx, user.ID)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 photos after rollback, got %d", count)
	}
}

func TestPhotoBatchDuplicatePath(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")
	addPhoto(t, store, user.ID, "First")

	batch, err := store.Photos().BeginBatch(ctx)
	if err != nil {
		t.Fatalf("BeginBatch returned error: %v", err)
	}
	defer func() { _ = batch.Rollback() }()

	_, err = batch.Create(ctx, storage.PhotoCreate{
		UserID:   user.ID,
		FilePath: "photos/2026/08/foto-First.jpg",
		Title:    "Duplicate path",
	})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate file path, got %v", err)
	}
}

func TestSetArchivedAllOrNothing(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")
	a := addPhoto(t, store, user.ID, "A")
	b := addPhoto(t, store, user.ID, "B")

	err := store.Photos().SetArchived(ctx, user.ID, []int64{a.ID, b.ID, 9999}, true)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	// Nothing was mutated.
	for _, id := range []int64{a.ID, b.ID} {
		photo, err := store.Photos().GetByID(ctx, user.ID, id)
		if err != nil {
			t.Fatalf("GetByID returned error: %v", err)
		}
		if photo.IsArchived {
			t.Fatalf("expected photo %d to stay unarchived", id)
		}
	}

	if err := store.Photos().SetArchived(ctx, user.ID, []int64{a.ID, b.ID}, true); err != nil {
		t.Fatalf("SetArchived returned error: %v", err)
	}

	archived, err := store.Photos().List(ctx, user.ID, storage.PhotoFilter{Archived: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(archived) != 2 {
		t.Fatalf("expected 2 archived photos, got %d", len(archived))
	}
}

func TestSetArchivedScopedToOwner(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	owner := createUser(t, store, "owner@example.com")
	intruder := createUser(t, store, "intruder@example.com")
	photo := addPhoto(t, store, owner.ID, "Private")

	err := store.Photos().SetArchived(ctx, intruder.ID, []int64{photo.ID}, true)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign photo, got %v", err)
	}
}

func TestToggleFavorite(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")
	photo := addPhoto(t, store, user.ID, "Sunset")

	toggled, err := store.Photos().ToggleFavorite(ctx, user.ID, photo.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite returned error: %v", err)
	}
	if !toggled.IsFavorite {
		t.Fatalf("expected favorite after first toggle")
	}

	toggled, err = store.Photos().ToggleFavorite(ctx, user.ID, photo.ID)
	if err != nil {
		t.Fatalf("ToggleFavorite returned error: %v", err)
	}
	if toggled.IsFavorite {
		t.Fatalf("expected not favorite after second toggle")
	}

	if _, err := store.Photos().ToggleFavorite(ctx, user.ID, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSetTitle(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")
	photo := addPhoto(t, store, user.ID, "Old title")

	updated, err := store.Photos().SetTitle(ctx, user.ID, photo.ID, "New title")
	if err != nil {
		t.Fatalf("SetTitle returned error: %v", err)
	}
	if updated.Title != "New title" {
		t.Fatalf("expected new title, got %q", updated.Title)
	}
}

func TestDeletePhotos(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")
	a := addPhoto(t, store, user.ID, "A")
	b := addPhoto(t, store, user.ID, "B")

	if err := store.Photos().Delete(ctx, user.ID, []int64{a.ID, b.ID}); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	count, err := store.Photos().Count(ctx, user.ID)
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 photos after delete, got %d", count)
	}

	if err := store.Photos().Delete(ctx, user.ID, []int64{a.ID}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted photo, got %v", err)
	}
}

func TestListFilters(t *testing.T) {
	store := newStore(t)
	defer closeStore(t, store)
	ctx := context.Background()

	user := createUser(t, store, "owner@example.com")
	sunset := addPhoto(t, store, user.ID, "Sunset at the beach")
	forest := addPhoto(t, store, user.ID, "Forest walk")
	hidden := addPhoto(t, store, user.ID, "Hidden")

	if err := store.Photos().SetArchived(ctx, user.ID, []int64{hidden.ID}, true); err != nil {
		t.Fatalf("SetArchived returned error: %v", err)
	}
	if _, err := store.Photos().ToggleFavorite(ctx, user.ID, sunset.ID); err != nil {
		t.Fatalf("ToggleFavorite returned error: %v", err)
	}

	visible, err := store.Photos().List(ctx, user.ID, storage.PhotoFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible photos, got %d", len(visible))
	}

	favorites, err := store.Photos().List(ctx, user.ID, storage.PhotoFilter{FavoriteOnly: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(favorites) != 1 || favorites[0].ID != sunset.ID {
		t.Fatalf("expected only the sunset photo, got %v", favorites)
	}

	matched, err := store.Photos().List(ctx, user.ID, storage.PhotoFilter{Search: "forest"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(matched) != 1 || matched[0].ID != forest.ID {
		t.Fatalf("expected only the forest photo, got %v", matched)
	}

	ascending, err := store.Photos().List(ctx, user.ID, storage.PhotoFilter{SortAsc: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(ascending) != 2 || ascending[0].ID != sunset.ID {
		t.Fatalf("expected oldest photo first, got %v", ascending)
	}
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "galeri.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	return store
}

func closeStore(t *testing.T, store *sqlite.Store) {
	t.Helper()
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func createUser(t *testing.T, store *sqlite.Store, email string) storage.User {
	t.Helper()
	user, err := store.Users().Create(context.Background(), storage.UserCreate{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func addPhoto(t *testing.T, store *sqlite.Store, userID int64, title string) storage.Photo {
	t.Helper()
	ctx := context.Background()

	batch, err := store.Photos().BeginBatch(ctx)
	if err != nil {
		t.Fatalf("begin batch: %v", err)
	}

	photo, err := batch.Create(ctx, storage.PhotoCreate{
		UserID:   userID,
		FilePath: fmt.Sprintf("photos/2026/08/foto-%s.jpg", title),
		Title:    title,
	})
	if err != nil {
		_ = batch.Rollback()
		t.Fatalf("create photo: %v", err)
	}

	if err := batch.Commit(); err != nil {
		t.Fatalf("commit batch: %v", err)
	}

	return photo
}
