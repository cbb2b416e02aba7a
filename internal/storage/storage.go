package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates that the requested entity does not exist in the
// underlying storage (or does not belong to the requesting user).
var ErrNotFound = errors.New("storage: not found")

// ErrConflict indicates that a uniqueness constraint was violated.
var ErrConflict = errors.New("storage: conflict")

// Store exposes the persistence primitives required by the application. It is
// expected to be safe for concurrent use.
type Store interface {
	Users() Users
	Albums() Albums
	Photos() Photos
	Ping(ctx context.Context) error
	Close() error
}

// User is an account that owns photos and albums.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserCreate captures the data required to register a new user.
type UserCreate struct {
	Name         string
	Email        string
	PasswordHash string
}

// Users defines the operations supported for managing accounts.
type Users interface {
	Create(ctx context.Context, input UserCreate) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// Album is a named collection of photos belonging to one user.
type Album struct {
	ID         int64
	UserID     int64
	Name       string
	PhotoCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AlbumCreate contains the data required to create a new album.
type AlbumCreate struct {
	UserID int64
	Name   string
}

// Albums defines the operations supported for managing albums. Every lookup
// is scoped to the owning user.
type Albums interface {
	Create(ctx context.Context, input AlbumCreate) (Album, error)
	GetByID(ctx context.Context, userID, id int64) (Album, error)
	List(ctx context.Context, userID int64) ([]Album, error)
	Rename(ctx context.Context, userID, id int64, name string) (Album, error)
	Delete(ctx context.Context, userID, id int64) error
}

// Photo is a single stored image. FilePath is the opaque key of the encoded
// blob in the blob store; a non-deleted row must always reference an existing
// blob.
type Photo struct {
	ID         int64
	UserID     int64
	FilePath   string
	Title      string
	IsArchived bool
	IsFavorite bool
	AlbumID    *int64
	TakenAt    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PhotoCreate contains the data required to insert a new photo.
type PhotoCreate struct {
	UserID   int64
	FilePath string
	Title    string
	TakenAt  *time.Time
}

// PhotoFilter narrows List results.
type PhotoFilter struct {
	Search       string
	SortAsc      bool
	Archived     bool
	FavoriteOnly bool
	AlbumID      *int64
}

// Photos defines the operations supported for managing photos. Mutations that
// accept a list of ids apply all-or-nothing: if any id does not resolve to a
// photo owned by userID the whole call fails with ErrNotFound and nothing is
// changed.
type Photos interface {
	// BeginBatch opens a transaction for inserting a batch of photos. The
	// caller must Commit or Rollback the returned batch.
	BeginBatch(ctx context.Context) (PhotoBatch, error)
	GetByID(ctx context.Context, userID, id int64) (Photo, error)
	List(ctx context.Context, userID int64, filter PhotoFilter) ([]Photo, error)
	Count(ctx context.Context, userID int64) (int64, error)
	SetArchived(ctx context.Context, userID int64, ids []int64, archived bool) error
	SetTitle(ctx context.Context, userID, id int64, title string) (Photo, error)
	ToggleFavorite(ctx context.Context, userID, id int64) (Photo, error)
	MoveToAlbum(ctx context.Context, userID int64, ids []int64, albumID *int64) error
	Delete(ctx context.Context, userID int64, ids []int64) error
}

// PhotoBatch collects photo inserts inside a single open transaction so a
// multi-item upload becomes visible to readers all at once or not at all.
type PhotoBatch interface {
	Create(ctx context.Context, input PhotoCreate) (Photo, error)
	Commit() error
	Rollback() error
}
