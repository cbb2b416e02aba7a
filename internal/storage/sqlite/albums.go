package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aryapradana/galeri/internal/storage"
)

type albumRepository struct {
	db *sql.DB
}

const albumColumns = `
	a.id, a.user_id, a.name, a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM photos p WHERE p.album_id = a.id) AS photo_count`

func (r *albumRepository) Create(ctx context.Context, input storage.AlbumCreate) (storage.Album, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO albums (user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		input.UserID,
		input.Name,
		now,
		now,
	)
	if err != nil {
		return storage.Album{}, fmt.Errorf("sqlite: create album: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.Album{}, fmt.Errorf("sqlite: create album: %w", err)
	}

	return r.GetByID(ctx, input.UserID, id)
}

func (r *albumRepository) GetByID(ctx context.Context, userID, id int64) (storage.Album, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+albumColumns+`
		FROM albums a
		WHERE a.id = ? AND a.user_id = ?`,
		id,
		userID,
	)
	return scanAlbum(row)
}

func (r *albumRepository) List(ctx context.Context, userID int64) ([]storage.Album, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+albumColumns+`
		FROM albums a
		WHERE a.user_id = ?
		ORDER BY a.created_at DESC, a.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list albums: %w", err)
	}
	defer rows.Close()

	var result []storage.Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, album)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list albums: %w", err)
	}

	return result, nil
}

func (r *albumRepository) Rename(ctx context.Context, userID, id int64, name string) (storage.Album, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE albums
		SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		name,
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return storage.Album{}, fmt.Errorf("sqlite: rename album: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return storage.Album{}, fmt.Errorf("sqlite: rename album: %w", err)
	}

	if rowsAffected == 0 {
		return storage.Album{}, storage.ErrNotFound
	}

	return r.GetByID(ctx, userID, id)
}

func (r *albumRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM albums WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: delete album: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete album: %w", err)
	}

	if rowsAffected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

type albumScanner interface {
	Scan(dest ...any) error
}

func scanAlbum(s albumScanner) (storage.Album, error) {
	var (
		album        storage.Album
		createdAtRaw time.Time
		updatedAtRaw time.Time
	)

	err := s.Scan(
		&album.ID,
		&album.UserID,
		&album.Name,
		&createdAtRaw,
		&updatedAtRaw,
		&album.PhotoCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return storage.Album{}, storage.ErrNotFound
		}
		return storage.Album{}, fmt.Errorf("sqlite: scan album: %w", err)
	}

	album.CreatedAt = createdAtRaw.UTC()
	album.UpdatedAt = updatedAtRaw.UTC()

	return album, nil
}
