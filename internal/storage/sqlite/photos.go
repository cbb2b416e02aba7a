package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aryapradana/galeri/internal/storage"
)

type photoRepository struct {
	db *sql.DB
}

const photoColumns = `
	id, user_id, file_path, title, is_archived, is_favorite,
	album_id, taken_at, created_at, updated_at`

func (r *photoRepository) BeginBatch(ctx context.Context) (storage.PhotoBatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin batch: %w", err)
	}
	return &photoBatch{tx: tx}, nil
}

func (r *photoRepository) GetByID(ctx context.Context, userID, id int64) (storage.Photo, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+photoColumns+`
		FROM photos
		WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanPhoto(row)
}

func (r *photoRepository) List(ctx context.Context, userID int64, filter storage.PhotoFilter) ([]storage.Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE user_id = ? AND is_archived = ?`
	args := []any{userID, filter.Archived}

	if filter.FavoriteOnly {
		query += " AND is_favorite = 1"
	}
	if filter.AlbumID != nil {
		query += " AND album_id = ?"
		args = append(args, *filter.AlbumID)
	}
	if filter.Search != "" {
		query += " AND title LIKE ?"
		args = append(args, "%"+filter.Search+"%")
	}

	direction := "DESC"
	if filter.SortAsc {
		direction = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s", direction, direction)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list photos: %w", err)
	}
	defer rows.Close()

	var result []storage.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list photos: %w", err)
	}

	return result, nil
}

func (r *photoRepository) Count(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count photos: %w", err)
	}
	return count, nil
}

func (r *photoRepository) SetArchived(ctx context.Context, userID int64, ids []int64, archived bool) error {
	return r.mutateAll(ctx, userID, ids, func(tx *sql.Tx, in string, args []any) error {
		query := fmt.Sprintf(`
			UPDATE photos
			SET is_archived = ?, updated_at = ?
			WHERE user_id = ? AND id IN (%s)`, in)
		_, err := tx.ExecContext(ctx, query, append([]any{archived, time.Now().UTC(), userID}, args...)...)
		return err
	})
}

func (r *photoRepository) SetTitle(ctx context.Context, userID, id int64, title string) (storage.Photo, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE photos
		SET title = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		title,
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return storage.Photo{}, fmt.Errorf("sqlite: set title: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return storage.Photo{}, fmt.Errorf("sqlite: set title: %w", err)
	}

	if rowsAffected == 0 {
		return storage.Photo{}, storage.ErrNotFound
	}

	return r.GetByID(ctx, userID, id)
}

func (r *photoRepository) ToggleFavorite(ctx context.Context, userID, id int64) (storage.Photo, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE photos
		SET is_favorite = 1 - is_favorite, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		time.Now().UTC(),
		id,
		userID,
	)
	if err != nil {
		return storage.Photo{}, fmt.Errorf("sqlite: toggle favorite: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return storage.Photo{}, fmt.Errorf("sqlite: toggle favorite: %w", err)
	}

	if rowsAffected == 0 {
		return storage.Photo{}, storage.ErrNotFound
	}

	return r.GetByID(ctx, userID, id)
}

func (r *photoRepository) MoveToAlbum(ctx context.Context, userID int64, ids []int64, albumID *int64) error {
	var album sql.NullInt64
	if albumID != nil {
		album = sql.NullInt64{Int64: *albumID, Valid: true}
	}

	return r.mutateAll(ctx, userID, ids, func(tx *sql.Tx, in string, args []any) error {
		query := fmt.Sprintf(`
			UPDATE photos
			SET album_id = ?, updated_at = ?
			WHERE user_id = ? AND id IN (%s)`, in)
		_, err := tx.ExecContext(ctx, query, append([]any{album, time.Now().UTC(), userID}, args...)...)
		return err
	})
}

func (r *photoRepository) Delete(ctx context.Context, userID int64, ids []int64) error {
	return r.mutateAll(ctx, userID, ids, func(tx *sql.Tx, in string, args []any) error {
		query := fmt.Sprintf(`DELETE FROM photos WHERE user_id = ? AND id IN (%s)`, in)
		_, err := tx.ExecContext(ctx, query, append([]any{userID}, args...)...)
		return err
	})
}

// mutateAll runs fn inside a transaction after verifying that every id in ids
// resolves to a photo owned by userID. A single unknown id fails the whole
// call with ErrNotFound and leaves nothing mutated.
func (r *photoRepository) mutateAll(ctx context.Context, userID int64, ids []int64, fn func(tx *sql.Tx, in string, args []any) error) error {
	if len(ids) == 0 {
		return storage.ErrNotFound
	}

	in, args := inClause(ids)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM photos WHERE user_id = ? AND id IN (%s)`, in)
	if err := tx.QueryRowContext(ctx, query, append([]any{userID}, args...)...).Scan(&count); err != nil {
		return fmt.Errorf("sqlite: verify photo ids: %w", err)
	}
	if count != int64(len(uniqueIDs(ids))) {
		return storage.ErrNotFound
	}

	if err := fn(tx, in, args); err != nil {
		return fmt.Errorf("sqlite: mutate photos: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}

	return nil
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// photoBatch implements storage.PhotoBatch on top of an open transaction.
type photoBatch struct {
	tx *sql.Tx
}

func (b *photoBatch) Create(ctx context.Context, input storage.PhotoCreate) (storage.Photo, error) {
	now := time.Now().UTC()

	var takenAt sql.NullTime
	if input.TakenAt != nil {
		takenAt = sql.NullTime{Time: input.TakenAt.UTC(), Valid: true}
	}

	res, err := b.tx.ExecContext(ctx, `
		INSERT INTO photos (user_id, file_path, title, is_archived, is_favorite, album_id, taken_at, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, NULL, ?, ?, ?)`,
		input.UserID,
		input.FilePath,
		input.Title,
		takenAt,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.Photo{}, storage.ErrConflict
		}
		return storage.Photo{}, fmt.Errorf("sqlite: create photo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storage.Photo{}, fmt.Errorf("sqlite: create photo: %w", err)
	}

	row := b.tx.QueryRowContext(ctx, `
		SELECT `+photoColumns+`
		FROM photos
		WHERE id = ?`,
		id,
	)
	return scanPhoto(row)
}

func (b *photoBatch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit batch: %w", err)
	}
	return nil
}

func (b *photoBatch) Rollback() error {
	if err := b.tx.Rollback(); err != nil {
		return fmt.Errorf("sqlite: rollback batch: %w", err)
	}
	return nil
}

type photoScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(s photoScanner) (storage.Photo, error) {
	var (
		photo        storage.Photo
		albumID      sql.NullInt64
		takenAtRaw   sql.NullTime
		createdAtRaw time.Time
		updatedAtRaw time.Time
	)

	err := s.Scan(
		&photo.ID,
		&photo.UserID,
		&photo.FilePath,
		&photo.Title,
		&photo.IsArchived,
		&photo.IsFavorite,
		&albumID,
		&takenAtRaw,
		&createdAtRaw,
		&updatedAtRaw,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return storage.Photo{}, storage.ErrNotFound
		}
		return storage.Photo{}, fmt.Errorf("sqlite: scan photo: %w", err)
	}

	if albumID.Valid {
		v := albumID.Int64
		photo.AlbumID = &v
	}
	if takenAtRaw.Valid {
		t := takenAtRaw.Time.UTC()
		photo.TakenAt = &t
	}

	photo.CreatedAt = createdAtRaw.UTC()
	photo.UpdatedAt = updatedAtRaw.UTC()

	return photo, nil
}
