package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
)

const (
	videoColumns = `id, user_id, title, description, tags, platforms, privacy_status, status, upload_results, errors, created_at, updated_at`

	qVideoInsert = `INSERT INTO videos (` + videoColumns + `) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	qVideoByID   = `SELECT ` + videoColumns + ` FROM videos WHERE id=$1`
	qVideoByUser = `SELECT ` + videoColumns + ` FROM videos WHERE user_id=$1 ORDER BY created_at DESC`
	qVideoMeta   = `UPDATE videos SET title=$2, description=$3, tags=$4, privacy_status=$5, updated_at=$6 WHERE id=$1`
	qVideoProg   = `UPDATE videos SET status=$2, upload_results=$3, errors=$4, updated_at=$5 WHERE id=$1`
	qVideoStatus = `UPDATE videos SET status=$2, updated_at=$3 WHERE id=$1`
	qVideoDelete = `DELETE FROM videos WHERE id=$1`
)

// VideoRepository stores videos in PostgreSQL with JSONB list/map columns.
type VideoRepository struct{ db *sql.DB }

func NewVideoRepository(db *sql.DB) repository.IVideo { return &VideoRepository{db: db} }

func (r *VideoRepository) Create(ctx context.Context, v *model.Video) error {
	j, err := marshalVideoJSON(v)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, qVideoInsert, v.ID, v.UserID, v.Title, v.Description, j.tags, j.platforms,
		v.PrivacyStatus, string(v.Status), j.results, j.errors, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *VideoRepository) GetByID(ctx context.Context, id string) (*model.Video, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx, qVideoByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return v, err
}

func (r *VideoRepository) ListByUser(ctx context.Context, userID string) ([]*model.Video, error) {
	rows, err := r.db.QueryContext(ctx, qVideoByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*model.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

func (r *VideoRepository) UpdateMetadata(ctx context.Context, v *model.Video) error {
	j, err := marshalVideoJSON(v)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, qVideoMeta, v.ID, v.Title, v.Description, j.tags, v.PrivacyStatus, v.UpdatedAt)
	return affected(res, err)
}

func (r *VideoRepository) UpdateProgress(ctx context.Context, v *model.Video) error {
	j, err := marshalVideoJSON(v)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, qVideoProg, v.ID, string(v.Status), j.results, j.errors, v.UpdatedAt)
	return affected(res, err)
}

func (r *VideoRepository) UpdateStatus(ctx context.Context, id string, status model.VideoStatus, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, qVideoStatus, id, string(status), updatedAt)
	return affected(res, err)
}

func (r *VideoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, qVideoDelete, id)
	return affected(res, err)
}

// affected maps a zero-row write to model.ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
