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
	qVideoInsertMSSQL = `INSERT INTO dbo.[videos] (` + videoColumns + `) VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7,@p8,@p9,@p10,@p11,@p12)`
	qVideoByIDMSSQL   = `SELECT ` + videoColumns + ` FROM dbo.[videos] WHERE id=@p1`
	qVideoByUserMSSQL = `SELECT ` + videoColumns + ` FROM dbo.[videos] WHERE user_id=@p1 ORDER BY created_at DESC`
	qVideoMetaMSSQL   = `UPDATE dbo.[videos] SET title=@p2, description=@p3, tags=@p4, privacy_status=@p5, updated_at=@p6 WHERE id=@p1`
	qVideoProgMSSQL   = `UPDATE dbo.[videos] SET status=@p2, upload_results=@p3, errors=@p4, updated_at=@p5 WHERE id=@p1`
	qVideoStatMSSQL   = `UPDATE dbo.[videos] SET status=@p2, updated_at=@p3 WHERE id=@p1`
	qVideoDeleteMSSQL = `DELETE FROM dbo.[videos] WHERE id=@p1`
)

// VideoRepositoryMSSQL stores JSON columns as NVARCHAR(MAX) text.
type VideoRepositoryMSSQL struct{ db *sql.DB }

func NewVideoRepositoryMSSQL(db *sql.DB) repository.IVideo { return &VideoRepositoryMSSQL{db: db} }

func (r *VideoRepositoryMSSQL) Create(ctx context.Context, v *model.Video) error {
	j, err := marshalVideoJSON(v)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, qVideoInsertMSSQL, v.ID, v.UserID, v.Title, v.Description, string(j.tags), string(j.platforms),
		v.PrivacyStatus, string(v.Status), string(j.results), string(j.errors), v.CreatedAt, nullableTime(v.UpdatedAt))
	return err
}

func (r *VideoRepositoryMSSQL) GetByID(ctx context.Context, id string) (*model.Video, error) {
	v, err := scanVideo(r.db.QueryRowContext(ctx, qVideoByIDMSSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return v, err
}

func (r *VideoRepositoryMSSQL) ListByUser(ctx context.Context, userID string) ([]*model.Video, error) {
	rows, err := r.db.QueryContext(ctx, qVideoByUserMSSQL, userID)
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

func (r *VideoRepositoryMSSQL) UpdateMetadata(ctx context.Context, v *model.Video) error {
	j, err := marshalVideoJSON(v)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, qVideoMetaMSSQL, v.ID, v.Title, v.Description, string(j.tags), v.PrivacyStatus, nullableTime(v.UpdatedAt))
	return affected(res, err)
}

func (r *VideoRepositoryMSSQL) UpdateProgress(ctx context.Context, v *model.Video) error {
	j, err := marshalVideoJSON(v)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, qVideoProgMSSQL, v.ID, string(v.Status), string(j.results), string(j.errors), nullableTime(v.UpdatedAt))
	return affected(res, err)
}

func (r *VideoRepositoryMSSQL) UpdateStatus(ctx context.Context, id string, status model.VideoStatus, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, qVideoStatMSSQL, id, string(status), updatedAt)
	return affected(res, err)
}

func (r *VideoRepositoryMSSQL) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, qVideoDeleteMSSQL, id)
	return affected(res, err)
}
