package persistence

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"socialhub/domain/model"
)

var videoRowColumns = []string{"id", "user_id", "title", "description", "tags", "platforms", "privacy_status",
	"status", "upload_results", "errors", "created_at", "updated_at"}

func sampleVideo() *model.Video {
	return &model.Video{
		ID:            "0190f7d2-0000-7000-8000-000000000001",
		UserID:        "user_1",
		Title:         "Sunset",
		Description:   "Timelapse",
		Tags:          []string{"sun", "sky"},
		Platforms:     []string{"youtube", "tiktok"},
		PrivacyStatus: "private",
		Status:        model.VideoStatusPending,
		CreatedAt:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestVideoRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepository(db)
	v := sampleVideo()

	mock.ExpectExec(regexp.QuoteMeta(qVideoInsert)).
		WithArgs(v.ID, v.UserID, v.Title, v.Description, []byte(`["sun","sky"]`), []byte(`["youtube","tiktok"]`),
			"private", "pending", []byte(`{}`), []byte(`{}`), v.CreatedAt, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), v))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepository(db)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(qVideoByID)).WithArgs("vid").
		WillReturnRows(sqlmock.NewRows(videoRowColumns).AddRow(
			"vid", "user_1", "Sunset", "", []byte(`["a"]`), []byte(`["youtube","tiktok"]`), "public", "partial",
			[]byte(`{"youtube":{"id":"yt1","status":"uploaded","url":"https://www.youtube.com/watch?v=yt1"}}`),
			[]byte(`{"tiktok":"credentials missing"}`), created, updated))

	v, err := repo.GetByID(context.Background(), "vid")
	require.NoError(t, err)
	require.Equal(t, model.VideoStatusPartial, v.Status)
	require.Equal(t, []string{"a"}, v.Tags)
	require.Equal(t, "yt1", v.UploadResults["youtube"].ID)
	require.Equal(t, "credentials missing", v.Errors["tiktok"])
	require.NotNil(t, v.UpdatedAt)
	require.Equal(t, updated, *v.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta(qVideoByID)).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(videoRowColumns))

	_, err = repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepository(db)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(qVideoByUser)).WithArgs("user_1").
		WillReturnRows(sqlmock.NewRows(videoRowColumns).
			AddRow("v2", "user_1", "B", "", []byte(`[]`), []byte(`["tiktok"]`), "private", "pending", []byte(`{}`), []byte(`{}`), now, nil).
			AddRow("v1", "user_1", "A", "", []byte(`[]`), []byte(`["youtube"]`), "private", "uploaded", []byte(`{}`), []byte(`{}`), now.Add(-time.Hour), nil))

	list, err := repo.ListByUser(context.Background(), "user_1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "v2", list[0].ID)
	require.Nil(t, list[0].UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepository_UpdateProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepository(db)
	v := sampleVideo()
	v.Status = model.VideoStatusFailed
	v.RecordError("tiktok", "boom")
	v.Touch(time.Now().UTC())

	mock.ExpectExec(regexp.QuoteMeta(qVideoProg)).
		WithArgs(v.ID, "failed", []byte(`{}`), []byte(`{"tiktok":"boom"}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateProgress(context.Background(), v))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(qVideoStatus)).
		WithArgs("vid", "failed", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qVideoStatus)).
		WithArgs("gone", "failed", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), "vid", model.VideoStatusFailed, now))
	require.ErrorIs(t, repo.UpdateStatus(context.Background(), "gone", model.VideoStatusFailed, now), model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepository_UpdateMetadata_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepository(db)
	v := sampleVideo()

	mock.ExpectExec(regexp.QuoteMeta(qVideoMeta)).
		WithArgs(v.ID, v.Title, v.Description, []byte(`["sun","sky"]`), v.PrivacyStatus, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.UpdateMetadata(context.Background(), v), model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepository(db)
	mock.ExpectExec(regexp.QuoteMeta(qVideoDelete)).WithArgs("vid").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qVideoDelete)).WithArgs("vid").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(qVideoDelete)).WithArgs("err").WillReturnError(errors.New("conn reset"))

	require.NoError(t, repo.Delete(context.Background(), "vid"))
	require.ErrorIs(t, repo.Delete(context.Background(), "vid"), model.ErrNotFound)
	require.EqualError(t, repo.Delete(context.Background(), "err"), "conn reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVideoRepositoryMSSQL_CreateAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewVideoRepositoryMSSQL(db)
	v := sampleVideo()

	mock.ExpectExec(regexp.QuoteMeta(qVideoInsertMSSQL)).
		WithArgs(v.ID, v.UserID, v.Title, v.Description, `["sun","sky"]`, `["youtube","tiktok"]`,
			"private", "pending", `{}`, `{}`, v.CreatedAt, nullTimeArg{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(qVideoByIDMSSQL)).WithArgs(v.ID).
		WillReturnRows(sqlmock.NewRows(videoRowColumns).AddRow(
			v.ID, v.UserID, v.Title, v.Description, `["sun","sky"]`, `["youtube","tiktok"]`, "private", "pending",
			`{}`, `{}`, v.CreatedAt, nil))

	require.NoError(t, repo.Create(context.Background(), v))
	got, err := repo.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	require.Equal(t, v.Tags, got.Tags)
	require.Equal(t, v.Platforms, got.Platforms)
	require.NoError(t, mock.ExpectationsWereMet())
}

// nullTimeArg matches a NULL timestamp parameter.
type nullTimeArg struct{}

func (nullTimeArg) Match(v driver.Value) bool { return v == nil }
