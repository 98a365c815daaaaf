package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"socialhub/domain/model"
	"socialhub/infrastructure/secure"
)

func TestCredentialRepository_SaveLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	codec := NewCredentialCodec(nil)
	repo := NewCredentialRepository(db, codec)
	creds := model.TikTokCredentials{AccessToken: "at", RefreshToken: "rt", OpenID: "open"}
	payload, err := codec.Encode(creds)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(qCredUpsert)).
		WithArgs("user_1", "tiktok", payload, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(qCredGet)).WithArgs("user_1", "tiktok").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

	require.NoError(t, repo.Save(context.Background(), "user_1", creds))
	got, err := repo.Load(context.Background(), "user_1", "tiktok")
	require.NoError(t, err)
	require.Equal(t, creds, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_LoadMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCredentialRepository(db, NewCredentialCodec(nil))
	mock.ExpectQuery(regexp.QuoteMeta(qCredGet)).WithArgs("user_1", "instagram").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	_, err = repo.Load(context.Background(), "user_1", "instagram")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_Sealed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	codec := NewCredentialCodec(secure.NewSealer("k"))
	repo := NewCredentialRepository(db, codec)
	creds := model.InstagramCredentials{AccessToken: "plain-token", UserID: "ig1", LongLived: true}
	sealed, err := codec.Encode(creds)
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "plain-token")

	mock.ExpectQuery(regexp.QuoteMeta(qCredGet)).WithArgs("u", "instagram").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(sealed))

	got, err := repo.Load(context.Background(), "u", "instagram")
	require.NoError(t, err)
	require.Equal(t, creds, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_DeleteAndPlatforms(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewCredentialRepository(db, NewCredentialCodec(nil))
	mock.ExpectExec(regexp.QuoteMeta(qCredDelete)).WithArgs("u", "youtube").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(qCredPlatforms)).WithArgs("u").
		WillReturnRows(sqlmock.NewRows([]string{"platform"}).AddRow("instagram").AddRow("tiktok"))

	require.NoError(t, repo.Delete(context.Background(), "u", "youtube"))
	platforms, err := repo.Platforms(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, []string{"instagram", "tiktok"}, platforms)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepositoryMSSQL_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	codec := NewCredentialCodec(nil)
	repo := NewCredentialRepositoryMSSQL(db, codec)
	creds := model.YouTubeCredentials{AccessToken: "a", RefreshToken: "r", ClientID: "cid"}
	payload, err := codec.Encode(creds)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta(qCredUpsertMSSQL)).
		WithArgs("u", "youtube", payload, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(qCredGetMSSQL)).WithArgs("u", "youtube").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	require.NoError(t, repo.Save(context.Background(), "u", creds))
	_, err = repo.Load(context.Background(), "u", "youtube")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
