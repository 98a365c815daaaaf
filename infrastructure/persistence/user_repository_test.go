package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"socialhub/domain/model"
)

var userRowColumns = []string{"id", "email", "password_hash", "reset_token", "reset_expires_at", "created_at", "updated_at"}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)

	loc, _ := time.LoadLocation("Asia/Jakarta")
	createdAtTime, _ := time.Parse(
		"2006-01-02 15:04:05.999999999+07 MST",
		"2025-09-04 01:02:10.911651+07 WIB",
	)
	var (
		ID        = "user_0a1b2c3d4e5f"
		Email     = "lambok@example.com"
		Hash      = "$2a$10$abcdefghijklmnopqrstuv"
		CreatedAt = createdAtTime.In(loc)
		UpdatedAt = createdAtTime.Add(time.Hour).In(loc)
	)

	mock.ExpectPrepare(regexp.QuoteMeta(qUserByID)).
		ExpectQuery().WithArgs(ID).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(ID, Email, Hash, nil, nil, CreatedAt, UpdatedAt))

	res, err := repository.GetByID(context.Background(), ID)
	expected := model.User{
		ID:           ID,
		Email:        Email,
		PasswordHash: Hash,
		CreatedAt:    CreatedAt,
		UpdatedAt:    &UpdatedAt,
	}

	require.NoError(t, err)
	require.Equal(t, expected, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)

	mock.ExpectPrepare(regexp.QuoteMeta(qUserByEmail)).
		ExpectQuery().WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err = repository.GetByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByResetToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)
	expires := time.Date(2025, 9, 4, 2, 0, 0, 0, time.UTC)

	mock.ExpectPrepare(regexp.QuoteMeta(qUserByResetToken)).
		ExpectQuery().WithArgs("tok").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("user_1", "a@b.co", "h", "tok", expires, expires.Add(-time.Hour), nil))

	res, err := repository.GetByResetToken(context.Background(), "tok")
	require.NoError(t, err)
	require.NotNil(t, res.ResetToken)
	require.Equal(t, "tok", *res.ResetToken)
	require.Equal(t, expires, *res.ResetExpiresAt)
	require.Nil(t, res.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_PrepareError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)
	mock.ExpectPrepare(regexp.QuoteMeta(qUserByID)).WillReturnError(fmt.Errorf("connection refused"))

	_, err = repository.GetByID(context.Background(), "user_1")
	require.EqualError(t, err, "connection refused")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)
	user := model.User{ID: "user_1", Email: "a@b.co", PasswordHash: "hash"}

	mock.ExpectPrepare(regexp.QuoteMeta(qUserInsert)).
		ExpectExec().WithArgs(user.ID, user.Email, user.PasswordHash, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repository.CreateUser(context.Background(), user))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetResetTokenAndPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepository(db)
	token := "reset-token"
	expires := time.Now().Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(qUserReset)).
		WithArgs("user_1", token, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qUserPassword)).
		WithArgs("user_1", "new-hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(qUserPassword)).
		WithArgs("ghost", "new-hash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repository.SetResetToken(context.Background(), "user_1", &token, &expires))
	require.NoError(t, repository.UpdatePassword(context.Background(), "user_1", "new-hash"))
	require.ErrorIs(t, repository.UpdatePassword(context.Background(), "ghost", "new-hash"), model.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryMSSQL_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repository := NewUserRepositoryMSSQL(db)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM dbo.[users] WHERE email = @p1`)).
		WithArgs("a@b.co").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("user_1", "a@b.co", "h", nil, nil, created, nil))

	res, err := repository.GetByEmail(context.Background(), "a@b.co")
	require.NoError(t, err)
	require.Equal(t, "user_1", res.ID)
	require.Equal(t, created, res.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
