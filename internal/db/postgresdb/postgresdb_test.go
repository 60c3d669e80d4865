package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

func newDBWithMock(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	return &PostgresDB{database: database, connectionTimeout: time.Second}, mock
}

var userRowColumns = []string{"id", "username", "email", "password_hash", "profile_picture_url", "created_at", "updated_at"}

func TestNewRunsMigrations(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	called := false
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		assert.Equal(t, ".", dir)
		return nil
	}
	defer func() { gooseUpContext = orig }()

	_, err = newWithDB(context.Background(), database, time.Second)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestNewMigrationError(t *testing.T) {
	database, _, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	_, err = newWithDB(context.Background(), database, time.Second)
	assert.ErrorContains(t, err, "boom")
}

func TestCreateUser(t *testing.T) {
	db, mock := newDBWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users\s*\(username, email, password_hash, profile_picture_url\).*RETURNING`).
		WithArgs("bob", "bob@example.com", "hash", "").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(1, "bob", "bob@example.com", "hash", "", now, now))

	u, err := db.CreateUser(context.Background(), &user.User{Username: "bob", Email: "bob@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: "users_username_key", want: models.ErrUsernameTaken},
		{constraint: "users_email_key", want: models.ErrEmailTaken},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			db, mock := newDBWithMock(t)
			mock.ExpectQuery(`INSERT\s+INTO\s+users`).
				WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: tt.constraint})

			_, err := db.CreateUser(context.Background(), &user.User{Username: "bob", Email: "bob@example.com"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	db, mock := newDBWithMock(t)
	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := db.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdatePasswordHash(t *testing.T) {
	db, mock := newDBWithMock(t)
	now := time.Now()
	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+password_hash = \$2.*WHERE id = \$1`).
		WithArgs(int64(3), "newhash").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(3, "bob", "bob@example.com", "newhash", "", now, now))

	u, err := db.UpdatePasswordHash(context.Background(), 3, "newhash")
	require.NoError(t, err)
	assert.Equal(t, "newhash", u.PasswordHash)
}

func TestListNotes(t *testing.T) {
	db, mock := newDBWithMock(t)
	t1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	t0 := t1.Add(-time.Hour)

	mock.ExpectQuery(`(?s)SELECT .*\s+FROM notes\s+WHERE creator_id = \$1.*created_at < \$2.*ORDER BY created_at DESC, id DESC\s+LIMIT \$3`).
		WithArgs(int64(5), nil, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "creator_id", "created_at", "updated_at"}).
			AddRow(2, "second", 5, t1, t1).
			AddRow(1, "first", 5, t0, t0))

	notes, err := db.ListNotes(context.Background(), 5, time.Time{}, 3)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteNoteNotOwned(t *testing.T) {
	db, mock := newDBWithMock(t)
	mock.ExpectExec(`DELETE FROM notes WHERE id = \$1 AND creator_id = \$2`).
		WithArgs(int64(1), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := db.DeleteNote(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateCategory(t *testing.T) {
	db, mock := newDBWithMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT\s+INTO\s+categories`).
		WithArgs("#ff0000", "mood", sqlmock.AnyArg(), "select", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "colour", "tag", "possible_values", "type", "creator_id", "created_at", "updated_at"}).
			AddRow(4, "#ff0000", "mood", "{good,bad}", "select", 1, now, now))

	c, err := db.CreateCategory(context.Background(), &models.Category{
		Colour:         "#ff0000",
		Tag:            "mood",
		PossibleValues: []string{"good", "bad"},
		Type:           "select",
		CreatorID:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"good", "bad"}, c.PossibleValues)
}

func TestCreateCategoryDuplicateTag(t *testing.T) {
	db, mock := newDBWithMock(t)
	mock.ExpectQuery(`INSERT\s+INTO\s+categories`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: "categories_creator_tag_key"})

	_, err := db.CreateCategory(context.Background(), &models.Category{Tag: "mood", CreatorID: 1})
	assert.ErrorIs(t, err, models.ErrTagTaken)
}

func TestCreateLogForeignCategory(t *testing.T) {
	db, mock := newDBWithMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM categories WHERE id = \$1 AND creator_id = \$2 FOR SHARE`).
		WithArgs(int64(7), int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := db.CreateLog(context.Background(), &models.Log{CategoryID: 7, CreatorID: 1})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLog(t *testing.T) {
	db, mock := newDBWithMock(t)
	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT 1 FROM categories`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`INSERT\s+INTO\s+logs`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "body", "date_start", "date_end", "category_id", "creator_id", "created_at", "updated_at"}).
			AddRow(1, "ran 5k", now, now, 7, 1, now, now))
	mock.ExpectCommit()

	l, err := db.CreateLog(context.Background(), &models.Log{Body: "ran 5k", DateStart: now, DateEnd: now, CategoryID: 7, CreatorID: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 7, l.CategoryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
