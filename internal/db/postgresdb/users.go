package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

const userColumns = `id, username, email, password_hash, profile_picture_url, created_at, updated_at`

func scanUser(row *sql.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ProfilePictureURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO users (username, email, password_hash, profile_picture_url)
				VALUES ($1, $2, $3, $4)
				RETURNING `+userColumns,
		usr.Username,
		usr.Email,
		usr.PasswordHash,
		usr.ProfilePictureURL,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf(
			"in internal/db/postgresdb/users.go/CreateUser(): error while `scanUser()` calling: %w",
			uniqueViolationError(err),
		)
	}

	return created, nil
}

func (db *PostgresDB) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	return db.getUserBy(ctx, "id", id)
}

func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return db.getUserBy(ctx, "email", email)
}

func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	return db.getUserBy(ctx, "username", username)
}

// getUserBy is only called with constant column names.
func (db *PostgresDB) getUserBy(ctx context.Context, column string, value any) (*user.User, error) {
	u, err := scanUser(db.database.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = $1`,
		value,
	))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/users.go/getUserBy(): error while `scanUser()` calling: %w", err)
	}

	return u, nil
}

func (db *PostgresDB) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) (*user.User, error) {
	u, err := scanUser(db.database.QueryRowContext(
		ctx,
		`
			UPDATE users
				SET password_hash = $2, updated_at = clock_timestamp()
				WHERE id = $1
				RETURNING `+userColumns,
		id,
		passwordHash,
	))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/users.go/UpdatePasswordHash(): error while `scanUser()` calling: %w", err)
	}

	return u, nil
}
