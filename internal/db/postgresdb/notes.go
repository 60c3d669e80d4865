package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/models"
)

const noteColumns = `id, text, creator_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var n models.Note
	err := row.Scan(&n.ID, &n.Text, &n.CreatorID, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &n, nil
}

func (db *PostgresDB) CreateNote(ctx context.Context, creatorID int64, text string) (*models.Note, error) {
	n, err := scanNote(db.database.QueryRowContext(
		ctx,
		`INSERT INTO notes (text, creator_id) VALUES ($1, $2) RETURNING `+noteColumns,
		text,
		creatorID,
	))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/notes.go/CreateNote(): error while `scanNote()` calling: %w", err)
	}

	return n, nil
}

func (db *PostgresDB) GetNote(ctx context.Context, id, creatorID int64) (*models.Note, error) {
	n, err := scanNote(db.database.QueryRowContext(
		ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND creator_id = $2`,
		id,
		creatorID,
	))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/notes.go/GetNote(): error while `scanNote()` calling: %w", err)
	}

	return n, nil
}

func (db *PostgresDB) UpdateNote(ctx context.Context, id, creatorID int64, text string) (*models.Note, error) {
	n, err := scanNote(db.database.QueryRowContext(
		ctx,
		`
			UPDATE notes
				SET text = $3, updated_at = clock_timestamp()
				WHERE id = $1 AND creator_id = $2
				RETURNING `+noteColumns,
		id,
		creatorID,
		text,
	))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/notes.go/UpdateNote(): error while `scanNote()` calling: %w", err)
	}

	return n, nil
}

func (db *PostgresDB) DeleteNote(ctx context.Context, id, creatorID int64) (bool, error) {
	return deleteOwned(ctx, db.database, "notes", id, creatorID)
}

func (db *PostgresDB) ListNotes(ctx context.Context, creatorID int64, before time.Time, limit int) ([]models.Note, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT `+noteColumns+`
				FROM notes
				WHERE creator_id = $1
					AND ($2::timestamptz IS NULL OR created_at < $2)
				ORDER BY created_at DESC, id DESC
				LIMIT $3
		`,
		creatorID,
		nullTime(before),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/notes.go/ListNotes(): error while `db.database.QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := make([]models.Note, 0, limit)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// deleteOwned is only called with constant table names.
func deleteOwned(ctx context.Context, database executor, table string, id, creatorID int64) (bool, error) {
	res, err := database.ExecContext(
		ctx,
		`DELETE FROM `+table+` WHERE id = $1 AND creator_id = $2`,
		id,
		creatorID,
	)
	if err != nil {
		return false, fmt.Errorf("in internal/db/postgresdb/notes.go/deleteOwned(): error while `database.ExecContext()` calling: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
