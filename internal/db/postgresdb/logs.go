package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/models"
)

const logColumns = `id, body, date_start, date_end, category_id, creator_id, created_at, updated_at`

func scanLog(row rowScanner) (*models.Log, error) {
	var l models.Log
	err := row.Scan(&l.ID, &l.Body, &l.DateStart, &l.DateEnd, &l.CategoryID, &l.CreatorID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// CreateLog checks category ownership and inserts in one transaction, so the
// category cannot be deleted in between.
func (db *PostgresDB) CreateLog(ctx context.Context, log *models.Log) (created *models.Log, err error) {
	transaction, err := db.database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/logs.go/CreateLog(): error while `db.database.BeginTx()` calling: %w", err)
	}
	defer func() {
		if err != nil {
			_ = transaction.Rollback()
		}
	}()

	var database queryer = transaction

	var exists int
	err = database.QueryRowContext(
		ctx,
		`SELECT 1 FROM categories WHERE id = $1 AND creator_id = $2 FOR SHARE`,
		log.CategoryID,
		log.CreatorID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/logs.go/CreateLog(): error while checking the category: %w", err)
	}

	created, err = scanLog(database.QueryRowContext(
		ctx,
		`
			INSERT INTO logs (body, date_start, date_end, category_id, creator_id)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING `+logColumns,
		log.Body,
		log.DateStart,
		log.DateEnd,
		log.CategoryID,
		log.CreatorID,
	))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/logs.go/CreateLog(): error while `scanLog()` calling: %w", err)
	}

	if err = transaction.Commit(); err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/logs.go/CreateLog(): error while `transaction.Commit()` calling: %w", err)
	}

	return created, nil
}

func (db *PostgresDB) ListLogs(
	ctx context.Context,
	creatorID,
	categoryID int64,
	before time.Time,
	limit int,
) ([]models.Log, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT `+logColumns+`
				FROM logs
				WHERE creator_id = $1
					AND ($2::bigint = 0 OR category_id = $2)
					AND ($3::timestamptz IS NULL OR created_at < $3)
				ORDER BY created_at DESC, id DESC
				LIMIT $4
		`,
		creatorID,
		categoryID,
		nullTime(before),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/logs.go/ListLogs(): error while `db.database.QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := make([]models.Log, 0, limit)
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
