package postgresdb

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/patric-chuzhbe/tracky/internal/models"
)

const categoryColumns = `id, colour, tag, possible_values, type, creator_id, created_at, updated_at`

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	err := row.Scan(
		&c.ID,
		&c.Colour,
		&c.Tag,
		pq.Array(&c.PossibleValues),
		&c.Type,
		&c.CreatorID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.PossibleValues == nil {
		c.PossibleValues = []string{}
	}

	return &c, nil
}

func (db *PostgresDB) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	c, err := scanCategory(db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO categories (colour, tag, possible_values, type, creator_id)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING `+categoryColumns,
		category.Colour,
		category.Tag,
		pq.Array(category.PossibleValues),
		category.Type,
		category.CreatorID,
	))
	if err != nil {
		return nil, fmt.Errorf(
			"in internal/db/postgresdb/categories.go/CreateCategory(): error while `scanCategory()` calling: %w",
			uniqueViolationError(err),
		)
	}

	return c, nil
}

func (db *PostgresDB) ListCategories(ctx context.Context, creatorID int64) ([]models.Category, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE creator_id = $1 ORDER BY tag`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/categories.go/ListCategories(): error while `db.database.QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteCategory removes the category and, through ON DELETE CASCADE, its logs.
func (db *PostgresDB) DeleteCategory(ctx context.Context, id, creatorID int64) (bool, error) {
	return deleteOwned(ctx, db.database, "categories", id, creatorID)
}
