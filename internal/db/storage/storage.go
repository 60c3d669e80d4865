// Package storage declares what the service needs from a persistence backend.
package storage

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

// Lookups return models.ErrNotFound for missing rows. Rows owned by another
// creator are reported as missing too.
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) (*user.User, error)
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) (*user.User, error)

	CreateNote(ctx context.Context, creatorID int64, text string) (*models.Note, error)
	GetNote(ctx context.Context, id, creatorID int64) (*models.Note, error)
	UpdateNote(ctx context.Context, id, creatorID int64, text string) (*models.Note, error)
	DeleteNote(ctx context.Context, id, creatorID int64) (bool, error)

	// ListNotes returns up to limit notes of creatorID created strictly before
	// before (any time when zero), newest first.
	ListNotes(ctx context.Context, creatorID int64, before time.Time, limit int) ([]models.Note, error)

	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	ListCategories(ctx context.Context, creatorID int64) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id, creatorID int64) (bool, error)

	// CreateLog fails with models.ErrNotFound when the category does not
	// belong to the log's creator.
	CreateLog(ctx context.Context, log *models.Log) (*models.Log, error)

	// ListLogs works like ListNotes. A zero categoryID lists every category.
	ListLogs(ctx context.Context, creatorID, categoryID int64, before time.Time, limit int) ([]models.Log, error)

	Ping(ctx context.Context) error
	Close() error
}
