// Package mockstorage provides a testify-based mock of storage.Storage.
// Service and router tests use it to simulate database failures that the
// in-memory storage cannot produce.
package mockstorage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	args := m.Called(ctx, usr)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *StorageMock) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *StorageMock) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *StorageMock) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) (*user.User, error) {
	args := m.Called(ctx, id, passwordHash)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *StorageMock) CreateNote(ctx context.Context, creatorID int64, text string) (*models.Note, error) {
	args := m.Called(ctx, creatorID, text)
	n, _ := args.Get(0).(*models.Note)
	return n, args.Error(1)
}

func (m *StorageMock) GetNote(ctx context.Context, id, creatorID int64) (*models.Note, error) {
	args := m.Called(ctx, id, creatorID)
	n, _ := args.Get(0).(*models.Note)
	return n, args.Error(1)
}

func (m *StorageMock) UpdateNote(ctx context.Context, id, creatorID int64, text string) (*models.Note, error) {
	args := m.Called(ctx, id, creatorID, text)
	n, _ := args.Get(0).(*models.Note)
	return n, args.Error(1)
}

func (m *StorageMock) DeleteNote(ctx context.Context, id, creatorID int64) (bool, error) {
	args := m.Called(ctx, id, creatorID)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) ListNotes(ctx context.Context, creatorID int64, before time.Time, limit int) ([]models.Note, error) {
	args := m.Called(ctx, creatorID, before, limit)
	notes, _ := args.Get(0).([]models.Note)
	return notes, args.Error(1)
}

func (m *StorageMock) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	args := m.Called(ctx, category)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *StorageMock) ListCategories(ctx context.Context, creatorID int64) ([]models.Category, error) {
	args := m.Called(ctx, creatorID)
	categories, _ := args.Get(0).([]models.Category)
	return categories, args.Error(1)
}

func (m *StorageMock) DeleteCategory(ctx context.Context, id, creatorID int64) (bool, error) {
	args := m.Called(ctx, id, creatorID)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) CreateLog(ctx context.Context, log *models.Log) (*models.Log, error) {
	args := m.Called(ctx, log)
	l, _ := args.Get(0).(*models.Log)
	return l, args.Error(1)
}

func (m *StorageMock) ListLogs(ctx context.Context, creatorID, categoryID int64, before time.Time, limit int) ([]models.Log, error) {
	args := m.Called(ctx, creatorID, categoryID, before, limit)
	logs, _ := args.Get(0).([]models.Log)
	return logs, args.Error(1)
}
