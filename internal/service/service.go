// Package service holds the application logic behind the HTTP handlers:
// accounts, sessions, password resets, notes, categories and activity logs.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/patric-chuzhbe/tracky/internal/mailer"
	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (*user.User, error)
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) (*user.User, error)
}

type notesKeeper interface {
	CreateNote(ctx context.Context, creatorID int64, text string) (*models.Note, error)
	GetNote(ctx context.Context, id, creatorID int64) (*models.Note, error)
	UpdateNote(ctx context.Context, id, creatorID int64, text string) (*models.Note, error)
	DeleteNote(ctx context.Context, id, creatorID int64) (bool, error)
	ListNotes(ctx context.Context, creatorID int64, before time.Time, limit int) ([]models.Note, error)
}

type categoriesKeeper interface {
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	ListCategories(ctx context.Context, creatorID int64) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id, creatorID int64) (bool, error)
}

type logsKeeper interface {
	CreateLog(ctx context.Context, log *models.Log) (*models.Log, error)
	ListLogs(ctx context.Context, creatorID, categoryID int64, before time.Time, limit int) ([]models.Log, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	notesKeeper
	categoriesKeeper
	logsKeeper
	pinger
}

type tokenStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, time.Duration, bool, error)
	pinger
}

type passwordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, encoded, password string) (bool, error)
}

type mailQueue interface {
	EnqueueJob(msg mailer.Message) error
}

// Session is the caller's session. The HTTP layer implements it on top of the
// session cookie.
type Session interface {
	// UserID returns the logged-in user, if any.
	UserID() (int64, bool)

	// Establish logs userID in, replacing any previous identity.
	Establish(ctx context.Context, userID int64) error

	// Destroy logs the caller out. Only a store failure is reported; the
	// client side is cleared regardless.
	Destroy(ctx context.Context) error
}

var ErrUnauthenticated = errors.New("not authenticated")

// FieldErrors is returned for rejected input of notes, categories and logs.
type FieldErrors []models.FieldError

func (f FieldErrors) Error() string {
	parts := make([]string, len(f))
	for i, e := range f {
		parts[i] = e.Field + ": " + e.Message
	}

	return "invalid input: " + strings.Join(parts, "; ")
}

// UserResult is the outcome of register, login and changePassword. Exactly
// one of User and Errors is set.
type UserResult struct {
	User   *user.User
	Errors []models.FieldError
}

func fieldError(field, message string) UserResult {
	return UserResult{Errors: []models.FieldError{{Field: field, Message: message}}}
}

type Options struct {
	ResetTokenPrefix    string
	ResetTokenTTL       time.Duration
	ResetLinkOrigin     string
	MailFrom            string
	ForgotPasswordFloor time.Duration
}

type Service struct {
	db       storage
	tokens   tokenStore
	hasher   passwordHasher
	mail     mailQueue
	validate *validator.Validate
	opts     Options

	newToken func() string

	dummyMu   sync.Mutex
	dummyHash string
}

func New(
	db storage,
	tokens tokenStore,
	hasher passwordHasher,
	mail mailQueue,
	opts Options,
) *Service {
	return &Service{
		db:       db,
		tokens:   tokens,
		hasher:   hasher,
		mail:     mail,
		validate: newValidator(),
		opts:     opts,
		newToken: uuid.NewString,
	}
}

// Ping checks both the relational store and the token store.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("in internal/service/service.go/Ping(): error while `s.db.Ping()` calling: %w", err)
	}
	if err := s.tokens.Ping(ctx); err != nil {
		return fmt.Errorf("in internal/service/service.go/Ping(): error while `s.tokens.Ping()` calling: %w", err)
	}

	return nil
}

func callerID(sess Session) (int64, error) {
	if sess == nil {
		return 0, ErrUnauthenticated
	}
	id, ok := sess.UserID()
	if !ok {
		return 0, ErrUnauthenticated
	}

	return id, nil
}
