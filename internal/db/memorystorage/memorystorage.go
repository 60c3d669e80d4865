// Package memorystorage keeps everything in process memory. It is used when
// no database DSN is configured, and by tests.
package memorystorage

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

type MemoryStorage struct {
	mu sync.RWMutex

	users      map[int64]*user.User
	notes      map[int64]*models.Note
	categories map[int64]*models.Category
	logs       map[int64]*models.Log

	lastID      int64
	lastCreated time.Time
	now         func() time.Time
}

type Option func(*MemoryStorage)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.now = now
	}
}

func New(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		users:      map[int64]*user.User{},
		notes:      map[int64]*models.Note{},
		categories: map[int64]*models.Category{},
		logs:       map[int64]*models.Log{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// stamp returns a creation time with the database's microsecond precision.
// Stamps never repeat, so keyset pages cannot lose rows on ties.
// Must be called with mu held for writing.
func (s *MemoryStorage) stamp() time.Time {
	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(s.lastCreated) {
		t = s.lastCreated.Add(time.Microsecond)
	}
	s.lastCreated = t

	return t
}

func (s *MemoryStorage) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == usr.Username {
			return nil, models.ErrUsernameTaken
		}
		if u.Email == usr.Email {
			return nil, models.ErrEmailTaken
		}
	}

	created := *usr
	created.ID = s.nextID()
	created.CreatedAt = s.stamp()
	created.UpdatedAt = created.CreatedAt
	s.users[created.ID] = &created

	result := created
	return &result, nil
}

func (s *MemoryStorage) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	return s.findUser(func(u *user.User) bool { return u.ID == id })
}

func (s *MemoryStorage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findUser(func(u *user.User) bool { return u.Email == email })
}

func (s *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.findUser(func(u *user.User) bool { return u.Username == username })
}

func (s *MemoryStorage) findUser(match func(*user.User) bool) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			result := *u
			return &result, nil
		}
	}

	return nil, models.ErrNotFound
}

func (s *MemoryStorage) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)

	result := *u
	return &result, nil
}

func (s *MemoryStorage) CreateNote(ctx context.Context, creatorID int64, text string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &models.Note{ID: s.nextID(), Text: text, CreatorID: creatorID, CreatedAt: s.stamp()}
	n.UpdatedAt = n.CreatedAt
	s.notes[n.ID] = n

	result := *n
	return &result, nil
}

func (s *MemoryStorage) GetNote(ctx context.Context, id, creatorID int64) (*models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok || n.CreatorID != creatorID {
		return nil, models.ErrNotFound
	}

	result := *n
	return &result, nil
}

func (s *MemoryStorage) UpdateNote(ctx context.Context, id, creatorID int64, text string) (*models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.CreatorID != creatorID {
		return nil, models.ErrNotFound
	}
	n.Text = text
	n.UpdatedAt = s.now().UTC().Truncate(time.Microsecond)

	result := *n
	return &result, nil
}

func (s *MemoryStorage) DeleteNote(ctx context.Context, id, creatorID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.CreatorID != creatorID {
		return false, nil
	}
	delete(s.notes, id)

	return true, nil
}

func (s *MemoryStorage) ListNotes(ctx context.Context, creatorID int64, before time.Time, limit int) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Note{}
	for _, n := range s.notes {
		if n.CreatorID == creatorID && (before.IsZero() || n.CreatedAt.Before(before)) {
			result = append(result, *n)
		}
	}
	slices.SortFunc(result, func(a, b models.Note) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})

	return truncate(result, limit), nil
}

func (s *MemoryStorage) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.categories {
		if c.CreatorID != category.CreatorID {
			continue
		}
		if c.Tag == category.Tag {
			return nil, models.ErrTagTaken
		}
		if c.Colour == category.Colour {
			return nil, models.ErrColourTaken
		}
	}

	c := *category
	c.ID = s.nextID()
	c.PossibleValues = slices.Clone(category.PossibleValues)
	if c.PossibleValues == nil {
		c.PossibleValues = []string{}
	}
	c.CreatedAt = s.stamp()
	c.UpdatedAt = c.CreatedAt
	s.categories[c.ID] = &c

	result := c
	result.PossibleValues = slices.Clone(c.PossibleValues)
	return &result, nil
}

func (s *MemoryStorage) ListCategories(ctx context.Context, creatorID int64) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Category{}
	for _, c := range s.categories {
		if c.CreatorID == creatorID {
			item := *c
			item.PossibleValues = slices.Clone(c.PossibleValues)
			result = append(result, item)
		}
	}
	slices.SortFunc(result, func(a, b models.Category) int { return cmp.Compare(a.Tag, b.Tag) })

	return result, nil
}

// DeleteCategory also removes the logs of the category.
func (s *MemoryStorage) DeleteCategory(ctx context.Context, id, creatorID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.CreatorID != creatorID {
		return false, nil
	}
	delete(s.categories, id)
	for logID, l := range s.logs {
		if l.CategoryID == id {
			delete(s.logs, logID)
		}
	}

	return true, nil
}

func (s *MemoryStorage) CreateLog(ctx context.Context, log *models.Log) (*models.Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[log.CategoryID]
	if !ok || c.CreatorID != log.CreatorID {
		return nil, models.ErrNotFound
	}

	l := *log
	l.ID = s.nextID()
	l.CreatedAt = s.stamp()
	l.UpdatedAt = l.CreatedAt
	s.logs[l.ID] = &l

	result := l
	return &result, nil
}

func (s *MemoryStorage) ListLogs(
	ctx context.Context,
	creatorID,
	categoryID int64,
	before time.Time,
	limit int,
) ([]models.Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Log{}
	for _, l := range s.logs {
		if l.CreatorID != creatorID || (categoryID != 0 && l.CategoryID != categoryID) {
			continue
		}
		if before.IsZero() || l.CreatedAt.Before(before) {
			result = append(result, *l)
		}
	}
	slices.SortFunc(result, func(a, b models.Log) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})

	return truncate(result, limit), nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func newestFirst(aTime, bTime time.Time, aID, bID int64) int {
	if c := bTime.Compare(aTime); c != 0 {
		return c
	}

	return cmp.Compare(bID, aID)
}

func truncate[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}

	return items
}
