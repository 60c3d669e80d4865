package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/tracky/internal/db/memorystorage"
	"github.com/patric-chuzhbe/tracky/internal/kvstore"
	"github.com/patric-chuzhbe/tracky/internal/mailer"
	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/password"
)

const resetPrefix = "forget-password:"

type fakeSession struct {
	mu           sync.Mutex
	userID       int64
	loggedIn     bool
	establishErr error
	destroyErr   error
	established  int
}

func (s *fakeSession) UserID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.loggedIn
}

func (s *fakeSession) Establish(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.establishErr != nil {
		return s.establishErr
	}
	s.userID, s.loggedIn = userID, true
	s.established++
	return nil
}

func (s *fakeSession) Destroy(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID, s.loggedIn = 0, false
	return s.destroyErr
}

func loggedInAs(id int64) *fakeSession {
	return &fakeSession{userID: id, loggedIn: true}
}

type fakeQueue struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (q *fakeQueue) EnqueueJob(msg mailer.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *fakeQueue) sent() []mailer.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]mailer.Message(nil), q.msgs...)
}

var testParams = password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

type fixture struct {
	svc    *Service
	db     storage
	tokens kvstore.Store
	redis  *miniredis.Miniredis
	queue  *fakeQueue
}

type fixtureOption func(*fixture)

func withDB(db storage) fixtureOption {
	return func(f *fixture) { f.db = db }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	m := miniredis.RunT(t)
	tokens, err := kvstore.NewRedis("redis://"+m.Addr(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tokens.Close() })

	f := &fixture{
		db:     memorystorage.New(),
		tokens: tokens,
		redis:  m,
		queue:  &fakeQueue{},
	}
	for _, opt := range opts {
		opt(f)
	}

	f.svc = New(f.db, f.tokens, password.NewHasher(testParams), f.queue, Options{
		ResetTokenPrefix: resetPrefix,
		ResetTokenTTL:    24 * time.Hour,
		ResetLinkOrigin:  "http://localhost:3000",
		MailFrom:         "no-reply@tracky.local",
	})

	return f
}

func (f *fixture) register(t *testing.T, username, email, pw string) *fakeSession {
	t.Helper()
	sess := &fakeSession{}
	res, err := f.svc.Register(context.Background(), sess, models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: pw,
	})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.NotNil(t, res.User)

	return sess
}
