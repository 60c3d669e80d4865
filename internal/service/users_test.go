package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/tracky/internal/mockstorage"
	"github.com/patric-chuzhbe/tracky/internal/models"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	sess := &fakeSession{}

	res, err := f.svc.Register(context.Background(), sess, models.RegisterRequest{
		Username: " bob ",
		Email:    "bob@example.com",
		Password: "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, "bob", res.User.Username)
	assert.Contains(t, res.User.PasswordHash, "$argon2id$")

	id, ok := sess.UserID()
	assert.True(t, ok)
	assert.Equal(t, res.User.ID, id)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		request models.RegisterRequest
		want    models.FieldError
	}{
		{
			name:    "bad email",
			request: models.RegisterRequest{Username: "bob", Email: "bob", Password: "secret"},
			want:    models.FieldError{Field: "email", Message: "invalid email"},
		},
		{
			name:    "short username",
			request: models.RegisterRequest{Username: "bo", Email: "bob@example.com", Password: "secret"},
			want:    models.FieldError{Field: "username", Message: "length must be greater than 2"},
		},
		{
			name:    "username with at sign",
			request: models.RegisterRequest{Username: "bob@home", Email: "bob@example.com", Password: "secret"},
			want:    models.FieldError{Field: "username", Message: "cannot include an @"},
		},
		{
			name:    "short password",
			request: models.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "ab"},
			want:    models.FieldError{Field: "password", Message: "length must be greater than 2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sess := &fakeSession{}

			res, err := f.svc.Register(context.Background(), sess, tt.request)
			require.NoError(t, err)
			assert.Nil(t, res.User)
			assert.Equal(t, []models.FieldError{tt.want}, res.Errors)
			assert.Zero(t, sess.established)
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob", "bob@example.com", "secret")

	res, err := f.svc.Register(context.Background(), &fakeSession{}, models.RegisterRequest{
		Username: "bob", Email: "other@example.com", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.FieldError{{Field: "username", Message: "username already taken"}}, res.Errors)

	res, err = f.svc.Register(context.Background(), &fakeSession{}, models.RegisterRequest{
		Username: "robert", Email: "bob@example.com", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.FieldError{{Field: "email", Message: "email already taken"}}, res.Errors)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob", "bob@example.com", "secret")

	for _, identity := range []string{"bob", "bob@example.com"} {
		t.Run(identity, func(t *testing.T) {
			sess := &fakeSession{}
			res, err := f.svc.Login(context.Background(), sess, models.LoginRequest{UsernameOrEmail: identity, Password: "secret"})
			require.NoError(t, err)
			require.NotNil(t, res.User)
			assert.Equal(t, 1, sess.established)
		})
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob", "bob@example.com", "secret")

	wrongPassword, err := f.svc.Login(context.Background(), &fakeSession{}, models.LoginRequest{UsernameOrEmail: "bob", Password: "nope"})
	require.NoError(t, err)

	unknownUser, err := f.svc.Login(context.Background(), &fakeSession{}, models.LoginRequest{UsernameOrEmail: "alice", Password: "nope"})
	require.NoError(t, err)

	unknownEmail, err := f.svc.Login(context.Background(), &fakeSession{}, models.LoginRequest{UsernameOrEmail: "alice@example.com", Password: "nope"})
	require.NoError(t, err)

	want := []models.FieldError{{Field: "usernameOrEmail", Message: "incorrect username or password"}}
	assert.Equal(t, want, wrongPassword.Errors)
	assert.Equal(t, want, unknownUser.Errors)
	assert.Equal(t, want, unknownEmail.Errors)
}

func TestLoginEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.register(t, "bob", "Bob@Example.com", "secret")

	res, err := f.svc.Login(context.Background(), &fakeSession{}, models.LoginRequest{UsernameOrEmail: "BOB@example.COM", Password: "secret"})
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, "bob@example.com", res.User.Email)

	dup, err := f.svc.Register(context.Background(), &fakeSession{}, models.RegisterRequest{
		Username: "robert", Email: "bob@EXAMPLE.com", Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, []models.FieldError{{Field: "email", Message: "email already taken"}}, dup.Errors)
}

type failingOnceHasher struct {
	passwordHasher
	failed bool
}

func (h *failingOnceHasher) Hash(ctx context.Context, pw string) (string, error) {
	if !h.failed {
		h.failed = true
		return "", errors.New("out of memory")
	}

	return h.passwordHasher.Hash(ctx, pw)
}

func TestLoginRecoversFromDummyHashFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.hasher = &failingOnceHasher{passwordHasher: f.svc.hasher}

	_, err := f.svc.Login(context.Background(), &fakeSession{}, models.LoginRequest{UsernameOrEmail: "alice", Password: "nope"})
	assert.ErrorContains(t, err, "out of memory")

	res, err := f.svc.Login(context.Background(), &fakeSession{}, models.LoginRequest{UsernameOrEmail: "alice", Password: "nope"})
	require.NoError(t, err)
	assert.Equal(t, []models.FieldError{{Field: "usernameOrEmail", Message: "incorrect username or password"}}, res.Errors)
}

func TestLoginStorageFailure(t *testing.T) {
	db := &mockstorage.StorageMock{}
	db.On("GetUserByUsername", mock.Anything, "bob").Return(nil, errors.New("db down"))
	f := newFixture(t, withDB(db))

	_, err := f.svc.Login(context.Background(), &fakeSession{}, models.LoginRequest{UsernameOrEmail: "bob", Password: "x"})
	assert.ErrorContains(t, err, "db down")
	db.AssertExpectations(t)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	sess := loggedInAs(1)
	assert.True(t, f.svc.Logout(context.Background(), sess))
	_, ok := sess.UserID()
	assert.False(t, ok)

	failing := &fakeSession{destroyErr: errors.New("store down")}
	assert.False(t, f.svc.Logout(context.Background(), failing))
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	sess := f.register(t, "bob", "bob@example.com", "secret")

	u, err := f.svc.Me(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "bob", u.Username)

	u, err = f.svc.Me(context.Background(), &fakeSession{})
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = f.svc.Me(context.Background(), loggedInAs(404))
	require.NoError(t, err)
	assert.Nil(t, u)
}
