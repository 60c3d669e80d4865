package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/patric-chuzhbe/tracky/internal/logger"
	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

const (
	msgIncorrectCredentials = "incorrect username or password"
	msgUsernameTaken        = "username already taken"
	msgEmailTaken           = "email already taken"

	// dummyPassword is hashed once and verified against when the login
	// identity does not exist, so that both branches cost one argon2 run.
	dummyPassword = "tracky-dummy-password"
)

func (s *Service) Register(ctx context.Context, sess Session, request models.RegisterRequest) (UserResult, error) {
	request.Username = strings.TrimSpace(request.Username)
	request.Email = normalizeEmail(request.Email)

	if errs := s.check(request); errs != nil {
		return UserResult{Errors: errs}, nil
	}

	hash, err := s.hasher.Hash(ctx, request.Password)
	if err != nil {
		return UserResult{}, fmt.Errorf("in internal/service/users.go/Register(): error while `s.hasher.Hash()` calling: %w", err)
	}

	created, err := s.db.CreateUser(ctx, &user.User{
		Username:          request.Username,
		Email:             request.Email,
		PasswordHash:      hash,
		ProfilePictureURL: request.ProfilePictureURL,
	})
	switch {
	case errors.Is(err, models.ErrUsernameTaken):
		return fieldError("username", msgUsernameTaken), nil
	case errors.Is(err, models.ErrEmailTaken):
		return fieldError("email", msgEmailTaken), nil
	case err != nil:
		return UserResult{}, fmt.Errorf("in internal/service/users.go/Register(): error while `s.db.CreateUser()` calling: %w", err)
	}

	if err := sess.Establish(ctx, created.ID); err != nil {
		return UserResult{}, fmt.Errorf("in internal/service/users.go/Register(): error while `sess.Establish()` calling: %w", err)
	}

	return UserResult{User: created}, nil
}

// Login answers the same field error for an unknown identity and a wrong
// password.
func (s *Service) Login(ctx context.Context, sess Session, request models.LoginRequest) (UserResult, error) {
	identity := strings.TrimSpace(request.UsernameOrEmail)

	var (
		found *user.User
		err   error
	)
	if strings.Contains(identity, "@") {
		found, err = s.db.GetUserByEmail(ctx, normalizeEmail(identity))
	} else {
		found, err = s.db.GetUserByUsername(ctx, identity)
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return UserResult{}, fmt.Errorf("in internal/service/users.go/Login(): error while looking the user up: %w", err)
	}

	var encoded string
	if found != nil {
		encoded = found.PasswordHash
	} else {
		encoded, err = s.dummy(ctx)
		if err != nil {
			return UserResult{}, err
		}
	}

	valid, err := s.hasher.Verify(ctx, encoded, request.Password)
	if err != nil {
		return UserResult{}, fmt.Errorf("in internal/service/users.go/Login(): error while `s.hasher.Verify()` calling: %w", err)
	}
	if found == nil || !valid {
		return fieldError("usernameOrEmail", msgIncorrectCredentials), nil
	}

	if err := sess.Establish(ctx, found.ID); err != nil {
		return UserResult{}, fmt.Errorf("in internal/service/users.go/Login(): error while `sess.Establish()` calling: %w", err)
	}

	return UserResult{User: found}, nil
}

// Logout reports false when the session could not be removed from the store.
func (s *Service) Logout(ctx context.Context, sess Session) bool {
	if err := sess.Destroy(ctx); err != nil {
		logger.Log.Errorw("logout failed", "err", err)
		return false
	}

	return true
}

// Me returns the logged-in user, or nil for anonymous callers and deleted accounts.
func (s *Service) Me(ctx context.Context, sess Session) (*user.User, error) {
	id, ok := sess.UserID()
	if !ok {
		return nil, nil
	}

	u, err := s.db.GetUserByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/service/users.go/Me(): error while `s.db.GetUserByID()` calling: %w", err)
	}

	return u, nil
}

func (s *Service) dummy(ctx context.Context) (string, error) {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyHash != "" {
		return s.dummyHash, nil
	}

	hash, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
	if err != nil {
		return "", fmt.Errorf("in internal/service/users.go/dummy(): error while `s.hasher.Hash()` calling: %w", err)
	}
	s.dummyHash = hash

	return hash, nil
}
