package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patric-chuzhbe/tracky/internal/logger"
	"github.com/patric-chuzhbe/tracky/internal/mailer"
	"github.com/patric-chuzhbe/tracky/internal/models"
)

const (
	msgTokenExpired      = "token expired"
	msgUserNoLongerExist = "user no longer exists"
	msgPasswordTooShort  = "length must be greater than 2"

	minPasswordLength = 3
)

// ForgotPassword issues a reset token for the account registered with email
// and queues the reset mail. It reports true whether or not the account
// exists, and both outcomes take at least ForgotPasswordFloor.
func (s *Service) ForgotPassword(ctx context.Context, email string) (bool, error) {
	deadline := time.Now().Add(s.opts.ForgotPasswordFloor)
	err := s.issueResetToken(ctx, normalizeEmail(email))
	waitUntil(ctx, deadline)

	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *Service) issueResetToken(ctx context.Context, email string) error {
	u, err := s.db.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("in internal/service/reset.go/issueResetToken(): error while `s.db.GetUserByEmail()` calling: %w", err)
	}

	token := s.newToken()
	err = s.tokens.Set(ctx, s.resetKey(token), strconv.FormatInt(u.ID, 10), s.opts.ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("in internal/service/reset.go/issueResetToken(): error while `s.tokens.Set()` calling: %w", err)
	}

	if err := s.mail.EnqueueJob(s.resetMessage(u.Username, u.Email, token)); err != nil {
		logger.Log.Errorw("reset mail not queued", "user_id", u.ID, "err", err)
	}

	return nil
}

// ChangePassword redeems a reset token. The token is taken atomically, so of
// concurrent redemptions only one can succeed. When the password cannot be
// stored because of an infrastructure failure the token is put back with the
// time it had left.
func (s *Service) ChangePassword(ctx context.Context, sess Session, request models.ChangePasswordRequest) (UserResult, error) {
	if utf8.RuneCountInString(request.NewPassword) < minPasswordLength {
		return fieldError("newPassword", msgPasswordTooShort), nil
	}

	key := s.resetKey(request.Token)
	value, ttl, found, err := s.tokens.Take(ctx, key)
	if err != nil {
		return UserResult{}, fmt.Errorf("in internal/service/reset.go/ChangePassword(): error while `s.tokens.Take()` calling: %w", err)
	}
	if !found {
		return fieldError("token", msgTokenExpired), nil
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		logger.Log.Warnw("unreadable reset token payload", "err", err)
		return fieldError("token", msgTokenExpired), nil
	}

	restore := func() {
		if ttl <= 0 {
			ttl = s.opts.ResetTokenTTL
		}
		if err := s.tokens.Set(context.WithoutCancel(ctx), key, value, ttl); err != nil {
			logger.Log.Errorw("reset token could not be restored", "user_id", userID, "err", err)
		}
	}

	if _, err := s.db.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fieldError("token", msgUserNoLongerExist), nil
		}
		restore()
		return UserResult{}, fmt.Errorf("in internal/service/reset.go/ChangePassword(): error while `s.db.GetUserByID()` calling: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, request.NewPassword)
	if err != nil {
		restore()
		return UserResult{}, fmt.Errorf("in internal/service/reset.go/ChangePassword(): error while `s.hasher.Hash()` calling: %w", err)
	}

	updated, err := s.db.UpdatePasswordHash(ctx, userID, hash)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fieldError("token", msgUserNoLongerExist), nil
		}
		restore()
		return UserResult{}, fmt.Errorf("in internal/service/reset.go/ChangePassword(): error while `s.db.UpdatePasswordHash()` calling: %w", err)
	}

	if sess != nil {
		if err := sess.Establish(ctx, updated.ID); err != nil {
			logger.Log.Warnw("password changed but the session was not established", "user_id", updated.ID, "err", err)
		}
	}

	return UserResult{User: updated}, nil
}

func (s *Service) resetKey(token string) string {
	return s.opts.ResetTokenPrefix + token
}

func (s *Service) resetMessage(username, to, token string) mailer.Message {
	link := strings.TrimRight(s.opts.ResetLinkOrigin, "/") + "/change-password/" + token

	return mailer.Message{
		From:    s.opts.MailFrom,
		To:      to,
		Subject: "Change password",
		Text:    "Hello, " + username + ", here is your password reset link: " + link,
		HTML: "<p>Hello, " + html.EscapeString(username) + ", here is your password reset link:</p>" +
			`<p><a href="` + html.EscapeString(link) + `">` + html.EscapeString(link) + `</a></p>`,
	}
}

// normalizeEmail lower-cases addresses so that lookups behave the same on
// every storage backend.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// waitUntil sleeps until deadline unless ctx is done first.
func waitUntil(ctx context.Context, deadline time.Time) {
	d := time.Until(deadline)
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
