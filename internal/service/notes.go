package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/pagination"
)

// ListNotes returns one page of the caller's notes, newest first.
// A malformed cursor yields pagination.ErrInvalidCursor.
func (s *Service) ListNotes(ctx context.Context, sess Session, limit int, cursor string) (*models.PaginatedNotes, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return nil, err
	}

	page, err := pagination.NewPage(limit, cursor)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.ListNotes(ctx, creatorID, page.Before, page.Fetch())
	if err != nil {
		return nil, fmt.Errorf("in internal/service/notes.go/ListNotes(): error while `s.db.ListNotes()` calling: %w", err)
	}

	notes, hasMore, next := pagination.Split(rows, page.Limit, func(n models.Note) time.Time { return n.CreatedAt })

	return &models.PaginatedNotes{Notes: notes, HasMore: hasMore, Cursor: next}, nil
}

// GetNote returns nil when the note does not exist or belongs to someone else.
func (s *Service) GetNote(ctx context.Context, sess Session, id int64) (*models.Note, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return nil, err
	}

	n, err := s.db.GetNote(ctx, id, creatorID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/service/notes.go/GetNote(): error while `s.db.GetNote()` calling: %w", err)
	}

	return n, nil
}

func (s *Service) CreateNote(ctx context.Context, sess Session, request models.NoteRequest) (*models.Note, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return nil, err
	}

	if errs := s.check(request); errs != nil {
		return nil, FieldErrors(errs)
	}

	n, err := s.db.CreateNote(ctx, creatorID, request.Text)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/notes.go/CreateNote(): error while `s.db.CreateNote()` calling: %w", err)
	}

	return n, nil
}

// UpdateNote returns nil when the caller does not own a note with this id.
func (s *Service) UpdateNote(ctx context.Context, sess Session, id int64, request models.NoteRequest) (*models.Note, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return nil, err
	}

	if errs := s.check(request); errs != nil {
		return nil, FieldErrors(errs)
	}

	n, err := s.db.UpdateNote(ctx, id, creatorID, request.Text)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/service/notes.go/UpdateNote(): error while `s.db.UpdateNote()` calling: %w", err)
	}

	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, sess Session, id int64) (bool, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return false, err
	}

	deleted, err := s.db.DeleteNote(ctx, id, creatorID)
	if err != nil {
		return false, fmt.Errorf("in internal/service/notes.go/DeleteNote(): error while `s.db.DeleteNote()` calling: %w", err)
	}

	return deleted, nil
}
