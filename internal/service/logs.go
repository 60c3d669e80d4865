package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/pagination"
)

func (s *Service) CreateLog(ctx context.Context, sess Session, request models.LogRequest) (*models.Log, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return nil, err
	}

	if errs := s.check(request); errs != nil {
		return nil, FieldErrors(errs)
	}
	if request.DateEnd.Before(request.DateStart) {
		return nil, FieldErrors{{Field: "dateEnd", Message: "must not be before dateStart"}}
	}

	l, err := s.db.CreateLog(ctx, &models.Log{
		Body:       request.Body,
		DateStart:  request.DateStart,
		DateEnd:    request.DateEnd,
		CategoryID: request.CategoryID,
		CreatorID:  creatorID,
	})
	if errors.Is(err, models.ErrNotFound) {
		return nil, FieldErrors{{Field: "categoryId", Message: "category does not exist"}}
	}
	if err != nil {
		return nil, fmt.Errorf("in internal/service/logs.go/CreateLog(): error while `s.db.CreateLog()` calling: %w", err)
	}

	return l, nil
}

// ListLogs pages through the caller's logs like ListNotes. A zero categoryID
// lists all categories.
func (s *Service) ListLogs(
	ctx context.Context,
	sess Session,
	categoryID int64,
	limit int,
	cursor string,
) (*models.PaginatedLogs, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return nil, err
	}

	page, err := pagination.NewPage(limit, cursor)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.ListLogs(ctx, creatorID, categoryID, page.Before, page.Fetch())
	if err != nil {
		return nil, fmt.Errorf("in internal/service/logs.go/ListLogs(): error while `s.db.ListLogs()` calling: %w", err)
	}

	logs, hasMore, next := pagination.Split(rows, page.Limit, func(l models.Log) time.Time { return l.CreatedAt })

	return &models.PaginatedLogs{Logs: logs, HasMore: hasMore, Cursor: next}, nil
}
