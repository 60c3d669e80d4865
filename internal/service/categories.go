package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/tracky/internal/models"
)

func (s *Service) CreateCategory(ctx context.Context, sess Session, request models.CategoryRequest) (*models.Category, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return nil, err
	}

	request.Tag = strings.TrimSpace(request.Tag)
	request.Colour = strings.ToLower(strings.TrimSpace(request.Colour))
	request.PossibleValues = normalizeValues(request.PossibleValues)

	if errs := s.check(request); errs != nil {
		return nil, FieldErrors(errs)
	}
	if request.Type == "select" && len(request.PossibleValues) == 0 {
		return nil, FieldErrors{{Field: "possibleValues", Message: "required for select categories"}}
	}

	c, err := s.db.CreateCategory(ctx, &models.Category{
		Colour:         request.Colour,
		Tag:            request.Tag,
		PossibleValues: request.PossibleValues,
		Type:           request.Type,
		CreatorID:      creatorID,
	})
	switch {
	case errors.Is(err, models.ErrTagTaken):
		return nil, FieldErrors{{Field: "tag", Message: "tag already taken"}}
	case errors.Is(err, models.ErrColourTaken):
		return nil, FieldErrors{{Field: "colour", Message: "colour already taken"}}
	case err != nil:
		return nil, fmt.Errorf("in internal/service/categories.go/CreateCategory(): error while `s.db.CreateCategory()` calling: %w", err)
	}

	return c, nil
}

func (s *Service) ListCategories(ctx context.Context, sess Session) ([]models.Category, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return nil, err
	}

	categories, err := s.db.ListCategories(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/categories.go/ListCategories(): error while `s.db.ListCategories()` calling: %w", err)
	}

	return categories, nil
}

// DeleteCategory removes the category together with its logs.
func (s *Service) DeleteCategory(ctx context.Context, sess Session, id int64) (bool, error) {
	creatorID, err := callerID(sess)
	if err != nil {
		return false, err
	}

	deleted, err := s.db.DeleteCategory(ctx, id, creatorID)
	if err != nil {
		return false, fmt.Errorf("in internal/service/categories.go/DeleteCategory(): error while `s.db.DeleteCategory()` calling: %w", err)
	}

	return deleted, nil
}

// normalizeValues trims the values, drops blanks and duplicates, keeping order.
func normalizeValues(values []string) []string {
	trimmed := funk.Map(values, strings.TrimSpace).([]string)
	nonEmpty := funk.FilterString(trimmed, func(v string) bool { return v != "" })

	return funk.UniqString(nonEmpty)
}
