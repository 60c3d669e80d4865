package service

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/tracky/internal/models"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// check validates a request struct and returns the failures as field errors.
// A nil result means the input is valid.
func (s *Service) check(request any) []models.FieldError {
	err := s.validate.Struct(request)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []models.FieldError{{Field: "", Message: err.Error()}}
	}

	result := make([]models.FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		result = append(result, models.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}

	return result
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "invalid email"
	case "url":
		return "invalid url"
	case "hexcolor":
		return "invalid colour"
	case "excludes":
		return "cannot include an " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		if n, err := strconv.Atoi(fe.Param()); err == nil && fe.Kind() == reflect.String {
			return fmt.Sprintf("length must be greater than %d", n-1)
		}
		return "must be at least " + fe.Param()
	case "max":
		return "length must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "invalid value"
	}
}
