// Package pagination implements keyset pagination over collections ordered by
// creation time, newest first.
//
// A page is fetched by asking the storage for Limit+1 rows older than the
// cursor. The extra row is never returned to the caller, it only tells whether
// another page exists.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"time"
)

const (
	// MaxLimit is the largest page size a caller can get.
	MaxLimit = 50

	// DefaultLimit is used when the caller does not ask for a page size.
	DefaultLimit = 10
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Page is a decoded page request ready to be passed to storage.
type Page struct {
	// Limit is already clamped to [1, MaxLimit].
	Limit int

	// Before is the exclusive upper bound on createdAt. Zero means "from the newest item".
	Before time.Time
}

// Fetch is the number of rows storage must return for the page.
func (p Page) Fetch() int {
	return p.Limit + 1
}

// HasCursor reports whether the page continues a previous one.
func (p Page) HasCursor() bool {
	return !p.Before.IsZero()
}

// Clamp bounds a requested page size. Non-positive values select DefaultLimit.
func Clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodeCursor turns a createdAt value into an opaque cursor string.
func EncodeCursor(t time.Time) string {
	return base64.RawURLEncoding.EncodeToString(
		[]byte(strconv.FormatInt(t.UnixMicro(), 10)),
	)
}

// DecodeCursor is the inverse of EncodeCursor. An empty cursor decodes to the zero time.
func DecodeCursor(cursor string) (time.Time, error) {
	if cursor == "" {
		return time.Time{}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}

	micros, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || micros <= 0 {
		return time.Time{}, ErrInvalidCursor
	}

	return time.UnixMicro(micros).UTC(), nil
}

// NewPage clamps the limit and decodes the cursor.
func NewPage(limit int, cursor string) (Page, error) {
	before, err := DecodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	return Page{Limit: Clamp(limit), Before: before}, nil
}

// Split drops the look-ahead row from rows. It returns the visible items,
// whether more pages exist and, if so, the cursor of the next page.
func Split[T any](rows []T, limit int, createdAt func(T) time.Time) ([]T, bool, string) {
	if rows == nil {
		rows = []T{}
	}
	if len(rows) <= limit {
		return rows, false, ""
	}

	items := rows[:limit]

	return items, true, EncodeCursor(createdAt(items[len(items)-1]))
}
