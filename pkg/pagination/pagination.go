// Package pagination implements keyset paging over descending ids. Cursors
// are opaque to clients.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100

	cursorPrefix = "after:"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Params is the paging input accepted by list operations.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor names the last id already returned; the next page starts below it.
type Cursor struct {
	ID uint64
}

func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one extra row so Trim can tell whether more exist.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func EncodeCursor(c Cursor) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatUint(c.ID, 10)))
}

// ParseCursor returns nil, nil for a blank cursor (first page).
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	digits, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return nil, ErrInvalidCursor
	}
	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrInvalidCursor
	}
	return &Cursor{ID: id}, nil
}

// Trim drops the lookahead row fetched by LimitWithBuffer and returns the
// cursor for the following page, or "" on the last page.
func Trim[T any](rows []T, limit int, idOf func(T) uint64) ([]T, string) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	page := rows[:limit]
	return page, EncodeCursor(Cursor{ID: idOf(page[limit-1])})
}
