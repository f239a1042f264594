package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// CursorDirection says which side of the cursor a page request wants.
type CursorDirection string

const (
	CursorDirectionNext CursorDirection = "next"
	CursorDirectionPrev CursorDirection = "prev"
)

// Cursor is the decoded keyset position. The (CreatedAt, ID) pair matches
// the composite ordering repositories page on, so a cursor stays valid even
// when rows share a creation timestamp.
type Cursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// CursorParams are the keyset-pagination inputs bound from the query string.
// Cursor is opaque to clients; they hand back whatever the previous response
// returned.
type CursorParams struct {
	Cursor    string          `form:"cursor" json:"cursor"`
	Direction CursorDirection `form:"direction" json:"direction"`
	Limit     int             `form:"limit" json:"limit"`
}

// Validate clamps the limit and defaults the direction to next.
func (c *CursorParams) Validate() {
	if c.Limit < 1 {
		c.Limit = defaultPageSize
	}
	if c.Limit > maxPageSize {
		c.Limit = maxPageSize
	}
	if c.Direction == "" {
		c.Direction = CursorDirectionNext
	}
}

// DecodeCursor unpacks the opaque cursor string. An empty cursor means the
// first page and decodes to nil.
func (c *CursorParams) DecodeCursor() (*Cursor, error) {
	if c.Cursor == "" {
		return nil, nil
	}

	raw, err := base64.URLEncoding.DecodeString(c.Cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor data: %w", err)
	}
	return &cursor, nil
}

// EncodeCursor packs a keyset position into the opaque wire form.
func EncodeCursor(id string, createdAt ...time.Time) string {
	cursor := Cursor{ID: id}
	if len(createdAt) > 0 {
		cursor.CreatedAt = createdAt[0]
	}
	raw, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(raw)
}

// CursorPagination is the metadata attached to keyset-paginated responses.
type CursorPagination struct {
	NextCursor *string `json:"next_cursor,omitempty"`
	PrevCursor *string `json:"prev_cursor,omitempty"`
	HasNext    bool    `json:"has_next"`
	HasPrev    bool    `json:"has_prev"`
	Limit      int     `json:"limit"`
}

// CursorPaginatedResult pairs a page of items with its cursor metadata.
type CursorPaginatedResult[T any] struct {
	Items      []T               `json:"items"`
	Pagination *CursorPagination `json:"pagination"`
}

// NewCursorPagination builds cursor metadata from an over-fetched page.
// Callers fetch limit+1 rows; the extra row only signals that a next page
// exists and is trimmed before returning. HasPrev is left false because
// only the caller knows whether a cursor was supplied.
func NewCursorPagination[T any](items []T, limit int, getID func(T) string, getCreatedAt func(T) time.Time) (*CursorPagination, []T) {
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	meta := &CursorPagination{
		Limit:   limit,
		HasNext: hasMore,
	}

	if len(items) > 0 {
		last := items[len(items)-1]
		next := EncodeCursor(getID(last), getCreatedAt(last))
		meta.NextCursor = &next

		first := items[0]
		prev := EncodeCursor(getID(first), getCreatedAt(first))
		meta.PrevCursor = &prev
	}

	return meta, items
}

func NewCursorPaginatedResult[T any](items []T, pagination *CursorPagination) *CursorPaginatedResult[T] {
	return &CursorPaginatedResult[T]{Items: items, Pagination: pagination}
}
