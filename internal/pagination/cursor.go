// Package pagination implements keyset cursors for node listings.
package pagination

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Cursor points just past the last item of the previous page. Listings
// order by (created_at DESC, id DESC), so the pair is a stable keyset.
type Cursor struct {
	LastID    string
	CreatedAt time.Time
}

var ErrInvalidCursor = errors.New("invalid cursor format")

// Encode creates an opaque cursor from the last item of a page.
func Encode(lastID string, createdAt time.Time) string {
	if lastID == "" {
		return ""
	}
	raw := lastID + "|" + createdAt.UTC().Format(time.RFC3339Nano)
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// Decode parses an opaque cursor. An empty cursor decodes to nil,
// meaning "first page".
func Decode(cursor string) (*Cursor, error) {
	if cursor == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, ErrInvalidCursor
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &Cursor{LastID: parts[0], CreatedAt: createdAt}, nil
}
