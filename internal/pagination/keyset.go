// internal/pagination/keyset.go
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// Cursor is the keyset position shared by every list endpoint: the ordering key
// and the row id of the last item on the previous page. Ordering is always
// (order key desc, id desc); the id tie-break is what keeps pages stable when
// many rows share a timestamp. Callers only ever see the encoded token.
type Cursor struct {
	OrderKey *time.Time `json:"k"`
	ID       string     `json:"id"`
}

// Encode renders the cursor as an opaque token.
func (c Cursor) Encode() string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode parses a token produced by Encode. An empty token means "first page"
// and decodes to nil. A malformed token is a caller error, not a server fault.
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("invalid cursor: missing id")
	}
	return &c, nil
}

// Accepts reports whether a row at (key, id) belongs strictly after the cursor
// under (order key desc, id desc): a strictly older key, or the same key with a
// strictly smaller id. A nil cursor accepts everything. Rows with a null key
// sort last: any keyed cursor admits them, a null-key cursor admits only
// null-key rows with a smaller id.
func (c *Cursor) Accepts(key *time.Time, id string) bool {
	if c == nil {
		return true
	}
	if c.OrderKey == nil {
		return key == nil && id < c.ID
	}
	if key == nil {
		return true
	}
	if key.Before(*c.OrderKey) {
		return true
	}
	return key.Equal(*c.OrderKey) && id < c.ID
}

// ClampLimit applies the shared page-size policy: def when unset or negative,
// capped at max.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// NextToken builds the token for the following page from the last returned row,
// or "" when the page was empty.
func NextToken(orderKey *time.Time, id string) string {
	if id == "" {
		return ""
	}
	return Cursor{OrderKey: orderKey, ID: id}.Encode()
}
