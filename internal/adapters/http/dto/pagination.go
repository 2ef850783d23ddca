package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

const (
	// DefaultLimit is the page size when the request names none.
	DefaultLimit = 20

	// MaxLimit caps the page size.
	MaxLimit = 100
)

var (
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrStaleCursor means the collection was replaced or grew since the
	// cursor was issued, so its offset no longer points at the same quote.
	ErrStaleCursor = errors.New("stale cursor: collection changed, restart from the first page")
)

// PaginationRequest carries the list query parameters.
type PaginationRequest struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// PageSize clamps Limit into [1, MaxLimit], defaulting to DefaultLimit.
func (p *PaginationRequest) PageSize() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// PaginatedResponse is one page of a list endpoint.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// Cursor points into the quote collection. Offset is the index of the first
// quote of the next page; Total is the collection size when it was issued.
type Cursor struct {
	Offset int `json:"o"`
	Total  int `json:"n"`
}

// EncodeCursor renders c as an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	b, _ := json.Marshal(c) //nolint:errchkjson // two ints
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	var c Cursor

	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, ErrInvalidCursor
	}

	if err := json.Unmarshal(b, &c); err != nil || c.Offset <= 0 || c.Total <= 0 {
		return Cursor{}, ErrInvalidCursor
	}

	return c, nil
}

// PageQuotes returns the page of quotes selected by req. Quotes keep their
// collection order. A cursor issued against a collection of a different size
// yields ErrStaleCursor.
func PageQuotes(quotes []domain.Quote, req *PaginationRequest) (*PaginatedResponse[Quote], error) {
	start := 0

	if req.Cursor != "" {
		c, err := DecodeCursor(req.Cursor)
		if err != nil {
			return nil, err
		}

		if c.Total != len(quotes) {
			return nil, ErrStaleCursor
		}

		if c.Offset >= len(quotes) {
			return nil, ErrInvalidCursor
		}

		start = c.Offset
	}

	end := min(start+req.PageSize(), len(quotes))

	page := &PaginatedResponse[Quote]{Items: make([]Quote, 0, end-start)}
	for _, q := range quotes[start:end] {
		page.Items = append(page.Items, FromQuote(q))
	}

	if end < len(quotes) {
		page.HasMore = true
		page.NextCursor = EncodeCursor(Cursor{Offset: end, Total: len(quotes)})
	}

	return page, nil
}
