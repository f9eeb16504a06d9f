package items

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/iho/checkledger/internal/domain"
)

// prefixEnd sorts after every sort key sharing a prefix. Sort keys are ASCII
// and stores compare them bytewise.
const prefixEnd = "\U0010FFFF"

// Range is the set of sort keys a query may return.
type Range struct {
	Lower     string
	Upper     string
	LowerOpen bool // Lower itself excluded
	UpperOpen bool // Upper itself excluded
	HasLower  bool
	HasUpper  bool
}

// Contains reports whether sk falls inside r.
func (r Range) Contains(sk string) bool {
	if r.HasLower {
		if sk < r.Lower || (r.LowerOpen && sk == r.Lower) {
			return false
		}
	}
	if r.HasUpper {
		if sk > r.Upper || (r.UpperOpen && sk == r.Upper) {
			return false
		}
	}
	return true
}

// Range resolves the prefix, bounds and cursor of q into one range.
func (q Query) Range() (Range, error) {
	var r Range

	switch {
	case q.Prefix != "":
		r = Range{Lower: q.Prefix, Upper: q.Prefix + prefixEnd, HasLower: true, HasUpper: true}
	default:
		r = Range{Lower: q.From, Upper: q.To, HasLower: q.From != "", HasUpper: q.To != ""}
	}

	if q.Cursor == "" {
		return r, nil
	}

	after, err := DecodeCursor(q.Cursor)
	if err != nil {
		return Range{}, err
	}

	if q.Descending {
		if !r.HasUpper || after <= r.Upper {
			r.Upper, r.UpperOpen, r.HasUpper = after, true, true
		}
	} else {
		if !r.HasLower || after >= r.Lower {
			r.Lower, r.LowerOpen, r.HasLower = after, true, true
		}
	}

	return r, nil
}

// FetchLimit is how many items a backend should read to fill one page of q
// and know whether another follows. Zero means no limit.
func (q Query) FetchLimit() int {
	if q.Limit <= 0 {
		return 0
	}
	return q.Limit + 1
}

// NewPage trims items, already in query order and at most FetchLimit long,
// to one page and sets NextCursor when more remain.
func NewPage(q Query, items []*Item) *Page {
	if q.Limit <= 0 || len(items) <= q.Limit {
		return &Page{Items: items}
	}

	items = items[:q.Limit]
	return &Page{
		Items:      items,
		NextCursor: EncodeCursor(items[len(items)-1].SortKey(q.Index)),
	}
}

// EncodeCursor renders the sort key a page ended at as an opaque token.
func EncodeCursor(sortKey string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(sortKey))
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(cursor string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(cursor))
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCursor, cursor)
	}
	return string(raw), nil
}
