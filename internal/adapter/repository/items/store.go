// Package items maps the ledger onto a partitioned item store: items live in
// a partition (PK), are ordered by a sort key (SK) and may carry a second
// partition/sort pair (GSI1) for an alternate access path. Writes commit in
// all-or-nothing batches guarded by per-item conditions.
package items

import (
	"context"
	"errors"
)

// ErrItemNotFound is returned by Store.Get when no item has the key.
var ErrItemNotFound = errors.New("item not found")

// ErrInvalidBatch is returned by Commit for batches it cannot apply, such as
// an empty batch or one touching the same key twice.
var ErrInvalidBatch = errors.New("invalid write batch")

// Store is the persistence port the ledger runs on.
//
// Commit applies every write or none of them. When any condition does not
// hold it returns domain.ErrConditionFailed. Failures worth retrying after a
// delay are reported as domain.ErrTransient; anything else is fatal.
type Store interface {
	Get(ctx context.Context, key Key) (*Item, error)
	Commit(ctx context.Context, writes []Write) error
	Query(ctx context.Context, q Query) (*Page, error)
}

// Pinger is implemented by stores that can report their own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key identifies an item.
type Key struct {
	PK string
	SK string
}

func (k Key) String() string {
	return k.PK + "|" + k.SK
}

// Less orders keys by partition, then sort key.
func (k Key) Less(other Key) bool {
	if k.PK != other.PK {
		return k.PK < other.PK
	}
	return k.SK < other.SK
}

// Item is a stored record. Attribute values are canonical strings.
type Item struct {
	PK     string            `json:"pk"`
	SK     string            `json:"sk"`
	GSI1PK string            `json:"gsi1pk,omitempty"`
	GSI1SK string            `json:"gsi1sk,omitempty"`
	Attrs  map[string]string `json:"attrs"`
}

// Key returns the primary key of the item.
func (i *Item) Key() Key {
	return Key{PK: i.PK, SK: i.SK}
}

// Partition returns the partition key of the item in idx.
func (i *Item) Partition(idx Index) string {
	if idx == IndexGSI1 {
		return i.GSI1PK
	}
	return i.PK
}

// SortKey returns the sort key of the item in idx.
func (i *Item) SortKey(idx Index) string {
	if idx == IndexGSI1 {
		return i.GSI1SK
	}
	return i.SK
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	c.Attrs = make(map[string]string, len(i.Attrs))
	for k, v := range i.Attrs {
		c.Attrs[k] = v
	}
	return &c
}

// Index selects the access path of a query.
type Index uint8

const (
	IndexPrimary Index = iota
	IndexGSI1
)

func (idx Index) String() string {
	if idx == IndexGSI1 {
		return "gsi1"
	}
	return "primary"
}

// Query reads one partition of an index in sort key order.
//
// Prefix restricts results to sort keys starting with it. Otherwise From and To
// are inclusive bounds, each optional. Limit <= 0 returns every match.
type Query struct {
	Index      Index
	Partition  string
	Prefix     string
	From       string
	To         string
	Descending bool
	Limit      int
	Cursor     string
}

// Page is one page of query results. NextCursor is empty exactly when no
// further item matches.
type Page struct {
	Items      []*Item
	NextCursor string
}
