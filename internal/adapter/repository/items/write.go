package items

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
)

// WriteKind is the operation a Write performs.
type WriteKind uint8

const (
	WritePut WriteKind = iota + 1
	WriteUpdate
	WriteDelete
)

func (k WriteKind) String() string {
	switch k {
	case WritePut:
		return "put"
	case WriteUpdate:
		return "update"
	case WriteDelete:
		return "delete"
	default:
		return fmt.Sprintf("WriteKind(%d)", uint8(k))
	}
}

// ConditionKind is the check a Condition performs against the current item.
type ConditionKind uint8

const (
	CondAttrEquals ConditionKind = iota + 1
	CondNotExists
	CondExists
)

// Condition guards a write. A write with a nil condition always applies.
type Condition struct {
	Kind  ConditionKind
	Attr  string
	Value string
}

// AttrEquals requires the item to exist with attr set to value.
func AttrEquals(attr, value string) *Condition {
	return &Condition{Kind: CondAttrEquals, Attr: attr, Value: value}
}

// NotExists requires that no item has the key.
func NotExists() *Condition {
	return &Condition{Kind: CondNotExists}
}

// Exists requires an item with the key.
func Exists() *Condition {
	return &Condition{Kind: CondExists}
}

// Holds reports whether c is satisfied by current, which is nil when the item
// does not exist.
func (c *Condition) Holds(current *Item) bool {
	if c == nil {
		return true
	}

	switch c.Kind {
	case CondNotExists:
		return current == nil
	case CondExists:
		return current != nil
	case CondAttrEquals:
		if current == nil {
			return false
		}
		v, ok := current.Attrs[c.Attr]
		return ok && v == c.Value
	default:
		return false
	}
}

func (c *Condition) String() string {
	if c == nil {
		return "always"
	}
	switch c.Kind {
	case CondNotExists:
		return "not exists"
	case CondExists:
		return "exists"
	case CondAttrEquals:
		return fmt.Sprintf("%s == %q", c.Attr, c.Value)
	default:
		return "invalid"
	}
}

// Write is one element of an atomic batch.
type Write struct {
	Kind      WriteKind
	Key       Key
	Item      *Item                      // put
	Set       map[string]string          // update
	Add       map[string]decimal.Decimal // update, decimal attributes
	Condition *Condition
}

// Put stores item, replacing any existing item with the same key.
func Put(item *Item, cond *Condition) Write {
	return Write{Kind: WritePut, Key: item.Key(), Item: item, Condition: cond}
}

// Update changes attributes of the item at key in place. Add attributes hold
// money: a missing one counts as zero and results are stored at money scale.
func Update(key Key, set map[string]string, add map[string]decimal.Decimal, cond *Condition) Write {
	return Write{Kind: WriteUpdate, Key: key, Set: set, Add: add, Condition: cond}
}

// Delete removes the item at key. Deleting a missing item is a no-op.
func Delete(key Key, cond *Condition) Write {
	return Write{Kind: WriteDelete, Key: key, Condition: cond}
}

// Apply returns the item that results from w against current. It returns nil
// when the item ends up absent. Conditions are not evaluated here.
func (w Write) Apply(current *Item) (*Item, error) {
	switch w.Kind {
	case WritePut:
		return w.Item.Clone(), nil
	case WriteDelete:
		return nil, nil
	case WriteUpdate:
		next := current.Clone()
		if next == nil {
			next = &Item{PK: w.Key.PK, SK: w.Key.SK, Attrs: map[string]string{}}
		}
		for attr, v := range w.Set {
			next.Attrs[attr] = v
		}
		for attr, delta := range w.Add {
			base := decimal.Zero
			if raw, ok := next.Attrs[attr]; ok && raw != "" {
				parsed, err := decimal.NewFromString(raw)
				if err != nil {
					return nil, fmt.Errorf("add to %s of %s: %w", attr, w.Key, err)
				}
				base = parsed
			}
			next.Attrs[attr] = domain.FormatMoney(base.Add(delta))
		}
		return next, nil
	default:
		return nil, fmt.Errorf("%w: unknown write kind %d", ErrInvalidBatch, w.Kind)
	}
}

// ValidateBatch rejects empty batches and batches that touch a key twice.
func ValidateBatch(writes []Write) error {
	if len(writes) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidBatch)
	}

	seen := make(map[Key]struct{}, len(writes))
	for _, w := range writes {
		if w.Kind == WritePut && w.Item == nil {
			return fmt.Errorf("%w: put of %s without item", ErrInvalidBatch, w.Key)
		}
		if _, dup := seen[w.Key]; dup {
			return fmt.Errorf("%w: key %s written twice", ErrInvalidBatch, w.Key)
		}
		seen[w.Key] = struct{}{}
	}

	return nil
}

// SortedKeys returns the distinct keys of writes in Key order. Stores that
// lock rows acquire them in this order.
func SortedKeys(writes []Write) []Key {
	keys := make([]Key, 0, len(writes))
	for _, w := range writes {
		keys = append(keys, w.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// CheckConditions evaluates every condition against the current items, keyed
// by Key. It returns a wrapped domain.ErrConditionFailed naming the first
// write that does not hold.
func CheckConditions(writes []Write, current map[Key]*Item) error {
	for i, w := range writes {
		if !w.Condition.Holds(current[w.Key]) {
			return fmt.Errorf("%w: write %d (%s %s) requires %s", domain.ErrConditionFailed, i, w.Kind, w.Key, w.Condition)
		}
	}
	return nil
}
