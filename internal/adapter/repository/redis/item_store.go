package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/iho/checkledger/internal/adapter/repository/items"
	"github.com/iho/checkledger/internal/domain"
)

// ItemStore implements items.Store on Redis.
//
// Each item is a JSON string. Every partition of each index is a sorted set
// with all scores at zero, so members order lexically by sort key. GSI1 sort
// keys are unique within a partition and a hash maps them to the item key.
//
// Commits run under WATCH on every item key of the batch: conditions are
// checked against the watched values and the writes go out in one MULTI/EXEC.
// A concurrent change to any watched key aborts the transaction, which is
// reported as domain.ErrConditionFailed.
type ItemStore struct {
	client redis.UniversalClient
	ns     string
}

// NewItemStore creates an ItemStore whose keys live under namespace.
func NewItemStore(client redis.UniversalClient, namespace string) *ItemStore {
	if namespace == "" {
		namespace = "ledger"
	}
	return &ItemStore{client: client, ns: namespace}
}

func (s *ItemStore) itemKey(k items.Key) string { return s.ns + ":item:" + k.String() }

func (s *ItemStore) primaryIndexKey(pk string) string { return s.ns + ":idx:primary:" + pk }

func (s *ItemStore) gsi1IndexKey(pk string) string { return s.ns + ":idx:gsi1:" + pk }

func (s *ItemStore) gsi1RefsKey(pk string) string { return s.ns + ":ref:gsi1:" + pk }

// Get retrieves one item.
func (s *ItemStore) Get(ctx context.Context, key items.Key) (*items.Item, error) {
	raw, err := s.client.Get(ctx, s.itemKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, items.ErrItemNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return decodeItem(raw)
}

// Commit applies writes atomically.
func (s *ItemStore) Commit(ctx context.Context, writes []items.Write) error {
	if err := items.ValidateBatch(writes); err != nil {
		return err
	}

	keys := items.SortedKeys(writes)
	watched := make([]string, len(keys))
	for i, k := range keys {
		watched[i] = s.itemKey(k)
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current := make(map[items.Key]*items.Item, len(keys))
		for _, k := range keys {
			raw, err := tx.Get(ctx, s.itemKey(k)).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				current[k] = nil
			case err != nil:
				return err
			default:
				item, err := decodeItem(raw)
				if err != nil {
					return err
				}
				current[k] = item
			}
		}

		if err := items.CheckConditions(writes, current); err != nil {
			return err
		}

		next := make([]*items.Item, len(writes))
		for i, w := range writes {
			item, err := w.Apply(current[w.Key])
			if err != nil {
				return err
			}
			next[i] = item
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, w := range writes {
				if err := s.queueWrite(ctx, pipe, w.Key, current[w.Key], next[i]); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	}, watched...)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%w: concurrent change to %d watched items", domain.ErrConditionFailed, len(watched))
	case errors.Is(err, domain.ErrConditionFailed), errors.Is(err, items.ErrInvalidBatch):
		return err
	default:
		return mapError(err)
	}
}

func (s *ItemStore) queueWrite(ctx context.Context, pipe redis.Pipeliner, key items.Key, old, next *items.Item) error {
	if old != nil && old.GSI1PK != "" && (next == nil || next.GSI1PK != old.GSI1PK || next.GSI1SK != old.GSI1SK) {
		pipe.ZRem(ctx, s.gsi1IndexKey(old.GSI1PK), old.GSI1SK)
		pipe.HDel(ctx, s.gsi1RefsKey(old.GSI1PK), old.GSI1SK)
	}

	if next == nil {
		pipe.Del(ctx, s.itemKey(key))
		pipe.ZRem(ctx, s.primaryIndexKey(key.PK), key.SK)
		return nil
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return err
	}
	pipe.Set(ctx, s.itemKey(key), raw, 0)
	pipe.ZAdd(ctx, s.primaryIndexKey(key.PK), redis.Z{Member: key.SK})
	if next.GSI1PK != "" {
		pipe.ZAdd(ctx, s.gsi1IndexKey(next.GSI1PK), redis.Z{Member: next.GSI1SK})
		pipe.HSet(ctx, s.gsi1RefsKey(next.GSI1PK), next.GSI1SK, key.String())
	}
	return nil
}

// Query reads one partition of an index in sort key order.
func (s *ItemStore) Query(ctx context.Context, q items.Query) (*items.Page, error) {
	r, err := q.Range()
	if err != nil {
		return nil, err
	}

	indexKey := s.primaryIndexKey(q.Partition)
	if q.Index == items.IndexGSI1 {
		indexKey = s.gsi1IndexKey(q.Partition)
	}

	by := lexRange(r)
	by.Count = int64(q.FetchLimit())

	var sortKeys []string
	if q.Descending {
		sortKeys, err = s.client.ZRevRangeByLex(ctx, indexKey, by).Result()
	} else {
		sortKeys, err = s.client.ZRangeByLex(ctx, indexKey, by).Result()
	}
	if err != nil {
		return nil, mapError(err)
	}
	if len(sortKeys) == 0 {
		return items.NewPage(q, nil), nil
	}

	itemKeys, err := s.resolve(ctx, q, sortKeys)
	if err != nil {
		return nil, err
	}

	values, err := s.client.MGet(ctx, itemKeys...).Result()
	if err != nil {
		return nil, mapError(err)
	}

	result := make([]*items.Item, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// deleted between the index read and the item read
			continue
		}
		item, err := decodeItem([]byte(raw))
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}

	return items.NewPage(q, result), nil
}

func (s *ItemStore) resolve(ctx context.Context, q items.Query, sortKeys []string) ([]string, error) {
	itemKeys := make([]string, 0, len(sortKeys))
	if q.Index != items.IndexGSI1 {
		for _, sk := range sortKeys {
			itemKeys = append(itemKeys, s.itemKey(items.Key{PK: q.Partition, SK: sk}))
		}
		return itemKeys, nil
	}

	refs, err := s.client.HMGet(ctx, s.gsi1RefsKey(q.Partition), sortKeys...).Result()
	if err != nil {
		return nil, mapError(err)
	}
	for _, ref := range refs {
		if k, ok := ref.(string); ok {
			itemKeys = append(itemKeys, s.ns+":item:"+k)
		}
	}
	return itemKeys, nil
}

// Ping verifies Redis is reachable.
func (s *ItemStore) Ping(ctx context.Context) error {
	return mapError(s.client.Ping(ctx).Err())
}

func lexRange(r items.Range) *redis.ZRangeBy {
	by := &redis.ZRangeBy{Min: "-", Max: "+"}
	if r.HasLower {
		by.Min = lexBound(r.Lower, r.LowerOpen)
	}
	if r.HasUpper {
		by.Max = lexBound(r.Upper, r.UpperOpen)
	}
	return by
}

func lexBound(v string, open bool) string {
	if open {
		return "(" + v
	}
	return "[" + v
}

func decodeItem(raw []byte) (*items.Item, error) {
	var item items.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if item.Attrs == nil {
		item.Attrs = map[string]string{}
	}
	return &item, nil
}

// mapError wraps connection level failures with domain.ErrTransient.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", domain.ErrTransient, err)
	}
	for _, prefix := range []string{"LOADING", "BUSY", "TRYAGAIN", "CLUSTERDOWN", "MASTERDOWN"} {
		if redis.HasErrorPrefix(err, prefix) {
			return fmt.Errorf("%w: %w", domain.ErrTransient, err)
		}
	}
	return err
}
