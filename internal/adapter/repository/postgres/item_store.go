// Package postgres implements items.Store on a single PostgreSQL table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/checkledger/internal/adapter/repository/items"
	"github.com/iho/checkledger/internal/domain"
)

// DefaultTable is the table created by the bundled migrations.
const DefaultTable = "ledger_items"

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// ItemStore implements items.Store.
//
// A commit runs in one database transaction. Rows the batch touches are read
// with SELECT ... FOR UPDATE in key order, conditions are checked against the
// locked rows, and the writes are applied before committing. Conditional
// inserts of new keys rely on ON CONFLICT DO NOTHING, since absent rows hold no
// lock.
type ItemStore struct {
	pool  pgxPool
	table string
}

// NewItemStore creates an ItemStore on table.
func NewItemStore(pool *pgxpool.Pool, table string) (*ItemStore, error) {
	return newItemStoreWithPool(pool, table)
}

func newItemStoreWithPool(pool pgxPool, table string) (*ItemStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ItemStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

const itemColumns = "pk, sk, gsi1pk, gsi1sk, attrs"

// Get retrieves one item.
func (s *ItemStore) Get(ctx context.Context, key items.Key) (*items.Item, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM "+s.table+" WHERE pk = $1 AND sk = $2",
		key.PK, key.SK)

	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, items.ErrItemNotFound
	}
	if err != nil {
		return nil, mapError(err)
	}
	return item, nil
}

// Commit applies writes atomically.
func (s *ItemStore) Commit(ctx context.Context, writes []items.Write) error {
	if err := items.ValidateBatch(writes); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapError(err)
	}
	defer tx.Rollback(ctx)

	current := make(map[items.Key]*items.Item, len(writes))
	for _, key := range items.SortedKeys(writes) {
		item, err := scanItem(tx.QueryRow(ctx,
			"SELECT "+itemColumns+" FROM "+s.table+" WHERE pk = $1 AND sk = $2 FOR UPDATE",
			key.PK, key.SK))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			current[key] = nil
		case err != nil:
			return mapError(err)
		default:
			current[key] = item
		}
	}

	if err := items.CheckConditions(writes, current); err != nil {
		return err
	}

	for i, w := range writes {
		if err := s.apply(ctx, tx, w, current[w.Key]); err != nil {
			if errors.Is(err, errInsertConflict) {
				return fmt.Errorf("%w: write %d (%s %s) requires %s", domain.ErrConditionFailed, i, w.Kind, w.Key, w.Condition)
			}
			return mapError(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(err)
	}
	return nil
}

var errInsertConflict = errors.New("insert conflict")

func (s *ItemStore) apply(ctx context.Context, tx pgx.Tx, w items.Write, current *items.Item) error {
	if w.Kind == items.WriteDelete {
		_, err := tx.Exec(ctx, "DELETE FROM "+s.table+" WHERE pk = $1 AND sk = $2", w.Key.PK, w.Key.SK)
		return err
	}

	next, err := w.Apply(current)
	if err != nil {
		return err
	}

	attrs, err := json.Marshal(next.Attrs)
	if err != nil {
		return err
	}

	if w.Kind == items.WritePut && w.Condition != nil && w.Condition.Kind == items.CondNotExists {
		tag, err := tx.Exec(ctx,
			"INSERT INTO "+s.table+" ("+itemColumns+") VALUES ($1, $2, $3, $4, $5) ON CONFLICT (pk, sk) DO NOTHING",
			next.PK, next.SK, next.GSI1PK, next.GSI1SK, attrs)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errInsertConflict
		}
		return nil
	}

	_, err = tx.Exec(ctx,
		"INSERT INTO "+s.table+" ("+itemColumns+") VALUES ($1, $2, $3, $4, $5) "+
			"ON CONFLICT (pk, sk) DO UPDATE SET gsi1pk = EXCLUDED.gsi1pk, gsi1sk = EXCLUDED.gsi1sk, attrs = EXCLUDED.attrs, updated_at = now()",
		next.PK, next.SK, next.GSI1PK, next.GSI1SK, attrs)
	return err
}

// Query reads one partition of an index in sort key order.
func (s *ItemStore) Query(ctx context.Context, q items.Query) (*items.Page, error) {
	r, err := q.Range()
	if err != nil {
		return nil, err
	}

	sql, args := s.buildQuery(q, r)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []*items.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, mapError(err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return items.NewPage(q, result), nil
}

func (s *ItemStore) buildQuery(q items.Query, r items.Range) (string, []any) {
	partCol, sortCol := "pk", "sk"
	if q.Index == items.IndexGSI1 {
		partCol, sortCol = "gsi1pk", "gsi1sk"
	}

	var b strings.Builder
	args := []any{q.Partition}

	b.WriteString("SELECT " + itemColumns + " FROM " + s.table + " WHERE " + partCol + " = $1")

	if r.HasLower {
		op := ">="
		if r.LowerOpen {
			op = ">"
		}
		args = append(args, r.Lower)
		fmt.Fprintf(&b, " AND %s %s $%d", sortCol, op, len(args))
	}
	if r.HasUpper {
		op := "<="
		if r.UpperOpen {
			op = "<"
		}
		args = append(args, r.Upper)
		fmt.Fprintf(&b, " AND %s %s $%d", sortCol, op, len(args))
	}

	if q.Descending {
		b.WriteString(" ORDER BY " + sortCol + " DESC")
	} else {
		b.WriteString(" ORDER BY " + sortCol + " ASC")
	}

	if limit := q.FetchLimit(); limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", limit)
	}

	return b.String(), args
}

// Ping verifies the database is reachable.
func (s *ItemStore) Ping(ctx context.Context) error {
	return mapError(s.pool.Ping(ctx))
}

func scanItem(row pgx.Row) (*items.Item, error) {
	var (
		item  items.Item
		attrs []byte
	)
	if err := row.Scan(&item.PK, &item.SK, &item.GSI1PK, &item.GSI1SK, &attrs); err != nil {
		return nil, err
	}

	item.Attrs = map[string]string{}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &item.Attrs); err != nil {
			return nil, fmt.Errorf("decode attrs of %s|%s: %w", item.PK, item.SK, err)
		}
	}
	return &item, nil
}
