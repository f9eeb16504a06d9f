package items

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/checkledger/internal/domain"
)

// Attribute names.
const (
	attrHolderName     = "holder_name"
	attrBalance        = "balance"
	attrInitialBalance = "initial_balance"
	attrStatus         = "status"
	attrVersion        = "version"
	attrLastEntryAt    = "last_entry_at"
	attrCreatedAt      = "created_at"
	attrUpdatedAt      = "updated_at"

	attrType           = "type"
	attrAmount         = "amount"
	attrBalanceAfter   = "balance_after"
	attrDescription    = "description"
	attrReversalOf     = "reversal_of"
	attrReversed       = "reversed"
	attrAccountVersion = "account_version"

	attrAggregateID   = "aggregate_id"
	attrAggregateType = "aggregate_type"
	attrEventType     = "event_type"
	attrPayload       = "payload"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(attrs map[string]string, attr string) (time.Time, error) {
	raw := attrs[attr]
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode %s: %w", attr, err)
	}
	return t.UTC(), nil
}

func parseDecimal(attrs map[string]string, attr string) (decimal.Decimal, error) {
	raw := attrs[attr]
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode %s: %w", attr, err)
	}
	return domain.RoundMoney(d), nil
}

func parseInt(attrs map[string]string, attr string) (int64, error) {
	v, err := strconv.ParseInt(attrs[attr], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", attr, err)
	}
	return v, nil
}

func formatVersion(v int64) string {
	return strconv.FormatInt(v, 10)
}

func accountToItem(a *domain.Account) *Item {
	key := AccountKey(a.ID)
	return &Item{
		PK: key.PK,
		SK: key.SK,
		Attrs: map[string]string{
			attrHolderName:     a.HolderName,
			attrBalance:        domain.FormatMoney(a.Balance),
			attrInitialBalance: domain.FormatMoney(a.InitialBalance),
			attrStatus:         string(a.Status),
			attrVersion:        formatVersion(a.Version),
			attrLastEntryAt:    formatTime(a.LastEntryAt),
			attrCreatedAt:      formatTime(a.CreatedAt),
			attrUpdatedAt:      formatTime(a.UpdatedAt),
		},
	}
}

func itemToAccount(item *Item) (*domain.Account, error) {
	var (
		a   = &domain.Account{ID: accountIDFromPartition(item.PK)}
		err error
	)

	a.HolderName = item.Attrs[attrHolderName]
	a.Status = domain.AccountStatus(item.Attrs[attrStatus])

	if a.Balance, err = parseDecimal(item.Attrs, attrBalance); err != nil {
		return nil, err
	}
	if a.InitialBalance, err = parseDecimal(item.Attrs, attrInitialBalance); err != nil {
		return nil, err
	}
	if a.Version, err = parseInt(item.Attrs, attrVersion); err != nil {
		return nil, err
	}
	if a.LastEntryAt, err = parseTime(item.Attrs, attrLastEntryAt); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(item.Attrs, attrCreatedAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(item.Attrs, attrUpdatedAt); err != nil {
		return nil, err
	}

	return a, nil
}

func entryToItem(e *domain.Entry) *Item {
	key := EntryItemKey(e.AccountID, e.Key)
	return &Item{
		PK:     key.PK,
		SK:     key.SK,
		GSI1PK: key.PK,
		GSI1SK: TypeSortKey(e.Type, e.Key),
		Attrs: map[string]string{
			attrType:           e.Type.String(),
			attrAmount:         domain.FormatMoney(e.Amount),
			attrBalanceAfter:   domain.FormatMoney(e.BalanceAfter),
			attrDescription:    e.Description,
			attrReversalOf:     e.ReversalOf,
			attrReversed:       strconv.FormatBool(e.Reversed),
			attrAccountVersion: formatVersion(e.AccountVersion),
			attrCreatedAt:      formatTime(e.CreatedAt),
		},
	}
}

func itemToEntry(item *Item) (*domain.Entry, error) {
	var (
		e = &domain.Entry{
			AccountID:   accountIDFromPartition(item.PK),
			Key:         item.SK,
			Description: item.Attrs[attrDescription],
			ReversalOf:  item.Attrs[attrReversalOf],
		}
		err error
	)

	if e.Type, err = domain.ParseEntryType(item.Attrs[attrType]); err != nil {
		return nil, err
	}
	if e.Amount, err = parseDecimal(item.Attrs, attrAmount); err != nil {
		return nil, err
	}
	if e.BalanceAfter, err = parseDecimal(item.Attrs, attrBalanceAfter); err != nil {
		return nil, err
	}
	if e.AccountVersion, err = parseInt(item.Attrs, attrAccountVersion); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(item.Attrs, attrCreatedAt); err != nil {
		return nil, err
	}
	e.Reversed = item.Attrs[attrReversed] == "true"

	return e, nil
}

func outboxToItem(ev *domain.OutboxEvent) (*Item, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, err
	}

	key := OutboxKey(ev.ID)
	return &Item{
		PK: key.PK,
		SK: key.SK,
		Attrs: map[string]string{
			attrAggregateID:   ev.AggregateID,
			attrAggregateType: ev.AggregateType,
			attrEventType:     ev.EventType,
			attrPayload:       string(payload),
			attrCreatedAt:     formatTime(ev.CreatedAt),
		},
	}, nil
}

func itemToOutbox(item *Item) (*domain.OutboxEvent, error) {
	ev := &domain.OutboxEvent{
		ID:            item.SK[len(OutboxPrefix):],
		AggregateID:   item.Attrs[attrAggregateID],
		AggregateType: item.Attrs[attrAggregateType],
		EventType:     item.Attrs[attrEventType],
	}

	if raw := item.Attrs[attrPayload]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", attrPayload, err)
		}
	}

	createdAt, err := parseTime(item.Attrs, attrCreatedAt)
	if err != nil {
		return nil, err
	}
	ev.CreatedAt = createdAt

	return ev, nil
}
