package items

import (
	"strings"

	"github.com/iho/checkledger/internal/domain"
)

// Key prefixes of the single-table layout.
const (
	AccountPrefix   = "ACCOUNT#"
	MetadataSortKey = "METADATA"
	TypePrefix      = "TYPE#"
	OutboxPartition = "OUTBOX"
	OutboxPrefix    = "EVT#"
)

// AccountPartition is the partition holding an account and its log.
func AccountPartition(accountID string) string {
	return AccountPrefix + accountID
}

// AccountKey is the key of an account record.
func AccountKey(accountID string) Key {
	return Key{PK: AccountPartition(accountID), SK: MetadataSortKey}
}

// EntryItemKey is the key of a log entry.
func EntryItemKey(accountID, entryKey string) Key {
	return Key{PK: AccountPartition(accountID), SK: entryKey}
}

// TypeSortKey is the GSI1 sort key of an entry, grouping entries by type and
// keeping commit order inside each group.
func TypeSortKey(entryType domain.EntryType, entryKey string) string {
	return TypePrefix + entryType.String() + "#" + entryKey
}

// TypeSortKeyPrefix is the GSI1 sort key prefix of all entries of one type.
func TypeSortKeyPrefix(entryType domain.EntryType) string {
	return TypePrefix + entryType.String() + "#"
}

// OutboxKey is the key of an outbox event.
func OutboxKey(eventID string) Key {
	return Key{PK: OutboxPartition, SK: OutboxPrefix + eventID}
}

func accountIDFromPartition(pk string) string {
	return strings.TrimPrefix(pk, AccountPrefix)
}
