package types

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_SUBSCRIPTION = "subs"
	UUID_PREFIX_PLAN         = "plan"
	UUID_PREFIX_MEMORIAL     = "mem"
	UUID_PREFIX_PURCHASE     = "purch"
	UUID_PREFIX_USER         = "user"
	UUID_PREFIX_TRANSACTION  = "txn"
)

// GenerateUUID returns a lowercase ULID. ULIDs are lexicographically
// sortable by creation time which keeps Mongo indexes append-friendly.
func GenerateUUID() string {
	return strings.ToLower(ulid.Make().String())
}

// GenerateUUIDWithPrefix returns a ULID prefixed with the entity type,
// e.g. subs_01hv3...
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
