package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Query filters a ledger read. All fields are optional; an empty GroupID is
// resolved against the caller's current group context by the ledger.
type Query struct {
	Start      *time.Time
	End        *time.Time
	Categories []string
	Locations  []string
	Products   []string
	Types      []TransactionType
	UserID     string
	GroupID    string
	Limit      int
}

// CacheKey returns a canonical serialization of the query. The group id is the
// leading segment so every key for a group shares a common prefix and can be
// dropped in one invalidation pass.
func (q Query) CacheKey() string {
	var b strings.Builder
	b.WriteString(GroupKeyPrefix(q.GroupID))
	b.WriteString("tx")
	if q.Start != nil {
		b.WriteString("|s=")
		b.WriteString(strconv.FormatInt(q.Start.UnixMilli(), 10))
	}
	if q.End != nil {
		b.WriteString("|e=")
		b.WriteString(strconv.FormatInt(q.End.UnixMilli(), 10))
	}
	writeSet(&b, "c", q.Categories)
	writeSet(&b, "l", q.Locations)
	writeSet(&b, "p", q.Products)
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		writeSet(&b, "t", types)
	}
	if q.UserID != "" {
		b.WriteString("|u=")
		b.WriteString(q.UserID)
	}
	if q.Limit > 0 {
		b.WriteString("|n=")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	return b.String()
}

// Matches applies the client-side filters: category, location, product, type
// and user. Group and date range are filtered by the store.
func (q Query) Matches(tx Transaction) bool {
	if q.UserID != "" && tx.UserID != q.UserID {
		return false
	}
	if len(q.Categories) > 0 && !containsString(q.Categories, tx.Category) {
		return false
	}
	if len(q.Locations) > 0 && !containsString(q.Locations, tx.Location) {
		return false
	}
	if len(q.Products) > 0 && !containsString(q.Products, tx.ProductName) {
		return false
	}
	if len(q.Types) > 0 {
		found := false
		for _, t := range q.Types {
			if tx.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// GroupKeyPrefix is the shared cache key prefix for a group scope.
func GroupKeyPrefix(groupID string) string {
	return fmt.Sprintf("g:%s|", groupID)
}

func writeSet(b *strings.Builder, tag string, values []string) {
	if len(values) == 0 {
		return
	}
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	b.WriteString("|")
	b.WriteString(tag)
	b.WriteString("=")
	b.WriteString(strings.Join(sorted, ","))
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
