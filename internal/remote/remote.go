// Package remote provides access to the multi-device source of truth.
//
// The remote datastore is reachable only through a narrow REST-like API
// (select / insert / update / upsert / delete by filter) with
// at-least-once delivery and no cross-row transactional guarantees.
// Every call the reconciliation engine issues is scoped to the
// authenticated owner via a user_id filter; the Store implementations
// never add that scope themselves.
//
// Upsert keyed on an entity's natural key is the concurrency anchor of
// the whole design: it must be safe to call repeatedly, from multiple
// devices, without creating duplicate rows.
package remote

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpGt  Op = "gt"
	OpGte Op = "gte"
)

// Cond is a single column filter.
type Cond struct {
	Column string
	Op     Op
	Value  string
}

// Eq builds an equality condition.
func Eq(column, value string) Cond {
	return Cond{Column: column, Op: OpEq, Value: value}
}

// Query describes a filtered, optionally ordered and limited selection.
// Day keys order correctly as strings, so range filters on date columns
// use plain string comparison.
type Query struct {
	Conds      []Cond
	OrderBy    string
	Descending bool
	Limit      int
}

// Where starts a query with one condition.
func Where(column string, op Op, value string) Query {
	return Query{Conds: []Cond{{Column: column, Op: op, Value: value}}}
}

// And appends a condition.
func (q Query) And(column string, op Op, value string) Query {
	q.Conds = append(q.Conds, Cond{Column: column, Op: op, Value: value})
	return q
}

// Order sets the ordering column.
func (q Query) Order(column string, descending bool) Query {
	q.OrderBy = column
	q.Descending = descending
	return q
}

// Take sets the result limit.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// Encode renders the query as REST query parameters
// (column=op.value&order=column.desc&limit=n).
func (q Query) Encode() string {
	values := url.Values{}
	for _, c := range q.Conds {
		values.Add(c.Column, string(c.Op)+"."+c.Value)
	}
	if q.OrderBy != "" {
		dir := ".asc"
		if q.Descending {
			dir = ".desc"
		}
		values.Set("order", q.OrderBy+dir)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	return values.Encode()
}

// Store is the narrow remote API consumed by the reconciliation engine
// and the streak calculator.
//
// dest for Select must be a pointer to a slice of row structs; record
// and patch values are marshaled as JSON objects. Implementations
// return ErrOffline-wrapped errors for transport failures so callers
// can distinguish "no network path" from per-record rejections.
type Store interface {
	// Select fetches all rows matching q into dest.
	Select(ctx context.Context, table string, q Query, dest interface{}) error

	// Insert creates a new row.
	Insert(ctx context.Context, table string, record interface{}) error

	// Upsert creates or replaces a row, resolving conflicts on the
	// given columns (the entity's natural key).
	Upsert(ctx context.Context, table string, record interface{}, conflict []string) error

	// Update applies patch to every row matching q.
	Update(ctx context.Context, table string, patch interface{}, q Query) error

	// Delete removes every row matching q.
	Delete(ctx context.Context, table string, q Query) error
}

// joinColumns renders a conflict column list for the wire.
func joinColumns(cols []string) string {
	return strings.Join(cols, ",")
}
