package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by tests and offline development.
// It mirrors the hosted API's observable semantics: rows are JSON
// objects, filters compare rendered values, and upserts resolve on the
// given conflict columns without creating duplicates.
type MemStore struct {
	mu     sync.Mutex
	tables map[string][]map[string]interface{}

	err     error
	rejects []rejection
}

type rejection struct {
	table  string
	column string
	value  string
	err    error
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string][]map[string]interface{})}
}

// SetErr forces every subsequent operation to fail with err until
// called again with nil. Use with ErrOffline to simulate losing the
// network mid-cycle.
func (m *MemStore) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// RejectWhere makes any write touching a row whose column renders to
// value fail with err. This simulates per-record server rejections
// that must not abort a batch.
func (m *MemStore) RejectWhere(table, column, value string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejects = append(m.rejects, rejection{table: table, column: column, value: value, err: err})
}

// Count returns the number of rows in a table.
func (m *MemStore) Count(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}

// Rows returns a snapshot of a table's rows for assertions.
func (m *MemStore) Rows(table string) []map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]interface{}, len(m.tables[table]))
	for i, row := range m.tables[table] {
		cp := make(map[string]interface{}, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// Seed inserts a record directly, bypassing failure injection.
func (m *MemStore) Seed(table string, record interface{}) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureID(row)
	m.tables[table] = append(m.tables[table], row)
	return nil
}

// Select implements Store.Select.
func (m *MemStore) Select(ctx context.Context, table string, q Query, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	var matched []map[string]interface{}
	for _, row := range m.tables[table] {
		if rowMatches(row, q.Conds) {
			matched = append(matched, row)
		}
	}

	if q.OrderBy != "" {
		col, desc := q.OrderBy, q.Descending
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := renderValue(matched[i][col]), renderValue(matched[j][col])
			if desc {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	data, err := json.Marshal(matched)
	if err != nil {
		return fmt.Errorf("memstore: marshal rows: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("memstore: decode rows: %w", err)
	}
	return nil
}

// Insert implements Store.Insert.
func (m *MemStore) Insert(ctx context.Context, table string, record interface{}) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if err := m.rejected(table, row); err != nil {
		return err
	}

	m.ensureID(row)
	m.tables[table] = append(m.tables[table], row)
	return nil
}

// Upsert implements Store.Upsert.
func (m *MemStore) Upsert(ctx context.Context, table string, record interface{}, conflict []string) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if err := m.rejected(table, row); err != nil {
		return err
	}

	for _, existing := range m.tables[table] {
		if keysEqual(existing, row, conflict) {
			// Merge onto the existing row, keeping its identity.
			for k, v := range row {
				if k == "id" || k == "created_at" {
					continue
				}
				existing[k] = v
			}
			return nil
		}
	}

	m.ensureID(row)
	m.tables[table] = append(m.tables[table], row)
	return nil
}

// Update implements Store.Update.
func (m *MemStore) Update(ctx context.Context, table string, patch interface{}, q Query) error {
	fields, err := toRow(patch)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	for _, row := range m.tables[table] {
		if !rowMatches(row, q.Conds) {
			continue
		}
		if err := m.rejected(table, row); err != nil {
			return err
		}
		for k, v := range fields {
			row[k] = v
		}
	}
	return nil
}

// Delete implements Store.Delete.
func (m *MemStore) Delete(ctx context.Context, table string, q Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	kept := m.tables[table][:0]
	for _, row := range m.tables[table] {
		if rowMatches(row, q.Conds) {
			if err := m.rejected(table, row); err != nil {
				return err
			}
			continue
		}
		kept = append(kept, row)
	}
	m.tables[table] = kept
	return nil
}

// ensureID assigns a server-side identifier when the record omits one.
func (m *MemStore) ensureID(row map[string]interface{}) {
	if v, ok := row["id"]; !ok || renderValue(v) == "" {
		row["id"] = uuid.NewString()
	}
}

// rejected checks failure injection for a row. Caller holds the lock.
func (m *MemStore) rejected(table string, row map[string]interface{}) error {
	for _, r := range m.rejects {
		if r.table == table && renderValue(row[r.column]) == r.value {
			return r.err
		}
	}
	return nil
}

// toRow converts any record to its JSON object form.
func toRow(record interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("memstore: marshal record: %w", err)
	}
	var row map[string]interface{}
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("memstore: record is not an object: %w", err)
	}
	return row, nil
}

// keysEqual reports whether two rows agree on every conflict column.
func keysEqual(a, b map[string]interface{}, keys []string) bool {
	for _, k := range keys {
		if renderValue(a[k]) != renderValue(b[k]) {
			return false
		}
	}
	return true
}

// rowMatches evaluates all conditions against a row.
func rowMatches(row map[string]interface{}, conds []Cond) bool {
	for _, c := range conds {
		v := renderValue(row[c.Column])
		switch c.Op {
		case OpEq:
			if v != c.Value {
				return false
			}
		case OpLt:
			if !(v < c.Value) {
				return false
			}
		case OpLte:
			if !(v <= c.Value) {
				return false
			}
		case OpGt:
			if !(v > c.Value) {
				return false
			}
		case OpGte:
			if !(v >= c.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// renderValue normalizes a JSON value for comparison. Numbers drop a
// trailing ".0" so integer progress values compare as "70", matching
// the wire rendering.
func renderValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%v", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
