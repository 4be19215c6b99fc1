package helper

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

const modificationLogTable = "openhelper_table_modification_log"

var triggerOps = []string{"INSERT", "UPDATE", "DELETE"}

// InvalidationTracker records which tracked tables changed since the last
// Refresh. Writes are captured by TEMP triggers into a TEMP log table, so
// tracking lives on the connection it was initialized on.
type InvalidationTracker struct {
	tables []string

	mu          sync.Mutex
	conn        Conn
	initialized bool
	observers   []func(tables []string)
}

// NewInvalidationTracker tracks the given tables.
func NewInvalidationTracker(tables ...string) *InvalidationTracker {
	return &InvalidationTracker{tables: append([]string(nil), tables...)}
}

// Init creates the log table and triggers on conn. Calling it again with the
// same conn does nothing; a different conn is initialized from scratch, since
// TEMP objects live only on the connection that created them.
func (t *InvalidationTracker) Init(ctx context.Context, conn Conn) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized && t.conn == conn {
		return nil
	}
	t.conn = nil
	t.initialized = false

	stmts := []string{
		"PRAGMA temp_store = MEMORY",
		"PRAGMA recursive_triggers = ON",
		"CREATE TEMP TABLE IF NOT EXISTS " + modificationLogTable +
			" (table_id INTEGER PRIMARY KEY, invalidated INTEGER NOT NULL DEFAULT 0)",
	}
	for _, s := range stmts {
		if _, err := conn.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("initializing invalidation tracker: %w", err)
		}
	}

	for id, table := range t.tables {
		if _, err := conn.ExecContext(ctx,
			"INSERT OR IGNORE INTO "+modificationLogTable+" (table_id, invalidated) VALUES (?, 0)", id); err != nil {
			return fmt.Errorf("tracking %s: %w", table, err)
		}
		for _, op := range triggerOps {
			if _, err := conn.ExecContext(ctx, triggerQuery(id, table, op)); err != nil {
				return fmt.Errorf("creating %s trigger on %s: %w", op, table, err)
			}
		}
	}

	t.conn = conn
	t.initialized = true
	return nil
}

func triggerQuery(id int, table, op string) string {
	name := fmt.Sprintf("openhelper_table_modification_trigger_%s_%s", table, op)
	return fmt.Sprintf("CREATE TEMP TRIGGER IF NOT EXISTS %s AFTER %s ON %s BEGIN "+
		"UPDATE %s SET invalidated = 1 WHERE table_id = %d AND invalidated = 0; END",
		quoteIdentifier(name), op, quoteIdentifier(table), modificationLogTable, id)
}

// AddObserver registers fn to be called with the changed tables after each
// Refresh that found changes.
func (t *InvalidationTracker) AddObserver(fn func(tables []string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

// Refresh returns the tables written since the previous Refresh, in tracking
// order, and notifies observers.
func (t *InvalidationTracker) Refresh(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	if !t.initialized {
		t.mu.Unlock()
		return nil, errors.New("helper: invalidation tracker is not initialized")
	}
	conn := t.conn
	observers := slices.Clone(t.observers)
	t.mu.Unlock()

	rows, err := queryRows(ctx, conn,
		"SELECT table_id FROM "+modificationLogTable+" WHERE invalidated = 1 ORDER BY table_id")
	if err != nil {
		return nil, fmt.Errorf("reading modification log: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if _, err := conn.ExecContext(ctx,
		"UPDATE "+modificationLogTable+" SET invalidated = 0 WHERE invalidated = 1"); err != nil {
		return nil, fmt.Errorf("resetting modification log: %w", err)
	}

	changed := make([]string, 0, len(rows))
	for _, r := range rows {
		if id := asInt(r["table_id"]); id >= 0 && id < len(t.tables) {
			changed = append(changed, t.tables[id])
		}
	}
	for _, fn := range observers {
		fn(append([]string(nil), changed...))
	}
	return changed, nil
}

func (t *InvalidationTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn = nil
	t.initialized = false
}
