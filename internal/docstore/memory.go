package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. It follows the Firestore semantics the rest
// of the service relies on, including the membership filter ceiling, and is
// used by tests and local runs.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]map[string]any
	now     func() time.Time
	gets    int
	queries int
}

// Stats counts reads served by a Memory store.
type Stats struct {
	Gets    int
	Queries int
}

func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]map[string]any),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time used for server timestamps.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Stats returns the read counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Gets: m.gets, Queries: m.queries}
}

// ResetStats zeroes the read counters.
func (m *Memory) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets, m.queries = 0, 0
}

func (m *Memory) NewRef(collection string) Ref {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	return Ref{Path: Path(collection, id)}
}

func (m *Memory) Get(ctx context.Context, path string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(path)
}

func (m *Memory) Set(ctx context.Context, path string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !isDocPath(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	m.docs[path] = normalizeMap(data, m.now())
	return nil
}

func (m *Memory) Update(ctx context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.update(path, fields, m.now())
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !isDocPath(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	delete(m.docs, path)
	return nil
}

func (m *Memory) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query(q)
}

func (m *Memory) Collections(ctx context.Context, docPath string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !isDocPath(docPath) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, docPath)
	}
	prefix := docPath + "/"
	seen := make(map[string]struct{})
	for p := range m.docs {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, "/")
		seen[prefix+name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// RunTransaction holds the store lock for the duration of fn, so transactions
// are serialized. Writes are buffered and applied only when fn succeeds.
func (m *Memory) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{store: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return m.apply(tx.writes)
}

func (m *Memory) Commit(ctx context.Context, writes []Write) error {
	if len(writes) > MaxBatchWrites {
		return fmt.Errorf("%w: %d writes", ErrBatchTooLarge, len(writes))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make([]memoryWrite, 0, len(writes))
	for _, w := range writes {
		if w.Delete {
			ops = append(ops, memoryWrite{path: w.Path, kind: writeDelete})
		} else {
			ops = append(ops, memoryWrite{path: w.Path, kind: writeSet, data: w.Data})
		}
	}
	return m.apply(ops)
}

func (m *Memory) get(path string) (*Snapshot, error) {
	if !isDocPath(path) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	m.gets++
	doc, ok := m.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	return &Snapshot{Ref: Ref{Path: path}, Data: copyMap(doc)}, nil
}

func (m *Memory) update(path string, fields map[string]any, now time.Time) error {
	if !isDocPath(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	doc, ok := m.docs[path]
	if !ok {
		return ErrNotFound
	}
	for k, v := range normalizeMap(fields, now) {
		doc[k] = v
	}
	return nil
}

func (m *Memory) query(q Query) ([]*Snapshot, error) {
	if !isCollectionPath(q.Collection) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, q.Collection)
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual:
		case OpIn:
			if len(f.Values) > MaxInValues {
				return nil, fmt.Errorf("%w: %d values", ErrTooManyValues, len(f.Values))
			}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedOp, f.Op)
		}
	}
	m.queries++

	prefix := q.Collection + "/"
	var out []*Snapshot
	for p, doc := range m.docs {
		id, ok := strings.CutPrefix(p, prefix)
		if !ok || strings.Contains(id, "/") {
			continue
		}
		if matches(id, doc, q.Filters) {
			out = append(out, &Snapshot{Ref: Ref{Path: p}, Data: copyMap(doc)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

type writeKind int

const (
	writeSet writeKind = iota
	writeUpdate
	writeDelete
)

type memoryWrite struct {
	path string
	kind writeKind
	data map[string]any
}

// apply validates every write before mutating anything, so a batch is all or
// nothing. Callers hold m.mu.
func (m *Memory) apply(writes []memoryWrite) error {
	pending := make(map[string]bool)
	for _, w := range writes {
		if !isDocPath(w.path) {
			return fmt.Errorf("%w: %q", ErrInvalidPath, w.path)
		}
		if w.kind == writeUpdate {
			exists, touched := pending[w.path]
			if !touched {
				_, exists = m.docs[w.path]
			}
			if !exists {
				return fmt.Errorf("update %q: %w", w.path, ErrNotFound)
			}
		}
		pending[w.path] = w.kind != writeDelete
	}

	now := m.now()
	for _, w := range writes {
		switch w.kind {
		case writeSet:
			m.docs[w.path] = normalizeMap(w.data, now)
		case writeUpdate:
			for k, v := range normalizeMap(w.data, now) {
				m.docs[w.path][k] = v
			}
		case writeDelete:
			delete(m.docs, w.path)
		}
	}
	return nil
}

type memoryTx struct {
	store  *Memory
	writes []memoryWrite
}

func (t *memoryTx) Get(path string) (*Snapshot, error) {
	return t.store.get(path)
}

func (t *memoryTx) Query(q Query) ([]*Snapshot, error) {
	return t.store.query(q)
}

func (t *memoryTx) Set(path string, data map[string]any) error {
	t.writes = append(t.writes, memoryWrite{path: path, kind: writeSet, data: data})
	return nil
}

func (t *memoryTx) Update(path string, fields map[string]any) error {
	t.writes = append(t.writes, memoryWrite{path: path, kind: writeUpdate, data: fields})
	return nil
}

func (t *memoryTx) Delete(path string) error {
	t.writes = append(t.writes, memoryWrite{path: path, kind: writeDelete})
	return nil
}

func matches(id string, doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		var value any
		if f.Field == DocumentID {
			value = id
		} else {
			v, ok := doc[f.Field]
			if !ok {
				return false
			}
			value = v
		}

		switch f.Op {
		case OpEqual:
			want := f.Value
			if r, ok := want.(Ref); ok && f.Field == DocumentID {
				want = r.ID()
			}
			if !reflect.DeepEqual(value, normalizeValue(want, time.Time{})) {
				return false
			}
		case OpIn:
			s, ok := value.(string)
			if !ok {
				return false
			}
			found := false
			for _, v := range f.Values {
				if v == s {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func normalizeMap(data map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = normalizeValue(v, now)
	}
	return out
}

// normalizeValue converts Go values into the shapes the store hands back on
// read: int64, float64, UTC time.Time, []any and map[string]any.
func normalizeValue(v any, now time.Time) any {
	switch x := v.(type) {
	case nil:
		return nil
	case sentinel:
		return now
	case Ref:
		return x
	case *Ref:
		if x == nil {
			return nil
		}
		return *x
	case string, bool, int64, float64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e, now)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeMap(e, now)
		}
		return out
	case map[string]any:
		return normalizeMap(x, now)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.String:
			return rv.String()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int()
		case reflect.Float32, reflect.Float64:
			return rv.Float()
		}
		return x
	}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	case map[string]any:
		return copyMap(x)
	default:
		return x
	}
}
