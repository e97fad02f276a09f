// Package docstore is a narrow client for a hierarchical document database:
// collections of documents addressed by slash-separated paths, sub-collections
// under documents, equality and membership filters, transactions and atomic
// write batches.
package docstore

import (
	"context"
	"errors"
	"strings"
)

const (
	// MaxInValues is the largest number of values a membership filter may carry.
	MaxInValues = 30
	// MaxBatchWrites is the largest number of writes one atomic commit may carry.
	MaxBatchWrites = 500
	// DocumentID is the pseudo field that filters on the document's own ID.
	DocumentID = "__name__"
)

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrTooManyValues = errors.New("docstore: membership filter exceeds value limit")
	ErrBatchTooLarge = errors.New("docstore: write batch exceeds size limit")
	ErrInvalidPath   = errors.New("docstore: invalid path")
	ErrUnsupportedOp = errors.New("docstore: unsupported filter operator")
)

// Store is implemented by the Firestore adapter and the in-memory store.
type Store interface {
	// NewRef returns a reference to a new document with a generated ID.
	NewRef(collection string) Ref
	Get(ctx context.Context, path string) (*Snapshot, error)
	// Set creates or replaces a document.
	Set(ctx context.Context, path string, data map[string]any) error
	// Update merges top-level fields into an existing document. It returns
	// ErrNotFound when the document does not exist.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, q Query) ([]*Snapshot, error)
	// Collections lists the full paths of the sub-collections under docPath.
	Collections(ctx context.Context, docPath string) ([]string, error)
	// RunTransaction runs fn atomically. All reads must happen before writes.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Commit applies up to MaxBatchWrites writes atomically.
	Commit(ctx context.Context, writes []Write) error
}

// Tx is the transactional view handed to RunTransaction callbacks.
type Tx interface {
	Get(path string) (*Snapshot, error)
	Query(q Query) ([]*Snapshot, error)
	Set(path string, data map[string]any) error
	Update(path string, fields map[string]any) error
	Delete(path string) error
}

// Op is a filter operator.
type Op string

const (
	OpEqual Op = "=="
	OpIn    Op = "in"
)

// Filter restricts a query on one field.
type Filter struct {
	Field  string
	Op     Op
	Value  any
	Values []string
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// In matches documents whose field is one of values.
func In(field string, values []string) Filter {
	return Filter{Field: field, Op: OpIn, Values: values}
}

// Query selects the documents of one collection matching every filter.
// Results come back ordered by document ID.
type Query struct {
	Collection string
	Filters    []Filter
}

// Write is one entry of an atomic batch.
type Write struct {
	Path   string
	Data   map[string]any
	Delete bool
}

func SetWrite(path string, data map[string]any) Write {
	return Write{Path: path, Data: data}
}

func DeleteWrite(path string) Write {
	return Write{Path: path, Delete: true}
}

// Snapshot is a document read from the store.
type Snapshot struct {
	Ref  Ref
	Data map[string]any
}

// ID returns the document ID.
func (s *Snapshot) ID() string {
	return s.Ref.ID()
}

// Ref is a reference to a document, stored as a value inside other documents.
type Ref struct {
	Path string
}

// ID returns the last path segment.
func (r Ref) ID() string {
	if i := strings.LastIndex(r.Path, "/"); i >= 0 {
		return r.Path[i+1:]
	}
	return r.Path
}

// Collection returns the path of the collection holding the document.
func (r Ref) Collection() string {
	if i := strings.LastIndex(r.Path, "/"); i >= 0 {
		return r.Path[:i]
	}
	return ""
}

func (r Ref) String() string {
	return r.Path
}

// Chunk splits ids into slices of at most size elements, for membership
// filters.
func Chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		out = append(out, ids[start:min(start+size, len(ids))])
	}
	return out
}

// Path joins path segments.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

type sentinel string

// ServerTimestamp is replaced by the store's commit time when written.
const ServerTimestamp sentinel = "server_timestamp"

func segments(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return parts
}

func isDocPath(path string) bool {
	n := len(segments(path))
	return n > 0 && n%2 == 0
}

func isCollectionPath(path string) bool {
	n := len(segments(path))
	return n > 0 && n%2 == 1
}
