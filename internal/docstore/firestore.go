package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore adapts a Cloud Firestore client to Store.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) NewRef(collection string) Ref {
	return Ref{Path: Path(collection, s.client.Collection(collection).NewDoc().ID)}
}

func (s *Firestore) Get(ctx context.Context, path string) (*Snapshot, error) {
	doc, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := doc.Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return s.snapshot(snap), nil
}

func (s *Firestore) Set(ctx context.Context, path string, data map[string]any) error {
	doc, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = doc.Set(ctx, s.encodeMap(data))
	return mapError(err)
}

func (s *Firestore) Update(ctx context.Context, path string, fields map[string]any) error {
	doc, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = doc.Update(ctx, s.updates(fields))
	return mapError(err)
}

func (s *Firestore) Delete(ctx context.Context, path string) error {
	doc, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = doc.Delete(ctx)
	return mapError(err)
}

func (s *Firestore) Query(ctx context.Context, q Query) ([]*Snapshot, error) {
	query, err := s.query(q)
	if err != nil {
		return nil, err
	}
	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapError(err)
	}
	return s.snapshots(snaps), nil
}

func (s *Firestore) Collections(ctx context.Context, docPath string) ([]string, error) {
	doc, err := s.doc(docPath)
	if err != nil {
		return nil, err
	}
	var out []string
	iter := doc.Collections(ctx)
	for {
		col, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, Path(docPath, col.ID))
	}
	return out, nil
}

func (s *Firestore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{store: s, tx: tx})
	})
}

func (s *Firestore) Commit(ctx context.Context, writes []Write) error {
	if len(writes) > MaxBatchWrites {
		return fmt.Errorf("%w: %d writes", ErrBatchTooLarge, len(writes))
	}
	if len(writes) == 0 {
		return nil
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, w := range writes {
			doc, err := s.doc(w.Path)
			if err != nil {
				return err
			}
			if w.Delete {
				err = tx.Delete(doc)
			} else {
				err = tx.Set(doc, s.encodeMap(w.Data))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

type firestoreTx struct {
	store *Firestore
	tx    *firestore.Transaction
}

func (t *firestoreTx) Get(path string) (*Snapshot, error) {
	doc, err := t.store.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := t.tx.Get(doc)
	if err != nil {
		return nil, mapError(err)
	}
	return t.store.snapshot(snap), nil
}

func (t *firestoreTx) Query(q Query) ([]*Snapshot, error) {
	query, err := t.store.query(q)
	if err != nil {
		return nil, err
	}
	snaps, err := t.tx.Documents(query).GetAll()
	if err != nil {
		return nil, mapError(err)
	}
	return t.store.snapshots(snaps), nil
}

func (t *firestoreTx) Set(path string, data map[string]any) error {
	doc, err := t.store.doc(path)
	if err != nil {
		return err
	}
	return t.tx.Set(doc, t.store.encodeMap(data))
}

func (t *firestoreTx) Update(path string, fields map[string]any) error {
	doc, err := t.store.doc(path)
	if err != nil {
		return err
	}
	return t.tx.Update(doc, t.store.updates(fields))
}

func (t *firestoreTx) Delete(path string) error {
	doc, err := t.store.doc(path)
	if err != nil {
		return err
	}
	return t.tx.Delete(doc)
}

func (s *Firestore) doc(path string) (*firestore.DocumentRef, error) {
	if !isDocPath(path) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return s.client.Doc(path), nil
}

func (s *Firestore) query(q Query) (firestore.Query, error) {
	if !isCollectionPath(q.Collection) {
		return firestore.Query{}, fmt.Errorf("%w: %q", ErrInvalidPath, q.Collection)
	}
	col := s.client.Collection(q.Collection)
	query := col.Query
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual:
			value := s.encode(f.Value)
			if f.Field == DocumentID {
				id, _ := f.Value.(string)
				value = col.Doc(id)
			}
			query = query.Where(f.Field, "==", value)
		case OpIn:
			if len(f.Values) > MaxInValues {
				return firestore.Query{}, fmt.Errorf("%w: %d values", ErrTooManyValues, len(f.Values))
			}
			if f.Field == DocumentID {
				refs := make([]*firestore.DocumentRef, len(f.Values))
				for i, id := range f.Values {
					refs[i] = col.Doc(id)
				}
				query = query.Where(firestore.DocumentID, "in", refs)
				continue
			}
			query = query.Where(f.Field, "in", f.Values)
		default:
			return firestore.Query{}, fmt.Errorf("%w: %q", ErrUnsupportedOp, f.Op)
		}
	}
	return query, nil
}

func (s *Firestore) updates(fields map[string]any) []firestore.Update {
	out := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		out = append(out, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: s.encode(v)})
	}
	return out
}

func (s *Firestore) snapshot(snap *firestore.DocumentSnapshot) *Snapshot {
	return &Snapshot{Ref: Ref{Path: relativePath(snap.Ref)}, Data: decodeMap(snap.Data())}
}

func (s *Firestore) snapshots(snaps []*firestore.DocumentSnapshot) []*Snapshot {
	out := make([]*Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, s.snapshot(snap))
	}
	return out
}

func (s *Firestore) encodeMap(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = s.encode(v)
	}
	return out
}

func (s *Firestore) encode(v any) any {
	switch x := v.(type) {
	case sentinel:
		return firestore.ServerTimestamp
	case Ref:
		return s.client.Doc(x.Path)
	case *Ref:
		if x == nil {
			return nil
		}
		return s.client.Doc(x.Path)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = s.encode(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = s.encodeMap(e)
		}
		return out
	case map[string]any:
		return s.encodeMap(x)
	default:
		return v
	}
}

func decodeMap(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = decode(v)
	}
	return out
}

func decode(v any) any {
	switch x := v.(type) {
	case *firestore.DocumentRef:
		if x == nil {
			return nil
		}
		return Ref{Path: relativePath(x)}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = decode(e)
		}
		return out
	case map[string]any:
		return decodeMap(x)
	default:
		return v
	}
}

// relativePath strips the project/database prefix from a document reference.
func relativePath(ref *firestore.DocumentRef) string {
	if ref.Parent == nil {
		return ref.ID
	}
	if ref.Parent.Parent == nil {
		return Path(ref.Parent.ID, ref.ID)
	}
	return Path(relativePath(ref.Parent.Parent), ref.Parent.ID, ref.ID)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
