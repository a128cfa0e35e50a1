package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/go-logr/logr"
	"github.com/hkloudou/lakeops"
	"github.com/hkloudou/lakeops/internal/storage"
	"github.com/hkloudou/lakeops/trace"
)

// Table is one collection of documents. Writes are serialized per table;
// reads run concurrently through the cache.
type Table struct {
	db     *DB
	name   string
	log    logr.Logger
	mu     sync.Mutex // guards writes and seeded
	seeded bool
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Insert stores doc under a new id and returns it. doc may be a
// *lakeops.Document, raw JSON ([]byte or json.RawMessage) or any value
// that marshals to a JSON object.
func (t *Table) Insert(ctx context.Context, doc any) (int64, error) {
	ids, err := t.InsertMultiple(ctx, doc)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// InsertMultiple stores every doc and returns their ids in order. All
// documents are validated before any is written.
func (t *Table) InsertMultiple(ctx context.Context, docs ...any) ([]int64, error) {
	parsed := make([]*lakeops.Document, len(docs))
	for i, v := range docs {
		doc, err := toDocument(v)
		if err != nil {
			return nil, fmt.Errorf("insert #%d: %w", i, err)
		}
		parsed[i] = doc
	}

	stor, _, seq, err := t.db.components(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.seed(ctx); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(parsed))
	for _, doc := range parsed {
		id, err := seq.Next(ctx, t.name)
		if err != nil {
			return ids, err
		}
		if err := stor.Put(ctx, stor.MakeDocKey(t.name, id), doc.Raw()); err != nil {
			return ids, fmt.Errorf("failed to write document %d: %w", id, err)
		}
		doc.SetID(id)
		ids = append(ids, id)
	}

	t.log.V(1).Info("insert", "ids", ids)
	return ids, nil
}

// seed raises the id sequence past every stored id, once per process.
// Caller holds t.mu.
func (t *Table) seed(ctx context.Context) error {
	if t.seeded {
		return nil
	}
	ids, err := t.ids(ctx)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		_, _, seq, err := t.db.components(ctx)
		if err != nil {
			return err
		}
		if err := seq.Seed(ctx, t.name, ids[len(ids)-1]); err != nil {
			return err
		}
	}
	t.seeded = true
	return nil
}

// ids lists stored document ids in ascending order.
func (t *Table) ids(ctx context.Context) ([]int64, error) {
	stor, _, _, err := t.db.components(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := stor.List(ctx, stor.TablePrefix(t.name))
	if err != nil {
		return nil, fmt.Errorf("failed to list table %s: %w", t.name, err)
	}

	ids := make([]int64, 0, len(keys))
	for _, key := range keys {
		if id, ok := storage.ParseDocKey(key); ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// load reads one document through the cache.
func (t *Table) load(ctx context.Context, id int64) (*lakeops.Document, error) {
	stor, c, _, err := t.db.components(ctx)
	if err != nil {
		return nil, err
	}
	key := stor.MakeDocKey(t.name, id)
	raw, err := c.Take(ctx, key, func() ([]byte, error) {
		return stor.Get(ctx, key)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document %d: %w", id, err)
	}
	doc, err := lakeops.NewDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("document %d is corrupt: %w", id, err)
	}
	doc.SetID(id)
	return doc, nil
}

// scan loads the documents matching q in id order. ByID queries skip the
// table listing.
func (t *Table) scan(ctx context.Context, q Query, limit int) ([]*lakeops.Document, error) {
	tr := trace.FromContext(ctx)

	var ids []int64
	if byID, ok := q.(idQuery); ok {
		ids = slices.Clone(byID)
		slices.Sort(ids)
		ids = slices.Compact(ids)
	} else {
		var err error
		if ids, err = t.ids(ctx); err != nil {
			return nil, err
		}
	}
	tr.RecordSpan("Table.List", map[string]any{"table": t.name, "ids": len(ids)})

	var docs []*lakeops.Document
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := t.load(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if q.Match(doc) {
			docs = append(docs, doc)
			if limit > 0 && len(docs) == limit {
				break
			}
		}
	}
	tr.RecordSpan("Table.Scan", map[string]any{"matched": len(docs)})
	return docs, nil
}

// Search returns every document matching q, ordered by id.
func (t *Table) Search(ctx context.Context, q Query) ([]*lakeops.Document, error) {
	return t.scan(ctx, q, 0)
}

// All returns every document, ordered by id.
func (t *Table) All(ctx context.Context) ([]*lakeops.Document, error) {
	return t.scan(ctx, All(), 0)
}

// Get returns the first document (lowest id) matching q, or ErrNotFound.
func (t *Table) Get(ctx context.Context, q Query) (*lakeops.Document, error) {
	docs, err := t.scan(ctx, q, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

// GetByID returns the document with id, or ErrNotFound.
func (t *Table) GetByID(ctx context.Context, id int64) (*lakeops.Document, error) {
	return t.load(ctx, id)
}

// Count returns the number of documents matching q.
func (t *Table) Count(ctx context.Context, q Query) (int, error) {
	docs, err := t.scan(ctx, q, 0)
	return len(docs), err
}

// Contains reports whether any document matches q.
func (t *Table) Contains(ctx context.Context, q Query) (bool, error) {
	docs, err := t.scan(ctx, q, 1)
	return len(docs) > 0, err
}

// Len returns the number of documents in the table.
func (t *Table) Len(ctx context.Context) (int, error) {
	ids, err := t.ids(ctx)
	return len(ids), err
}

// Update applies tf to every document matching q and returns the ids of
// the documents it was applied to. Each document is transformed on its
// own; documents are only written after every transform has run. How a
// failing transform is handled depends on the DB's Policy.
func (t *Table) Update(ctx context.Context, tf lakeops.Transform, q Query) ([]int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tr := trace.FromContext(ctx)
	docs, err := t.scan(ctx, q, 0)
	if err != nil {
		return nil, err
	}

	var (
		changed []*lakeops.Document
		ids     []int64
		errs    []error
	)
	for _, doc := range docs {
		before := string(doc.Raw())
		if err := tf.Apply(doc); err != nil {
			docErr := &DocumentError{ID: doc.ID(), Err: err}
			if t.db.policy == AbortOnError {
				t.log.V(1).Info("update aborted", "id", doc.ID(), "error", err.Error())
				return nil, docErr
			}
			errs = append(errs, docErr)
			continue
		}
		ids = append(ids, doc.ID())
		if string(doc.Raw()) != before {
			changed = append(changed, doc)
		}
	}
	tr.RecordSpan("Table.Apply", map[string]any{"matched": len(docs), "changed": len(changed), "failed": len(errs)})

	if err := t.persist(ctx, changed); err != nil {
		return nil, err
	}
	tr.RecordSpan("Table.Persist", map[string]any{"written": len(changed)})

	t.log.V(1).Info("update", "transform", fmt.Sprint(tf), "query", fmt.Sprint(q),
		"matched", len(docs), "updated", len(ids), "failed", len(errs))
	return ids, errors.Join(errs...)
}

// UpdateIDs applies tf to the documents with the given ids.
func (t *Table) UpdateIDs(ctx context.Context, tf lakeops.Transform, ids ...int64) ([]int64, error) {
	return t.Update(ctx, tf, ByID(ids...))
}

func (t *Table) persist(ctx context.Context, docs []*lakeops.Document) error {
	if len(docs) == 0 {
		return nil
	}
	stor, c, _, err := t.db.components(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		key := stor.MakeDocKey(t.name, doc.ID())
		if err := stor.Put(ctx, key, doc.Raw()); err != nil {
			c.Invalidate(ctx, keys...)
			return fmt.Errorf("failed to write document %d: %w", doc.ID(), err)
		}
		keys = append(keys, key)
	}
	if err := c.Invalidate(ctx, keys...); err != nil {
		t.log.Error(err, "cache invalidation failed", "keys", len(keys))
	}
	return nil
}

// Remove deletes every document matching q and returns their ids.
func (t *Table) Remove(ctx context.Context, q Query) ([]int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	docs, err := t.scan(ctx, q, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID()
	}
	if err := t.delete(ctx, ids); err != nil {
		return nil, err
	}
	t.log.V(1).Info("remove", "query", fmt.Sprint(q), "ids", ids)
	return ids, nil
}

// Truncate deletes every document and restarts ids at 1.
func (t *Table) Truncate(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, err := t.ids(ctx)
	if err != nil {
		return err
	}
	if err := t.delete(ctx, ids); err != nil {
		return err
	}

	_, _, seq, err := t.db.components(ctx)
	if err != nil {
		return err
	}
	if err := seq.Reset(ctx, t.name); err != nil {
		return fmt.Errorf("failed to reset sequence: %w", err)
	}
	t.seeded = false
	t.log.V(1).Info("truncate", "removed", len(ids))
	return nil
}

func (t *Table) delete(ctx context.Context, ids []int64) error {
	stor, c, _, err := t.db.components(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		key := stor.MakeDocKey(t.name, id)
		if err := stor.Delete(ctx, key); err != nil {
			c.Invalidate(ctx, keys...)
			return fmt.Errorf("failed to delete document %d: %w", id, err)
		}
		keys = append(keys, key)
	}
	return c.Invalidate(ctx, keys...)
}

func toDocument(v any) (*lakeops.Document, error) {
	switch d := v.(type) {
	case *lakeops.Document:
		return d.Clone(), nil
	case []byte:
		return lakeops.NewDocument(d)
	case json.RawMessage:
		return lakeops.NewDocument(d)
	case string:
		return lakeops.NewDocument([]byte(d))
	case map[string]any:
		return lakeops.FromMap(d)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return lakeops.NewDocument(raw)
}
