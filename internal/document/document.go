// Package document maps typed payloads onto the backend document store.
//
// A payload type T embeds Header, which carries the common name/description
// block and the creation/alteration metadata. The functions in this package
// never classify or retry backend errors; they are returned as they come.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clouddwh/architect/internal/docstore"
)

var (
	// ErrNotFound is returned by Load when the document does not exist.
	ErrNotFound = docstore.ErrNotFound
	// ErrUnknownType is returned when a path does not end in a known type.
	ErrUnknownType = errors.New("unknown document type")
	// ErrNotDeletable is returned when a type does not allow hard deletes.
	ErrNotDeletable = errors.New("document type cannot be deleted")
)

// Common is the name/description block shared by every document.
type Common struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Created records who created a document and when.
type Created struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

// Altered records the last alteration, if any.
type Altered struct {
	By *string    `json:"by"`
	At *time.Time `json:"at"`
}

// Meta is injected by Create and refreshed by Update.
type Meta struct {
	Created Created `json:"created"`
	Altered Altered `json:"altered"`
}

// Header is embedded by every payload type.
type Header struct {
	Common Common `json:"common"`
	Meta   *Meta  `json:"meta,omitempty"`
}

// Clone returns a copy of h that shares no pointers with it.
func (h Header) Clone() Header {
	if h.Common.Description != nil {
		desc := *h.Common.Description
		h.Common.Description = &desc
	}
	if h.Meta != nil {
		m := *h.Meta
		if m.Altered.By != nil {
			by := *m.Altered.By
			m.Altered.By = &by
		}
		if m.Altered.At != nil {
			at := *m.Altered.At
			m.Altered.At = &at
		}
		h.Meta = &m
	}
	return h
}

// DocumentHeader gives the generic functions access to the embedded header.
func (h *Header) DocumentHeader() *Header { return h }

// Payload is satisfied by *T when T embeds Header.
type Payload[T any] interface {
	*T
	DocumentHeader() *Header
}

// Document is a typed document loaded from or written to the store.
type Document[T any] struct {
	Path string
	ID   string
	Type Type
	Data T
}

// DB binds the backend store and the clock used for metadata stamps.
type DB struct {
	store docstore.Store
	now   func() time.Time
}

// NewDB creates a DB over store using the wall clock.
func NewDB(store docstore.Store) *DB {
	return &DB{store: store, now: time.Now}
}

// WithClock returns a copy of db that stamps metadata using now.
func (db *DB) WithClock(now func() time.Time) *DB {
	return &DB{store: db.store, now: now}
}

// Now returns the current stamp time, truncated to microseconds so that it
// survives a round trip through the Postgres JSONB store unchanged.
func (db *DB) Now() time.Time {
	return db.now().UTC().Truncate(time.Microsecond)
}

// Store exposes the underlying backend store.
func (db *DB) Store() docstore.Store { return db.store }

// Load reads the document with id from the collection at path.
func Load[T any, P Payload[T]](ctx context.Context, db *DB, path, id string) (*Document[T], error) {
	typ, err := typeOf(path)
	if err != nil {
		return nil, err
	}
	raw, err := db.store.Get(ctx, path, id)
	if err != nil {
		return nil, err
	}
	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding %s/%s: %w", path, id, err)
	}
	return &Document[T]{Path: path, ID: id, Type: typ, Data: data}, nil
}

// Create stamps creation metadata on data and persists it. An empty id lets
// the store assign one.
func Create[T any, P Payload[T]](ctx context.Context, db *DB, path string, data T, id string) (*Document[T], error) {
	typ, err := typeOf(path)
	if err != nil {
		return nil, err
	}

	P(&data).DocumentHeader().Meta = &Meta{
		Created: Created{By: ActorFromContext(ctx), At: db.Now()},
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding %s document: %w", path, err)
	}

	if id == "" {
		id, err = db.store.Add(ctx, path, raw)
	} else {
		err = db.store.Set(ctx, path, id, raw)
	}
	if err != nil {
		return nil, err
	}

	return &Document[T]{Path: path, ID: id, Type: typ, Data: data}, nil
}

// UpdateOption adjusts a single Update call.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	stamp bool
}

// WithoutMetaStamp leaves the alteration metadata untouched.
func WithoutMetaStamp() UpdateOption {
	return func(o *updateOptions) { o.stamp = false }
}

// Update writes the full payload of doc, stamping the alteration metadata
// unless WithoutMetaStamp is given.
func Update[T any, P Payload[T]](ctx context.Context, db *DB, doc *Document[T], opts ...UpdateOption) error {
	o := updateOptions{stamp: true}
	for _, opt := range opts {
		opt(&o)
	}

	typ, err := typeOf(doc.Path)
	if err != nil {
		return err
	}
	doc.Type = typ

	if h := P(&doc.Data).DocumentHeader(); o.stamp && h.Meta != nil {
		by := ActorFromContext(ctx)
		at := db.Now()
		// Replace rather than write through Meta: copies of doc may share it.
		meta := *h.Meta
		meta.Altered = Altered{By: &by, At: &at}
		h.Meta = &meta
	}

	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", doc.Path, doc.ID, err)
	}
	return db.store.Update(ctx, doc.Path, doc.ID, raw)
}

// Delete removes doc from the store.
func Delete[T any](ctx context.Context, db *DB, doc *Document[T]) error {
	typ, err := typeOf(doc.Path)
	if err != nil {
		return err
	}
	doc.Type = typ
	if !typ.Deletable() {
		return fmt.Errorf("%w: %s", ErrNotDeletable, typ)
	}
	return db.store.Delete(ctx, doc.Path, doc.ID)
}

// LoadAll returns every document under path that matches all filters.
func LoadAll[T any, P Payload[T]](ctx context.Context, db *DB, path string, filters ...docstore.Filter) ([]*Document[T], error) {
	typ, err := typeOf(path)
	if err != nil {
		return nil, err
	}
	snaps, err := db.store.Query(ctx, path, filters...)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document[T], 0, len(snaps))
	for _, snap := range snaps {
		var data T
		if err := json.Unmarshal(snap.Data, &data); err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", path, snap.ID, err)
		}
		docs = append(docs, &Document[T]{Path: path, ID: snap.ID, Type: typ, Data: data})
	}
	return docs, nil
}

func typeOf(path string) (Type, error) {
	typ := TypeFromPath(path)
	if !typ.Valid() {
		return typ, fmt.Errorf("%w: %q", ErrUnknownType, path)
	}
	return typ, nil
}
