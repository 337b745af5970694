package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string][]byte)}
}

// Get returns a copy of the document stored under id, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(data), nil
}

// Set creates or replaces the document stored under id.
func (s *MemoryStore) Set(ctx context.Context, collection, id string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("document %s/%s: payload is not valid JSON", collection, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[collection] = docs
	}
	docs[id] = clone(data)
	return nil
}

// Add stores data under a generated id and returns the id.
func (s *MemoryStore) Add(ctx context.Context, collection string, data []byte) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Update replaces an existing document. It returns ErrNotFound if id is absent.
func (s *MemoryStore) Update(ctx context.Context, collection, id string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("document %s/%s: payload is not valid JSON", collection, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	docs[id] = clone(data)
	return nil
}

// Delete removes the document. Deleting a missing document is not an error.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

// Query returns the documents of collection matching every filter, ordered
// by id.
func (s *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error) {
	wants := make([]any, len(filters))
	for i, f := range filters {
		if err := f.validate(); err != nil {
			return nil, err
		}
		v, err := normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("normalizing filter value for %s: %w", f.Field, err)
		}
		wants[i] = v
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Snapshot
	for id, data := range s.collections[collection] {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding document %s/%s: %w", collection, id, err)
		}
		if matchesAll(doc, filters, wants) {
			out = append(out, Snapshot{ID: id, Data: clone(data)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matchesAll(doc any, filters []Filter, wants []any) bool {
	for i, f := range filters {
		got, ok := lookup(doc, f.Path())
		if !ok {
			return false
		}
		switch f.Op {
		case OpEqual:
			if !reflect.DeepEqual(got, wants[i]) {
				return false
			}
		case OpArrayContains:
			arr, ok := got.([]any)
			if !ok || !containsValue(arr, wants[i]) {
				return false
			}
		}
	}
	return true
}

func lookup(doc any, path []string) (any, bool) {
	cur := doc
	for _, seg := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func containsValue(arr []any, want any) bool {
	for _, v := range arr {
		if reflect.DeepEqual(v, want) {
			return true
		}
	}
	return false
}

// normalize round-trips v through JSON so it compares equal to decoded documents.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
