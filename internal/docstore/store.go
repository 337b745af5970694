package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a document does not exist in its collection.
var ErrNotFound = errors.New("document not found")

// Op is a query predicate operator.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

// Filter restricts a query to documents whose field at the dotted JSON path
// satisfies the operator against Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a filter for field, op and value.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Path splits the dotted field name into its segments.
func (f Filter) Path() []string {
	return strings.Split(f.Field, ".")
}

func (f Filter) validate() error {
	if strings.TrimSpace(f.Field) == "" {
		return fmt.Errorf("filter field is required")
	}
	switch f.Op {
	case OpEqual, OpArrayContains:
		return nil
	default:
		return fmt.Errorf("unsupported filter operator %q", f.Op)
	}
}

// Snapshot is a raw document as returned by a query.
type Snapshot struct {
	ID   string
	Data []byte
}

// Store is the backend document database. Payloads are JSON objects.
type Store interface {
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Set(ctx context.Context, collection, id string, data []byte) error
	Add(ctx context.Context, collection string, data []byte) (string, error)
	Update(ctx context.Context, collection, id string, data []byte) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters ...Filter) ([]Snapshot, error)
}
