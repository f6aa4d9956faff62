package repositories

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/apperror"
)

const (
	columnID        = "id"
	columnCreatedAt = "created_at"
	columnUpdatedAt = "updated_at"

	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Column names a column of entity T. Columns of different entities are
// different types, so they cannot be mixed up at compile time.
type Column[T any] struct {
	name string
}

// NewColumn builds a column handle by name. Stores still reject names their
// descriptor does not declare.
func NewColumn[T any](name string) Column[T] {
	return Column[T]{name: name}
}

func (c Column[T]) Name() string { return c.name }

// Values maps columns to the values written by Create and Update.
type Values[T any] map[Column[T]]any

// Descriptor tells a store how entity T maps onto its table.
type Descriptor[T any] struct {
	Entity string
	Table  string
	// Columns lists every column in scan order. The id column comes first.
	Columns []string
	// Fields returns pointers to the fields of t, in Columns order.
	Fields func(t *T) []any
	ID     func(t *T) uuid.UUID
	// Unique columns are checked by backends without a schema constraint.
	Unique []string
	// Defaults are applied by backends without schema defaults.
	Defaults   map[string]any
	Timestamps bool
}

func (d Descriptor[T]) index(name string) int {
	return slices.Index(d.Columns, name)
}

func (d Descriptor[T]) checkColumn(col Column[T]) error {
	if col.name == "" || d.index(col.name) < 0 {
		return apperror.InvalidColumn(col.name, d.Table)
	}
	return nil
}

// ordered flattens values into column names and arguments following the
// descriptor's column order, so generated statements are deterministic.
func (d Descriptor[T]) ordered(values Values[T]) ([]string, []any, error) {
	for col := range values {
		if err := d.checkColumn(col); err != nil {
			return nil, nil, err
		}
	}

	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, name := range d.Columns {
		if v, ok := values[Column[T]{name: name}]; ok {
			cols = append(cols, name)
			args = append(args, v)
		}
	}
	return cols, args, nil
}

func mergeValues[T any](values Values[T], extra ...Values[T]) Values[T] {
	merged := make(Values[T], len(values))
	for k, v := range values {
		merged[k] = v
	}
	for _, e := range extra {
		for k, v := range e {
			merged[k] = v
		}
	}
	return merged
}

func checkPage(offset, limit int) (int, int, error) {
	if offset < 0 {
		return 0, 0, apperror.Validation("invalid_offset", "offset must not be negative")
	}
	if limit < 0 {
		return 0, 0, apperror.Validation("invalid_limit", "limit must not be negative")
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return offset, limit, nil
}

// valueList expands a slice argument into its elements; any other value is
// treated as a one-element list.
func valueList(values any) []any {
	v := reflect.ValueOf(values)
	if !v.IsValid() {
		return []any{nil}
	}
	if !isList(v) {
		return []any{values}
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

// isList reports whether v is a slice of values rather than a single value.
// Byte slices and fixed arrays such as uuid.UUID count as single values.
func isList(v reflect.Value) bool {
	return v.IsValid() && v.Kind() == reflect.Slice && v.Type().Elem().Kind() != reflect.Uint8
}

func errImmutableID(entity string) error {
	return apperror.Validation("immutable_id", fmt.Sprintf("%s id cannot be changed", entity))
}
