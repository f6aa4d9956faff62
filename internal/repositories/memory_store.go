package repositories

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/database"
)

// MemoryStore implements Store in process memory. It ignores the session
// handle, keeps insertion order, and enforces the descriptor's Unique
// columns and Defaults the way the schema does for PostgresStore.
type MemoryStore[T any] struct {
	desc Descriptor[T]
	now  func() time.Time

	mu   sync.RWMutex
	rows []*T
}

func NewMemoryStore[T any](desc Descriptor[T]) *MemoryStore[T] {
	return &MemoryStore[T]{desc: desc, now: time.Now}
}

func (s *MemoryStore[T]) Create(_ context.Context, _ database.DBTX, values Values[T], extra ...Values[T]) (*T, error) {
	merged := mergeValues(values, extra...)
	cols, args, err := s.desc.ordered(merged)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, apperror.Validation("empty_payload", fmt.Sprintf("no fields given for %s", s.desc.Entity))
	}

	var entity T
	fields := s.desc.Fields(&entity)
	for name, v := range s.desc.Defaults {
		if err := s.assign(fields, name, v); err != nil {
			return nil, err
		}
	}
	for i, name := range cols {
		if err := s.assign(fields, name, args[i]); err != nil {
			return nil, err
		}
	}
	if err := s.assign(fields, columnID, uuid.New()); err != nil {
		return nil, err
	}
	if s.desc.Timestamps {
		now := s.now().UTC()
		_ = s.assign(fields, columnCreatedAt, now)
		_ = s.assign(fields, columnUpdatedAt, now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(&entity); err != nil {
		return nil, err
	}
	s.rows = append(s.rows, &entity)
	return s.copyOf(&entity), nil
}

func (s *MemoryStore[T]) Read(_ context.Context, _ database.DBTX, id uuid.UUID) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.find(id); i >= 0 {
		return s.copyOf(s.rows[i]), nil
	}
	return nil, apperror.NotFound(s.desc.Entity)
}

func (s *MemoryStore[T]) ReadByColumn(_ context.Context, _ database.DBTX, col Column[T], value any) (*T, error) {
	if err := s.desc.checkColumn(col); err != nil {
		return nil, err
	}
	idx := s.desc.index(col.name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if sameValue(s.desc.Fields(row)[idx], value) {
			return s.copyOf(row), nil
		}
	}
	return nil, apperror.NotFound(s.desc.Entity)
}

func (s *MemoryStore[T]) ReadMultiByColumn(_ context.Context, _ database.DBTX, col Column[T], values any) ([]*T, error) {
	if err := s.desc.checkColumn(col); err != nil {
		return nil, err
	}
	idx := s.desc.index(col.name)
	wanted := valueList(values)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*T{}
	for _, row := range s.rows {
		field := s.desc.Fields(row)[idx]
		for _, w := range wanted {
			if sameValue(field, w) {
				out = append(out, s.copyOf(row))
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore[T]) ReadMulti(_ context.Context, _ database.DBTX, offset, limit int) ([]*T, error) {
	offset, limit, err := checkPage(offset, limit)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*T{}
	for i := offset; i < len(s.rows) && len(out) < limit; i++ {
		out = append(out, s.copyOf(s.rows[i]))
	}
	return out, nil
}

func (s *MemoryStore[T]) Update(_ context.Context, _ database.DBTX, existing *T, patch Values[T]) (*T, error) {
	if _, ok := patch[Column[T]{name: columnID}]; ok {
		return nil, errImmutableID(s.desc.Entity)
	}
	cols, args, err := s.desc.ordered(patch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(s.desc.ID(existing))
	if i < 0 {
		return nil, apperror.NotFound(s.desc.Entity)
	}
	if len(cols) == 0 {
		return s.copyOf(s.rows[i]), nil
	}

	updated := s.copyOf(s.rows[i])
	fields := s.desc.Fields(updated)
	for j, name := range cols {
		if err := s.assign(fields, name, args[j]); err != nil {
			return nil, err
		}
	}
	if s.desc.Timestamps {
		if _, touched := patch[Column[T]{name: columnUpdatedAt}]; !touched {
			_ = s.assign(fields, columnUpdatedAt, s.now().UTC())
		}
	}
	if err := s.checkUnique(updated); err != nil {
		return nil, err
	}

	s.rows[i] = updated
	return s.copyOf(updated), nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, _ database.DBTX, id uuid.UUID) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return nil, apperror.NotFound(s.desc.Entity)
	}
	removed := s.rows[i]
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return removed, nil
}

// find must be called with mu held.
func (s *MemoryStore[T]) find(id uuid.UUID) int {
	for i, row := range s.rows {
		if s.desc.ID(row) == id {
			return i
		}
	}
	return -1
}

// checkUnique must be called with mu held. candidate is compared against
// every stored row except the one sharing its id.
func (s *MemoryStore[T]) checkUnique(candidate *T) error {
	id := s.desc.ID(candidate)
	fields := s.desc.Fields(candidate)
	for _, name := range s.desc.Unique {
		idx := s.desc.index(name)
		want := deref(fields[idx])
		if want == nil {
			continue
		}
		for _, row := range s.rows {
			if s.desc.ID(row) == id {
				continue
			}
			if sameValue(s.desc.Fields(row)[idx], want) {
				return apperror.Conflict(s.desc.Entity+"_exists", fmt.Sprintf("%s already exists", s.desc.Entity))
			}
		}
	}
	return nil
}

func (s *MemoryStore[T]) copyOf(row *T) *T {
	cp := *row
	return &cp
}

func (s *MemoryStore[T]) assign(fields []any, name string, value any) error {
	idx := s.desc.index(name)
	if idx < 0 {
		return apperror.InvalidColumn(name, s.desc.Table)
	}
	if !assign(fields[idx], value) {
		return apperror.Validation("invalid_value",
			fmt.Sprintf("value of type %T cannot be stored in %s.%s", value, s.desc.Table, name))
	}
	return nil
}

// assign stores value into the field behind ptr, converting between a value
// and a pointer to it where needed. It reports false when the types do not fit.
func assign(ptr any, value any) bool {
	dst := reflect.ValueOf(ptr).Elem()
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return true
	}

	src := reflect.ValueOf(value)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case dst.Kind() == reflect.Pointer && src.Type().AssignableTo(dst.Type().Elem()):
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(src)
		dst.Set(p)
	case src.Kind() == reflect.Pointer && src.IsNil():
		dst.Set(reflect.Zero(dst.Type()))
	case src.Kind() == reflect.Pointer && src.Elem().Type().AssignableTo(dst.Type()):
		dst.Set(src.Elem())
	default:
		return false
	}
	return true
}

// deref follows pointers down to the stored value; nil pointers yield nil.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// sameValue compares with SQL equality: NULL matches nothing, not even NULL.
func sameValue(field any, value any) bool {
	f, v := deref(field), deref(value)
	if f == nil || v == nil {
		return false
	}
	return reflect.DeepEqual(f, v)
}
