package repositories

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/database"
)

const uniqueViolation = "23505"

// PostgresStore implements Store by generating SQL from a Descriptor.
type PostgresStore[T any] struct {
	desc       Descriptor[T]
	table      string
	selectList string
}

func NewPostgresStore[T any](desc Descriptor[T]) *PostgresStore[T] {
	return &PostgresStore[T]{
		desc:       desc,
		table:      pgx.Identifier{desc.Table}.Sanitize(),
		selectList: quoteAll(desc.Columns),
	}
}

func (s *PostgresStore[T]) Create(ctx context.Context, db database.DBTX, values Values[T], extra ...Values[T]) (*T, error) {
	cols, args, err := s.desc.ordered(mergeValues(values, extra...))
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, apperror.Validation("empty_payload", fmt.Sprintf("no fields given for %s", s.desc.Entity))
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
		s.table, quoteAll(cols), strings.Join(placeholders, ", "), s.selectList)

	return s.scanOne(db.QueryRow(ctx, query, args...), "create")
}

func (s *PostgresStore[T]) Read(ctx context.Context, db database.DBTX, id uuid.UUID) (*T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, s.selectList, s.table, quote(columnID))
	return s.scanOne(db.QueryRow(ctx, query, id), "read")
}

func (s *PostgresStore[T]) ReadByColumn(ctx context.Context, db database.DBTX, col Column[T], value any) (*T, error) {
	if err := s.desc.checkColumn(col); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 LIMIT 1`, s.selectList, s.table, quote(col.name))
	return s.scanOne(db.QueryRow(ctx, query, value), "read")
}

func (s *PostgresStore[T]) ReadMultiByColumn(ctx context.Context, db database.DBTX, col Column[T], values any) ([]*T, error) {
	if err := s.desc.checkColumn(col); err != nil {
		return nil, err
	}

	cond := "= $1"
	if v := reflect.ValueOf(values); isList(v) {
		if v.Len() == 0 {
			return []*T{}, nil
		}
		cond = "= ANY($1)"
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s %s%s`, s.selectList, s.table, quote(col.name), cond, s.orderBy())
	rows, err := db.Query(ctx, query, values)
	if err != nil {
		return nil, s.translate(err, "query")
	}
	return s.scanMany(rows)
}

func (s *PostgresStore[T]) ReadMulti(ctx context.Context, db database.DBTX, offset, limit int) ([]*T, error) {
	offset, limit, err := checkPage(offset, limit)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s OFFSET $1 LIMIT $2`, s.selectList, s.table, s.orderBy())
	rows, err := db.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, s.translate(err, "query")
	}
	return s.scanMany(rows)
}

func (s *PostgresStore[T]) Update(ctx context.Context, db database.DBTX, existing *T, patch Values[T]) (*T, error) {
	if _, ok := patch[Column[T]{name: columnID}]; ok {
		return nil, errImmutableID(s.desc.Entity)
	}
	cols, args, err := s.desc.ordered(patch)
	if err != nil {
		return nil, err
	}

	id := s.desc.ID(existing)
	if len(cols) == 0 {
		return s.Read(ctx, db, id)
	}

	sets := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", quote(c), i+1))
	}
	if s.desc.Timestamps {
		if _, touched := patch[Column[T]{name: columnUpdatedAt}]; !touched {
			sets = append(sets, fmt.Sprintf("%s = NOW()", quote(columnUpdatedAt)))
		}
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $%d RETURNING %s`,
		s.table, strings.Join(sets, ", "), quote(columnID), len(args), s.selectList)

	return s.scanOne(db.QueryRow(ctx, query, args...), "update")
}

func (s *PostgresStore[T]) Delete(ctx context.Context, db database.DBTX, id uuid.UUID) (*T, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`, s.table, quote(columnID), s.selectList)
	return s.scanOne(db.QueryRow(ctx, query, id), "delete")
}

func (s *PostgresStore[T]) orderBy() string {
	if s.desc.Timestamps {
		return fmt.Sprintf(" ORDER BY %s, %s", quote(columnCreatedAt), quote(columnID))
	}
	return fmt.Sprintf(" ORDER BY %s", quote(columnID))
}

func (s *PostgresStore[T]) scanOne(row pgx.Row, op string) (*T, error) {
	var entity T
	if err := row.Scan(s.desc.Fields(&entity)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound(s.desc.Entity)
		}
		return nil, s.translate(err, op)
	}
	return &entity, nil
}

func (s *PostgresStore[T]) scanMany(rows pgx.Rows) ([]*T, error) {
	defer rows.Close()

	out := []*T{}
	for rows.Next() {
		var entity T
		if err := rows.Scan(s.desc.Fields(&entity)...); err != nil {
			return nil, s.translate(err, "scan")
		}
		out = append(out, &entity)
	}
	if err := rows.Err(); err != nil {
		return nil, s.translate(err, "iterate")
	}
	return out, nil
}

// translate turns driver errors into apperror kinds. Unique violations
// become conflicts; everything else is internal.
func (s *PostgresStore[T]) translate(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperror.Wrap(apperror.KindConflict, s.desc.Entity+"_exists",
			fmt.Sprintf("%s already exists", s.desc.Entity), err)
	}
	return apperror.Internal(fmt.Errorf("failed to %s %s: %w", op, s.desc.Table, err))
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return strings.Join(quoted, ", ")
}
