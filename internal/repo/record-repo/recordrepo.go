// Package recordrepo stores loosely typed rows of the profile and catalogue
// tables. Table and column names must come from a whitelist; they are quoted
// here but never validated.
package recordrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/divinecia/Househelp-sub000/internal/domain"
	"github.com/divinecia/Househelp-sub000/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) List(ctx context.Context, table string, filter domain.Record, limit, offset int) ([]domain.Record, error) {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(ident(table))

	cols := sortedKeys(filter)
	args := make([]any, 0, len(cols)+2)
	for i, col := range cols {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, filter[col])
		fmt.Fprintf(&sb, "%s = $%d", ident(col), len(args))
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		zap.L().Error("failed to list records", zap.Error(err), zap.String("table", table))
		return nil, err
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			zap.L().Error("failed to scan record", zap.Error(err), zap.String("table", table))
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("failed to iterate records", zap.Error(err), zap.String("table", table))
		return nil, err
	}
	return records, nil
}

// Get returns nil, nil when no row has the id.
func (r *Repository) Get(ctx context.Context, table string, id uuid.UUID) (domain.Record, error) {
	query := "SELECT * FROM " + ident(table) + " WHERE id = $1"
	return r.one(ctx, table, query, id)
}

func (r *Repository) Insert(ctx context.Context, table string, rec domain.Record) (domain.Record, error) {
	cols := sortedKeys(rec)
	if len(cols) == 0 {
		return nil, domain.NewValidationError("no fields to save")
	}
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		names[i] = ident(col)
		params[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		ident(table), strings.Join(names, ", "), strings.Join(params, ", "))
	return r.one(ctx, table, query, args...)
}

// Update writes the given columns and refreshes updated_at. It returns
// nil, nil when no row has the id.
func (r *Repository) Update(ctx context.Context, table string, id uuid.UUID, rec domain.Record) (domain.Record, error) {
	cols := sortedKeys(rec)
	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		args = append(args, rec[col])
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(col), len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING *",
		ident(table), strings.Join(sets, ", "), len(args))
	return r.one(ctx, table, query, args...)
}

func (r *Repository) Delete(ctx context.Context, table string, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM "+ident(table)+" WHERE id = $1", id)
	if err != nil {
		zap.L().Error("failed to delete record", zap.Error(err), zap.String("table", table))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) one(ctx context.Context, table, query string, args ...any) (domain.Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to query record", zap.Error(err), zap.String("table", table))
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			zap.L().Error("failed to query record", zap.Error(err), zap.String("table", table))
			return nil, err
		}
		return nil, nil
	}
	rec, err := scanRecord(rows)
	if err != nil {
		zap.L().Error("failed to scan record", zap.Error(err), zap.String("table", table))
		return nil, err
	}
	return rec, nil
}

func scanRecord(rows pgx.Rows) (domain.Record, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, err
	}
	fields := rows.FieldDescriptions()
	rec := make(domain.Record, len(values))
	for i, v := range values {
		rec[fields[i].Name] = normalize(v)
	}
	return rec, nil
}

// normalize converts pgx wire representations into JSON friendly values.
func normalize(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val)
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	}
	return v
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func sortedKeys(rec domain.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
