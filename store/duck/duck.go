// Package duck loads records into an in-memory DuckDB and evaluates filter and sort state as SQL.
package duck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/marcboeker/go-duckdb"
	"github.com/pkg/errors"

	nt "gridlite/entity"
	"gridlite/filter"
	"gridlite/sorting"
)

const table = "records"

// Field is a top-level column of the loaded table.
type Field struct {
	Name string
	Type string
}

// Duck is a DuckDB backed record source.
type Duck struct {
	db       *sql.DB
	logger   nt.Logger
	filename string

	mu     sync.RWMutex
	top    map[string]bool
	leaves map[string]nt.DataType
}

// New opens an in-memory database.
func New(lgr nt.Logger) (dk *Duck, err error) {

	db, err := sql.Open("duckdb", "")
	if err != nil {
		err = errors.Wrapf(err, "failed to open memo duck")
		return
	}

	dk = &Duck{
		db:     db,
		logger: lgr,
		top:    map[string]bool{},
		leaves: map[string]nt.DataType{},
	}
	return
}

// Close releases the database.
func (dk *Duck) Close() {
	dk.db.Close()
}

// Name returns the name of the loaded file.
func (dk *Duck) Name() string {
	return dk.filename
}

// Load replaces the table with the contents of a json or newline delimited json file.
func (dk *Duck) Load(ctx context.Context, path string) (err error) {

	stmt := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM read_json_auto(%s)", table, literal(path))
	_, err = dk.db.ExecContext(ctx, stmt)
	if err != nil {
		err = errors.Wrapf(err, "failed to load %s", path)
		return
	}
	dk.filename = path

	fields, err := dk.Fields(ctx)
	if err != nil {
		return
	}

	top := map[string]bool{}
	leaves := map[string]nt.DataType{}
	for _, field := range fields {
		top[field.Name] = true
		for _, col := range leafColumns(field.Name, field.Type) {
			leaves[col.Field] = col.DataType
		}
	}

	dk.mu.Lock()
	dk.top = top
	dk.leaves = leaves
	dk.mu.Unlock()

	dk.logger.Info(ctx, "loaded records", "path", path, "fields", len(fields))
	return
}

// Fields lists the table's columns in ordinal order.
func (dk *Duck) Fields(ctx context.Context) (fields []Field, err error) {

	rows, err := dk.db.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		err = errors.Wrapf(err, "failed to query schema")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var field Field
		err = rows.Scan(&field.Name, &field.Type)
		if err != nil {
			err = errors.Wrapf(err, "failed to scan field")
			return
		}
		fields = append(fields, field)
	}

	err = rows.Err()
	err = errors.Wrapf(err, "error iterating fields")
	return
}

// Columns declares a column per leaf of the schema; struct fields become dot-delimited paths.
func (dk *Duck) Columns(ctx context.Context) (columns []nt.Column, err error) {

	fields, err := dk.Fields(ctx)
	if err != nil {
		return
	}

	for _, field := range fields {
		columns = append(columns, leafColumns(field.Name, field.Type)...)
	}
	return
}

// Records returns every row in load order.
func (dk *Duck) Records(ctx context.Context) (records []nt.Record, err error) {
	return dk.Query(ctx, filter.NewState(), sorting.NewState())
}

// Query returns the rows passing fs, ordered by ss and then load order.
func (dk *Duck) Query(ctx context.Context, fs *filter.State, ss *sorting.State) (records []nt.Record, err error) {

	bld := dk.builder()

	where, args, err := bld.where(fs)
	if err != nil {
		return
	}
	order, err := bld.orderBy(ss)
	if err != nil {
		return
	}
	query := fmt.Sprintf("SELECT * FROM %s %s %s", table, where, order)

	rows, err := dk.db.QueryContext(ctx, query, args...)
	if err != nil {
		err = errors.Wrapf(err, "failed to query records")
		return
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		err = errors.Wrapf(err, "failed to get cols from query rows")
		return
	}

	records = []nt.Record{}
	for rows.Next() {
		var vals []any
		vals, err = scanRow(rows, len(names))
		if err != nil {
			err = errors.Wrapf(err, "failed to scan row")
			return
		}

		rec := nt.Record{}
		for i, name := range names {
			rec[name] = normalize(vals[i])
		}
		records = append(records, rec)
	}

	err = rows.Err()
	err = errors.Wrapf(err, "error iterating rows")
	return
}

// unexported

func (dk *Duck) builder() builder {
	dk.mu.RLock()
	defer dk.mu.RUnlock()
	return builder{top: dk.top, leaves: dk.leaves}
}

func scanRow(rows *sql.Rows, count int) ([]any, error) {
	vals := make([]any, count)
	ptrs := make([]any, count)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	err := rows.Scan(ptrs...)
	return vals, err
}

// normalize converts driver specific values into ones entity.Value understands.
func normalize(val any) any {

	switch v := val.(type) {
	case duckdb.Decimal:
		return v.Float64()
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[key] = normalize(inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = normalize(inner)
		}
		return out
	}
	return val
}

func literal(str string) string {
	return "'" + strings.ReplaceAll(str, "'", "''") + "'"
}

func ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
