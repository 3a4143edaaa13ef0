package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wsdeck/internal/domain"
	wsdecksdk "wsdeck/sdk/go"
)

type Repo struct {
	DB *sql.DB
}

var (
	ErrNotFound  = errors.New("not found")
	ErrConflict  = errors.New("already exists")
	ErrBadCursor = errors.New("after_id does not match any row")
)

// TimeLayout is fixed width so stored timestamps sort as text.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(TimeLayout, raw)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// q runs on tx when one is given.
func (r Repo) q(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.DB
}

// InTx runs fn in a transaction and commits when fn succeeds.
func (r Repo) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func encodeDoc(v any) (string, error) {
	data, err := wsdecksdk.Encode(v)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(data), nil
}

func decodeDoc[T any](raw string) (T, error) {
	v, err := wsdecksdk.Decode[T]([]byte(raw))
	if err != nil {
		return v, fmt.Errorf("stored document: %w", err)
	}
	return v, nil
}

// getDoc loads a single data column.
func getDoc[T any](ctx context.Context, q querier, query string, args ...any) (T, error) {
	var raw string
	err := q.QueryRowContext(ctx, query, args...).Scan(&raw)
	if err == sql.ErrNoRows {
		var zero T
		return zero, ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeDoc[T](raw)
}

func scanDocs[T any](rows *sql.Rows) ([]T, error) {
	defer rows.Close()
	res := []T{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := decodeDoc[T](raw)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

// listQuery selects the data column of table, ordered by order then id.
type listQuery struct {
	table string
	order string
	desc  bool
	where []string
	args  []any
}

func (l *listQuery) filter(clause string, args ...any) {
	l.where = append(l.where, clause)
	l.args = append(l.args, args...)
}

func (l listQuery) whereSQL() string {
	if len(l.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(l.where, " AND ")
}

// listDocs applies the pagination envelope. AfterID resumes strictly after
// the row it names, which must match the filters; Offset skips rows after
// that; Limit 0 means no limit.
func listDocs[T any](ctx context.Context, q querier, l listQuery, page domain.Page) ([]T, error) {
	if page.AfterID != nil {
		// The cursor must be a row of this listing, filters included.
		lookup := listQuery{table: l.table}
		lookup.where = append(append(lookup.where, l.where...), "id=?")
		lookup.args = append(append(lookup.args, l.args...), page.AfterID.String())
		var cursor any
		err := q.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s%s`, l.order, l.table, lookup.whereSQL()), lookup.args...).Scan(&cursor)
		if err == sql.ErrNoRows {
			return nil, ErrBadCursor
		}
		if err != nil {
			return nil, err
		}
		op := ">"
		if l.desc {
			op = "<"
		}
		l.filter(fmt.Sprintf("(%[1]s %[2]s ? OR (%[1]s = ? AND id %[2]s ?))", l.order, op), cursor, cursor, page.AfterID.String())
	}
	dir := "ASC"
	if l.desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT data FROM %s%s ORDER BY %s %s, id %s`, l.table, l.whereSQL(), l.order, dir, dir)
	args := l.args
	if page.Limit > 0 || page.Offset > 0 {
		limit := page.Limit
		if limit == 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, page.Offset)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanDocs[T](rows)
}

func countRows(ctx context.Context, q querier, l listQuery) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+l.table+l.whereSQL(), l.args...).Scan(&n)
	return n, err
}

// mapWriteErr turns constraint failures into ErrConflict.
func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return mapWriteErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
