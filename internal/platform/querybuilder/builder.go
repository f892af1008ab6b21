// Package querybuilder renders the handful of PostgreSQL statement shapes the
// repositories need. Values always travel as numbered $n parameters; only
// table names, column names and trusted SQL fragments are inlined.
package querybuilder

import (
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
)

// binder collects positional arguments while a statement is rendered.
type binder struct {
	values []any
}

func (b *binder) bind(v any) string {
	b.values = append(b.values, v)
	return "$" + strconv.Itoa(len(b.values))
}

// expand replaces each ? in fragment with the next bound value. Extra ?
// marks without a value are left untouched.
func (b *binder) expand(fragment string, values []any) string {
	if len(values) == 0 {
		return fragment
	}
	var out strings.Builder
	next := 0
	for i := 0; i < len(fragment); i++ {
		if fragment[i] == '?' && next < len(values) {
			out.WriteString(b.bind(values[next]))
			next++
			continue
		}
		out.WriteByte(fragment[i])
	}
	return out.String()
}

type Condition interface {
	render(buf *bytebufferpool.ByteBuffer, b *binder)
}

type conditionFunc func(buf *bytebufferpool.ByteBuffer, b *binder)

func (f conditionFunc) render(buf *bytebufferpool.ByteBuffer, b *binder) { f(buf, b) }

func Eq(column string, value any) Condition {
	return conditionFunc(func(buf *bytebufferpool.ByteBuffer, b *binder) {
		_, _ = buf.WriteString(column + " = " + b.bind(value))
	})
}

func IsNull(column string) Condition {
	return conditionFunc(func(buf *bytebufferpool.ByteBuffer, _ *binder) {
		_, _ = buf.WriteString(column + " IS NULL")
	})
}

// Between matches lo <= column <= hi.
func Between(column string, lo, hi any) Condition {
	return conditionFunc(func(buf *bytebufferpool.ByteBuffer, b *binder) {
		_, _ = buf.WriteString(column + " BETWEEN " + b.bind(lo) + " AND " + b.bind(hi))
	})
}

// Expr inlines a raw predicate whose ? marks are bound to args in order.
func Expr(expr string, args ...any) Condition {
	return conditionFunc(func(buf *bytebufferpool.ByteBuffer, b *binder) {
		_, _ = buf.WriteString(b.expand(expr, args))
	})
}

// render runs fn against a pooled buffer and returns the finished statement.
func render(fn func(buf *bytebufferpool.ByteBuffer, b *binder) error) (string, []any, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	var b binder
	if err := fn(buf, &b); err != nil {
		return "", nil, err
	}
	return buf.String(), b.values, nil
}

func writeWhere(buf *bytebufferpool.ByteBuffer, b *binder, conditions []Condition) {
	for i, c := range conditions {
		if i == 0 {
			_, _ = buf.WriteString(" WHERE ")
		} else {
			_, _ = buf.WriteString(" AND ")
		}
		c.render(buf, b)
	}
}

func writeList(buf *bytebufferpool.ByteBuffer, keyword string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = buf.WriteString(" " + keyword + " " + strings.Join(items, ", "))
}

func writeSuffix(buf *bytebufferpool.ByteBuffer, suffix string) {
	if suffix == "" {
		return
	}
	_, _ = buf.WriteString(" " + suffix)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	groupBy []string
	orderBy []string
	suffix  string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (s *SelectBuilder) From(table string) *SelectBuilder {
	s.table = strings.TrimSpace(table)
	return s
}

func (s *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	s.where = append(s.where, conditions...)
	return s
}

func (s *SelectBuilder) GroupBy(columns ...string) *SelectBuilder {
	s.groupBy = append(s.groupBy, columns...)
	return s
}

func (s *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	s.orderBy = append(s.orderBy, columns...)
	return s
}

// Suffix appends a trailing clause such as FOR UPDATE.
func (s *SelectBuilder) Suffix(sql string) *SelectBuilder {
	s.suffix = strings.TrimSpace(sql)
	return s
}

func (s *SelectBuilder) ToSQL() (string, []any, error) {
	return render(func(buf *bytebufferpool.ByteBuffer, b *binder) error {
		if len(s.columns) == 0 {
			return crerr.New("select: no columns")
		}
		if s.table == "" {
			return crerr.New("select: no table")
		}
		_, _ = buf.WriteString("SELECT " + strings.Join(s.columns, ", ") + " FROM " + s.table)
		writeWhere(buf, b, s.where)
		writeList(buf, "GROUP BY", s.groupBy)
		writeList(buf, "ORDER BY", s.orderBy)
		writeSuffix(buf, s.suffix)
		return nil
	})
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: strings.TrimSpace(table)}
}

func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append([]string(nil), columns...)
	return i
}

// Values adds one row. Call it repeatedly for a multi-row insert.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.rows = append(i.rows, append([]any(nil), values...))
	return i
}

// Suffix appends a trailing clause such as ON CONFLICT or RETURNING.
func (i *InsertBuilder) Suffix(sql string) *InsertBuilder {
	i.suffix = strings.TrimSpace(sql)
	return i
}

func (i *InsertBuilder) ToSQL() (string, []any, error) {
	return render(func(buf *bytebufferpool.ByteBuffer, b *binder) error {
		switch {
		case i.table == "":
			return crerr.New("insert: no table")
		case len(i.columns) == 0:
			return crerr.Newf("insert into %s: no columns", i.table)
		case len(i.rows) == 0:
			return crerr.Newf("insert into %s: no rows", i.table)
		}

		_, _ = buf.WriteString("INSERT INTO " + i.table + " (" + strings.Join(i.columns, ", ") + ") VALUES ")
		for n, row := range i.rows {
			if len(row) != len(i.columns) {
				return crerr.Newf("insert into %s: row %d has %d values for %d columns", i.table, n, len(row), len(i.columns))
			}
			if n > 0 {
				_, _ = buf.WriteString(", ")
			}
			_ = buf.WriteByte('(')
			for c, v := range row {
				if c > 0 {
					_, _ = buf.WriteString(", ")
				}
				_, _ = buf.WriteString(b.bind(v))
			}
			_ = buf.WriteByte(')')
		}
		writeSuffix(buf, i.suffix)
		return nil
	})
}

type assignment struct {
	column string
	value  any
	raw    string
	args   []any
	isRaw  bool
}

type UpdateBuilder struct {
	table  string
	sets   []assignment
	where  []Condition
	suffix string
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: strings.TrimSpace(table)}
}

func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, value: value})
	return u
}

// SetExpr assigns a raw SQL expression such as NOW() or counter + ?.
func (u *UpdateBuilder) SetExpr(column, expr string, args ...any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, raw: expr, args: args, isRaw: true})
	return u
}

func (u *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	u.where = append(u.where, conditions...)
	return u
}

func (u *UpdateBuilder) Suffix(sql string) *UpdateBuilder {
	u.suffix = strings.TrimSpace(sql)
	return u
}

func (u *UpdateBuilder) ToSQL() (string, []any, error) {
	return render(func(buf *bytebufferpool.ByteBuffer, b *binder) error {
		if u.table == "" {
			return crerr.New("update: no table")
		}
		if len(u.sets) == 0 {
			return crerr.Newf("update %s: no assignments", u.table)
		}

		_, _ = buf.WriteString("UPDATE " + u.table + " SET ")
		for n, s := range u.sets {
			if n > 0 {
				_, _ = buf.WriteString(", ")
			}
			if s.isRaw {
				_, _ = buf.WriteString(s.column + " = " + b.expand(s.raw, s.args))
				continue
			}
			_, _ = buf.WriteString(s.column + " = " + b.bind(s.value))
		}
		writeWhere(buf, b, u.where)
		writeSuffix(buf, u.suffix)
		return nil
	})
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: strings.TrimSpace(table)}
}

func (d *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	d.where = append(d.where, conditions...)
	return d
}

// ToSQL refuses to build an unconditional delete.
func (d *DeleteBuilder) ToSQL() (string, []any, error) {
	return render(func(buf *bytebufferpool.ByteBuffer, b *binder) error {
		if d.table == "" {
			return crerr.New("delete: no table")
		}
		if len(d.where) == 0 {
			return crerr.Newf("delete from %s: no conditions", d.table)
		}
		_, _ = buf.WriteString("DELETE FROM " + d.table)
		writeWhere(buf, b, d.where)
		return nil
	})
}
