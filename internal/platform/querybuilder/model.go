package querybuilder

import (
	"reflect"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
)

// InsertModel builds a single-row insert from the db-tagged exported fields
// of model, in declaration order.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := modelColumns(model)
	if err != nil {
		return "", nil, crerr.Wrapf(err, "insert into %s", table)
	}
	return InsertInto(table).Columns(cols...).Values(vals...).Suffix(suffix).ToSQL()
}

type taggedField struct {
	index  int
	column string
}

var fieldCache sync.Map // reflect.Type -> []taggedField

func modelColumns(model any) ([]string, []any, error) {
	v := reflect.ValueOf(model)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil, crerr.New("model is nil")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, nil, crerr.Newf("model is %s, not a struct", v.Kind())
	}

	fields := taggedFields(v.Type())
	if len(fields) == 0 {
		return nil, nil, crerr.Newf("model %s has no db columns", v.Type())
	}

	cols := make([]string, len(fields))
	vals := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = f.column
		vals[i] = v.Field(f.index).Interface()
	}
	return cols, vals, nil
}

func taggedFields(t reflect.Type) []taggedField {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]taggedField)
	}

	var fields []taggedField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		column, _, _ := strings.Cut(f.Tag.Get("db"), ",")
		column = strings.TrimSpace(column)
		if column == "" || column == "-" {
			continue
		}
		fields = append(fields, taggedField{index: i, column: column})
	}

	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.([]taggedField)
}
