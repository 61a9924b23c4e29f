package gormstore

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func quote(parts ...string) (string, error) {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		if !identRe.MatchString(p) {
			return "", fmt.Errorf("gormstore: invalid identifier %q", p)
		}
		quoted[i] = `"` + p + `"`
	}
	return strings.Join(quoted, "."), nil
}

// condition renders one predicate to SQL with positional arguments.
func condition(schema store.Schema, p store.Predicate) (string, []any, error) {
	if p.Child == "" {
		col, err := quote(schema.Table, p.Field)
		if err != nil {
			return "", nil, err
		}
		return comparison(col, p.Op, p.Value)
	}

	child, ok := schema.Children[p.Child]
	if !ok {
		return "", nil, fmt.Errorf("gormstore: %s has no child table %q", schema.Entity, p.Child)
	}
	col, err := quote("c", p.Field)
	if err != nil {
		return "", nil, err
	}
	inner, args, err := comparison(col, p.Op, p.Value)
	if err != nil {
		return "", nil, err
	}
	childTable, err := quote(child.Table)
	if err != nil {
		return "", nil, err
	}
	parentCol, err := quote("c", child.ParentColumn)
	if err != nil {
		return "", nil, err
	}
	key, err := quote(schema.Table, schema.Key)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("EXISTS (SELECT 1 FROM %s c WHERE %s = %s AND %s)", childTable, parentCol, key, inner)
	return sql, args, nil
}

func comparison(col string, op store.Operator, value any) (string, []any, error) {
	switch op {
	case store.OpEq, store.OpNotEq, store.OpGt, store.OpGte, store.OpLt, store.OpLte:
		sqlOp := string(op)
		if op == store.OpNotEq {
			sqlOp = "<>"
		}
		return fmt.Sprintf("%s %s ?", col, sqlOp), []any{value}, nil
	case store.OpLike:
		return col + " ILIKE ?", []any{value}, nil
	case store.OpIn, store.OpNotIn:
		if isEmptyList(value) {
			if op == store.OpIn {
				return "1 = 0", nil, nil
			}
			return "1 = 1", nil, nil
		}
		return fmt.Sprintf("%s %s ?", col, strings.ToUpper(string(op))), []any{value}, nil
	case store.OpIsSet:
		return fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '') <> ''", col), nil, nil
	case store.OpNotSet:
		return fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '') = ''", col), nil, nil
	}
	return "", nil, fmt.Errorf("gormstore: unsupported operator %q", op)
}

func isEmptyList(v any) bool {
	rv := reflect.ValueOf(v)
	return (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() == 0
}

// Filters returns a scope applying the predicate set: every And predicate and,
// when present, at least one Or predicate.
func Filters(schema store.Schema, set store.PredicateSet) (func(*gorm.DB) *gorm.DB, error) {
	type cond struct {
		sql  string
		args []any
	}
	ands := make([]cond, 0, len(set.And))
	for _, p := range set.And {
		sql, args, err := condition(schema, p)
		if err != nil {
			return nil, err
		}
		ands = append(ands, cond{sql, args})
	}

	var orSQL []string
	var orArgs []any
	for _, p := range set.Or {
		sql, args, err := condition(schema, p)
		if err != nil {
			return nil, err
		}
		orSQL = append(orSQL, "("+sql+")")
		orArgs = append(orArgs, args...)
	}

	return func(db *gorm.DB) *gorm.DB {
		for _, c := range ands {
			db = db.Where(c.sql, c.args...)
		}
		if len(orSQL) > 0 {
			db = db.Where("("+strings.Join(orSQL, " OR ")+")", orArgs...)
		}
		return db
	}, nil
}

// Ordering returns a scope applying the order terms followed by the schema tie-break.
func Ordering(schema store.Schema, order []store.Order) func(*gorm.DB) *gorm.DB {
	if len(order) == 0 {
		order = schema.DefaultOrder
	}
	terms := append(append([]store.Order(nil), order...), schema.TieBreak...)
	return func(db *gorm.DB) *gorm.DB {
		for _, o := range terms {
			db = db.Order(clause.OrderByColumn{
				Column: clause.Column{Table: schema.Table, Name: o.Field},
				Desc:   o.Desc,
			})
		}
		return db
	}
}
