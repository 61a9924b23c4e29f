package memstore

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// fieldIndex maps json names to struct field indexes, per type.
var fieldIndex sync.Map // reflect.Type -> map[string][]int

func indexFor(t reflect.Type) map[string][]int {
	if cached, ok := fieldIndex.Load(t); ok {
		return cached.(map[string][]int)
	}
	idx := make(map[string][]int)
	collectFields(t, nil, idx)
	fieldIndex.Store(t, idx)
	return idx
}

func collectFields(t reflect.Type, prefix []int, idx map[string][]int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, path, idx)
			continue
		}
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if _, taken := idx[name]; !taken {
			idx[name] = path
		}
	}
}

// field returns the value of the field tagged name on the struct v.
func field(v reflect.Value, name string) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	path, ok := indexFor(v.Type())[name]
	if !ok {
		return reflect.Value{}, false
	}
	return v.FieldByIndex(path), true
}

func matchesSet(v reflect.Value, set store.PredicateSet) bool {
	for _, p := range set.And {
		if !matches(v, p) {
			return false
		}
	}
	if len(set.Or) == 0 {
		return true
	}
	for _, p := range set.Or {
		if matches(v, p) {
			return true
		}
	}
	return false
}

func matches(v reflect.Value, p store.Predicate) bool {
	if p.Child == "" {
		fv, ok := field(v, p.Field)
		if !ok {
			return false
		}
		return compareOp(fv, p.Op, p.Value)
	}
	rows, ok := field(v, p.Child)
	if !ok || rows.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < rows.Len(); i++ {
		fv, ok := field(rows.Index(i), p.Field)
		if ok && compareOp(fv, p.Op, p.Value) {
			return true
		}
	}
	return false
}

func compareOp(fv reflect.Value, op store.Operator, want any) bool {
	got := normalize(fv)
	switch op {
	case store.OpIsSet:
		return isSet(got)
	case store.OpNotSet:
		return !isSet(got)
	case store.OpEq:
		c, ok := compare(got, normalizeAny(want))
		return ok && c == 0
	case store.OpNotEq:
		c, ok := compare(got, normalizeAny(want))
		return !ok || c != 0
	case store.OpIn, store.OpNotIn:
		found := false
		for _, w := range listOf(want) {
			if c, ok := compare(got, normalizeAny(w)); ok && c == 0 {
				found = true
				break
			}
		}
		if op == store.OpIn {
			return found
		}
		return !found
	case store.OpLike:
		s, ok := got.(string)
		if !ok {
			return false
		}
		return likePattern(fmt.Sprint(want)).MatchString(s)
	case store.OpGt, store.OpGte, store.OpLt, store.OpLte:
		c, ok := compare(got, normalizeAny(want))
		if !ok {
			return false
		}
		switch op {
		case store.OpGt:
			return c > 0
		case store.OpGte:
			return c >= 0
		case store.OpLt:
			return c < 0
		default:
			return c <= 0
		}
	}
	return false
}

func isSet(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case time.Time:
		return !x.IsZero()
	}
	return true
}

func listOf(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func normalizeAny(v any) any {
	if v == nil {
		return nil
	}
	return normalize(reflect.ValueOf(v))
}

// normalize reduces a value to nil, string, float64 or time.Time. Booleans
// become 0/1 so flag columns compare against either form.
func normalize(v reflect.Value) any {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if t, ok := v.Interface().(time.Time); ok {
		return t
	}
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return float64(1)
		}
		return float64(0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	}
	return fmt.Sprint(v.Interface())
}

func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0, true
		}
		return 0, false
	}
	switch x := a.(type) {
	case float64:
		y, ok := asFloat(b)
		if !ok {
			return 0, false
		}
		return cmpFloat(x, y), true
	case string:
		switch y := b.(type) {
		case string:
			return strings.Compare(x, y), true
		case float64:
			xf, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return 0, false
			}
			return cmpFloat(xf, y), true
		case time.Time:
			xt, ok := parseTime(x)
			if !ok {
				return 0, false
			}
			return xt.Compare(y), true
		}
	case time.Time:
		switch y := b.(type) {
		case time.Time:
			return x.Compare(y), true
		case string:
			yt, ok := parseTime(y)
			if !ok {
				return 0, false
			}
			return x.Compare(yt), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch y := v.(type) {
	case float64:
		return y, true
	case string:
		f, err := strconv.ParseFloat(y, 64)
		return f, err == nil
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var likeCache sync.Map // string -> *regexp.Regexp

// likePattern compiles a SQL LIKE pattern into a case-insensitive regexp.
func likePattern(pattern string) *regexp.Regexp {
	if re, ok := likeCache.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re := regexp.MustCompile(b.String())
	likeCache.Store(pattern, re)
	return re
}

// less orders two records by the given terms; unknown fields compare equal.
func less(a, b reflect.Value, order []store.Order) bool {
	for _, o := range order {
		av, _ := field(a, o.Field)
		bv, _ := field(b, o.Field)
		if !av.IsValid() || !bv.IsValid() {
			continue
		}
		c, ok := compare(normalize(av), normalize(bv))
		if !ok || c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}
