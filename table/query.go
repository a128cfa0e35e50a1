package table

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/hkloudou/lakeops"
	"github.com/tidwall/gjson"
	"github.com/tidwall/match"
	"github.com/tidwall/pretty"
)

// Query selects documents. Match must not modify doc.
type Query interface {
	Match(doc *lakeops.Document) bool
}

// QueryFunc adapts a function to Query.
type QueryFunc func(doc *lakeops.Document) bool

func (f QueryFunc) Match(doc *lakeops.Document) bool { return f(doc) }

// Field builds comparisons on one document field. The name is either a
// top-level key or a "/a/b" path.
type Field struct {
	name string
}

// Where starts a query on field.
func Where(field string) Field {
	return Field{name: field}
}

type fieldQuery struct {
	field string
	op    string
	arg   string
	test  func(gjson.Result) bool
}

func (q fieldQuery) Match(doc *lakeops.Document) bool {
	return q.test(doc.Get(q.field))
}

func (q fieldQuery) String() string {
	if q.arg == "" {
		return fmt.Sprintf("%s %s", q.field, q.op)
	}
	return fmt.Sprintf("%s %s %s", q.field, q.op, q.arg)
}

// Eq matches when the field holds a value equal to v. Numbers compare by
// value (1 equals 1.0), everything else by compact JSON.
func (f Field) Eq(v any) Query {
	raw, err := encodeArg(v)
	return fieldQuery{field: f.name, op: "==", arg: string(raw), test: func(r gjson.Result) bool {
		return err == nil && r.Exists() && equalJSON(r, raw)
	}}
}

// Ne matches when the field is absent or holds a different value.
func (f Field) Ne(v any) Query {
	raw, err := encodeArg(v)
	return fieldQuery{field: f.name, op: "!=", arg: string(raw), test: func(r gjson.Result) bool {
		return err == nil && !(r.Exists() && equalJSON(r, raw))
	}}
}

func (f Field) Gt(n float64) Query { return f.compare(">", n, func(a float64) bool { return a > n }) }
func (f Field) Ge(n float64) Query { return f.compare(">=", n, func(a float64) bool { return a >= n }) }
func (f Field) Lt(n float64) Query { return f.compare("<", n, func(a float64) bool { return a < n }) }
func (f Field) Le(n float64) Query { return f.compare("<=", n, func(a float64) bool { return a <= n }) }

// compare only matches number fields.
func (f Field) compare(op string, n float64, cmp func(float64) bool) Query {
	return fieldQuery{field: f.name, op: op, arg: fmt.Sprint(n), test: func(r gjson.Result) bool {
		return r.Type == gjson.Number && cmp(r.Float())
	}}
}

// Exists matches when the field is present, null included.
func (f Field) Exists() Query {
	return fieldQuery{field: f.name, op: "exists", test: gjson.Result.Exists}
}

// Like matches string fields against a glob pattern (* and ?).
func (f Field) Like(pattern string) Query {
	return fieldQuery{field: f.name, op: "like", arg: pattern, test: func(r gjson.Result) bool {
		return r.Type == gjson.String && match.Match(r.String(), pattern)
	}}
}

// Contains matches array fields holding an element equal to v.
func (f Field) Contains(v any) Query {
	raw, err := encodeArg(v)
	return fieldQuery{field: f.name, op: "contains", arg: string(raw), test: func(r gjson.Result) bool {
		if err != nil || !r.IsArray() {
			return false
		}
		found := false
		r.ForEach(func(_, item gjson.Result) bool {
			found = equalJSON(item, raw)
			return !found
		})
		return found
	}}
}

// Test matches when fn accepts the field value.
func (f Field) Test(fn func(gjson.Result) bool) Query {
	return fieldQuery{field: f.name, op: "test", test: fn}
}

type andQuery []Query

func (q andQuery) Match(doc *lakeops.Document) bool {
	for _, sub := range q {
		if !sub.Match(doc) {
			return false
		}
	}
	return true
}

func (q andQuery) String() string { return join(q, " && ") }

type orQuery []Query

func (q orQuery) Match(doc *lakeops.Document) bool {
	for _, sub := range q {
		if sub.Match(doc) {
			return true
		}
	}
	return false
}

func (q orQuery) String() string { return join(q, " || ") }

type notQuery struct{ q Query }

func (q notQuery) Match(doc *lakeops.Document) bool { return !q.q.Match(doc) }

func (q notQuery) String() string { return fmt.Sprintf("!(%v)", q.q) }

// And matches when every query matches. And() matches everything.
func And(qs ...Query) Query { return andQuery(qs) }

// Or matches when any query matches. Or() matches nothing.
func Or(qs ...Query) Query { return orQuery(qs) }

// Not inverts q.
func Not(q Query) Query { return notQuery{q: q} }

type idQuery []int64

func (q idQuery) Match(doc *lakeops.Document) bool { return slices.Contains(q, doc.ID()) }

func (q idQuery) String() string { return fmt.Sprintf("id in %v", []int64(q)) }

// ByID matches documents with one of the given ids.
func ByID(ids ...int64) Query { return idQuery(ids) }

type allQuery struct{}

func (allQuery) Match(*lakeops.Document) bool { return true }

func (allQuery) String() string { return "all" }

// All matches every document.
func All() Query { return allQuery{} }

func join(qs []Query, sep string) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = fmt.Sprint(q)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

func encodeArg(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("invalid JSON value %q", raw)
		}
		return pretty.Ugly(raw), nil
	}
	return json.Marshal(v)
}

func equalJSON(r gjson.Result, raw []byte) bool {
	other := gjson.ParseBytes(raw)
	if r.Type != other.Type {
		return false
	}
	switch r.Type {
	case gjson.Number:
		return r.Float() == other.Float()
	case gjson.String:
		return r.String() == other.String()
	case gjson.Null, gjson.True, gjson.False:
		return true
	}
	return string(pretty.Ugly([]byte(r.Raw))) == string(pretty.Ugly(raw))
}
