package table

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/hkloudou/lakeops"
)

// newFixture returns a table holding {"int":1,"char":x} for x in a, b, c.
func newFixture(t *testing.T, opts ...func(*Option)) *Table {
	t.Helper()
	db, err := Open(opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tbl, err := db.Table("_default")
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	_, err = tbl.InsertMultiple(context.Background(),
		map[string]any{"int": 1, "char": "a"},
		map[string]any{"int": 1, "char": "b"},
		map[string]any{"int": 1, "char": "c"},
	)
	if err != nil {
		t.Fatalf("InsertMultiple: %v", err)
	}
	return tbl
}

func update(t *testing.T, tbl *Table, tf lakeops.Transform) {
	t.Helper()
	if _, err := tbl.Update(context.Background(), tf, Where("char").Eq("a")); err != nil {
		t.Fatalf("Update(%v): %v", tf, err)
	}
}

func getA(t *testing.T, tbl *Table) *lakeops.Document {
	t.Helper()
	doc, err := tbl.Get(context.Background(), Where("char").Eq("a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return doc
}

func strs(doc *lakeops.Document, field string) []string {
	out := []string{}
	for _, v := range doc.Get(field).Array() {
		out = append(out, v.String())
	}
	return out
}

func TestDeleteOperation(t *testing.T) {
	tbl := newFixture(t)
	update(t, tbl, lakeops.Delete("int"))
	if getA(t, tbl).Has("int") {
		t.Errorf("int still present")
	}
}

func TestIncrementOperation(t *testing.T) {
	tbl := newFixture(t)
	update(t, tbl, lakeops.Increment("int"))
	if got := getA(t, tbl).Get("int").Int(); got != 2 {
		t.Errorf("int = %d, want 2", got)
	}
}

func TestDecrementOperation(t *testing.T) {
	tbl := newFixture(t)
	update(t, tbl, lakeops.Decrement("int"))
	if got := getA(t, tbl).Get("int").Int(); got != 0 {
		t.Errorf("int = %d, want 0", got)
	}
}

func TestIncrementWithDelta(t *testing.T) {
	tbl := newFixture(t)
	update(t, tbl, lakeops.Increment("int", lakeops.WithDelta(9)))
	if got := getA(t, tbl).Get("int").Int(); got != 10 {
		t.Errorf("int = %d, want 10", got)
	}
}

func TestDecrementWithDelta(t *testing.T) {
	tbl := newFixture(t)
	update(t, tbl, lakeops.Decrement("int", lakeops.WithDelta(2)))
	if got := getA(t, tbl).Get("int").Int(); got != -1 {
		t.Errorf("int = %d, want -1", got)
	}
}

func TestDecrementWithDeltaRaise(t *testing.T) {
	tbl := newFixture(t)
	_, err := tbl.Update(context.Background(),
		lakeops.Decrement("int", lakeops.WithDelta(2), lakeops.WithRaiseIfNegative()),
		Where("char").Eq("a"))
	if !errors.Is(err, lakeops.ErrNegativeResult) {
		t.Fatalf("expected ErrNegativeResult, got %v", err)
	}
	var docErr *DocumentError
	if !errors.As(err, &docErr) || docErr.ID != 1 {
		t.Errorf("error does not name document 1: %v", err)
	}
	if got := getA(t, tbl).Get("int").Int(); got != 1 {
		t.Errorf("int = %d after failed update, want 1", got)
	}
}

func TestAddToSetOperation(t *testing.T) {
	tbl := newFixture(t)

	update(t, tbl, lakeops.AddToSet("set", "x"))
	if got := strs(getA(t, tbl), "set"); !slices.Equal(got, []string{"x"}) {
		t.Errorf("set = %v", got)
	}

	update(t, tbl, lakeops.AddToSet("set", "x"))
	if got := strs(getA(t, tbl), "set"); !slices.Equal(got, []string{"x"}) {
		t.Errorf("set = %v", got)
	}

	update(t, tbl, lakeops.AddToSet("set", "y"))
	got := strs(getA(t, tbl), "set")
	slices.Sort(got)
	if !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("set = %v", got)
	}
}

func TestRemoveFromSetOperation(t *testing.T) {
	tbl := newFixture(t)

	steps := []struct {
		tf   lakeops.Transform
		want []string
	}{
		{lakeops.AddToSet("set", "x"), []string{"x"}},
		{lakeops.RemoveFromSet("set", "x"), []string{}},
		{lakeops.AddToSet("set", "x"), []string{"x"}},
		{lakeops.AddToSet("set", "y"), []string{"x", "y"}},
		{lakeops.RemoveFromSet("set", "y"), []string{"x"}},
	}
	for i, step := range steps {
		update(t, tbl, step.tf)
		got := strs(getA(t, tbl), "set")
		slices.Sort(got)
		if !slices.Equal(got, step.want) {
			t.Errorf("step %d (%v): set = %v, want %v", i, step.tf, got, step.want)
		}
	}
}

func TestAppendOperation(t *testing.T) {
	tbl := newFixture(t)

	update(t, tbl, lakeops.Append("list", "x"))
	update(t, tbl, lakeops.Append("list", "x"))
	update(t, tbl, lakeops.Append("list", "y"))
	if got := strs(getA(t, tbl), "list"); !slices.Equal(got, []string{"x", "x", "y"}) {
		t.Errorf("list = %v", got)
	}
}

func TestPrependOperation(t *testing.T) {
	tbl := newFixture(t)

	update(t, tbl, lakeops.Prepend("list", "x"))
	update(t, tbl, lakeops.Prepend("list", "y"))
	update(t, tbl, lakeops.Prepend("list", "z"))
	if got := strs(getA(t, tbl), "list"); !slices.Equal(got, []string{"z", "y", "x"}) {
		t.Errorf("list = %v", got)
	}
}

func TestSliceOperation(t *testing.T) {
	tbl := newFixture(t)

	update(t, tbl, lakeops.Prepend("list", "x"))
	update(t, tbl, lakeops.Prepend("list", "y"))
	update(t, tbl, lakeops.Prepend("list", "z"))
	update(t, tbl, lakeops.Slice("list", 0, 2))
	if got := strs(getA(t, tbl), "list"); !slices.Equal(got, []string{"z", "y"}) {
		t.Errorf("list = %v", got)
	}
}

func TestOperationsLeaveOtherDocuments(t *testing.T) {
	tbl := newFixture(t)
	update(t, tbl, lakeops.Increment("int", lakeops.WithDelta(5)))

	others, err := tbl.Search(context.Background(), Not(Where("char").Eq("a")))
	if err != nil {
		t.Fatal(err)
	}
	if len(others) != 2 {
		t.Fatalf("got %d other documents", len(others))
	}
	for _, doc := range others {
		if doc.Get("int").Int() != 1 {
			t.Errorf("unmatched document changed: %s", doc)
		}
	}
}
