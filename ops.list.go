package lakeops

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Append adds item to the end of the list at field (absent = empty list).
func Append(field string, item any) Transform {
	raw, err := encodeValue(item)
	return insertOp{name: "append", field: field, item: raw, err: err}
}

// Prepend adds item to the front of the list at field (absent = empty list).
func Prepend(field string, item any) Transform {
	raw, err := encodeValue(item)
	return insertOp{name: "prepend", field: field, item: raw, err: err, front: true}
}

type insertOp struct {
	name  string
	field string
	item  []byte
	err   error
	front bool
}

func (o insertOp) Apply(doc *Document) error {
	if o.err != nil {
		return fmt.Errorf("%s %q: %w", o.name, o.field, o.err)
	}
	path, err := fieldPath(o.field)
	if err != nil {
		return err
	}

	current := gjson.GetBytes(doc.raw, path)
	if current.Exists() && !current.IsArray() {
		return &TypeMismatchError{Field: o.field, Want: "array", Got: kindOf(current)}
	}

	items := listItems(current)
	if o.front {
		items = append([][]byte{o.item}, items...)
	} else {
		items = append(items, o.item)
	}

	out, err := setRaw(doc.raw, path, buildArray(items))
	if err != nil {
		return err
	}
	doc.replace(out)
	return nil
}

func (o insertOp) String() string {
	return fmt.Sprintf("%s(%s, %s)", o.name, o.field, o.item)
}

// Slice keeps the items of the list at field in the half-open range
// [start, end). Indices follow array-slice rules: negative values count
// from the end and out-of-range values are clamped. Absent or non-list
// fields are left alone.
func Slice(field string, start, end int) Transform {
	return sliceOp{field: field, start: start, end: end}
}

// SliceFrom keeps the items from start to the end of the list.
func SliceFrom(field string, start int) Transform {
	return sliceOp{field: field, start: start, openEnd: true}
}

type sliceOp struct {
	field      string
	start, end int
	openEnd    bool
}

func (o sliceOp) Apply(doc *Document) error {
	path, err := fieldPath(o.field)
	if err != nil {
		return err
	}

	current := gjson.GetBytes(doc.raw, path)
	if !current.IsArray() {
		return nil
	}

	items := listItems(current)
	end := o.end
	if o.openEnd {
		end = len(items)
	}
	lo, hi := sliceBounds(len(items), o.start, end)

	out, err := setRaw(doc.raw, path, buildArray(items[lo:hi]))
	if err != nil {
		return err
	}
	doc.replace(out)
	return nil
}

func (o sliceOp) String() string {
	if o.openEnd {
		return fmt.Sprintf("slice(%s, %d:)", o.field, o.start)
	}
	return fmt.Sprintf("slice(%s, %d:%d)", o.field, o.start, o.end)
}

// sliceBounds maps slice indices onto [0, n] with lo <= hi.
func sliceBounds(n, start, end int) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
			if i < 0 {
				return 0
			}
		}
		if i > n {
			return n
		}
		return i
	}
	lo, hi := clamp(start), clamp(end)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

func listItems(arr gjson.Result) [][]byte {
	var items [][]byte
	arr.ForEach(func(_, value gjson.Result) bool {
		items = append(items, []byte(value.Raw))
		return true
	})
	return items
}
