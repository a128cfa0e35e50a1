package lakeops

import (
	"fmt"

	"github.com/hkloudou/lakeops/internal/merge"
	"github.com/tidwall/gjson"
)

// Set writes value at field, creating missing parents.
// Set("/", obj) replaces the whole document; obj must be a JSON object.
func Set(field string, value any) Transform {
	raw, err := encodeValue(value)
	return patchOp{kind: "set", field: field, data: raw, err: err}
}

// MergePatch applies an RFC 7396 merge patch to the value at field
// ("/" for the whole document). A missing field starts as {}.
func MergePatch(field string, patch any) Transform {
	raw, err := encodeValue(patch)
	return patchOp{kind: "merge-patch", field: field, data: raw, err: err}
}

// JSONPatch applies RFC 6902 operations to the value at field
// ("/" for the whole document). Parents of "add" targets are created.
func JSONPatch(field string, ops any) Transform {
	raw, err := encodeValue(ops)
	if err == nil && !gjson.ParseBytes(raw).IsArray() {
		err = fmt.Errorf("json patch must be an array of operations")
	}
	return patchOp{kind: "json-patch", field: field, data: raw, err: err}
}

type patchOp struct {
	kind  string
	field string
	data  []byte
	err   error
}

func (o patchOp) Apply(doc *Document) error {
	if o.err != nil {
		return fmt.Errorf("%s %q: %w", o.kind, o.field, o.err)
	}
	path, err := scopePath(o.field)
	if err != nil {
		return err
	}

	var out []byte
	switch o.kind {
	case "set":
		out, err = merge.Replace(doc.raw, append([]byte(nil), o.data...), path)
	case "merge-patch":
		out, err = merge.MergePatch(doc.raw, o.data, path)
	case "json-patch":
		out, err = merge.JSONPatch(doc.raw, o.data, path)
	default:
		err = fmt.Errorf("unknown patch kind: %s", o.kind)
	}
	if err != nil {
		return fmt.Errorf("%s %q: %w", o.kind, o.field, err)
	}
	if !gjson.ParseBytes(out).IsObject() {
		return fmt.Errorf("%s %q: %w", o.kind, o.field, ErrNotObject)
	}
	doc.replace(out)
	return nil
}

func (o patchOp) String() string {
	return fmt.Sprintf("%s(%s, %s)", o.kind, o.field, o.data)
}
