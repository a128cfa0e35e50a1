package lakeops

import (
	"encoding/json"
	"fmt"

	"github.com/hkloudou/lakeops/internal/merge"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Document is a mutable handle on one JSON object.
// Transforms replace the bytes behind the handle, never the handle itself.
// A Document is not safe for concurrent mutation.
type Document struct {
	id  int64
	raw []byte
}

// NewDocument wraps raw, which must be a JSON object.
func NewDocument(raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid json document")
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, ErrNotObject
	}
	copied := make([]byte, len(raw))
	copy(copied, raw)
	return &Document{raw: copied}, nil
}

// FromMap marshals m into a new Document.
func FromMap(m map[string]any) (*Document, error) {
	if m == nil {
		m = map[string]any{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return &Document{raw: raw}, nil
}

// ID returns the store-assigned identifier, 0 if the document was never stored.
func (d *Document) ID() int64 {
	return d.id
}

// SetID assigns the store identifier.
func (d *Document) SetID(id int64) {
	d.id = id
}

// Raw returns the current JSON bytes. Callers must not modify them.
func (d *Document) Raw() []byte {
	return d.raw
}

// Get reads field; a missing field or malformed path yields a zero Result.
func (d *Document) Get(field string) gjson.Result {
	path, err := fieldPath(field)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(d.raw, path)
}

// Has reports whether field exists.
func (d *Document) Has(field string) bool {
	return d.Get(field).Exists()
}

// Map decodes the document into a generic map.
func (d *Document) Map() map[string]any {
	m, _ := gjson.ParseBytes(d.raw).Value().(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

// Set writes value to field.
func (d *Document) Set(field string, value any) error {
	return Set(field, value).Apply(d)
}

// Delete removes field if present.
func (d *Document) Delete(field string) error {
	return Delete(field).Apply(d)
}

// Clone returns an independent copy, id included.
func (d *Document) Clone() *Document {
	copied := make([]byte, len(d.raw))
	copy(copied, d.raw)
	return &Document{id: d.id, raw: copied}
}

// Pretty returns an indented copy of the document.
func (d *Document) Pretty() []byte {
	return pretty.Pretty(d.raw)
}

func (d *Document) String() string {
	return string(d.raw)
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return d.raw, nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := NewDocument(data)
	if err != nil {
		return err
	}
	d.raw = doc.raw
	return nil
}

// replace swaps in the result of a successful transform.
func (d *Document) replace(raw []byte) {
	d.raw = raw
}

// fieldPath resolves a field naming a value inside the document (never the root).
func fieldPath(field string) (string, error) {
	path, err := scopePath(field)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", fmt.Errorf("%w: %q addresses the whole document", ErrInvalidField, field)
	}
	return path, nil
}

// scopePath resolves a field where "/" (the whole document) is allowed.
func scopePath(field string) (string, error) {
	if field == "" {
		return "", fmt.Errorf("%w: empty field", ErrInvalidField)
	}
	path, err := merge.Resolve(field)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return path, nil
}

// setValue writes a Go value at path, returning new bytes.
func setValue(raw []byte, path string, value any) ([]byte, error) {
	out, err := sjson.SetBytes(raw, path, value)
	if err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", path, err)
	}
	return out, nil
}

func setRaw(raw []byte, path string, value []byte) ([]byte, error) {
	out, err := sjson.SetRawBytes(raw, path, value)
	if err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", path, err)
	}
	return out, nil
}

// kindOf names the JSON kind of r for error messages.
func kindOf(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	}
	switch r.Type {
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	case gjson.True, gjson.False:
		return "boolean"
	default:
		return "null"
	}
}
