package merge

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// RFC6902Merger implements RFC 6902 JSON Patch with auto parent path creation
// https://datatracker.ietf.org/doc/html/rfc6902
type RFC6902Merger struct{}

func NewRFC6902Merger() *RFC6902Merger {
	return &RFC6902Merger{}
}

// Merge applies the patch operations to the value at field ("" patches the whole document).
func (m *RFC6902Merger) Merge(original, patchData []byte, field string) ([]byte, error) {
	if field == "" {
		return m.mergeRoot(original, patchData)
	}
	return m.mergeField(original, patchData, field)
}

func (m *RFC6902Merger) mergeRoot(original, patchData []byte) ([]byte, error) {
	var patchOps []map[string]any
	if err := json.Unmarshal(patchData, &patchOps); err != nil {
		return nil, fmt.Errorf("failed to parse patch: %w", err)
	}

	for _, op := range patchOps {
		if op["op"] != "add" {
			continue
		}
		if path, ok := op["path"].(string); ok && path != "" {
			original = ensureParentPath(original, path)
		}
	}

	decoder, err := jsonpatch.DecodePatch(patchData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}

	result, err := decoder.Apply(original)
	if err != nil {
		return nil, fmt.Errorf("RFC6902 patch apply failed: %w", err)
	}
	return result, nil
}

func (m *RFC6902Merger) mergeField(original, patchData []byte, field string) ([]byte, error) {
	fieldValue := gjson.GetBytes(original, field).Raw
	if fieldValue == "" {
		fieldValue = "{}"
	}

	patched, err := m.mergeRoot([]byte(fieldValue), patchData)
	if err != nil {
		return nil, err
	}

	result, err := sjson.SetRawBytes(original, field, patched)
	if err != nil {
		return nil, fmt.Errorf("failed to set field after patch: %w", err)
	}
	return result, nil
}

// ensureParentPath creates empty objects for every missing parent of a JSON pointer.
// For "/a/b/c" it creates "a" and "a.b".
func ensureParentPath(data []byte, pointer string) []byte {
	parts := splitPointer(pointer)
	if len(parts) <= 1 {
		return data
	}

	current := ""
	for _, part := range parts[:len(parts)-1] {
		if current == "" {
			current = EscapeKey(part)
		} else {
			current += "." + EscapeKey(part)
		}
		if gjson.GetBytes(data, current).Exists() {
			continue
		}
		updated, err := sjson.SetRawBytes(data, current, []byte("{}"))
		if err != nil {
			// apply reports the missing parent
			return data
		}
		data = updated
	}
	return data
}

// splitPointer splits a JSON pointer into unescaped tokens.
// "/a/b~1c" -> ["a", "b/c"]
func splitPointer(pointer string) []string {
	var parts []string
	for _, p := range strings.Split(pointer, "/") {
		if p == "" {
			continue
		}
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		parts = append(parts, p)
	}
	return parts
}
