package merge

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// RFC7396Merger implements RFC 7396 JSON Merge Patch
// https://datatracker.ietf.org/doc/html/rfc7396
type RFC7396Merger struct{}

func NewRFC7396Merger() *RFC7396Merger {
	return &RFC7396Merger{}
}

// Merge applies patch to the value at field. A missing field starts from {}.
func (m *RFC7396Merger) Merge(original, patch []byte, field string) ([]byte, error) {
	if field == "" {
		return m.merge(original, patch)
	}

	fieldValue := gjson.GetBytes(original, field).Raw
	if fieldValue == "" {
		fieldValue = "{}"
	}

	merged, err := m.merge([]byte(fieldValue), patch)
	if err != nil {
		return nil, err
	}

	result, err := sjson.SetRawBytes(original, field, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to set merged field: %w", err)
	}
	return result, nil
}

func (m *RFC7396Merger) merge(original, patch []byte) ([]byte, error) {
	result, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return nil, fmt.Errorf("RFC7396 merge failed: %w", err)
	}
	return result, nil
}
