package merge

import (
	"fmt"

	"github.com/tidwall/sjson"
)

// ReplaceMerger implements simple field replacement
type ReplaceMerger struct{}

func NewReplaceMerger() *ReplaceMerger {
	return &ReplaceMerger{}
}

// Merge replaces the value at field with data; an empty field replaces the whole document.
func (m *ReplaceMerger) Merge(original, data []byte, field string) ([]byte, error) {
	if field == "" {
		return data, nil
	}

	result, err := sjson.SetRawBytes(original, field, data)
	if err != nil {
		return nil, fmt.Errorf("failed to set field: %w", err)
	}
	return result, nil
}
