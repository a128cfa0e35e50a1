package merge

// Merger applies one kind of write to a JSON document.
type Merger interface {
	// Merge applies data to original.
	// field: gjson path of the scope ("" means root document)
	Merge(original, data []byte, field string) ([]byte, error)
}

// Stateless, safe to share.
var (
	replaceMerger = NewReplaceMerger()
	rfc7396Merger = NewRFC7396Merger()
	rfc6902Merger = NewRFC6902Merger()
)

// Replace sets the value at field, creating parents as needed.
func Replace(original, value []byte, field string) ([]byte, error) {
	return replaceMerger.Merge(original, value, field)
}

// MergePatch applies an RFC 7396 merge patch to the value at field.
func MergePatch(original, patch []byte, field string) ([]byte, error) {
	return rfc7396Merger.Merge(original, patch, field)
}

// JSONPatch applies RFC 6902 operations to the value at field.
func JSONPatch(original, ops []byte, field string) ([]byte, error) {
	return rfc6902Merger.Merge(original, ops, field)
}
