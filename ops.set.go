package lakeops

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// AddToSet treats field as a set stored in a JSON array and adds member.
// An absent field starts as an empty set. Duplicates already in the array
// are collapsed. The order of the resulting array is unspecified.
func AddToSet(field string, member any) Transform {
	raw, err := encodeValue(member)
	return setOp{name: "add_to_set", field: field, member: raw, err: err}
}

// RemoveFromSet removes member from the set at field. An absent field is a
// no-op; a present field without member fails with MemberNotFoundError.
func RemoveFromSet(field string, member any) Transform {
	raw, err := encodeValue(member)
	return setOp{name: "remove_from_set", field: field, member: raw, err: err, remove: true}
}

type setOp struct {
	name   string
	field  string
	member []byte
	err    error
	remove bool
}

func (o setOp) Apply(doc *Document) error {
	if o.err != nil {
		return fmt.Errorf("%s %q: %w", o.name, o.field, o.err)
	}
	path, err := fieldPath(o.field)
	if err != nil {
		return err
	}

	current := gjson.GetBytes(doc.raw, path)
	if !current.Exists() && o.remove {
		return nil
	}
	if current.Exists() && !current.IsArray() {
		return &TypeMismatchError{Field: o.field, Want: "array", Got: kindOf(current)}
	}

	members := newMemberSet(current)
	key := canonical(o.member)
	if o.remove {
		if !members.remove(key) {
			return &MemberNotFoundError{Field: o.field, Member: key}
		}
	} else {
		members.add(key, o.member)
	}

	out, err := setRaw(doc.raw, path, buildArray(members.values()))
	if err != nil {
		return err
	}
	doc.replace(out)
	return nil
}

func (o setOp) String() string {
	return fmt.Sprintf("%s(%s, %s)", o.name, o.field, o.member)
}

// memberSet holds unique members keyed by their canonical encoding.
type memberSet struct {
	keys  []string
	items map[string][]byte
}

func newMemberSet(arr gjson.Result) *memberSet {
	s := &memberSet{items: make(map[string][]byte)}
	arr.ForEach(func(_, value gjson.Result) bool {
		raw := []byte(value.Raw)
		s.add(canonical(raw), raw)
		return true
	})
	return s
}

func (s *memberSet) add(key string, raw []byte) {
	if _, ok := s.items[key]; ok {
		return
	}
	s.keys = append(s.keys, key)
	s.items[key] = raw
}

func (s *memberSet) remove(key string) bool {
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

func (s *memberSet) values() [][]byte {
	out := make([][]byte, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.items[k]
	}
	return out
}

// canonical is the identity of a member: strings are re-encoded so that
// escaping differences compare equal, numbers compare by value (1 equals
// 1.0), everything else is compacted.
func canonical(raw []byte) string {
	r := gjson.ParseBytes(raw)
	switch r.Type {
	case gjson.String:
		b, _ := json.Marshal(r.String())
		return string(b)
	case gjson.Number:
		f := r.Float()
		if f == 0 {
			f = 0 // drops the sign of -0
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return string(pretty.Ugly(raw))
}

func buildArray(items [][]byte) []byte {
	size := 2
	for _, it := range items {
		size += len(it) + 1
	}
	out := make([]byte, 0, size)
	out = append(out, '[')
	for i, it := range items {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, it...)
	}
	return append(out, ']')
}
