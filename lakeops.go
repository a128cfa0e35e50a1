// Package lakeops provides field-level transforms for JSON documents.
//
// A transform is built once with its parameters and then applied to any
// number of documents, one at a time:
//
//	t := lakeops.Increment("visits", lakeops.WithDelta(2))
//	err := t.Apply(doc)
//
// A failing transform leaves the document exactly as it was.
package lakeops

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transform mutates one document in place.
type Transform interface {
	Apply(doc *Document) error
}

// TransformFunc adapts a function to Transform.
type TransformFunc func(doc *Document) error

func (f TransformFunc) Apply(doc *Document) error {
	return f(doc)
}

// Chain applies ts in order. If one fails the document is restored to the
// bytes it had before the chain started.
func Chain(ts ...Transform) Transform {
	return chain(ts)
}

type chain []Transform

func (c chain) Apply(doc *Document) error {
	before := doc.raw
	for _, t := range c {
		if err := t.Apply(doc); err != nil {
			doc.replace(before)
			return err
		}
	}
	return nil
}

func (c chain) String() string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = fmt.Sprint(t)
	}
	return "chain(" + strings.Join(names, ", ") + ")"
}

// encodeValue marshals a construction-time parameter once.
// json.RawMessage and *Document values are used verbatim.
func encodeValue(v any) ([]byte, error) {
	switch vv := v.(type) {
	case json.RawMessage:
		if !json.Valid(vv) {
			return nil, fmt.Errorf("invalid raw json value")
		}
		return append([]byte(nil), vv...), nil
	case *Document:
		return append([]byte(nil), vv.raw...), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value: %w", err)
	}
	return raw, nil
}
