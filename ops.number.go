package lakeops

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// NumberOption configures Increment and Decrement.
type NumberOption struct {
	Delta           float64
	RaiseIfNegative bool
}

// WithDelta sets the step (default 1).
func WithDelta(delta float64) func(*NumberOption) {
	return func(opt *NumberOption) {
		opt.Delta = delta
	}
}

// WithRaiseIfNegative makes Decrement fail with NegativeResultError instead
// of writing a value below zero. Increment ignores it.
func WithRaiseIfNegative() func(*NumberOption) {
	return func(opt *NumberOption) {
		opt.RaiseIfNegative = true
	}
}

// Increment adds the delta to field. An absent field counts as 0.
func Increment(field string, opts ...func(*NumberOption)) Transform {
	opt := numberOption(opts)
	return numberOp{name: "increment", field: field, delta: opt.Delta}
}

// Decrement subtracts the delta from field. An absent field counts as 0.
func Decrement(field string, opts ...func(*NumberOption)) Transform {
	opt := numberOption(opts)
	return numberOp{name: "decrement", field: field, delta: -opt.Delta, raiseIfNegative: opt.RaiseIfNegative}
}

func numberOption(opts []func(*NumberOption)) NumberOption {
	opt := NumberOption{Delta: 1}
	for _, o := range opts {
		o(&opt)
	}
	return opt
}

type numberOp struct {
	name            string
	field           string
	delta           float64 // signed
	raiseIfNegative bool
}

func (o numberOp) Apply(doc *Document) error {
	path, err := fieldPath(o.field)
	if err != nil {
		return err
	}

	current := gjson.GetBytes(doc.raw, path)
	if current.Exists() && current.Type != gjson.Number {
		return &TypeMismatchError{Field: o.field, Want: "number", Got: kindOf(current)}
	}

	var next any
	var negative bool
	if n, ok := o.addInt(current); ok {
		next, negative = n, n < 0
	} else {
		f := current.Float() + o.delta
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return &NumberOverflowError{Field: o.field, Value: current.Float(), Delta: o.delta}
		}
		next, negative = f, f < 0
	}

	if o.raiseIfNegative && negative {
		return &NegativeResultError{Field: o.field, Value: current.Float(), Delta: math.Abs(o.delta)}
	}

	out, err := setValue(doc.raw, path, next)
	if err != nil {
		return err
	}
	doc.replace(out)
	return nil
}

func (o numberOp) String() string {
	return fmt.Sprintf("%s(%s, %v)", o.name, o.field, math.Abs(o.delta))
}

// addInt adds delta in int64 arithmetic. It reports false when either side
// is not an integer or the sum overflows.
func (o numberOp) addInt(current gjson.Result) (int64, bool) {
	cur, ok := intValue(current)
	if !ok || !isIntegral(o.delta) {
		return 0, false
	}
	d := int64(o.delta)
	n := cur + d
	if (d > 0 && n < cur) || (d < 0 && n > cur) {
		return 0, false
	}
	return n, true
}

// intValue reports the value as int64 when the stored number is an integer
// literal. Absent fields are integer zero.
func intValue(r gjson.Result) (int64, bool) {
	if !r.Exists() {
		return 0, true
	}
	n, err := strconv.ParseInt(r.Raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isIntegral(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) < 1<<53
}
