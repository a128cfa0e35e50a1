package lakeops

import (
	"errors"
	"fmt"
)

var (
	ErrNegativeResult = errors.New("result would be negative")
	ErrMemberNotFound = errors.New("member not found")
	ErrFieldNotFound  = errors.New("field not found")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrNotObject      = errors.New("document must be a JSON object")
	ErrNumberOverflow = errors.New("number out of range")

	// ErrInvalidField is returned for empty fields and malformed "/a/b" paths.
	ErrInvalidField = errors.New("invalid field")
)

// NegativeResultError is returned by a decrement that was asked to refuse
// going below zero. The document is left unmodified.
type NegativeResultError struct {
	Field string
	Value float64
	Delta float64
}

func (e *NegativeResultError) Error() string {
	return fmt.Sprintf("decrement %q by %v: value %v would become negative", e.Field, e.Delta, e.Value)
}

func (e *NegativeResultError) Is(target error) bool { return target == ErrNegativeResult }

// MemberNotFoundError is returned when removing a member the set does not hold.
type MemberNotFoundError struct {
	Field  string
	Member string // compact JSON of the member
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("remove %s from %q: member not found", e.Member, e.Field)
}

func (e *MemberNotFoundError) Is(target error) bool { return target == ErrMemberNotFound }

// FieldNotFoundError is returned by a strict delete of an absent field.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found", e.Field)
}

func (e *FieldNotFoundError) Is(target error) bool { return target == ErrFieldNotFound }

// TypeMismatchError is returned when a field holds a value of the wrong JSON kind.
type TypeMismatchError struct {
	Field string
	Want  string
	Got   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("field %q: want %s, got %s", e.Field, e.Want, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// NumberOverflowError is returned when an increment or decrement would leave
// a value JSON cannot represent (Inf or NaN). The document is left unmodified.
type NumberOverflowError struct {
	Field string
	Value float64
	Delta float64 // signed
}

func (e *NumberOverflowError) Error() string {
	return fmt.Sprintf("field %q: %v%+v is not a finite number", e.Field, e.Value, e.Delta)
}

func (e *NumberOverflowError) Is(target error) bool { return target == ErrNumberOverflow }
