package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("invalid parameters")
	// ErrInternal is matched by every *InternalError
	ErrInternal = errors.New("internal generation error")
)

// ErrorKind classifies a validation failure
type ErrorKind int

const (
	KindOutOfRange ErrorKind = iota
	KindInvalidEnum
	KindTypeCoercion
)

func (k ErrorKind) String() string {
	switch k {
	case KindOutOfRange:
		return "out_of_range"
	case KindInvalidEnum:
		return "invalid_enum"
	case KindTypeCoercion:
		return "type_coercion"
	default:
		return "unknown"
	}
}

// ValidationError reports the first field that failed validation
type ValidationError struct {
	Kind    ErrorKind
	Field   string
	Value   any
	Min     any
	Max     any
	Allowed []string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindOutOfRange:
		return fmt.Sprintf("%s: value %v out of range [%v, %v]", e.Field, e.Value, e.Min, e.Max)
	case KindInvalidEnum:
		return fmt.Sprintf("%s: value %q not one of [%s]", e.Field, fmt.Sprint(e.Value), strings.Join(e.Allowed, ", "))
	default:
		return fmt.Sprintf("%s: cannot interpret %v (%T)", e.Field, e.Value, e.Value)
	}
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func outOfRange(field string, value, min, max any) *ValidationError {
	return &ValidationError{Kind: KindOutOfRange, Field: field, Value: value, Min: min, Max: max}
}

func invalidEnum(field string, value any, allowed []string) *ValidationError {
	return &ValidationError{Kind: KindInvalidEnum, Field: field, Value: value, Allowed: allowed}
}

func coercionFailure(field string, value any) *ValidationError {
	return &ValidationError{Kind: KindTypeCoercion, Field: field, Value: value}
}

// InternalError signals a defect inside generation, never a user input problem
type InternalError struct {
	Stage string
	Cause any
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

func (e *InternalError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
