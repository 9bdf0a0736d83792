// Package validation checks request fields before any upstream call is made.
//
// A field has an ordered list of rules; the first failing rule stops that
// field. Requests decoded from JSON report every failing field, multipart
// uploads report only the first.
package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shiksha-ai/server/internal/apperr"
)

var validate = validator.New()

// FieldError describes why one field was rejected.
type FieldError struct {
	Field  string      `json:"field"`
	Reason string      `json:"message"`
	Kind   apperr.Kind `json:"code"`
}

// Errors is the list of field failures of one request.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Reason)
	}
	return strings.Join(parts, "; ")
}

// Err converts the list into a classified error, or nil when empty. A single
// failure keeps its own kind and message; several become a ValidationFailure.
func (e Errors) Err() error {
	switch len(e) {
	case 0:
		return nil
	case 1:
		return apperr.Wrap(e, e[0].Kind, e[0].Reason)
	default:
		return apperr.Wrap(e, apperr.ValidationFailure, "Validation failed")
	}
}

// Rule is a single check on a value.
type Rule struct {
	Kind    apperr.Kind
	Message string
	Check   func(value any) bool
}

// Field binds a value to its rules.
type Field struct {
	Name  string
	Value any
	Rules []Rule
}

// check runs a field's rules in order and returns the first failure.
func (f Field) check() *FieldError {
	for _, r := range f.Rules {
		if !r.Check(f.Value) {
			return &FieldError{Field: f.Name, Reason: r.Message, Kind: r.Kind}
		}
	}
	return nil
}

// All validates every field and collects one failure per field.
func All(fields ...Field) Errors {
	var errs Errors
	for _, f := range fields {
		if fe := f.check(); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// First validates fields in order and stops at the first failure.
func First(fields ...Field) Errors {
	for _, f := range fields {
		if fe := f.check(); fe != nil {
			return Errors{*fe}
		}
	}
	return nil
}

// Tag builds a rule from a validator tag such as "max=5000".
func Tag(tag string, kind apperr.Kind, message string) Rule {
	return Rule{
		Kind:    kind,
		Message: message,
		Check: func(value any) bool {
			return validate.Var(value, tag) == nil
		},
	}
}

// Required rejects blank strings and missing values.
func Required(label string) Rule {
	return Rule{
		Kind:    apperr.ValidationFailure,
		Message: label + " is required",
		Check: func(value any) bool {
			if s, ok := value.(string); ok {
				value = strings.TrimSpace(s)
			}
			return validate.Var(value, "required") == nil
		},
	}
}

// MaxLength caps a string at max characters.
func MaxLength(label string, max int) Rule {
	return Tag(fmt.Sprintf("max=%d", max), apperr.ValidationFailure,
		fmt.Sprintf("%s must not exceed %d characters", label, max))
}

// OneOf restricts a lowercase string to a fixed set.
func OneOf(label string, values []string) Rule {
	return Rule{
		Kind:    apperr.ValidationFailure,
		Message: fmt.Sprintf("%s must be one of: %s", label, strings.Join(values, ", ")),
		Check: func(value any) bool {
			s, _ := value.(string)
			return validate.Var(strings.ToLower(s), "oneof="+strings.Join(values, " ")) == nil
		},
	}
}

// Custom wraps an arbitrary predicate.
func Custom(kind apperr.Kind, message string, check func(value any) bool) Rule {
	return Rule{Kind: kind, Message: message, Check: check}
}
