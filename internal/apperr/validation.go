// Package apperr defines the structured validation error returned by the
// ledger, inventory and account services.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

// ValidationError maps a field name to every message describing why the
// supplied value was rejected. It is recoverable: nothing was persisted.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidation returns a ValidationError for a single field, or nil when msgs is empty.
func NewValidation(field string, msgs []string) *ValidationError {
	if len(msgs) == 0 {
		return nil
	}

	return &ValidationError{Fields: map[string][]string{field: msgs}}
}

// Add appends messages for field.
func (e *ValidationError) Add(field string, msgs ...string) {
	if len(msgs) == 0 {
		return
	}

	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}

	e.Fields[field] = append(e.Fields[field], msgs...)
}

// Empty reports whether no field has messages.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e as an error, or nil when it carries no messages.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}

	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder

	b.WriteString("validation failed")

	for _, k := range keys {
		b.WriteString("; ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[k], " "))
	}

	return b.String()
}

// AsValidation unwraps err into a *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}

	return nil, false
}
