package config

import (
	"strings"
)

// AggregateError collects every validation failure found in a configuration.
type AggregateError struct {
	Errors []error
}

func (err AggregateError) Error() string {
	msgs := make([]string, 0, len(err.Errors))
	for _, e := range err.Errors {
		msgs = append(msgs, e.Error())
	}
	return "validation errors are:\n\n" + strings.Join(msgs, "\n  ")
}

func newAggregateError(errs []error) error {
	return AggregateError{Errors: errs}
}
