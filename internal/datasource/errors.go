package datasource

import (
	"errors"
	"fmt"
)

// Kind classifies a data source failure.
type Kind string

const (
	KindUnreachable      Kind = "unreachable"
	KindBadResponse      Kind = "bad_response"
	KindConnectionFailed Kind = "connection_failed"
	KindQueryFailed      Kind = "query_failed"
)

// Error is the failure type shared by all providers. The wrapped error may
// contain backend connection details and must not be exposed to clients.
type Error struct {
	Backend string
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("datasource %s: %s", e.Backend, e.Kind)
	}
	return fmt.Sprintf("datasource %s: %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a datasource Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var dsErr *Error
	return errors.As(err, &dsErr) && dsErr.Kind == kind
}
