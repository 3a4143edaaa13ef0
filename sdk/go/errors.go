package wsdecksdk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrContractViolation matches every payload that does not fit its declared
	// entity or enumeration.
	ErrContractViolation = errors.New("contract violation")
	// ErrTypeMismatch matches a DeploymentConfigField whose default and value are
	// not the same member of Flaggable.
	ErrTypeMismatch = errors.New("type mismatch")
)

// ContractViolation reports a payload shape that does not match the contract.
type ContractViolation struct {
	Entity string
	Path   string
	Reason string
	Err    error
}

func (e *ContractViolation) Error() string {
	var b strings.Builder
	b.WriteString("contract violation")
	if e.Entity != "" {
		b.WriteString(" in ")
		b.WriteString(e.Entity)
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil && !errors.Is(e.Err, ErrContractViolation) {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ContractViolation) Unwrap() error { return e.Err }

func (e *ContractViolation) Is(target error) bool { return target == ErrContractViolation }

// TypeMismatch reports a heterogeneous DeploymentConfigField instantiation.
type TypeMismatch struct {
	Field    string
	Expected string
	Default  string
	Value    string
}

func (e *TypeMismatch) Error() string {
	name := e.Field
	if name == "" {
		name = "deployment config field"
	}
	return fmt.Sprintf("type mismatch in %s: expected %s, got default=%s value=%s", name, e.Expected, e.Default, e.Value)
}

func (e *TypeMismatch) Is(target error) bool { return target == ErrTypeMismatch }

// Error is returned by Client for non-2xx replies. The service envelope is
// propagated verbatim.
type Error struct {
	Response
	StatusCode int
	Method     string
	URL        string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: unexpected status code %d", e.Method, e.URL, e.StatusCode)
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Detail != nil && *e.Detail != "" {
		fmt.Fprintf(&b, "\n\tError: %s", *e.Detail)
	}
	for _, v := range e.Validations {
		fmt.Fprintf(&b, "\n\t%s: %s", v.Field, v.Detail)
	}
	return b.String()
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func violation(entity, path, format string, args ...any) *ContractViolation {
	return &ContractViolation{Entity: entity, Path: path, Reason: fmt.Sprintf(format, args...)}
}
