package blacklist

import (
	"errors"
	"fmt"
)

// Code categorizes a failed run.
type Code string

const (
	// CodeFetch indicates a repository index was unreachable or malformed.
	CodeFetch Code = "FETCH_ERROR"

	// CodeStore indicates a connection, query, lock or transaction failure.
	CodeStore Code = "STORE_ERROR"

	// CodeDuplicateKey indicates an insert hit the table's unique constraint.
	CodeDuplicateKey Code = "DUPLICATE_KEY"

	// CodeInvalidName indicates a reference that cannot be canonicalized.
	CodeInvalidName Code = "INVALID_NAME"
)

// Error is the error type returned by every blup collaborator.
//
// Op names the failing operation ("refresh core", "insert", "commit").
// Name is the package name involved, if any.
type Error struct {
	Code Code
	Op   string
	Name string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op
	if e.Name != "" {
		msg = fmt.Sprintf("%s %q", e.Op, e.Name)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, e.Code)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// FetchError wraps a repository index failure.
func FetchError(op string, err error) *Error {
	return &Error{Code: CodeFetch, Op: op, Err: err}
}

// StoreError wraps a persistence failure.
func StoreError(op string, err error) *Error {
	return &Error{Code: CodeStore, Op: op, Err: err}
}

// DuplicateKeyError reports that name already exists in the table.
func DuplicateKeyError(op, name string, err error) *Error {
	return &Error{Code: CodeDuplicateKey, Op: op, Name: name, Err: err}
}

// InvalidNameError reports a reference that failed normalization.
func InvalidNameError(op, name string, err error) *Error {
	if err == nil {
		err = ErrInvalidName
	}
	return &Error{Code: CodeInvalidName, Op: op, Name: name, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or "" if
// there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsFetchError reports whether err is a FETCH_ERROR.
func IsFetchError(err error) bool { return CodeOf(err) == CodeFetch }

// IsStoreError reports whether err is a STORE_ERROR.
func IsStoreError(err error) bool { return CodeOf(err) == CodeStore }

// IsDuplicateKey reports whether err is a DUPLICATE_KEY error.
func IsDuplicateKey(err error) bool { return CodeOf(err) == CodeDuplicateKey }

// IsInvalidName reports whether err is an INVALID_NAME error. A bare
// ErrInvalidName from Normalize also matches.
func IsInvalidName(err error) bool {
	return CodeOf(err) == CodeInvalidName || errors.Is(err, ErrInvalidName)
}
