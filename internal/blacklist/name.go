package blacklist

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// constraintChars start a version constraint inside a package reference.
const constraintChars = "<=>"

// ErrInvalidName is returned for references that cannot be canonicalized.
var ErrInvalidName = errors.New("invalid package name")

// Normalize returns the canonical name for ref: the part of ref before the
// first '<', '=' or '>'. If ref has no such character the whole string is
// used, and if the character is the very first one the reference is returned
// unmodified. The result is always a prefix of ref.
//
// Only empty references and invalid UTF-8 fail, with ErrInvalidName.
func Normalize(ref string) (string, error) {
	if ref == "" || !utf8.ValidString(ref) {
		return "", ErrInvalidName
	}
	if i := strings.IndexAny(ref, constraintChars); i > 0 {
		return ref[:i], nil
	}
	return ref, nil
}

// Validate reports whether name is already canonical, i.e. Normalize(name)
// returns name itself. Stores only ever receive validated names.
func Validate(name string) error {
	canonical, err := Normalize(name)
	if err != nil {
		return err
	}
	if canonical != name {
		return ErrInvalidName
	}
	return nil
}
