package color

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrValidation matches any *ValidationError.
var ErrValidation = errors.New("invalid color record")

// Field names reported by ValidationError.
const (
	FieldName = "name"
	FieldHex  = "hex"
)

// ValidationError names the field that rejected a row.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var hexPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate converts a raw Row into a Color. It makes no external calls.
func Validate(row Row) (Color, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		return Color{}, &ValidationError{Field: FieldName, Reason: "empty"}
	}
	if n := utf8.RuneCountInString(name); n >= MaxNameLength {
		return Color{}, &ValidationError{
			Field:  FieldName,
			Reason: fmt.Sprintf("length %d exceeds limit of %d", n, MaxNameLength-1),
		}
	}

	hex := strings.TrimSpace(row.Hex)
	if hex == "" {
		return Color{}, &ValidationError{Field: FieldHex, Reason: "missing"}
	}
	if !hexPattern.MatchString(hex) {
		return Color{}, &ValidationError{Field: FieldHex, Reason: fmt.Sprintf("%q is not a #RRGGBB value", hex)}
	}

	return Color{
		name:    name,
		hex:     strings.ToLower(hex[1:]),
		curated: strings.TrimSpace(row.Marker) != "",
	}, nil
}
