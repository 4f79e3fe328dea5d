// Package isbn normalizes raw book identifiers.
package isbn

import (
	"errors"
	"strings"
)

// ErrInvalid is returned when the normalized identifier is not a plausible
// ISBN-10 or ISBN-13.
var ErrInvalid = errors.New("invalid ISBN")

// Normalize strips everything except digits and the X check digit and
// requires the result to be exactly 10 or 13 characters. Checksum digits
// are not verified; only the format length is.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'X' || r == 'x':
			b.WriteRune('X')
		}
	}
	normalized := b.String()
	if len(normalized) != 10 && len(normalized) != 13 {
		return "", ErrInvalid
	}
	return normalized, nil
}
