// Package enums holds the string enums persisted in the database and carried
// in outbox events.
package enums

import (
	"fmt"
	"slices"
)

// parse matches value exactly against known; kind only feeds the error text.
func parse[T ~string](kind, value string, known []T) (T, error) {
	if v := T(value); slices.Contains(known, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", kind, value)
}
