package catalog

import (
	"errors"
	"fmt"
)

// ErrNotInjective is returned when a table maps two keys to the same value
// and therefore cannot be inverted.
var ErrNotInjective = errors.New("table is not injective")

// Invert returns the value -> key mapping of table.
func Invert(table map[string]string) (map[string]string, error) {
	inverted := make(map[string]string, len(table))
	for key, value := range table {
		if prev, ok := inverted[value]; ok {
			return nil, fmt.Errorf("%w: %q and %q both map to %q", ErrNotInjective, prev, key, value)
		}
		inverted[value] = key
	}
	return inverted, nil
}
