package memory

import (
	"context"
	"slices"

	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/ports"
)

// Locator implements ports.PayphoneLocator over a fixed list of payphones.
type Locator struct {
	phones []domain.Payphone
}

// NewLocator creates a Locator. The list is copied.
func NewLocator(phones ...domain.Payphone) *Locator {
	return &Locator{phones: slices.Clone(phones)}
}

// LookupByID returns the payphones whose ID matches pattern, in list order.
func (l *Locator) LookupByID(_ context.Context, pattern string) ([]domain.Payphone, error) {
	var out []domain.Payphone
	for _, p := range l.phones {
		if Match(pattern, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Match reports whether id matches pattern, where ports.Wildcard stands for any single byte.
func Match(pattern, id string) bool {
	if len(pattern) != len(id) {
		return false
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != ports.Wildcard[0] && pattern[i] != id[i] {
			return false
		}
	}
	return true
}
