package ports

import (
	"context"

	"github.com/Mause/menu-system/pkg/domain"
)

// Wildcard matches exactly one character in a PayphoneLocator pattern.
const Wildcard = "_"

// PayphoneLocator finds payphones by cabinet identifier.
type PayphoneLocator interface {
	// LookupByID returns every payphone whose identifier matches pattern.
	// Pattern characters match literally except Wildcard, which matches any single character.
	// An empty result is not an error.
	LookupByID(ctx context.Context, pattern string) ([]domain.Payphone, error)
}

// PayphoneLocatorFunc adapts a function to PayphoneLocator.
type PayphoneLocatorFunc func(ctx context.Context, pattern string) ([]domain.Payphone, error)

// LookupByID calls f.
func (f PayphoneLocatorFunc) LookupByID(ctx context.Context, pattern string) ([]domain.Payphone, error) {
	return f(ctx, pattern)
}
