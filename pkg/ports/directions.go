package ports

import (
	"context"

	"github.com/Mause/menu-system/pkg/domain"
)

// DirectionsProvider computes routes between two places.
type DirectionsProvider interface {
	// Directions returns candidate routes, best first. An empty result is not an error.
	Directions(ctx context.Context, req domain.DirectionsRequest) ([]domain.Route, error)
}

// DirectionsFunc adapts a function to DirectionsProvider.
type DirectionsFunc func(ctx context.Context, req domain.DirectionsRequest) ([]domain.Route, error)

// Directions calls f.
func (f DirectionsFunc) Directions(ctx context.Context, req domain.DirectionsRequest) ([]domain.Route, error) {
	return f(ctx, req)
}
