package provider

import "context"

// Provider is the base interface all providers implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable reports whether the provider can accept work right now.
	IsAvailable(ctx context.Context) bool
}
