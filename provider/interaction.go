package provider

import "context"

// RequestResponse is a provider that takes one input and returns one output.
// A synchronous subprocess execution is the canonical example: one job in,
// one captured result out.
type RequestResponse[I, O any] interface {
	Provider
	Execute(ctx context.Context, input I) (O, error)
}

// Func adapts a plain function into a RequestResponse provider.
type Func[I, O any] struct {
	ProviderName string
	Fn           func(ctx context.Context, input I) (O, error)
}

// Name returns the provider name.
func (f Func[I, O]) Name() string { return f.ProviderName }

// IsAvailable always reports true.
func (f Func[I, O]) IsAvailable(context.Context) bool { return true }

// Execute calls Fn.
func (f Func[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.Fn(ctx, input)
}
