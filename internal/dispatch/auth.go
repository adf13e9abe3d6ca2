package dispatch

import (
	"context"

	"github.com/roach88/paddock/internal/slot"
)

// Identity is the opaque identity of the invoking party, as resolved by the host.
type Identity string

// Authorizer decides whether a caller may run an operation against a slot.
// Implementations live with the host; the entrypoint only consults them.
type Authorizer interface {
	Authorize(ctx context.Context, caller Identity, op Op, target slot.ID) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, caller Identity, op Op, target slot.ID) error

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, caller Identity, op Op, target slot.ID) error {
	return f(ctx, caller, op, target)
}

// AllowAll permits every caller.
type AllowAll struct{}

// Authorize always returns nil.
func (AllowAll) Authorize(context.Context, Identity, Op, slot.ID) error {
	return nil
}
