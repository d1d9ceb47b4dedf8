package cobrautil

import (
	"context"
	"reflect"

	"github.com/spf13/cobra"
)

// values are keyed by their static type
type ckey struct{ t reflect.Type }

func lookup(ctx context.Context, t reflect.Type) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	v := ctx.Value(ckey{t})
	return v, v != nil
}

// Store stores a value in the Command's context.
func Store[T any](c *cobra.Command, v T) {
	c.SetContext(context.WithValue(c.Context(), ckey{reflect.TypeFor[T]()}, v))
}

// Get gets a value from the Command's context. It panics if none was stored.
func Get[T any](c *cobra.Command) T {
	return c.Context().Value(ckey{reflect.TypeFor[T]()}).(T)
}

// Lookup is like Get but reports whether a value was stored.
func Lookup[T any](c *cobra.Command) (T, bool) {
	v, ok := lookup(c.Context(), reflect.TypeFor[T]())
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
