// Package cobrautil builds cobra command trees out of small reusable steps
// whose results are passed to later steps through the command context.
package cobrautil

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"slices"

	"github.com/spf13/cobra"
)

// RunE is a cobra run function that returns error.
type RunE = func(c *cobra.Command, args []string) error

var (
	cmdType  = reflect.TypeFor[*cobra.Command]()
	ctxType  = reflect.TypeFor[context.Context]()
	argsType = reflect.TypeFor[[]string]()
	errType  = reflect.TypeFor[error]()
)

// ChainRunE returns a RunE that runs fs in order, stopping at the first error.
// Nil entries are skipped.
func ChainRunE(fs ...RunE) RunE {
	fs = slices.DeleteFunc(fs, func(e RunE) bool { return e == nil })
	switch len(fs) {
	case 0:
		return nil
	case 1:
		return fs[0]
	}
	return func(c *cobra.Command, args []string) error {
		for _, f := range fs {
			if err := f(c, args); err != nil {
				return err
			}
		}
		return nil
	}
}

// Cmd configures c from steps and returns it. Each step is one of:
//
//   - *cobra.Command: added as a subcommand.
//   - an action, any func returning only error: appended to c.RunE. Its
//     parameters are injected when the command runs: *cobra.Command,
//     context.Context and []string (the args) directly, anything else from a
//     value stored earlier under that exact type.
//   - a filter, func(*cobra.Command) returning nothing or one non-error value:
//     called immediately, usually to register flags. If it returns an action,
//     that action is appended to c.RunE; any other value is stored in the
//     context at run time, keyed by its type.
//
// Steps run in the order given, so a filter that stores a value must come
// before the actions that take it.
func Cmd(c *cobra.Command, steps ...any) *cobra.Command {
	for _, step := range steps {
		if sub, ok := step.(*cobra.Command); ok {
			c.AddCommand(sub)
			continue
		}
		v := reflect.ValueOf(step)
		switch {
		case isAction(v.Type()):
			c.RunE = ChainRunE(c.RunE, inject(v))
		case isFilter(v.Type()):
			c.RunE = ChainRunE(c.RunE, applyFilter(v, c))
		default:
			log.Panicf("cobrautil: unsupported step %T", step)
		}
	}
	return c
}

func isAction(t reflect.Type) bool {
	return t.Kind() == reflect.Func && t.NumOut() == 1 && t.Out(0) == errType
}

func isFilter(t reflect.Type) bool {
	return t.Kind() == reflect.Func &&
		t.NumIn() == 1 && t.In(0) == cmdType &&
		(t.NumOut() == 0 || (t.NumOut() == 1 && t.Out(0) != errType))
}

// inject wraps an action so its parameters are filled from the command.
func inject(fn reflect.Value) RunE {
	t := fn.Type()
	return func(c *cobra.Command, args []string) error {
		in := make([]reflect.Value, t.NumIn())
		for i := range in {
			switch pt := t.In(i); pt {
			case cmdType:
				in[i] = reflect.ValueOf(c)
			case ctxType:
				in[i] = reflect.ValueOf(c.Context())
			case argsType:
				in[i] = reflect.ValueOf(args)
			default:
				v, ok := lookup(c.Context(), pt)
				if !ok {
					return fmt.Errorf("%s: no %s in context", c.Name(), pt)
				}
				in[i] = reflect.ValueOf(v)
			}
		}
		err, _ := fn.Call(in)[0].Interface().(error)
		return err
	}
}

func applyFilter(fn reflect.Value, c *cobra.Command) RunE {
	out := fn.Call([]reflect.Value{reflect.ValueOf(c)})
	if len(out) == 0 {
		return nil
	}
	res := out[0]
	if isAction(res.Type()) {
		return inject(res)
	}
	return func(c *cobra.Command, _ []string) error {
		c.SetContext(context.WithValue(c.Context(), ckey{res.Type()}, res.Interface()))
		return nil
	}
}
