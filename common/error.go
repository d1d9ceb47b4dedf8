package common

import (
	"errors"
	"fmt"
)

// NotFoundable is implemented by errors that can report a missing resource,
// entry, file or remote object.
type NotFoundable interface {
	IsNotFound() bool
}

func IsNotFound(err error) bool {
	var nf NotFoundable
	return errors.As(err, &nf) && nf.IsNotFound()
}

type notFoundError struct{ msg string }

func (e notFoundError) Error() string    { return e.msg }
func (e notFoundError) IsNotFound() bool { return true }

// NotFound returns an error that satisfies IsNotFound.
func NotFound(format string, args ...any) error {
	return notFoundError{msg: fmt.Sprintf(format, args...)}
}
