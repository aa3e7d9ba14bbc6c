// Package checkpoint decorates errors with caller information so that a
// failure deep inside the volume engine still tells you which file and line
// it passed through, similar to a stack trace but built only from the places
// that opted in.
// Every error attached to a checkpoint stays visible to errors.Is and
// errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps an error in a new checkpoint carrying the caller's file and
// line. It returns nil if err is nil.
func From(err error) error {
	// io.EOF and io.ErrUnexpectedEOF have to stay identity-comparable.
	// https://github.com/golang/go/issues/39155
	if err == io.EOF {
		return io.EOF
	}
	if err == io.ErrUnexpectedEOF {
		return io.ErrUnexpectedEOF
	}

	if err == nil {
		return nil
	}

	_, file, line, ok := runtime.Caller(1)

	return &checkpoint{
		err:  err,
		prev: nil,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

// Wrap adds a checkpoint on top of prev and attaches err as an additional
// description of this checkpoint. It returns nil if prev is nil.
//
// The typical use is to pass a predeclared sentinel as err:
//
//	var ErrEntryNotFound = errors.New("entry not found")
//
//	func lookup() error {
//		err := scan()
//		return checkpoint.Wrap(err, ErrEntryNotFound)
//	}
//
// Callers can then match both the sentinel and the underlying error with
// errors.Is.
func Wrap(prev, err error) error {
	if prev == io.EOF {
		return io.EOF
	}

	if prev == nil {
		return nil
	}

	_, file, line, ok := runtime.Caller(1)

	return &checkpoint{
		err:  err,
		prev: prev,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) Error() string {
	if e.prev == nil {
		if e.callerOk {
			return fmt.Sprintf("File: %s:%d\n\t%v", e.file, e.line, e.err)
		}
		return fmt.Sprintf("File: unknown\n\t%v", e.err)
	}

	prevErrString := e.prev.Error()
	if _, ok := e.prev.(*checkpoint); !ok {
		prevErrString = "File: unknown\n\t" + strings.ReplaceAll(prevErrString, "\n", "\n\t")
	}

	if e.callerOk {
		return fmt.Sprintf("File: %s:%d\n\t%v\n%v", e.file, e.line, e.err, prevErrString)
	}
	return fmt.Sprintf("File: unknown\n\t%v\n%v", e.err, prevErrString)
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return errors.As(e.err, target)
}
