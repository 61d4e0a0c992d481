// Package errors provides error wrapping that preserves the underlying
// cause while attaching call-site context useful for debugging.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

type aerr struct {
	err         error
	annotations []string
	frames      []string
}

func (e aerr) Error() string {
	s := e.err.Error()
	for i := len(e.annotations) - 1; i >= 0; i-- {
		s = e.annotations[i] + ": " + s
	}
	return s
}

// Cause returns the underlying error when err was created by this
// package, otherwise it returns err itself.
func (e aerr) Cause() error {
	return e.err
}

func wrap(err error) aerr {
	if e, ok := err.(aerr); ok {
		return e
	}
	return aerr{err: err}
}

func frame(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// New returns an error with the provided message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf returns an error with a formatted message.
func Errorf(f string, v ...interface{}) error {
	return fmt.Errorf(f, v...)
}

// Trace records the call site on the error without changing its message.
// A nil error stays nil so it can be used on any return path.
func Trace(err error) error {
	if err == nil {
		return nil
	}
	e := wrap(err)
	e.frames = append(e.frames, frame(1))
	return e
}

// Annotate adds context to an error. It can be used to attach more information that is useful for debugging.
func Annotate(err error, msg string) error {
	if err == nil {
		return nil
	}
	e := wrap(err)
	e.annotations = append(e.annotations, msg)
	e.frames = append(e.frames, frame(1))
	return e
}

// Annotatef adds context to an error. It can be used to attach more information that is useful for debugging.
func Annotatef(err error, f string, v ...interface{}) error {
	if err == nil {
		return nil
	}
	e := wrap(err)
	e.annotations = append(e.annotations, fmt.Sprintf(f, v...))
	e.frames = append(e.frames, frame(1))
	return e
}

// Annotations returns all annotations attached to an error.
func Annotations(err error) []string {
	if e, ok := err.(aerr); ok {
		return e.annotations
	}
	return nil
}

// Frames returns the call sites recorded on an error.
func Frames(err error) []string {
	if e, ok := err.(aerr); ok {
		return e.frames
	}
	return nil
}

// Cause unwraps an error created by Trace or Annotate down to the
// original error.
func Cause(err error) error {
	for {
		e, ok := err.(aerr)
		if !ok {
			return err
		}
		err = e.err
	}
}
