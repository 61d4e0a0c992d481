// Package test provides minimal assertion helpers for tests.
package test

import (
	"reflect"
	"runtime"
	"testing"
)

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	return short + ":" + itoa(line)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [8]byte
	n := len(b)
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	return string(b[n:])
}

// OK fails the test if err is not nil.
func OK(t testing.TB, err error) {
	if err != nil {
		t.Fatalf("%s: unexpected error: %s", caller(), err)
	}
}

// Equals fails the test if expected is not deeply equal to actual.
func Equals(t testing.TB, expected, actual interface{}) {
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("%s:\n\texpected: %#v\n\tgot:      %#v", caller(), expected, actual)
	}
}

// Assert fails the test with msg if the condition is false.
func Assert(t testing.TB, condition bool, msg string) {
	if !condition {
		t.Fatalf("%s: %s", caller(), msg)
	}
}
