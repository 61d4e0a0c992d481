// Package mock provides a lightweight call-expectation recorder for
// hand-written test doubles. A double embeds *Expector, records each
// call with Record, and the test declares the calls it expects with
// Expect. Finish verifies that what was recorded matches what was
// expected.
package mock

import (
	"reflect"
	"runtime"
	"testing"
)

// Expectation is a single expected call: the function and its arguments.
type Expectation struct {
	Func   interface{}
	Params []interface{}
}

// NewExpectation returns an expectation for a call to fn with the provided params.
func NewExpectation(fn interface{}, params ...interface{}) *Expectation {
	return &Expectation{Func: fn, Params: params}
}

type call struct {
	name   string
	params []interface{}
}

// Expector records calls made against a double and compares them to expectations.
type Expector struct {
	T *testing.T

	expected []*Expectation
	calls    []call
}

// Expect appends an expectation in call order.
func (e *Expector) Expect(exp *Expectation) {
	e.expected = append(e.expected, exp)
}

// Record notes a call on the double. It should be deferred at the top of
// each mocked method with the method's arguments. Doubles without an
// Expector record nothing, which lets a test ignore call tracking.
func (e *Expector) Record(params ...interface{}) {
	if e == nil {
		return
	}
	pc, _, _, _ := runtime.Caller(1)
	e.calls = append(e.calls, call{name: funcName(runtime.FuncForPC(pc).Name()), params: params})
}

// Finish asserts that the recorded calls match the expectations in order.
func (e *Expector) Finish() {
	if e == nil {
		return
	}
	e.T.Helper()
	for i, exp := range e.expected {
		if i >= len(e.calls) {
			e.T.Errorf("mock: expected call %d to %s never happened", i, expectationName(exp))
			continue
		}
		c := e.calls[i]
		if n := expectationName(exp); n != c.name {
			e.T.Errorf("mock: call %d: expected %s, got %s", i, n, c.name)
			continue
		}
		if !reflect.DeepEqual(exp.Params, c.params) && !(len(exp.Params) == 0 && len(c.params) == 0) {
			e.T.Errorf("mock: call %d to %s:\n\texpected params %+v\n\tgot             %+v", i, c.name, exp.Params, c.params)
		}
	}
	if len(e.calls) > len(e.expected) {
		for _, c := range e.calls[len(e.expected):] {
			e.T.Errorf("mock: unexpected call to %s with %+v", c.name, c.params)
		}
	}
}

// Finisher is implemented by anything that can verify its expectations.
type Finisher interface {
	Finish()
}

// FinishAll finishes all the provided doubles.
func FinishAll(fs ...Finisher) {
	for _, f := range fs {
		f.Finish()
	}
}

func expectationName(exp *Expectation) string {
	return funcName(runtime.FuncForPC(reflect.ValueOf(exp.Func).Pointer()).Name())
}

// funcName reduces a fully qualified function name to its method name,
// stripping package path and the -fm suffix on method values.
func funcName(full string) string {
	name := full
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			name = name[i+1:]
			break
		}
	}
	if len(name) > 3 && name[len(name)-3:] == "-fm" {
		name = name[:len(name)-3]
	}
	return name
}

// NextError is a convenience method that returns the next error in the list if one exists and pops it from the list.
// If one is not present it will default to nil and return the empty list
func NextError(errs []error) ([]error, error) {
	if len(errs) == 0 {
		return nil, nil
	}
	e := errs[0]
	return errs[1:], e
}
