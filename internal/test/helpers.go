// Package test provides helpers used by the tests in this repository.
package test

import (
	"reflect"
	"testing"
)

// OK fails the test if err is not nil.
func OK(tb testing.TB, err error) {
	tb.Helper()

	if err != nil {
		tb.Fatalf("unexpected error: %+v", err)
	}
}

// Assert fails the test if the condition is false.
func Assert(tb testing.TB, condition bool, msg string, v ...interface{}) {
	tb.Helper()

	if !condition {
		tb.Fatalf(msg, v...)
	}
}

// Equals fails the test if exp is not equal to act.
func Equals(tb testing.TB, exp, act interface{}, msgs ...string) {
	tb.Helper()

	if !reflect.DeepEqual(exp, act) {
		for _, msg := range msgs {
			tb.Log(msg)
		}
		tb.Fatalf("expected:\n\t%#v\ngot:\n\t%#v", exp, act)
	}
}

// Error fails the test if err is nil.
func Error(tb testing.TB, err error, msg ...string) {
	tb.Helper()

	if err == nil {
		tb.Fatalf("expected error, got nil: %v", msg)
	}
}
