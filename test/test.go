// This file is part of Gbathread.
//
// Gbathread is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gbathread is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gbathread.  If not, see <https://www.gnu.org/licenses/>.

// Package test collects small assertion helpers shared by the module's
// _test.go files, in preference to pulling in a general purpose assertion
// library for what are, in the end, a handful of comparisons.
package test

import (
	"math"
	"reflect"
	"testing"
)

// ExpectSuccess fails t if result is a non-nil error or is false.
func ExpectSuccess(t *testing.T, result interface{}) {
	t.Helper()
	switch r := result.(type) {
	case error:
		if r != nil {
			t.Errorf("expected success but got error: %v", r)
		}
	case bool:
		if !r {
			t.Errorf("expected success but got false")
		}
	case nil:
		// an untyped nil (eg. a nil error passed through an interface{})
		// counts as success
	default:
		t.Errorf("unsupported type for ExpectSuccess: %T", result)
	}
}

// ExpectFailure fails t if result is a nil error or is true.
func ExpectFailure(t *testing.T, result interface{}) {
	t.Helper()
	switch r := result.(type) {
	case error:
		if r == nil {
			t.Errorf("expected failure but got nil error")
		}
	case bool:
		if r {
			t.Errorf("expected failure but got true")
		}
	default:
		t.Errorf("unsupported type for ExpectFailure: %T", result)
	}
}

// ExpectEquality fails t if got is not equal to want.
func ExpectEquality(t *testing.T, got, want interface{}) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected equality: got %v, want %v", got, want)
	}
}

// ExpectInequality fails t if got is equal to want.
func ExpectInequality(t *testing.T, got, want interface{}) {
	t.Helper()
	if reflect.DeepEqual(got, want) {
		t.Errorf("expected inequality: got %v, want (anything but) %v", got, want)
	}
}

// ExpectApproximate fails t if got and want differ by more than tolerance.
func ExpectApproximate(t *testing.T, got, want, tolerance float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Errorf("expected %v to be within %v of %v", got, tolerance, want)
	}
}

// Equate fails t if got is not equal to want. It makes the same comparison as
// ExpectEquality under a shorter name, which reads better at call sites that
// are plainly comparing two values of the same kind (eg. two rendered error
// strings).
func Equate(t *testing.T, got, want interface{}) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

