// Package assert panics on broken constructor preconditions. These are programmer
// errors, never user input.
package assert

import (
	"fmt"
	"reflect"
)

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// NotNil also rejects typed nils, a nil *T stored in an interface included.
func NotNil(value any) {
	if isNil(value) {
		panic(fmt.Sprintf("expected %T to be not nil", value))
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}
