// Package reflectx holds the function-introspection helpers used by the
// shape classifier and the re-entrancy guard.
package reflectx

import (
	"reflect"
	"runtime"
	"strings"
)

// IsFunction reports whether fn is a non-nil function value.
func IsFunction(fn any) bool {
	if fn == nil {
		return false
	}
	return reflect.TypeOf(fn).Kind() == reflect.Func
}

// Pointer returns the code pointer of fn. Distinct top-level functions and
// distinct function literals have distinct pointers; closures produced by
// the same literal share one. Returns 0 when fn is not a function.
func Pointer(fn any) uintptr {
	if !IsFunction(fn) {
		return 0
	}
	return reflect.ValueOf(fn).Pointer()
}

// FunctionName resolves a printable name for fn, preferring the runtime
// symbol over the type signature. Method values lose their "-fm" suffix.
func FunctionName(fn any) string {
	if !IsFunction(fn) {
		return ""
	}

	val := reflect.ValueOf(fn)
	if rf := runtime.FuncForPC(val.Pointer()); rf != nil {
		name := rf.Name()
		if lastDot := strings.LastIndex(name, "."); lastDot >= 0 {
			name = name[lastDot+1:]
		}
		return strings.TrimSuffix(name, "-fm")
	}
	return val.Type().String()
}
