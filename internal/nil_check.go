package internal

import "reflect"

// IsNil 判斷介面值是否為 nil，包含包著 nil 指標的介面，例如 (*sql.DB)(nil)。
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
