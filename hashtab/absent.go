package hashtab

import "reflect"

// absent reports whether v is a nil reference: a nil pointer, map, slice,
// channel, function, unsafe pointer or interface. Value types are never
// absent, so the zero string or integer is a valid key.
func absent[T any](v T) bool {
	switch any(v).(type) {
	case string, int, int64, int32, uint, uint64, uint32, bool:
		return false
	}
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan,
		reflect.Func, reflect.UnsafePointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
