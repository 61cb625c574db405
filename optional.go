package confinject

import (
	"reflect"
	"unsafe"
)

// Optional declares a dependency field which is injected only when
// its interface is bound in the container.
//
// Example:
//
//	type Handler struct {
//		Cache confinject.Optional[Cache]
//	}
type Optional[T any] struct {
	value T
	bound bool
}

// Get returns the injected instance or the zero value.
func (o Optional[T]) Get() T {
	return o.value
}

// Bound returns true when the dependency was injected.
func (o Optional[T]) Bound() bool {
	return o.bound
}

// Optional marks this type as optional.
func (o Optional[T]) Optional() {}

// isOptionalType checks and returns the wrapped dependency type.
func isOptionalType(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() == reflect.Struct {
		if _, ok := typ.MethodByName("Optional"); ok {
			if methodValue, ok := typ.MethodByName("Get"); ok {
				if methodValue.Type.NumOut() == 1 {
					return methodValue.Type.Out(0), true
				}
			}
		}
	}
	return nil, false
}

// newOptionalValue creates an optional box, holding the value when it is valid.
func newOptionalValue(typ reflect.Type, value reflect.Value) reflect.Value {
	box := reflect.New(typ).Elem()
	if !value.IsValid() {
		return box
	}

	// Unexported box fields are written through their addresses.
	valueField := box.FieldByName("value")
	reflect.NewAt(valueField.Type(), unsafe.Pointer(valueField.UnsafeAddr())).Elem().Set(value)
	boundField := box.FieldByName("bound")
	reflect.NewAt(boundField.Type(), unsafe.Pointer(boundField.UnsafeAddr())).Elem().SetBool(true)

	return box
}
