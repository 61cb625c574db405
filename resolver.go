package confinject

import (
	"fmt"
	"reflect"
)

// Resolve sets the pointed variable to the singleton of its interface type.
//
// Example:
//
//	var cache Cache
//	err := container.Resolve(&cache)
func (c *Container) Resolve(varPtr any) error {
	target := reflect.ValueOf(varPtr)
	if target.Kind() != reflect.Ptr || target.IsNil() {
		return fmt.Errorf("%w: resolve target must be a non-nil pointer, got %T", TypeMismatchError, varPtr)
	}

	value := target.Elem()
	if !isNonEmptyInterface(value.Type()) {
		return fmt.Errorf("%w: resolve target must point to an interface, got %s", TypeMismatchError, value.Type())
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	result, err := c.registry.get(value.Type())
	if err != nil {
		return fmt.Errorf("failed to resolve service: %w", err)
	}
	value.Set(result)
	return nil
}

// Get returns the singleton bound to the interface type T.
func Get[T any](container *Container) (T, error) {
	var result T
	if err := container.Resolve(&result); err != nil {
		return result, err
	}
	return result, nil
}
