package confinject

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"
)

// entryPoint is a validated entry point method.
type entryPoint struct {
	// Method name as found on the type.
	name string

	// The method accepts the run context.
	withContext bool

	// The method returns an error.
	withError bool
}

// lookupEntryPoint finds the method on the struct pointer or interface type.
// Lower-case names are matched against the exported method as well,
// so `App.run` refers to `(*App).Run`.
func lookupEntryPoint(typ reflect.Type, name string) (*entryPoint, error) {
	// Methods of structs are declared on pointer receivers as well.
	receiverType := typ
	if typ.Kind() != reflect.Interface {
		receiverType = reflect.PointerTo(typ)
	}

	method, ok := receiverType.MethodByName(name)
	if !ok {
		method, ok = receiverType.MethodByName(exportedName(name))
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s has no method '%s'", EntryPointNotFoundError, typ, name)
	}

	// Collect the method inputs without the receiver.
	var ins []reflect.Type
	for index := 0; index < method.Type.NumIn(); index++ {
		ins = append(ins, method.Type.In(index))
	}
	if typ.Kind() != reflect.Interface && len(ins) > 0 {
		ins = ins[1:]
	}

	// Validate the entry point signature.
	entry := &entryPoint{name: method.Name}
	switch {
	case len(ins) == 0:
	case len(ins) == 1 && isContextInterface(ins[0]):
		entry.withContext = true
	default:
		return nil, fmt.Errorf("%w: %s.%s must accept no arguments or a context, got %s",
			EntryPointNotFoundError, typ, method.Name, method.Type)
	}
	switch {
	case method.Type.NumOut() == 0:
	case method.Type.NumOut() == 1 && method.Type.Out(0) == errorType:
		entry.withError = true
	default:
		return nil, fmt.Errorf("%w: %s.%s must return nothing or an error, got %s",
			EntryPointNotFoundError, typ, method.Name, method.Type)
	}

	return entry, nil
}

// invoke calls the entry point on the instance.
func (e *entryPoint) invoke(ctx context.Context, instance any) error {
	method := reflect.ValueOf(instance).MethodByName(e.name)
	if !method.IsValid() {
		return fmt.Errorf("%w: %T has no method '%s'", EntryPointNotFoundError, instance, e.name)
	}

	var in []reflect.Value
	if e.withContext {
		in = append(in, reflect.ValueOf(ctx))
	}

	out := method.Call(in)
	if e.withError && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// Invoke calls the function with its arguments resolved from the container.
// Every argument must be a bound interface, or an Optional or a Multiple of an interface.
// The function results are returned, a trailing error is returned separately.
//
// Example:
//
//	results, err := container.Invoke(func(cache Cache) int { return cache.Size() })
func (c *Container) Invoke(fn any) ([]any, error) {
	fnValue := reflect.ValueOf(fn)
	if fnValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: fn must be a function, got %T", TypeMismatchError, fn)
	}

	// Resolve function arguments.
	fnType := fnValue.Type()
	fnInArgs := make([]reflect.Value, 0, fnType.NumIn())
	for index := 0; index < fnType.NumIn(); index++ {
		argType := fnType.In(index)
		field := &Field{Name: fmt.Sprintf("#%d", index), Type: argType, kind: fieldDependency, dependency: argType}
		if depType, ok := isOptionalType(argType); ok {
			field.kind, field.dependency = fieldOptionalDependency, depType
		} else if depType, ok := isMultipleType(argType); ok {
			field.kind, field.dependency = fieldMultipleDependency, depType
		}
		if !isNonEmptyInterface(field.dependency) {
			return nil, fmt.Errorf("%w: argument #%d must be an interface, got %s", TypeMismatchError, index, argType)
		}

		value, err := c.injectLocked(field)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve argument: %w", err)
		}
		fnInArgs = append(fnInArgs, value)
	}

	// Convert function results.
	fnOutArgs := fnValue.Call(fnInArgs)
	results := make([]any, 0, len(fnOutArgs))
	for index, fnOut := range fnOutArgs {
		// The last error typed value is returned as the error.
		if index == len(fnOutArgs)-1 && fnOut.Type() == errorType {
			err, _ := fnOut.Interface().(error)
			return results, err
		}
		results = append(results, fnOut.Interface())
	}

	return results, nil
}

// injectLocked resolves a dependency field holding the container mutex.
func (c *Container) injectLocked(field *Field) (reflect.Value, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.registry.inject(field)
}

// isContextInterface returns true when argument is a context interface.
func isContextInterface(typ reflect.Type) bool {
	return typ.Kind() == reflect.Interface && typ.Implements(contextType)
}

// exportedName upper-cases the first letter of the name.
func exportedName(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(first)) + name[size:]
}

// contextType contains reflection type for context variable.
var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// errorType contains reflection type for error variable.
var errorType = reflect.TypeOf((*error)(nil)).Elem()
