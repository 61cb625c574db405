package confinject

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRun tests the end-to-end scenario of a main type with an injected singleton.
func TestRun(t *testing.T) {
	testObserved = nil
	t.Cleanup(func() { testObserved = nil })

	var constructed []any
	var invoked []any
	err := Run(context.Background(), map[string]any{
		"main": "app:App.run",
		"bindings": []any{
			map[string]any{"interface": "app:IC", "to": "app:C"},
		},
	},
		WithCatalog(newTestCatalog()),
		WithSubscribe(InstanceConstructed, func(event Event) error {
			constructed = append(constructed, event.Args()[1])
			return nil
		}),
		WithSubscribe(EntryPointInvoking, func(event Event) error {
			invoked = append(invoked, event.Args()[1])
			return nil
		}),
	)
	require.NoError(t, err)

	require.Len(t, constructed, 1)
	require.Len(t, testObserved, 1)
	require.Same(t, constructed[0], testObserved[0])

	require.Len(t, invoked, 1)
	require.Same(t, testObserved[0], invoked[0].(*testApp).C)
}

// TestRunTypedBindings tests configuration built from typed Go collections.
func TestRunTypedBindings(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), map[string]any{
		"main": "app:ContextApp.serve",
		"bindings": []map[string]any{
			{"interface": "app:IC", "to": "app:C", "args": map[string]string{"name": "typed"}},
			{"interface": "app:IB", "to": "app:B"},
		},
	}, WithCatalog(newTestCatalog()))
	require.NoError(t, err)

	runner, err := NewAppRunner(map[string]any{
		"main":     "app:App.run",
		"bindings": []map[string]any{{"interface": "app:IC", "to": "app:C", "args": map[string]string{"name": "typed"}}},
	})
	require.NoError(t, err)
	require.Len(t, runner.Bindings, 1)
	assert.Equal(t, map[string]any{"name": "typed"}, runner.Bindings[0].Args)
}

// TestRunEvents tests run events are triggered in order.
func TestRunEvents(t *testing.T) {
	t.Parallel()

	var names []string
	record := func(event Event) error {
		names = append(names, event.Name())
		return nil
	}
	opts := []Option{WithCatalog(newTestCatalog())}
	for _, name := range []string{RunStarting, BindingRegistered, InstanceConstructed, EntryPointInvoking, RunFinished} {
		opts = append(opts, WithSubscribe(name, record))
	}

	err := Run(context.Background(), map[string]any{
		"main": "app:ContextApp.serve",
		"bindings": []any{
			map[string]any{"interface": "app:IC", "to": "app:C"},
		},
	}, opts...)
	require.NoError(t, err)
	assert.Equal(t, []string{RunStarting, BindingRegistered, EntryPointInvoking, RunFinished}, names)
}

// TestRunMainArgs tests constructor arguments of an unbound main type.
func TestRunMainArgs(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), map[string]any{
		"main": "app:FailingApp.run",
		"args": map[string]any{"message": "custom failure"},
	}, WithCatalog(newTestCatalog()))
	require.Error(t, err)
	assert.ErrorContains(t, err, "entry point 'app:FailingApp.run' failed: custom failure")
}

// TestRunInterfaceMain tests a bound interface used as the main type.
func TestRunInterfaceMain(t *testing.T) {
	testClosed = nil
	t.Cleanup(func() { testClosed = nil })

	err := Run(context.Background(), map[string]any{
		"main": "app:ICloser.close",
		"bindings": []any{
			map[string]any{"interface": "app:ICloser", "to": "app:CloserInner", "args": map[string]any{"name": "main"}},
		},
	}, WithCatalog(newTestCatalog()))
	require.NoError(t, err)

	// Closed by the entry point and once more with the container.
	assert.Equal(t, []string{"main", "main"}, testClosed)
}

// TestRunValidatesEntryPoint tests nothing is constructed for an invalid entry point.
func TestRunValidatesEntryPoint(t *testing.T) {
	t.Parallel()

	var constructed int
	err := Run(context.Background(), map[string]any{
		"main": "app:B.pong",
		"bindings": []any{
			map[string]any{"interface": "app:IC", "to": "app:C"},
			map[string]any{"interface": "app:IB", "to": "app:B"},
		},
	}, WithCatalog(newTestCatalog()), WithSubscribe(InstanceConstructed, func(Event) error {
		constructed++
		return nil
	}))

	// Pong returns a string, which is not an entry point signature.
	require.ErrorIs(t, err, EntryPointNotFoundError)
	assert.Zero(t, constructed)
}

// TestRunBoundMainArgs tests args are rejected for a bound main type.
func TestRunBoundMainArgs(t *testing.T) {
	testClosed = nil
	t.Cleanup(func() { testClosed = nil })

	err := Run(context.Background(), map[string]any{
		"main": "app:CloserInner.close",
		"args": map[string]any{"name": "ignored"},
		"bindings": []any{
			map[string]any{"interface": "app:ICloser", "to": "app:CloserInner"},
		},
	}, WithCatalog(newTestCatalog()))
	require.ErrorIs(t, err, TypeMismatchError)
	assert.Empty(t, testClosed)

	err = Run(context.Background(), map[string]any{
		"main": "app:CloserInner.close",
		"bindings": []any{
			map[string]any{"interface": "app:ICloser", "to": "app:CloserInner"},
		},
	}, WithCatalog(newTestCatalog()))
	require.NoError(t, err)
	assert.Equal(t, []string{"inner", "inner"}, testClosed)
}

// TestRunErrors tests configuration and entry point failures.
func TestRunErrors(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		raw map[string]any
		err error
	}{
		"missing main":          {map[string]any{}, MissingRequiredFieldError},
		"unknown key":           {map[string]any{"main": "app:App.run", "extra": 1}, UnknownFieldError},
		"bindings not a list":   {map[string]any{"main": "app:App.run", "bindings": "x"}, TypeMismatchError},
		"binding not a mapping": {map[string]any{"main": "app:App.run", "bindings": []any{1}}, TypeMismatchError},
		"binding missing to":    {map[string]any{"main": "app:App.run", "bindings": []any{map[string]any{"interface": "app:IC"}}}, MissingRequiredFieldError},
		"binding unknown key":   {map[string]any{"main": "app:App.run", "bindings": []any{map[string]any{"interface": "app:IC", "to": "app:C", "lazy": true}}}, UnknownFieldError},
		"missing method":        {map[string]any{"main": "app:App"}, MissingEntryPointError},
		"malformed main":        {map[string]any{"main": "App.run"}, MalformedReferenceError},
		"unknown namespace":     {map[string]any{"main": "web:App.run"}, NamespaceNotFoundError},
		"unknown type":          {map[string]any{"main": "app:Web.run"}, TypeNotFoundError},
		"unknown method":        {map[string]any{"main": "app:App.start"}, EntryPointNotFoundError},
		"bad signature":         {map[string]any{"main": "app:BadSignatureApp.run"}, EntryPointNotFoundError},
		"unbound dependency":    {map[string]any{"main": "app:App.run"}, UnboundInterfaceError},
		"bad main args":         {map[string]any{"main": "app:FailingApp.run", "args": map[string]any{"other": 1}}, UnknownFieldError},
		"interface main args":   {map[string]any{"main": "app:ICloser.close", "args": map[string]any{"name": "x"}}, TypeMismatchError},
		"unsupported scope": {map[string]any{"main": "app:App.run", "bindings": []any{
			map[string]any{"interface": "app:IC", "to": "app:C", "scope": "transient"},
		}}, UnsupportedScopeError},
		"cycle": {map[string]any{"main": "app:IA.doA", "bindings": []any{
			map[string]any{"interface": "app:IA", "to": "app:A"},
			map[string]any{"interface": "app:ICycleB", "to": "app:A2"},
		}}, CyclicDependencyError},
	} {
		err := Run(context.Background(), tc.raw, WithCatalog(newTestCatalog()))
		assert.ErrorIs(t, err, tc.err, name)
	}
}

// TestRunContext tests the run context reaches the entry point.
func TestRunContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, map[string]any{"main": "app:ContextApp.serve"}, WithCatalog(newTestCatalog()))
	assert.ErrorIs(t, err, context.Canceled)
}

// TestNewAppRunner tests descriptor decoding.
func TestNewAppRunner(t *testing.T) {
	t.Parallel()

	runner, err := NewAppRunner(map[string]any{
		"main": "app:App.run",
		"bindings": []any{
			map[string]any{"interface": "app:IC", "to": "app:C", "args": map[string]any{"name": "x"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, &AppRunner{
		Main: "app:App.run",
		Args: map[string]any{},
		Bindings: []Binding{
			{Interface: "app:IC", To: "app:C", Args: map[string]any{"name": "x"}, Scope: ScopeSingleton},
		},
	}, runner)
}
