package confinject

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// testIC is implemented by testC.
type testIC interface {
	Ping() string
}

// testC is a leaf service.
type testC struct {
	Name string `default:"c"`
}

func (c *testC) Ping() string { return c.Name }

// testIB is implemented by testB.
type testIB interface {
	Pong() string
}

// testB depends on testIC.
type testB struct {
	C testIC `conf:"c"`
}

func (b *testB) Pong() string { return "b:" + b.C.Ping() }

// testCycleIA and testCycleIB are bound to implementations depending on each other.
type testCycleIA interface{ DoA() }
type testCycleIB interface{ DoB() }

type testCycleA struct {
	B testCycleIB `conf:"b"`
}

func (a *testCycleA) DoA() {}

type testCycleA2 struct {
	A testCycleIA `conf:"a"`
}

func (a *testCycleA2) DoB() {}

// testSchema is the schema `{a: int, b: string = "x"}`.
type testSchema struct {
	A int
	B string `default:"x"`
}

// testApp is a main type constructed by the runner.
type testApp struct {
	C testIC `conf:"c"`
}

// Run records the injected dependency.
func (a *testApp) Run() {
	testObserved = append(testObserved, a.C)
}

// testObserved collects dependencies seen by testApp.Run.
var testObserved []testIC

// testFailingApp returns an error from its entry point.
type testFailingApp struct {
	Message string `default:"boom"`
}

func (a *testFailingApp) Run() error { return errors.New(a.Message) }

// testContextApp accepts the run context.
type testContextApp struct{}

func (a *testContextApp) Serve(ctx context.Context) error {
	return ctx.Err()
}

// testBadSignatureApp has an entry point with arguments.
type testBadSignatureApp struct{}

func (a *testBadSignatureApp) Run(name string) {}

// testClosed collects names of closed services.
var testClosed []string

// testICloser is implemented by closable services.
type testICloser interface {
	Close() error
}

type testIOuter interface {
	testICloser
	Outer()
}

type testCloserInner struct {
	Name string `default:"inner"`
}

func (c *testCloserInner) Close() error {
	testClosed = append(testClosed, c.Name)
	return nil
}

type testCloserOuter struct {
	Inner testICloser `conf:"inner"`
	Name  string      `default:"outer"`
}

func (c *testCloserOuter) Outer() {}

func (c *testCloserOuter) Close() error {
	testClosed = append(testClosed, c.Name)
	return nil
}

// testInit completes its construction in Init.
type testInit struct {
	Value   int
	doubled int
}

func (t *testInit) Init() error {
	if t.Value < 0 {
		return errors.New("negative value")
	}
	t.doubled = t.Value * 2
	return nil
}

// testPanicC panics in Init when asked to.
type testPanicC struct {
	Panic bool `default:"true"`
}

func (c *testPanicC) Init() error {
	if c.Panic {
		panic("init panic")
	}
	return nil
}

func (c *testPanicC) Ping() string { return "recovered" }

// testOptional holds an optional dependency.
type testOptional struct {
	C Optional[testIC] `conf:"c"`
}

// testMultiple collects every closer.
type testMultiple struct {
	Closers Multiple[testICloser] `conf:"closers"`
}

// newTestCatalog returns a catalog with the `app` namespace of test types.
func newTestCatalog() *Catalog {
	return NewCatalog().Namespace("app", func(ns *Namespace) {
		ns.Add("IC", TypeOf[testIC]()).
			Add("C", TypeOf[testC]()).
			Add("IB", TypeOf[testIB]()).
			Add("B", TypeOf[testB]()).
			Add("IA", TypeOf[testCycleIA]()).
			Add("A", TypeOf[testCycleA]()).
			Add("ICycleB", TypeOf[testCycleIB]()).
			Add("A2", TypeOf[testCycleA2]()).
			Add("Schema", TypeOf[testSchema]()).
			Add("App", TypeOf[testApp]()).
			Add("FailingApp", TypeOf[testFailingApp]()).
			Add("ContextApp", TypeOf[testContextApp]()).
			Add("BadSignatureApp", TypeOf[testBadSignatureApp]()).
			Add("ICloser", TypeOf[testICloser]()).
			Add("IOuter", TypeOf[testIOuter]()).
			Add("CloserInner", TypeOf[testCloserInner]()).
			Add("CloserOuter", TypeOf[testCloserOuter]()).
			Add("Init", TypeOf[testInit]()).
			Add("PanicC", TypeOf[testPanicC]()).
			Add("Optional", TypeOf[testOptional]()).
			Add("Multiple", TypeOf[testMultiple]())
	})
}

// newTestContainer returns a container over the test catalog.
func newTestContainer(opts ...Option) *Container {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(append([]Option{WithCatalog(newTestCatalog()), WithLogger(logger)}, opts...)...)
}
