package httpsvr

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NVIDIA/confinject"
)

// newServer builds the server from bindings in a new container.
func newServer(t *testing.T, args map[string]any, bindings ...confinject.Binding) *Server {
	t.Helper()

	catalog := confinject.NewCatalog()
	Register(catalog)

	container := confinject.New(confinject.WithCatalog(catalog))
	t.Cleanup(func() { _ = container.Close() })
	require.NoError(t, container.Register(bindings...))

	handle, err := catalog.LoadString("httpsvr:Server")
	require.NoError(t, err)
	instance, err := container.Construct(handle, args)
	require.NoError(t, err)
	return instance.(*Server)
}

// get performs a GET request against the handler.
func get(t *testing.T, handler http.Handler, path string) (int, string) {
	t.Helper()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(recorder.Result().Body)
	require.NoError(t, err)
	return recorder.Code, string(body)
}

func TestServerHandler(t *testing.T) {
	t.Parallel()

	server := newServer(t, nil,
		confinject.Binding{Interface: "httpsvr:Greeter", To: "httpsvr:GreetingRoutes", Args: map[string]any{"message": "Hi"}},
		confinject.Binding{Interface: "httpsvr:Probe", To: "httpsvr:HealthRoutes"},
	)
	assert.Len(t, server.Routes, 2)
	assert.Equal(t, "127.0.0.1:8080", server.Addr)
	assert.Equal(t, 5*time.Second, server.shutdownTimeout)

	handler := server.Handler()

	code, body := get(t, handler, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK\n", body)

	code, body = get(t, handler, "/hello")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Hi!\n", body)

	code, body = get(t, handler, "/hello/gopher")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Hi, gopher!\n", body)

	code, _ = get(t, handler, "/missing")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServerWithoutProbe(t *testing.T) {
	t.Parallel()

	server := newServer(t, nil,
		confinject.Binding{Interface: "httpsvr:Greeter", To: "httpsvr:GreetingRoutes"},
	)

	code, _ := get(t, server.Handler(), "/healthz")
	assert.Equal(t, http.StatusNotFound, code)

	_, body := get(t, server.Handler(), "/hello/x")
	assert.Equal(t, "Hello, x!\n", body)
}

// panicRoutes panics in its handler.
type panicRoutes struct{}

func (panicRoutes) Mount(router chi.Router) {
	router.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
}

func TestServerRecoversPanics(t *testing.T) {
	t.Parallel()

	server := &Server{Routes: confinject.Multiple[Routes]{panicRoutes{}}}
	code, _ := get(t, server.Handler(), "/panic")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestServerInitErrors(t *testing.T) {
	t.Parallel()

	catalog := confinject.NewCatalog()
	Register(catalog)
	container := confinject.New(confinject.WithCatalog(catalog))
	handle, err := catalog.LoadString("httpsvr:Server")
	require.NoError(t, err)

	_, err = container.Construct(handle, nil)
	assert.ErrorContains(t, err, "no routes bound")

	require.NoError(t, container.Register(confinject.Binding{Interface: "httpsvr:Greeter", To: "httpsvr:GreetingRoutes"}))
	_, err = container.Construct(handle, map[string]any{"shutdown_timeout": "soon"})
	assert.ErrorContains(t, err, "invalid shutdown_timeout")
}

func TestGreetingRoutes(t *testing.T) {
	t.Parallel()

	g := &GreetingRoutes{Message: "Hey"}
	assert.Equal(t, "Hey!", g.Greet(""))
	assert.Equal(t, "Hey, you!", g.Greet("you"))
}

func TestServerServe(t *testing.T) {
	t.Parallel()

	server := newServer(t, map[string]any{"addr": "127.0.0.1:0", "shutdown_timeout": "1s"},
		confinject.Binding{Interface: "httpsvr:Greeter", To: "httpsvr:GreetingRoutes"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- server.Serve(ctx) }()

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerListenError(t *testing.T) {
	t.Parallel()

	server := &Server{Addr: "256.0.0.1:bad", Routes: confinject.Multiple[Routes]{panicRoutes{}}}
	assert.ErrorContains(t, server.Serve(context.Background()), "failed to listen")
}

func TestServerServeFailure(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	server := &Server{Routes: confinject.Multiple[Routes]{&HealthRoutes{Path: "/healthz"}}}
	served := make(chan error, 1)
	go func() { served <- server.serve(context.Background(), listener) }()

	// The shutdown watcher exits with the failed server.
	select {
	case err := <-served:
		assert.ErrorContains(t, err, "failed to serve")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not return")
	}
}
