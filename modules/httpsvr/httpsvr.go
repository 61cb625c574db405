/*
 * SPDX-FileCopyrightText: Copyright (c) 2003 NVIDIA CORPORATION & AFFILIATES. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package httpsvr declares the `httpsvr` namespace: an HTTP server whose
// routes are bound from a descriptor.
package httpsvr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/NVIDIA/confinject"
	"github.com/NVIDIA/confinject/internal/ctxlog"
)

// Namespace is the catalog namespace of this package.
const Namespace = "httpsvr"

func init() {
	confinject.RegisterNamespace(Namespace, declare)
}

// Register declares the server types in the catalog.
func Register(catalog *confinject.Catalog) {
	catalog.Namespace(Namespace, declare)
}

func declare(ns *confinject.Namespace) {
	ns.Add("Routes", confinject.TypeOf[Routes]()).
		Add("Greeter", confinject.TypeOf[Greeter]()).
		Add("Probe", confinject.TypeOf[Probe]()).
		Add("Server", confinject.TypeOf[Server]()).
		Add("GreetingRoutes", confinject.TypeOf[GreetingRoutes]()).
		Add("HealthRoutes", confinject.TypeOf[HealthRoutes]())
}

// Routes mounts handlers on the router.
type Routes interface {
	Mount(router chi.Router)
}

// Greeter serves greetings.
type Greeter interface {
	Routes
	Greet(name string) string
}

// Probe serves liveness checks.
type Probe interface {
	Routes
	Healthy() bool
}

// Server serves every bound service implementing Routes until the run
// context is done.
type Server struct {
	Addr            string                      `conf:"addr" default:"127.0.0.1:8080"`
	ShutdownTimeout string                      `conf:"shutdown_timeout" default:"5s"`
	Routes          confinject.Multiple[Routes] `conf:"routes"`

	shutdownTimeout time.Duration
}

// Init validates the server settings.
func (s *Server) Init() error {
	if len(s.Routes) == 0 {
		return errors.New("no routes bound")
	}
	timeout, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	s.shutdownTimeout = timeout
	return nil
}

// Handler returns the router with every bound route mounted.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	for _, routes := range s.Routes {
		routes.Mount(router)
	}
	return router
}

// Serve listens on the configured address and shuts down gracefully
// when the context is done.
func (s *Server) Serve(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	logger.Info("HTTP server listening.", "address", listener.Addr().String())
	if err := s.serve(ctx, listener); err != nil {
		return err
	}

	logger.Info("HTTP server stopped.")
	return nil
}

// serve runs the HTTP server on the listener until the context is done
// or serving fails.
func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Shut down when the run is cancelled or serving stopped.
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	serveErr := srv.Serve(listener)
	close(stop)
	shutdownErr := <-done

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", serveErr)
	}
	if shutdownErr != nil {
		return fmt.Errorf("failed to shut down: %w", shutdownErr)
	}
	return nil
}

// HealthRoutes answers liveness probes.
type HealthRoutes struct {
	Path string `conf:"path" default:"/healthz"`
}

// Healthy implements Probe interface.
func (h *HealthRoutes) Healthy() bool { return true }

// Mount implements Routes interface.
func (h *HealthRoutes) Mount(router chi.Router) {
	router.Get(h.Path, func(w http.ResponseWriter, r *http.Request) {
		if !h.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
}

// GreetingRoutes greets the caller by name.
type GreetingRoutes struct {
	Path    string `conf:"path" default:"/hello"`
	Message string `conf:"message" default:"Hello"`
}

// Greet implements Greeter interface.
func (g *GreetingRoutes) Greet(name string) string {
	if name == "" {
		return g.Message + "!"
	}
	return g.Message + ", " + name + "!"
}

// Mount implements Routes interface.
func (g *GreetingRoutes) Mount(router chi.Router) {
	router.Route(g.Path, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, g.Greet(""))
		})
		r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, g.Greet(chi.URLParam(r, "name")))
		})
	})
}
