// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the trust layer as a JSON-over-HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/devvault/trustlayer/config"
	"github.com/devvault/trustlayer/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	glog "github.com/golang/glog"
)

const (
	readTimeout  = 15 * time.Second
	writeTimeout = 30 * time.Second
	idleTimeout  = 60 * time.Second

	// maxBodyBytes bounds every request body.
	maxBodyBytes = 1 << 20
)

// Server is the DevVault HTTP binding.
type Server struct {
	cfg    *config.Config
	router *chi.Mux
	http   *http.Server
}

// New returns a Server for cfg. A nil cfg uses config.Default.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	s := &Server{cfg: cfg}
	s.router = s.setupRouter()
	s.http = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s, nil
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	if s.cfg.Server.Metrics {
		r.Use(metrics.HTTPMiddleware)
	}

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	if s.cfg.Server.Metrics {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/mac/check", s.handleMACCheck)

		r.Route("/crypto", func(r chi.Router) {
			r.Get("/keys", s.handleKeys)
			r.Post("/encrypt", s.handleEncrypt)
			r.Post("/decrypt", s.handleDecrypt)
			r.Post("/split", s.handleSplit)
			r.Post("/reconstruct", s.handleReconstruct)
		})

		r.Route("/utils", func(r chi.Router) {
			r.Post("/merkle", s.handleMerkle)
			r.Post("/sign", s.handleSign)
			r.Post("/verify", s.handleVerify)
			r.Post("/dna/encode", s.handleDNAEncode)
			r.Post("/dna/decode", s.handleDNADecode)
		})

		r.Route("/auth/mfa", func(r chi.Router) {
			r.Post("/setup", s.handleMFASetup)
			r.Post("/verify", s.handleMFAVerify)
		})
	})

	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.http.Addr
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	glog.Infof("Starting DevVault server on %v.", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	glog.Infof("Shutting down DevVault server.")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
