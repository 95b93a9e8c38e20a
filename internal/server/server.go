/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server is the local read-only print server: it serves the print page,
// card images, PDF downloads and a small JSON API over the current collections.
// Everything except /healthz and /version requires a JWT signed with the print
// secret, passed as ?jwt=, a Bearer header or the jwt cookie.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"

	"datacards/internal/export"
	"datacards/internal/icons"
	applog "datacards/internal/log"
	"datacards/internal/store"
)

// DefaultTokenTTL is the lifetime of tokens minted by IssueToken.
const DefaultTokenTTL = 12 * time.Hour

// ErrNoSecret is returned by New when no signing secret is configured.
var ErrNoSecret = errors.New("print server needs a signing secret")

// Source provides the collections to serve.
type Source interface {
	State() store.State
}

type Options struct {
	// Secret signs and verifies access tokens (HS256).
	Secret   string
	Resolver icons.Resolver
	Export   export.Options
}

type Server struct {
	src  Source
	opt  Options
	auth *jwtauth.JWTAuth
	log  *slog.Logger
}

func New(src Source, opt Options) (*Server, error) {
	if opt.Secret == "" {
		return nil, ErrNoSecret
	}
	if opt.Export.Resolver == nil {
		opt.Export.Resolver = opt.Resolver
	}
	return &Server{
		src:  src,
		opt:  opt,
		auth: jwtauth.New("HS256", []byte(opt.Secret), nil),
		log:  applog.WithComponent("server"),
	}, nil
}

// IssueToken mints an access token valid for ttl (DefaultTokenTTL when zero).
func (s *Server) IssueToken(ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	claims := map[string]interface{}{"sub": "print"}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, ttl)
	_, tok, err := s.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Routes wires the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/version", s.version)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verify(s.auth, jwtauth.TokenFromQuery, jwtauth.TokenFromHeader, jwtauth.TokenFromCookie))
		r.Use(jwtauth.Authenticator)

		r.Get("/print/{id}", s.printPage)
		r.Route("/api/collections", func(r chi.Router) {
			r.Get("/", s.listCollections)
			r.Get("/{id}", s.getCollection)
			r.Get("/{id}/cards/{cardID}.png", s.cardPNG)
			r.Get("/{id}/export.pdf", s.exportPDF)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("took", time.Since(start)),
			slog.String("req_id", middleware.GetReqID(r.Context())))
	})
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("print server listening", slog.String("addr", addr))
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shut)
	}
}
