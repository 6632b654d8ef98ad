// Zaparoo Label
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Label.
//
// Zaparoo Label is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Label is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Label.  If not, see <http://www.gnu.org/licenses/>.

// Package api is the HTTP and websocket surface used by the operator
// tablet.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/api/middleware"
	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/ZaparooProject/zaparoo-label/pkg/database"
	"github.com/ZaparooProject/zaparoo-label/pkg/printer"
	"github.com/ZaparooProject/zaparoo-label/pkg/scan"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"
)

const (
	maxBodySize     = 16 << 10
	shutdownTimeout = 5 * time.Second
)

// Scanner is the scan session the tablet drives.
type Scanner interface {
	Input(field scan.Field, raw string)
	Terminate(field scan.Field)
	SubmitFocused(value string)
	Clear() error
	Retry() error
	Snapshot() scan.Session
}

// Store reads print history and counters.
type Store interface {
	GetHistory(lastID int64) ([]database.PrintEntry, error)
	GetCounters() (database.Counters, error)
}

// Printer is the print transport with a way to drop the cached device so
// the next request discovers it again.
type Printer interface {
	printer.Transport
	Reset()
}

// Env holds the collaborators of the API. Store is optional.
type Env struct {
	Config  *config.Instance
	Scanner Scanner
	Printer Printer
	Store   Store
	Version string
}

type Server struct {
	env     Env
	ws      *melody.Melody
	limiter *middleware.IPRateLimiter
	router  chi.Router
}

func NewServer(env Env) *Server {
	s := &Server{
		env:     env,
		ws:      melody.New(),
		limiter: middleware.NewIPRateLimiter(),
	}
	s.ws.Upgrader.CheckOrigin = func(*http.Request) bool { return true }
	s.ws.HandleConnect(s.handleWSConnect)
	s.ws.HandleMessage(handleWSMessage)
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// privateNetworkAccessMiddleware answers Private Network Access preflights
// so a tablet app served over https can reach the service on the LAN.
func privateNetworkAccessMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions &&
			r.Header.Get("Access-Control-Request-Private-Network") == "true" {
			w.Header().Set("Access-Control-Allow-Private-Network", "true")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.NoCache)
	r.Use(middleware.HTTPIPFilterMiddleware(middleware.NewIPFilter(s.env.Config.AllowedIPs())))
	r.Use(privateNetworkAccessMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*", "capacitor://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{},
	}))

	// the websocket is long lived and must not hit the request timeout
	r.Get("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := s.ws.HandleRequest(w, r); err != nil {
			log.Error().Err(err).Msg("handling websocket request")
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.APIRequestTimeout))
		r.Use(middleware.HTTPRateLimitMiddleware(s.limiter))

		r.Get("/api/session", s.handleSession)
		r.Post("/api/scan", s.handleScan)
		r.Post("/api/scan/focused", s.handleScanFocused)
		r.Post("/api/clear", s.handleClear)
		r.Post("/api/retry", s.handleRetry)

		r.Get("/api/printer", s.handlePrinter)
		r.Post("/api/printer/rediscover", s.handlePrinterRediscover)
		r.Post("/api/print/test", s.handleTestPrint)
		r.Post("/api/print/calibration", s.handleCalibrationPrint)
		r.Post("/api/print/connectivity", s.handleConnectivityPrint)

		r.Get("/api/history", s.handleHistory)
		r.Get("/api/counters", s.handleCounters)
		r.Get("/api/version", s.handleVersion)
	})

	return r
}

// Broadcast pushes session notifications to every websocket client until
// ctx is done. Writes happen off the consumer loop so a slow client never
// backs up the channel.
func (s *Server) Broadcast(ctx context.Context, notifications <-chan scan.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-notifications:
			data, err := json.Marshal(notif)
			if err != nil {
				log.Error().Err(err).Msg("marshalling notification")
				continue
			}
			go func() {
				if err := s.ws.Broadcast(data); err != nil {
					log.Debug().Err(err).Msg("broadcasting notification")
				}
			}()
		}
	}
}

func (s *Server) handleWSConnect(session *melody.Session) {
	data, err := json.Marshal(scan.Notification{
		Event:   scan.EventUpdated,
		Session: s.env.Scanner.Snapshot(),
	})
	if err != nil {
		log.Error().Err(err).Msg("marshalling session")
		return
	}
	if err := session.Write(data); err != nil {
		log.Debug().Err(err).Msg("sending initial session")
	}
}

func handleWSMessage(session *melody.Session, msg []byte) {
	// heartbeat only, scans come in over HTTP
	if string(msg) == "ping" {
		if err := session.Write([]byte("pong")); err != nil {
			log.Debug().Err(err).Msg("sending pong")
		}
	}
}

// Serve runs the API on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.limiter.StartCleanup(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.ws.Close(); err != nil {
		log.Debug().Err(err).Msg("closing websocket sessions")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Start listens on the configured port and serves until ctx is done. The
// port is bound before Start returns control to the serve loop, so clients
// never race the listener.
func Start(ctx context.Context, env Env, notifications <-chan scan.Notification) error {
	s := NewServer(env)

	addr := ":" + strconv.Itoa(env.Config.APIPort())
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("api server listening")

	if notifications != nil {
		go s.Broadcast(ctx, notifications)
	}
	return s.Serve(ctx, ln)
}
