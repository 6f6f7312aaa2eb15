/*
 * Copyright 2025 The presenced Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package receiver exposes the scanning-API webhook endpoint.
package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/netwatchio/presenced/pkg/logger"
	"github.com/netwatchio/presenced/pkg/metrics"
	"github.com/netwatchio/presenced/pkg/models"
	"github.com/netwatchio/presenced/pkg/presence"
)

const (
	// The upstream reporter batches aggressively; its pushes can be large.
	maxBodyBytes = 25 << 20

	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 60 * time.Second
)

// Receiver terminates the webhook transport: it answers the validator
// challenge, authenticates pushes by their bundled shared secret and
// hands authenticated reports to the ingestion pipeline. Reports with a
// mismatched secret never reach the pipeline.
type Receiver struct {
	config  *models.CoreConfig
	tracker *presence.Tracker
	metrics *metrics.Metrics
	router  *mux.Router
	srv     *http.Server
	logger  logger.Logger
}

// New builds the receiver and its routes.
func New(cfg *models.CoreConfig, tracker *presence.Tracker, m *metrics.Metrics, log logger.Logger) *Receiver {
	r := &Receiver{
		config:  cfg,
		tracker: tracker,
		metrics: m,
		router:  mux.NewRouter(),
		logger:  log,
	}

	r.setupRoutes()

	return r
}

func (r *Receiver) setupRoutes() {
	r.router.Use(r.requestLogging)

	r.router.HandleFunc(r.config.Route, r.handleValidator).Methods(http.MethodGet)
	r.router.HandleFunc(r.config.Route, r.handleReport).Methods(http.MethodPost)
	r.router.Handle("/metrics", promhttp.HandlerFor(r.metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.router.HandleFunc("/healthz", r.handleHealth).Methods(http.MethodGet)
}

// requestLogging logs every request at debug level.
func (r *Receiver) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.logger.Debug().
			Str("remote", req.RemoteAddr).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("HTTP request")

		next.ServeHTTP(w, req)
	})
}

// handleValidator answers the upstream reporter's endpoint verification:
// a GET on the route returns the configured validator string.
func (r *Receiver) handleValidator(w http.ResponseWriter, req *http.Request) {
	r.logger.Debug().Str("remote", req.RemoteAddr).Msg("Validator requested")

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, r.config.Validator)
}

// handleReport authenticates and ingests one pushed report. The push is
// acknowledged before processing so upstream retry timers stay quiet.
func (r *Receiver) handleReport(w http.ResponseWriter, req *http.Request) {
	body := http.MaxBytesReader(w, req.Body, maxBodyBytes)

	var report models.Report

	if err := json.NewDecoder(body).Decode(&report); err != nil {
		r.logger.Warn().Err(err).Str("remote", req.RemoteAddr).Msg("Failed to decode report")
		r.metrics.ReportsInvalid.Inc()
		http.Error(w, "Bad request.", http.StatusBadRequest)

		return
	}

	if report.Secret != r.config.Secret {
		r.logger.Error().Str("remote", req.RemoteAddr).Msg("Invalid secret received, check the requester")
		http.Error(w, "Access denied.", http.StatusNotFound)

		return
	}

	r.logger.Debug().Str("remote", req.RemoteAddr).Msg("Received scanning-API data")

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "Ok.")

	r.tracker.ProcessReport(req.Context(), &report)
}

func (*Receiver) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

// Router exposes the handler for tests.
func (r *Receiver) Router() *mux.Router {
	return r.router
}

// Start serves until Shutdown is called. A closed server is not an error.
func (r *Receiver) Start() error {
	r.srv = &http.Server{
		Addr:         r.config.ListenAddr,
		Handler:      r.router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	r.logger.Info().
		Str("addr", r.config.ListenAddr).
		Str("route", r.config.Route).
		Msg("Scanning-API receiver listening")

	err := r.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown drains in-flight requests.
func (r *Receiver) Shutdown(ctx context.Context) error {
	if r.srv == nil {
		return nil
	}

	return r.srv.Shutdown(ctx)
}
