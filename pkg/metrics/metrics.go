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

// Package metrics holds the Prometheus counters for the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the pipeline counters with their registry so the
// receiver can expose them without touching the default registry.
type Metrics struct {
	Registry *prometheus.Registry

	ReportsTotal         prometheus.Counter
	ReportsInvalid       prometheus.Counter
	ObservationsAccepted prometheus.Counter
	ObservationsRejected prometheus.Counter
	StaleDevices         prometheus.Counter
	ForwardErrors        prometheus.Counter
}

// NewMetrics creates a Metrics instance backed by a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		ReportsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "presenced_reports_total",
			Help: "Total number of reports processed",
		}),
		ReportsInvalid: factory.NewCounter(prometheus.CounterOpts{
			Name: "presenced_reports_invalid_total",
			Help: "Total number of reports rejected before processing",
		}),
		ObservationsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "presenced_observations_accepted_total",
			Help: "Total number of device observations accepted",
		}),
		ObservationsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "presenced_observations_rejected_total",
			Help: "Total number of device observations rejected by filters",
		}),
		StaleDevices: factory.NewCounter(prometheus.CounterOpts{
			Name: "presenced_stale_devices_total",
			Help: "Total number of devices flagged offline by the sweeper",
		}),
		ForwardErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "presenced_forward_errors_total",
			Help: "Total number of failed forwards to the places consumer",
		}),
	}
}
