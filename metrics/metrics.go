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

// Package metrics exposes Prometheus collectors for trust layer operations
// and the HTTP binding.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "devvault"

// Operation labels.
const (
	OpMACCheck    = "mac_check"
	OpKeygen      = "keygen"
	OpEncrypt     = "encrypt"
	OpDecrypt     = "decrypt"
	OpSplit       = "split"
	OpReconstruct = "reconstruct"
	OpSign        = "sign"
	OpVerify      = "verify"
	OpMerkle      = "merkle"
	OpDNAEncode   = "dna_encode"
	OpDNADecode   = "dna_decode"
	OpMFASetup    = "mfa_setup"
	OpMFAVerify   = "mfa_verify"
)

// Status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// OperationsTotal counts core operations by outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of trust layer operations",
		},
		[]string{"operation", "status"},
	)

	// OperationDuration tracks core operation latency in seconds. RSA key
	// generation dominates the upper buckets.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of trust layer operations in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// AccessDecisionsTotal counts MAC decisions by access kind and result.
	AccessDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "access_decisions_total",
			Help:      "Total number of mandatory access control decisions",
		},
		[]string{"access", "allowed"},
	)

	// HTTPRequestsTotal counts HTTP requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInFlight is the number of requests being served.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
}

// RecordOperation records one core operation and its duration in seconds.
func RecordOperation(operation string, err error, duration float64) {
	if !enabled.Load() {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordAccessDecision records the outcome of a read or write check.
func RecordAccessDecision(access string, allowed bool) {
	if !enabled.Load() {
		return
	}
	label := "false"
	if allowed {
		label = "true"
	}
	AccessDecisionsTotal.WithLabelValues(access, label).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route, statusCode string, duration float64) {
	if !enabled.Load() {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
}

// Enable turns metrics collection on.
func Enable() {
	enabled.Store(true)
}

// Disable turns metrics collection off.
func Disable() {
	enabled.Store(false)
}

// IsEnabled reports whether metrics collection is on.
func IsEnabled() bool {
	return enabled.Load()
}
