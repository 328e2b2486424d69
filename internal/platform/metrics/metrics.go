// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics holds the Prometheus collectors of the civil registry service.
//
// All collectors are registered against the registry passed to [New], so tests
// can build isolated instances with [prometheus.NewRegistry].
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "civilregistry"

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	RecordsRegistered   *prometheus.CounterVec
	DuplicatesRejected  *prometheus.CounterVec
	DocumentsUploaded   *prometheus.CounterVec
	CertificatesIssued  *prometheus.CounterVec
	BackupsCompleted    *prometheus.CounterVec
	BackupDuration      prometheus.Histogram
	TokenRevocationTime prometheus.Histogram
}

// New creates and registers all collectors on registry.
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		gatherer: registry,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		RecordsRegistered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_registered_total",
			Help:      "Civil records registered, by record type",
		}, []string{"type"}),
		DuplicatesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_rejected_total",
			Help:      "Registrations or updates rejected as exact duplicates, by record type",
		}, []string{"type"}),
		DocumentsUploaded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_uploaded_total",
			Help:      "Scanned documents accepted, by record type",
		}, []string{"type"}),
		CertificatesIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificates_issued_total",
			Help:      "Certificate issuances logged, by certificate type",
		}, []string{"type"}),
		BackupsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backups attempted, by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		BackupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backup_duration_seconds",
			Help:      "Wall time spent writing a SQL dump",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		TokenRevocationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "token_revocation_check_duration_ms",
			Help:      "Latency of token revocation checks in milliseconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// IncrementRegistered counts a new record of the given type.
func (m *Metrics) IncrementRegistered(recordType string) {
	m.RecordsRegistered.WithLabelValues(recordType).Inc()
}

// IncrementDuplicates counts an exact-duplicate rejection.
func (m *Metrics) IncrementDuplicates(recordType string) {
	m.DuplicatesRejected.WithLabelValues(recordType).Inc()
}

// IncrementDocuments counts an accepted document upload.
func (m *Metrics) IncrementDocuments(recordType string) {
	m.DocumentsUploaded.WithLabelValues(recordType).Inc()
}

// IncrementCertificates counts a logged certificate issuance.
func (m *Metrics) IncrementCertificates(certificateType string) {
	m.CertificatesIssued.WithLabelValues(certificateType).Inc()
}

// ObserveBackup records the outcome and duration of one backup attempt.
func (m *Metrics) ObserveBackup(trigger string, err error, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.BackupsCompleted.WithLabelValues(trigger, outcome).Inc()
	m.BackupDuration.Observe(elapsed.Seconds())
}

// ObserveRevocationCheck records the latency of a token denylist lookup.
func (m *Metrics) ObserveRevocationCheck(elapsed time.Duration) {
	m.TokenRevocationTime.Observe(float64(elapsed.Microseconds()) / 1000.0)
}

// Noop returns collectors bound to a throwaway registry. Useful for tests and
// the CLI, where nothing scrapes the values.
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}
