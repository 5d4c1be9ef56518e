// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics provides Prometheus instrumentation for a grading session.
//
// # Description
//
// A session is short-lived and has no HTTP listener, so metrics live on a
// private registry and are flushed once, at exit, to a node_exporter
// textfile. Metrics include:
//   - Accepted assignments (by category)
//   - Rejected records (by rejection reason)
//   - Entered grades (histogram)
//   - Final category totals, GPA and outcome (gauges)
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package metrics

import (
	"fmt"

	"github.com/AleutianAI/gradebook/pkg/gradebook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "gradebook"
	sessionSubsystem = "session"
)

// SessionMetrics holds the collectors for one grading session.
//
// # Fields
//
//   - AcceptedTotal: assignments added to the gradebook. Labels: category
//   - RejectedTotal: records refused by validation or capacity. Labels: reason
//   - GradePercent: distribution of accepted grades
//   - CategoryTotal: final weighted total. Labels: category
//   - CategoryWeight: final used weight. Labels: category
//   - GPA: final grade point average
//   - Passed: 1 when the final outcome is PASS, 0 otherwise
type SessionMetrics struct {
	AcceptedTotal  *prometheus.CounterVec
	RejectedTotal  *prometheus.CounterVec
	GradePercent   prometheus.Histogram
	CategoryTotal  *prometheus.GaugeVec
	CategoryWeight *prometheus.GaugeVec
	GPA            prometheus.Gauge
	Passed         prometheus.Gauge

	registry *prometheus.Registry
}

// NewSessionMetrics registers a fresh set of collectors on a private registry.
//
// # Description
//
// Each call gets its own registry, so tests and repeated sessions in one
// process never hit duplicate registration panics.
//
// # Examples
//
//	m := metrics.NewSessionMetrics()
//	m.Accepted(a)
//	defer m.WriteTextfile("/var/lib/node_exporter/gradebook.prom")
func NewSessionMetrics() *SessionMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &SessionMetrics{
		AcceptedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sessionSubsystem,
				Name:      "assignments_accepted_total",
				Help:      "Assignments accepted into the gradebook by category",
			},
			[]string{"category"},
		),

		RejectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: sessionSubsystem,
				Name:      "assignments_rejected_total",
				Help:      "Assignment records rejected by reason",
			},
			[]string{"reason"},
		),

		GradePercent: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: sessionSubsystem,
				Name:      "grade_percent",
				Help:      "Distribution of accepted assignment grades",
				Buckets:   []float64{40, 50, 60, 70, 80, 90, 100},
			},
		),

		CategoryTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: sessionSubsystem,
				Name:      "category_total",
				Help:      "Final weighted total per category",
			},
			[]string{"category"},
		),

		CategoryWeight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: sessionSubsystem,
				Name:      "category_weight",
				Help:      "Final used weight per category",
			},
			[]string{"category"},
		),

		GPA: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: sessionSubsystem,
				Name:      "gpa",
				Help:      "Final grade point average",
			},
		),

		Passed: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: sessionSubsystem,
				Name:      "passed",
				Help:      "1 if the session outcome is PASS, 0 otherwise",
			},
		),

		registry: reg,
	}
}

// Registry exposes the private registry, mainly for tests and custom gatherers.
func (m *SessionMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Accepted records an assignment that made it into the gradebook.
func (m *SessionMetrics) Accepted(a gradebook.Assignment) {
	m.AcceptedTotal.WithLabelValues(string(a.Category())).Inc()
	m.GradePercent.Observe(a.Grade())
}

// Rejected records a refused input under a reason label such as
// "capacity_exceeded". Empty reasons are ignored.
func (m *SessionMetrics) Rejected(reason string) {
	if reason == "" {
		return
	}
	m.RejectedTotal.WithLabelValues(reason).Inc()
}

// ObserveReport sets the final gauges from a closed gradebook's report.
func (m *SessionMetrics) ObserveReport(r gradebook.Report) {
	for _, total := range r.Transcript.Totals {
		m.CategoryTotal.WithLabelValues(string(total.Category)).Set(total.Total)
		m.CategoryWeight.WithLabelValues(string(total.Category)).Set(total.Weight)
	}
	m.GPA.Set(r.Transcript.GPA)
	if r.Result.Passed() {
		m.Passed.Set(1)
	} else {
		m.Passed.Set(0)
	}
}

// WriteTextfile writes every collector to path in the text exposition format.
//
// The file is written to a temporary name and renamed, so a node_exporter
// scrape never sees a partial file.
func (m *SessionMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
