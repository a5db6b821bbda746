/*
 * Copyright 2025 The GarageDocs Authors. All rights reserved.
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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/internal/version"
)

const (
	namespace      = "garagedocs"
	showroomLabel  = "showroom"
	resultLabel    = "result"
	reasonLabel    = "reason"
	actionLabel    = "action"
	eventTypeLabel = "event_type"
	taskTypeLabel  = "task_type"
)

// Metrics manages the metric information that GarageDocs is trying to measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	syncHandledTotal          *prometheus.CounterVec
	bridgeSyncDurationSeconds prometheus.Histogram
	bridgeDocumentsTotal      *prometheus.CounterVec

	reconcilerEventsTotal *prometheus.CounterVec

	backgroundGoroutinesTotal *prometheus.GaugeVec
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		syncHandledTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "handled_total",
			Help:      "Total number of settled owner syncs, labeled by result and skip reason.",
		}, []string{
			showroomLabel,
			resultLabel,
			reasonLabel,
		}),
		bridgeSyncDurationSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "sync_duration_seconds",
			Help:      "The duration of bridge sync calls.",
		}),
		bridgeDocumentsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "documents_total",
			Help:      "The total count of documents the bridge downloaded, updated, deleted or skipped.",
		}, []string{
			showroomLabel,
			actionLabel,
		}),
		reconcilerEventsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "events_total",
			Help:      "The total count of owner change events applied to the local cache.",
		}, []string{
			showroomLabel,
			eventTypeLabel,
		}),
		backgroundGoroutinesTotal: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "background",
			Name:      "goroutines_total",
			Help:      "The total number of goroutines attached by background tasks.",
		}, []string{taskTypeLabel}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// AddSyncHandled adds one settled owner sync.
func (m *Metrics) AddSyncHandled(showroom string, result types.BatchStatus, reason types.SyncReason) {
	m.syncHandledTotal.With(prometheus.Labels{
		showroomLabel: showroom,
		resultLabel:   string(result),
		reasonLabel:   string(reason),
	}).Inc()
}

// ObserveBridgeSyncDurationSeconds adds an observation for the duration of a
// bridge sync call.
func (m *Metrics) ObserveBridgeSyncDurationSeconds(seconds float64) {
	m.bridgeSyncDurationSeconds.Observe(seconds)
}

// AddBridgeDocuments adds the per-action document counts of a settled bridge
// sync.
func (m *Metrics) AddBridgeDocuments(showroom string, stats *types.SyncStats) {
	if stats == nil {
		return
	}
	for action, count := range map[string]int{
		"downloaded": stats.DocumentsDownloaded,
		"updated":    stats.DocumentsUpdated,
		"deleted":    stats.DocumentsDeleted,
		"skipped":    stats.DocumentsSkipped,
	} {
		if count == 0 {
			continue
		}
		m.bridgeDocumentsTotal.With(prometheus.Labels{
			showroomLabel: showroom,
			actionLabel:   action,
		}).Add(float64(count))
	}
}

// AddReconcilerEvents adds one applied owner change event.
func (m *Metrics) AddReconcilerEvents(showroom string, eventType string) {
	m.reconcilerEventsTotal.With(prometheus.Labels{
		showroomLabel:  showroom,
		eventTypeLabel: eventType,
	}).Inc()
}

// AddBackgroundGoroutines adds the number of goroutines attached by
// background tasks.
func (m *Metrics) AddBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Inc()
}

// RemoveBackgroundGoroutines removes the number of goroutines attached by
// background tasks.
func (m *Metrics) RemoveBackgroundGoroutines(taskType string) {
	m.backgroundGoroutinesTotal.With(prometheus.Labels{
		taskTypeLabel: taskType,
	}).Dec()
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
