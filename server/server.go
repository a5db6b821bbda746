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

// Package server provides the GarageDocs server which is the main entry point
// of the sync subsystem. The server runs one reconciler per configured
// showroom, the housekeeping loop and the profiling server.
package server

import (
	"context"
	gosync "sync"

	"github.com/garagedocs-team/garagedocs/server/backend"
	"github.com/garagedocs-team/garagedocs/server/logging"
	"github.com/garagedocs-team/garagedocs/server/profiling"
	"github.com/garagedocs-team/garagedocs/server/profiling/prometheus"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

// GarageDocs is a server of GarageDocs. The server watches the remote owner
// feeds, reconciles them into the local cache and mirrors owner documents
// onto the host through the bridge.
type GarageDocs struct {
	lock gosync.Mutex

	conf            *Config
	backend         *backend.Backend
	profilingServer *profiling.Server

	reconcilerCancel context.CancelFunc
	reconcilerWg     gosync.WaitGroup

	shutdown   bool
	shutdownCh chan struct{}
}

// New creates a new instance of GarageDocs.
func New(conf *Config) (*GarageDocs, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	metrics, err := prometheus.NewMetrics()
	if err != nil {
		return nil, err
	}

	be, err := backend.New(
		conf.Backend,
		conf.Mongo,
		conf.Bridge,
		conf.Sync,
		conf.Housekeeping,
		metrics,
	)
	if err != nil {
		return nil, err
	}

	var profilingServer *profiling.Server
	if conf.Profiling != nil {
		profilingServer = profiling.NewServer(conf.Profiling, metrics)
	}

	return &GarageDocs{
		conf:            conf,
		backend:         be,
		profilingServer: profilingServer,
		shutdownCh:      make(chan struct{}),
	}, nil
}

// Start starts the server: one reconciler per showroom, housekeeping and the
// profiling endpoint.
func (r *GarageDocs) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.backend.Start(); err != nil {
		return err
	}

	if r.profilingServer != nil {
		if err := r.profilingServer.Start(); err != nil {
			return err
		}
	}

	// Reconcilers run for the whole server lifetime, so they are managed
	// here instead of the background service the detached syncs use.
	ctx, cancel := context.WithCancel(
		logging.With(context.Background(), logging.DefaultLogger()),
	)
	r.reconcilerCancel = cancel
	for _, showroom := range r.conf.Backend.Showrooms {
		reconciler := sync.NewReconciler(
			showroom,
			r.backend.Role(),
			r.backend.DB,
			r.backend.Cache,
			r.backend.Coordinator,
			r.backend.Background,
			r.backend.Metrics,
		)

		r.reconcilerWg.Add(1)
		go func(showroom string) {
			defer r.reconcilerWg.Done()
			if err := reconciler.Run(ctx); err != nil {
				logging.From(ctx).Errorf("reconciler %s: %v", showroom, err)
			}
		}(showroom)
	}

	logging.DefaultLogger().Infof(
		"server started: %d showrooms, role %s",
		len(r.conf.Backend.Showrooms),
		r.backend.Role(),
	)
	return nil
}

// Shutdown shuts down this GarageDocs server.
func (r *GarageDocs) Shutdown(graceful bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.shutdown {
		return nil
	}

	if r.reconcilerCancel != nil {
		r.reconcilerCancel()
		r.reconcilerWg.Wait()
	}

	if r.profilingServer != nil {
		r.profilingServer.Shutdown(graceful)
	}

	if err := r.backend.Shutdown(); err != nil {
		return err
	}

	close(r.shutdownCh)
	r.shutdown = true
	return nil
}

// ShutdownCh returns the shutdown channel.
func (r *GarageDocs) ShutdownCh() <-chan struct{} {
	return r.shutdownCh
}

// Backend returns the backend of this server for testing purposes.
func (r *GarageDocs) Backend() *backend.Backend {
	return r.backend
}
