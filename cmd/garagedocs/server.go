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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/garagedocs-team/garagedocs/server"
	"github.com/garagedocs-team/garagedocs/server/backend/bridge"
	"github.com/garagedocs-team/garagedocs/server/backend/database/mongo"
	"github.com/garagedocs-team/garagedocs/server/logging"
)

var (
	gracefulTimeout = 10 * time.Second
)

var (
	flagConfPath string
	flagLogLevel string

	syncStalenessCeiling time.Duration
	syncThrottleInterval time.Duration
	housekeepingInterval time.Duration

	mongoConnectionURI      string
	mongoConnectionTimeout  time.Duration
	mongoGarageDocsDatabase string
	mongoPingTimeout        time.Duration

	bridgeBaseDir string

	conf = server.NewConfig()
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server [options]",
		Short: "Start GarageDocs server",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf.Sync.StalenessCeiling = syncStalenessCeiling.String()
			conf.Sync.ThrottleInterval = syncThrottleInterval.String()

			conf.Housekeeping.Interval = housekeepingInterval.String()

			if mongoConnectionURI != "" {
				conf.Mongo = &mongo.Config{
					ConnectionURI:      mongoConnectionURI,
					ConnectionTimeout:  mongoConnectionTimeout.String(),
					GarageDocsDatabase: mongoGarageDocsDatabase,
					PingTimeout:        mongoPingTimeout.String(),
				}
			}

			if bridgeBaseDir != "" {
				conf.Bridge = &bridge.Config{
					BaseDir: bridgeBaseDir,
				}
			}

			// If config file is given, command-line arguments will be overwritten.
			if flagConfPath != "" {
				parsed, err := server.NewConfigFromFile(flagConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}

			if err := logging.SetLogLevel(flagLogLevel); err != nil {
				return err
			}

			g, err := server.New(conf)
			if err != nil {
				return err
			}

			if err := g.Start(); err != nil {
				return err
			}

			if code := handleSignal(g); code != 0 {
				return fmt.Errorf("exit code: %d", code)
			}

			return nil
		},
	}
}

func handleSignal(r *server.GarageDocs) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	var sig os.Signal
	select {
	case s := <-sigCh:
		sig = s
	case <-r.ShutdownCh():
		// garagedocs is already shutdown
		return 0
	}

	graceful := false
	if sig == syscall.SIGINT || sig == syscall.SIGTERM {
		graceful = true
	}

	gracefulCh := make(chan struct{})
	go func() {
		if err := r.Shutdown(graceful); err != nil {
			return
		}
		close(gracefulCh)
	}()

	select {
	case <-sigCh:
		return 1
	case <-time.After(gracefulTimeout):
		return 1
	case <-gracefulCh:
		return 0
	}
}

func init() {
	cmd := newServerCmd()
	cmd.Flags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"info",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	cmd.Flags().IntVar(
		&conf.Profiling.Port,
		"profiling-port",
		server.DefaultProfilingPort,
		"Profiling port",
	)
	cmd.Flags().BoolVar(
		&conf.Profiling.EnablePprof,
		"enable-pprof",
		false,
		"Enable runtime profiling data via HTTP server.",
	)
	cmd.Flags().DurationVar(
		&syncStalenessCeiling,
		"sync-staleness-ceiling",
		server.DefaultSyncStalenessCeiling,
		"Maximum age of a recorded sync before an owner is considered stale again.",
	)
	cmd.Flags().DurationVar(
		&syncThrottleInterval,
		"sync-throttle-interval",
		server.DefaultSyncThrottleInterval,
		"Minimum interval between two syncs of the same owner.",
	)
	cmd.Flags().IntVar(
		&conf.Sync.BatchConcurrency,
		"sync-batch-concurrency",
		server.DefaultSyncBatchConcurrency,
		"Number of owners a batch sync processes concurrently.",
	)
	cmd.Flags().DurationVar(
		&housekeepingInterval,
		"housekeeping-interval",
		server.DefaultHousekeepingInterval,
		"housekeeping interval between housekeeping runs",
	)
	cmd.Flags().IntVar(
		&conf.Housekeeping.OwnersLimitPerShowroom,
		"housekeeping-owners-limit-per-showroom",
		server.DefaultHousekeepingOwnersLimitPerShowroom,
		"owners limit per showroom for a single housekeeping run",
	)
	cmd.Flags().StringVar(
		&mongoConnectionURI,
		"mongo-connection-uri",
		"",
		"MongoDB's connection URI",
	)
	cmd.Flags().DurationVar(
		&mongoConnectionTimeout,
		"mongo-connection-timeout",
		server.DefaultMongoConnectionTimeout,
		"Mongo DB's connection timeout",
	)
	cmd.Flags().StringVar(
		&mongoGarageDocsDatabase,
		"mongo-garagedocs-database",
		server.DefaultMongoGarageDocsDatabase,
		"GarageDocs's database name in MongoDB",
	)
	cmd.Flags().DurationVar(
		&mongoPingTimeout,
		"mongo-ping-timeout",
		server.DefaultMongoPingTimeout,
		"Mongo DB's ping timeout",
	)
	cmd.Flags().StringVar(
		&bridgeBaseDir,
		"bridge-base-dir",
		"",
		"Directory the bridge mirrors owner documents into.",
	)
	cmd.Flags().StringSliceVar(
		&conf.Backend.Showrooms,
		"backend-showrooms",
		nil,
		"Showrooms this server reconciles.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Role,
		"backend-role",
		server.DefaultRole,
		"The role the change feed is consumed as, member or admin.",
	)
	cmd.Flags().StringVar(
		&conf.Backend.Hostname,
		"hostname",
		server.DefaultHostname,
		"GarageDocs Server Hostname",
	)

	rootCmd.AddCommand(cmd)
}
