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
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server"
	"github.com/garagedocs-team/garagedocs/server/backend"
	"github.com/garagedocs-team/garagedocs/server/logging"
	"github.com/garagedocs-team/garagedocs/server/profiling/prometheus"
	"github.com/garagedocs-team/garagedocs/server/sync"
)

var (
	syncConfPath    string
	syncForce       bool
	syncConcurrency int
	syncOutput      string
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [showroom]",
		Short: "Sync every owner of a showroom once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("showroom is required")
			}
			showroom := args[0]

			if syncOutput != "" && syncOutput != "yaml" && syncOutput != "json" {
				return errors.New(`--output must be 'yaml' or 'json'`)
			}

			conf := server.NewConfig()
			if syncConfPath != "" {
				parsed, err := server.NewConfigFromFile(syncConfPath)
				if err != nil {
					return err
				}
				conf = parsed
			}
			if err := conf.Validate(); err != nil {
				return err
			}

			metrics, err := prometheus.NewMetrics()
			if err != nil {
				return err
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
				return err
			}
			defer func() {
				if err := be.Shutdown(); err != nil {
					logging.DefaultLogger().Warnf("shutdown: %v", err)
				}
			}()

			ctx := context.Background()
			infos, err := be.DB.FindOwnerInfosByShowroom(ctx, showroom, be.Role())
			if err != nil {
				return err
			}

			owners := make([]*types.Owner, 0, len(infos))
			for _, info := range infos {
				if info.IsDeleted {
					continue
				}
				owners = append(owners, info.ToOwner())
			}

			result := be.Coordinator.BatchSync(ctx, owners, sync.BatchOptions{
				Concurrency: syncConcurrency,
				SyncOptions: types.SyncOptions{
					ForceSync:     syncForce,
					ForceDownload: syncForce,
				},
			})

			if err := printBatchResult(cmd, syncOutput, result); err != nil {
				return err
			}

			if result.Failed > 0 {
				return fmt.Errorf("%d of %d owners failed", result.Failed, result.Total())
			}
			return nil
		},
	}
}

func printBatchResult(cmd *cobra.Command, output string, result *types.BatchResult) error {
	switch output {
	case "":
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateFooter = false
		tw.Style().Options.SeparateHeader = false
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{
			"ID",
			"OWNER",
			"STATUS",
			"REASON",
			"ERROR",
		})
		for _, outcome := range result.Outcomes {
			tw.AppendRow(table.Row{
				outcome.OwnerID,
				outcome.OwnerName,
				outcome.Status,
				outcome.Reason,
				outcome.Error,
			})
		}
		cmd.Printf("%s\n", tw.Render())
		cmd.Printf(
			"%d successful, %d skipped, %d failed\n",
			result.Successful,
			result.Skipped,
			result.Failed,
		)
	case "json":
		jsonOutput, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(jsonOutput))
	case "yaml":
		yamlOutput, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Println(string(yamlOutput))
	}

	return nil
}

func init() {
	cmd := newSyncCmd()
	cmd.Flags().StringVarP(
		&syncConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	cmd.Flags().BoolVar(
		&syncForce,
		"force",
		false,
		"Bypass the staleness check and re-download every file",
	)
	cmd.Flags().IntVar(
		&syncConcurrency,
		"concurrency",
		0,
		"Number of owners to sync concurrently. Zero means the configured default.",
	)
	cmd.Flags().StringVarP(
		&syncOutput,
		"output",
		"o",
		"",
		"One of 'yaml' or 'json'.",
	)

	rootCmd.AddCommand(cmd)
}
