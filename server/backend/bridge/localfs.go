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

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/logging"
)

// manifestName is the per-owner bookkeeping file that makes sync idempotent.
const manifestName = ".garagedocs-manifest.json"

// LocalFS is a Bridge that mirrors documents into
// <BaseDir>/<showroom>/<owner name>/ on the local disk.
type LocalFS struct {
	conf   *Config
	client *http.Client
}

// NewLocalFS creates a local-disk bridge rooted at the configured base
// directory.
func NewLocalFS(conf *Config) (*LocalFS, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(conf.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir: %w", err)
	}

	return &LocalFS{
		conf:   conf,
		client: http.DefaultClient,
	}, nil
}

type manifestEntry struct {
	Hash    string `json:"hash,omitempty"`
	Version int    `json:"version"`
	Size    int64  `json:"size"`
	URL     string `json:"url,omitempty"`
}

type manifest struct {
	Entries map[string]manifestEntry `json:"entries"`
}

// Sync mirrors the projection's documents into the owner's folder. Files
// already current per the manifest are skipped; files no longer present in
// the projection are pruned.
func (b *LocalFS) Sync(
	ctx context.Context,
	refKey types.OwnerRefKey,
	owner types.OwnerProjection,
	opts types.BridgeOptions,
) (*types.SyncStats, error) {
	dir := b.ownerDir(refKey.Showroom, owner.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create owner dir: %w", err)
	}

	man, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}

	stats := &types.SyncStats{
		DocumentsProcessed: len(owner.Documents),
		OwnerPath:          dir,
	}

	wanted := make(map[string]bool, len(owner.Documents))
	for _, doc := range owner.Documents {
		wanted[doc.FileName] = true

		entry, known := man.Entries[doc.FileName]
		path := filepath.Join(dir, doc.FileName)
		if known && !opts.ForceDownload && fileExists(path) && isCurrent(entry, doc, opts) {
			stats.DocumentsSkipped++
			continue
		}

		size, err := b.download(ctx, doc.URL, path)
		if err != nil {
			logging.From(ctx).Warnf("download %s of %s: %v", doc.FileName, refKey, err)
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", doc.FileName, err))
			continue
		}

		if known {
			stats.DocumentsUpdated++
		} else {
			stats.DocumentsDownloaded++
		}
		man.Entries[doc.FileName] = manifestEntry{
			Hash:    doc.ServerHash,
			Version: doc.Version,
			Size:    size,
			URL:     doc.URL,
		}
	}

	deleted, err := pruneStale(dir, wanted, man)
	if err != nil {
		return nil, err
	}
	stats.DocumentsDeleted = deleted

	if err := saveManifest(dir, man); err != nil {
		return nil, err
	}

	return stats, nil
}

// CreateOwnerFolders ensures a folder exists for each owner name.
func (b *LocalFS) CreateOwnerFolders(ctx context.Context, showroom string, ownerNames []string) (int, error) {
	created := 0
	for _, name := range ownerNames {
		dir := b.ownerDir(showroom, name)
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("create folder for %s: %w", name, err)
		}
		created++
	}

	return created, nil
}

// OpenOwnerFolder opens the owner's folder in the host file manager.
func (b *LocalFS) OpenOwnerFolder(ctx context.Context, refKey types.OwnerRefKey, ownerName string) error {
	dir := b.ownerDir(refKey.Showroom, ownerName)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("open folder of %s: %w", refKey, err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", dir)
	case "windows":
		cmd = exec.CommandContext(ctx, "explorer", dir)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", dir)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open folder of %s: %w", refKey, err)
	}

	return nil
}

// CheckFolderExists reports whether the owner's folder exists.
func (b *LocalFS) CheckFolderExists(ctx context.Context, refKey types.OwnerRefKey, ownerName string) (bool, error) {
	info, err := os.Stat(b.ownerDir(refKey.Showroom, ownerName))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat folder of %s: %w", refKey, err)
	}

	return info.IsDir(), nil
}

// CleanupDeletedOwnerFolders removes showroom subfolders that belong to no
// active owner.
func (b *LocalFS) CleanupDeletedOwnerFolders(ctx context.Context, showroom string, activeOwnerNames []string) (int, error) {
	showroomDir := filepath.Join(b.conf.BaseDir, sanitizeName(showroom))
	entries, err := os.ReadDir(showroomDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read showroom dir: %w", err)
	}

	active := make(map[string]bool, len(activeOwnerNames))
	for _, name := range activeOwnerNames {
		active[sanitizeName(name)] = true
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || active[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(showroomDir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove folder %s: %w", entry.Name(), err)
		}
		removed++
	}

	return removed, nil
}

func (b *LocalFS) ownerDir(showroom, ownerName string) string {
	return filepath.Join(b.conf.BaseDir, sanitizeName(showroom), sanitizeName(ownerName))
}

func (b *LocalFS) download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch: unexpected status %s", resp.Status)
	}

	// Write to a temp file first so a failed transfer never clobbers the
	// previous copy.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("write file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("replace file: %w", err)
	}

	return size, nil
}

// isCurrent reports whether the local copy recorded in the manifest is still
// current for the given document. The server hash wins when present;
// otherwise the version counter decides.
func isCurrent(entry manifestEntry, doc types.BridgeDocument, opts types.BridgeOptions) bool {
	if opts.UseServerHash && doc.ServerHash != "" {
		return entry.Hash == doc.ServerHash
	}
	if opts.CheckVersions {
		return entry.Version >= doc.Version
	}

	return false
}

func pruneStale(dir string, wanted map[string]bool, man *manifest) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read owner dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == manifestName || wanted[name] {
			continue
		}
		// Only prune files this bridge wrote; anything the user dropped in
		// by hand is left alone.
		if _, known := man.Entries[name]; !known {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("remove stale file %s: %w", name, err)
		}
		removed++
	}

	for name := range man.Entries {
		if !wanted[name] {
			delete(man.Entries, name)
		}
	}

	return removed, nil
}

func loadManifest(dir string) (*manifest, error) {
	man := &manifest{Entries: map[string]manifestEntry{}}

	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if os.IsNotExist(err) {
		return man, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	if err := json.Unmarshal(data, man); err != nil {
		// A corrupt manifest only costs re-downloads.
		return &manifest{Entries: map[string]manifestEntry{}}, nil
	}
	if man.Entries == nil {
		man.Entries = map[string]manifestEntry{}
	}

	return man, nil
}

func saveManifest(dir string, man *manifest) error {
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// sanitizeName makes an owner or showroom name safe to use as a folder name.
func sanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
	)
	sanitized := strings.Trim(strings.TrimSpace(replacer.Replace(name)), ".")
	if sanitized == "" {
		return "unnamed"
	}

	return sanitized
}
