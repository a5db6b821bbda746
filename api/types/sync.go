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

package types

import "time"

// SyncReason explains why a sync attempt was skipped or short-circuited.
type SyncReason string

const (
	// ReasonNoChanges means the tracker saw no remote change since the last
	// successful sync.
	ReasonNoChanges SyncReason = "no_changes"

	// ReasonThrottled means the minimum inter-sync interval had not elapsed.
	ReasonThrottled SyncReason = "throttled"

	// ReasonNoSyncableDocuments means every document was filtered out before
	// the bridge was consulted.
	ReasonNoSyncableDocuments SyncReason = "no_syncable_documents"
)

// SyncOptions are caller options for a single-owner sync.
type SyncOptions struct {
	// ForceSync bypasses the staleness check and the throttle. It still
	// dedups against an in-flight sync for the same owner.
	ForceSync bool

	// ForceDownload asks the bridge to re-download files even if the local
	// copies look current.
	ForceDownload bool

	// SingleOwnerOnly tells the bridge not to touch sibling owner folders.
	SingleOwnerOnly bool
}

// SyncStats describes what a settled sync did, or why it did nothing.
type SyncStats struct {
	Skipped bool       `json:"skipped,omitempty"`
	Reason  SyncReason `json:"reason,omitempty"`

	DocumentsProcessed  int `json:"documentsProcessed"`
	DocumentsDownloaded int `json:"documentsDownloaded"`
	DocumentsUpdated    int `json:"documentsUpdated"`
	DocumentsDeleted    int `json:"documentsDeleted"`
	DocumentsSkipped    int `json:"documentsSkipped"`

	// Errors holds per-file errors of a partially successful run. They do
	// not fail the sync as a whole.
	Errors []string `json:"errors,omitempty"`

	// OwnerPath is the local folder the bridge mirrored into, if any.
	OwnerPath string `json:"ownerPath,omitempty"`
}

// SyncResult is the outcome of one logical sync operation. Every public sync
// operation returns this shape; nothing panics or throws across the boundary.
type SyncResult struct {
	// ID identifies the operation in logs. Deduplicated callers share one ID.
	ID string `json:"id"`

	Success bool       `json:"success"`
	Error   string     `json:"error,omitempty"`
	Results *SyncStats `json:"results,omitempty"`
}

// Skipped returns true if the sync settled successfully without doing work.
func (r *SyncResult) Skipped() bool {
	return r != nil && r.Success && r.Results != nil && r.Results.Skipped
}

// BatchStatus classifies one owner's outcome within a batch sync.
type BatchStatus string

const (
	// BatchStatusSuccessful means the bridge ran and succeeded.
	BatchStatusSuccessful BatchStatus = "successful"

	// BatchStatusSkipped means the sync settled successfully without a
	// bridge transfer (throttled, no changes, nothing syncable).
	BatchStatusSkipped BatchStatus = "skipped"

	// BatchStatusFailed means the sync returned a failure or panicked.
	BatchStatusFailed BatchStatus = "failed"
)

// BatchOutcome is one owner's settled outcome inside a batch.
type BatchOutcome struct {
	OwnerID   ID          `json:"ownerId"`
	OwnerName string      `json:"ownerName"`
	Status    BatchStatus `json:"status"`
	Reason    SyncReason  `json:"reason,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// BatchResult aggregates a batch sync over many owners.
type BatchResult struct {
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Outcomes   []BatchOutcome `json:"outcomes"`
}

// Total returns the number of owners the batch actually processed.
func (r *BatchResult) Total() int {
	return r.Successful + r.Failed + r.Skipped
}

// OwnerProjection is the minimal owner shape handed to the bridge.
type OwnerProjection struct {
	Name           string           `json:"name"`
	Contact        string           `json:"contact"`
	Documents      []BridgeDocument `json:"documents"`
	ModifiedAt     time.Time        `json:"modifiedAt"`
	TotalDocuments int              `json:"totalDocuments"`
}

// BridgeOptions is the options bag passed to the bridge sync call.
type BridgeOptions struct {
	UseServerHash   bool `json:"useServerHash"`
	CheckVersions   bool `json:"checkVersions"`
	ForceDownload   bool `json:"forceDownload,omitempty"`
	SingleOwnerOnly bool `json:"singleOwnerOnly,omitempty"`
}
