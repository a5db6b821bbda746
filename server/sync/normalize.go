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

package sync

import (
	"context"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/logging"
)

// Normalize converts raw document records into the bridge-facing shape with
// every field explicitly populated. Optional fields get their defaults here
// so the bridge never has to reason about missing values.
func Normalize(docs []types.Document) []types.BridgeDocument {
	normalized := make([]types.BridgeDocument, 0, len(docs))
	for _, doc := range docs {
		url := doc.URL
		if url == "" {
			url = doc.DownloadURL
		}

		version := doc.Version
		if version < 1 {
			version = 1
		}

		uploaded := true
		if doc.Uploaded != nil {
			uploaded = *doc.Uploaded
		}

		status := doc.UploadStatus
		if status == "" {
			status = types.UploadStatusCompleted
		}

		var metadata types.DocumentMetadata
		if doc.Metadata != nil {
			metadata = *doc.Metadata
		}

		normalized = append(normalized, types.BridgeDocument{
			FileName:     doc.FileName,
			URL:          url,
			Type:         doc.Type,
			Version:      version,
			StoragePath:  doc.StoragePath,
			Uploaded:     uploaded,
			UploadStatus: status,
			ServerHash:   metadata.Hash,
			Metadata:     metadata,
		})
	}

	return normalized
}

// FilterSyncable drops documents that must not reach the bridge: explicitly
// not-uploaded documents first, then pending or failed uploads, then
// documents without any usable URL. Filtering never mutates its input.
func FilterSyncable(ctx context.Context, docs []types.BridgeDocument) []types.BridgeDocument {
	syncable := make([]types.BridgeDocument, 0, len(docs))
	for _, doc := range docs {
		if !doc.Uploaded {
			logging.From(ctx).Debugf("filter %s: not uploaded", doc.FileName)
			continue
		}
		if doc.UploadStatus == types.UploadStatusPending || doc.UploadStatus == types.UploadStatusFailed {
			logging.From(ctx).Debugf("filter %s: upload status %s", doc.FileName, doc.UploadStatus)
			continue
		}
		if doc.URL == "" {
			logging.From(ctx).Debugf("filter %s: no url", doc.FileName)
			continue
		}
		syncable = append(syncable, doc)
	}

	return syncable
}
