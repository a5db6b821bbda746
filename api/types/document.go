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

// UploadStatus is the upload state of an owner document in the remote store.
type UploadStatus string

const (
	// UploadStatusPending means the upload has not started or finished yet.
	UploadStatusPending UploadStatus = "pending"

	// UploadStatusUploading means the upload is in progress.
	UploadStatusUploading UploadStatus = "uploading"

	// UploadStatusCompleted means the upload finished and the document is
	// addressable by URL. Only completed documents are eligible for sync.
	UploadStatusCompleted UploadStatus = "completed"

	// UploadStatusFailed means the upload failed.
	UploadStatusFailed UploadStatus = "failed"
)

// DocumentMetadata is the server-computed metadata block of a document. The
// hash is the authoritative fingerprint for change detection.
type DocumentMetadata struct {
	Hash        string    `json:"hash"`
	Size        int64     `json:"size"`
	Generation  string    `json:"generation"`
	ContentType string    `json:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Document is one file associated with an owner, as delivered by the remote
// store. Optional fields may be unset; the normalizer fills every default
// before a document reaches the bridge.
type Document struct {
	FileName    string `json:"fileName"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	DownloadURL string `json:"downloadURL"`
	StoragePath string `json:"storagePath"`

	// Version starts at 1 and is monotonic per re-upload. Zero means the
	// remote record predates versioning.
	Version int `json:"version"`

	// Uploaded is nil unless the remote record carries an explicit flag.
	Uploaded *bool `json:"uploaded,omitempty"`

	UploadStatus UploadStatus `json:"uploadStatus"`

	Metadata *DocumentMetadata `json:"metadata,omitempty"`
}

// BridgeDocument is the bridge-facing shape of a document. Every field is
// explicitly populated so downstream payloads stay serializable without
// null-handling on the host side.
type BridgeDocument struct {
	FileName     string           `json:"fileName"`
	URL          string           `json:"url"`
	Type         string           `json:"type"`
	Version      int              `json:"version"`
	StoragePath  string           `json:"storagePath"`
	Uploaded     bool             `json:"uploaded"`
	UploadStatus UploadStatus     `json:"uploadStatus"`
	ServerHash   string           `json:"serverHash"`
	Metadata     DocumentMetadata `json:"metadata"`
}
