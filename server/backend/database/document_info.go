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

package database

import (
	"path/filepath"
	"strings"
	gotime "time"

	"github.com/garagedocs-team/garagedocs/api/types"
)

// MetadataInfo is the stored metadata block of a document.
type MetadataInfo struct {
	Hash        string      `bson:"hash" json:"hash"`
	Size        int64       `bson:"size" json:"size"`
	Generation  string      `bson:"generation" json:"generation"`
	ContentType string      `bson:"content_type" json:"contentType"`
	UploadedAt  gotime.Time `bson:"uploaded_at" json:"uploadedAt"`
}

// DocumentInfo is the document record stored in the remote store.
type DocumentInfo struct {
	ID       types.ID `bson:"_id" json:"id"`
	Showroom string   `bson:"showroom" json:"showroom"`
	OwnerID  types.ID `bson:"owner_id" json:"ownerId"`

	FileName    string `bson:"file_name" json:"fileName"`
	Type        string `bson:"type" json:"type"`
	URL         string `bson:"url" json:"url"`
	DownloadURL string `bson:"download_url" json:"downloadURL"`
	StoragePath string `bson:"storage_path" json:"storagePath"`

	Version      int                `bson:"version" json:"version"`
	Uploaded     *bool              `bson:"uploaded,omitempty" json:"uploaded,omitempty"`
	UploadStatus types.UploadStatus `bson:"upload_status" json:"uploadStatus"`

	Metadata *MetadataInfo `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// DeepCopy returns a deep copy of the document info.
func (i *DocumentInfo) DeepCopy() *DocumentInfo {
	if i == nil {
		return nil
	}

	clone := *i
	if i.Uploaded != nil {
		uploaded := *i.Uploaded
		clone.Uploaded = &uploaded
	}
	if i.Metadata != nil {
		meta := *i.Metadata
		clone.Metadata = &meta
	}
	return &clone
}

// ToDocument converts the stored record into the shape the sync core works with.
func (i *DocumentInfo) ToDocument() types.Document {
	doc := types.Document{
		FileName:     i.FileName,
		Type:         i.Type,
		URL:          i.URL,
		DownloadURL:  i.DownloadURL,
		StoragePath:  i.StoragePath,
		Version:      i.Version,
		Uploaded:     i.Uploaded,
		UploadStatus: i.UploadStatus,
	}

	if i.Metadata != nil {
		doc.Metadata = &types.DocumentMetadata{
			Hash:        i.Metadata.Hash,
			Size:        i.Metadata.Size,
			Generation:  i.Metadata.Generation,
			ContentType: i.Metadata.ContentType,
			UploadedAt:  i.Metadata.UploadedAt,
		}
	}

	return doc
}

// FromBlobInfo builds a document record from a raw stored file. The document
// type is derived from the file extension and the hash from blob metadata.
// Used when the primary document records are missing for an owner.
func FromBlobInfo(refKey types.OwnerRefKey, blob *BlobInfo) *DocumentInfo {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(blob.Name)), ".")
	if ext == "" {
		ext = "unknown"
	}

	return &DocumentInfo{
		ID:       types.ID(blob.Generation),
		Showroom: refKey.Showroom,
		OwnerID:  refKey.OwnerID,

		FileName: filepath.Base(blob.Name),
		Type:     ext,
		URL:      blob.URL,

		Version:      1,
		UploadStatus: types.UploadStatusCompleted,

		Metadata: &MetadataInfo{
			Hash:        blob.Hash,
			Size:        blob.Size,
			Generation:  blob.Generation,
			ContentType: blob.ContentType,
			UploadedAt:  blob.UploadedAt,
		},
	}
}
