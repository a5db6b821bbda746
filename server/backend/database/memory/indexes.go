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

package memory

import "github.com/hashicorp/go-memdb"

var (
	tblOwners    = "owners"
	tblDocuments = "documents"
	tblBlobs     = "blobs"
	tblUsers     = "users"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblOwners: {
			Name: tblOwners,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Showroom"},
							&memdb.StringFieldIndex{Field: "ID"},
						},
					},
				},
				"showroom": {
					Name:    "showroom",
					Indexer: &memdb.StringFieldIndex{Field: "Showroom"},
				},
			},
		},
		tblDocuments: {
			Name: tblDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"owner": {
					Name: "owner",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Showroom"},
							&memdb.StringFieldIndex{Field: "OwnerID"},
						},
					},
				},
				"owner_file_name": {
					Name:   "owner_file_name",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Showroom"},
							&memdb.StringFieldIndex{Field: "OwnerID"},
							&memdb.StringFieldIndex{Field: "FileName"},
						},
					},
				},
			},
		},
		tblBlobs: {
			Name: tblBlobs,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Showroom"},
							&memdb.StringFieldIndex{Field: "OwnerID"},
							&memdb.StringFieldIndex{Field: "Name"},
						},
					},
				},
				"owner": {
					Name: "owner",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "Showroom"},
							&memdb.StringFieldIndex{Field: "OwnerID"},
						},
					},
				},
			},
		},
		tblUsers: {
			Name: tblUsers,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
				"username": {
					Name:    "username",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Username"},
				},
			},
		},
	},
}
