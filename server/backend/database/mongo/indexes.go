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

package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	// ColOwners is the collection of owner records.
	ColOwners = "owners"

	// ColDocuments is the collection of owner document records.
	ColDocuments = "documents"

	// ColUsers is the collection of user records.
	ColUsers = "users"

	// BlobBucket is the GridFS bucket of raw owner files.
	BlobBucket = "ownerblobs"
)

type collectionInfo struct {
	name    string
	indexes []mongo.IndexModel
}

// collectionInfos holds the index definitions ensured at dial time.
var collectionInfos = []collectionInfo{
	{
		name: ColOwners,
		indexes: []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "showroom", Value: 1}},
			},
			{
				Keys: bson.D{
					{Key: "showroom", Value: 1},
					{Key: "modified_at", Value: -1},
				},
			},
		},
	},
	{
		name: ColDocuments,
		indexes: []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "showroom", Value: 1},
					{Key: "owner_id", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "showroom", Value: 1},
					{Key: "owner_id", Value: 1},
					{Key: "file_name", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
		},
	},
	{
		name: ColUsers,
		indexes: []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "username", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	},
}

// ensureIndexes creates the indexes the client relies on.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, info := range collectionInfos {
		if len(info.indexes) == 0 {
			continue
		}
		if _, err := db.Collection(info.name).Indexes().CreateMany(ctx, info.indexes); err != nil {
			return fmt.Errorf("create indexes for %s: %w", info.name, err)
		}
	}

	return nil
}
