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

// Package mongo implements the database interface using MongoDB. Owner
// change feeds are backed by change streams and blob listing by GridFS.
package mongo

import (
	"context"
	"fmt"
	gotime "time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/garagedocs-team/garagedocs/api/types"
	"github.com/garagedocs-team/garagedocs/server/backend/database"
	"github.com/garagedocs-team/garagedocs/server/logging"
)

// docCacheSize bounds the per-owner document list cache.
const docCacheSize = 1000

// Client is a client that connects to MongoDB and reads or saves GarageDocs data.
type Client struct {
	config *Config
	client *mongo.Client

	docCache *lru.Cache[types.OwnerRefKey, []*database.DocumentInfo]
}

// Dial creates an instance of Client and dials the given MongoDB.
func Dial(conf *Config) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), conf.ParseConnectionTimeout())
	defer cancel()

	clientOptions := options.Client().ApplyURI(conf.ConnectionURI)

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	ctxPing, cancelPing := context.WithTimeout(ctx, conf.ParsePingTimeout())
	defer cancelPing()

	if err := client.Ping(ctxPing, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if err := ensureIndexes(ctx, client.Database(conf.GarageDocsDatabase)); err != nil {
		return nil, err
	}

	docCache, err := lru.New[types.OwnerRefKey, []*database.DocumentInfo](docCacheSize)
	if err != nil {
		return nil, fmt.Errorf("initialize document cache: %w", err)
	}

	logging.DefaultLogger().Infof(
		"MongoDB connected, URI: %s, DB: %s",
		conf.ConnectionURI,
		conf.GarageDocsDatabase,
	)

	return &Client{
		config:   conf,
		client:   client,
		docCache: docCache,
	}, nil
}

// Close all resources of this client.
func (c *Client) Close() error {
	if err := c.client.Disconnect(context.Background()); err != nil {
		return fmt.Errorf("disconnect from mongo: %w", err)
	}

	return nil
}

func (c *Client) collection(name string) *mongo.Collection {
	return c.client.Database(c.config.GarageDocsDatabase).Collection(name)
}

// FindOwnerInfosByShowroom returns the owners of the given showroom visible
// to the given role.
func (c *Client) FindOwnerInfosByShowroom(
	ctx context.Context,
	showroom string,
	role types.Role,
) ([]*database.OwnerInfo, error) {
	filter := bson.M{"showroom": showroom}
	if !role.IsElevated() {
		filter["sale_point"] = true
	}

	cursor, err := c.collection(ColOwners).Find(
		ctx,
		filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find owners by showroom: %w", err)
	}

	var infos []*database.OwnerInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode owners: %w", err)
	}

	return infos, nil
}

// FindOwnerInfo returns the owner of the given showroom and id.
func (c *Client) FindOwnerInfo(
	ctx context.Context,
	refKey types.OwnerRefKey,
) (*database.OwnerInfo, error) {
	result := c.collection(ColOwners).FindOne(ctx, bson.M{
		"_id":      refKey.OwnerID,
		"showroom": refKey.Showroom,
	})

	info := &database.OwnerInfo{}
	if err := result.Decode(info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", refKey, database.ErrOwnerNotFound)
		}
		return nil, fmt.Errorf("decode owner: %w", err)
	}

	return info, nil
}

// changeEvent is the decoded shape of one change-stream entry.
type changeEvent struct {
	OperationType string              `bson:"operationType"`
	FullDocument  *database.OwnerInfo `bson:"fullDocument"`
	DocumentKey   struct {
		ID types.ID `bson:"_id"`
	} `bson:"documentKey"`
}

// WatchOwners subscribes to the ordered change feed of the given showroom.
func (c *Client) WatchOwners(
	ctx context.Context,
	showroom string,
	role types.Role,
) (<-chan database.OwnerEvent, error) {
	// Delete events carry no full document, so they cannot be matched on the
	// showroom field server-side. They pass through and removal of an id the
	// consumer never cached is a no-op.
	pipeline := mongo.Pipeline{bson.D{{Key: "$match", Value: bson.M{
		"$or": bson.A{
			bson.M{"fullDocument.showroom": showroom},
			bson.M{"operationType": "delete"},
		},
	}}}}

	stream, err := c.collection(ColOwners).Watch(
		ctx,
		pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup),
	)
	if err != nil {
		return nil, fmt.Errorf("watch owners: %w", err)
	}

	events := make(chan database.OwnerEvent)
	go func() {
		defer close(events)
		defer func() {
			if err := stream.Close(context.Background()); err != nil {
				logging.From(ctx).Warnf("close change stream: %v", err)
			}
		}()

		for stream.Next(ctx) {
			var decoded changeEvent
			if err := stream.Decode(&decoded); err != nil {
				logging.From(ctx).Errorf("decode change event: %v", err)
				continue
			}

			event, ok := c.toOwnerEvent(showroom, role, decoded)
			if !ok {
				continue
			}

			c.docCache.Remove(event.Info.RefKey())
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (c *Client) toOwnerEvent(
	showroom string,
	role types.Role,
	decoded changeEvent,
) (database.OwnerEvent, bool) {
	switch decoded.OperationType {
	case "insert":
		if decoded.FullDocument == nil || !visibleTo(decoded.FullDocument, role) {
			return database.OwnerEvent{}, false
		}
		return database.OwnerEvent{Type: database.OwnerAdded, Info: decoded.FullDocument}, true
	case "update", "replace":
		if decoded.FullDocument == nil || !visibleTo(decoded.FullDocument, role) {
			return database.OwnerEvent{}, false
		}
		return database.OwnerEvent{Type: database.OwnerModified, Info: decoded.FullDocument}, true
	case "delete":
		return database.OwnerEvent{
			Type: database.OwnerRemoved,
			Info: &database.OwnerInfo{
				ID:       decoded.DocumentKey.ID,
				Showroom: showroom,
			},
		}, true
	default:
		return database.OwnerEvent{}, false
	}
}

func visibleTo(info *database.OwnerInfo, role types.Role) bool {
	return role.IsElevated() || info.SalePoint
}

// FindDocumentInfosByOwner returns the document records of the given owner.
func (c *Client) FindDocumentInfosByOwner(
	ctx context.Context,
	refKey types.OwnerRefKey,
) ([]*database.DocumentInfo, error) {
	if cached, ok := c.docCache.Get(refKey); ok {
		return cached, nil
	}

	cursor, err := c.collection(ColDocuments).Find(
		ctx,
		bson.M{
			"showroom": refKey.Showroom,
			"owner_id": refKey.OwnerID,
		},
		options.Find().SetSort(bson.D{{Key: "file_name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find documents by owner: %w", err)
	}

	var infos []*database.DocumentInfo
	if err := cursor.All(ctx, &infos); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	c.docCache.Add(refKey, infos)
	return infos, nil
}

// gridFile is the decoded shape of one GridFS file document.
type gridFile struct {
	Name       string      `bson:"filename"`
	Length     int64       `bson:"length"`
	UploadDate gotime.Time `bson:"uploadDate"`
	Metadata   struct {
		Showroom    string   `bson:"showroom"`
		OwnerID     types.ID `bson:"owner_id"`
		Hash        string   `bson:"hash"`
		Generation  string   `bson:"generation"`
		ContentType string   `bson:"content_type"`
		URL         string   `bson:"url"`
	} `bson:"metadata"`
}

// ListBlobs enumerates the raw stored files of the given owner from GridFS.
func (c *Client) ListBlobs(
	ctx context.Context,
	refKey types.OwnerRefKey,
) ([]*database.BlobInfo, error) {
	bucket := c.client.Database(c.config.GarageDocsDatabase).GridFSBucket(
		options.GridFSBucket().SetName(BlobBucket),
	)

	cursor, err := bucket.Find(ctx, bson.M{
		"metadata.showroom": refKey.Showroom,
		"metadata.owner_id": refKey.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("find blobs: %w", err)
	}

	var files []gridFile
	if err := cursor.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("decode blobs: %w", err)
	}

	infos := make([]*database.BlobInfo, 0, len(files))
	for _, file := range files {
		infos = append(infos, &database.BlobInfo{
			Name:        file.Name,
			Size:        file.Length,
			Hash:        file.Metadata.Hash,
			Generation:  file.Metadata.Generation,
			ContentType: file.Metadata.ContentType,
			URL:         file.Metadata.URL,
			UploadedAt:  file.UploadDate,
		})
	}

	return infos, nil
}

// FindUserInfo returns the user of the given id.
func (c *Client) FindUserInfo(
	ctx context.Context,
	userID types.ID,
) (*database.UserInfo, error) {
	result := c.collection(ColUsers).FindOne(ctx, bson.M{"_id": userID})

	info := &database.UserInfo{}
	if err := result.Decode(info); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("%s: %w", userID, database.ErrUserNotFound)
		}
		return nil, fmt.Errorf("decode user: %w", err)
	}

	return info, nil
}

// CreateOwnerInfo creates a new owner in the given showroom.
func (c *Client) CreateOwnerInfo(
	ctx context.Context,
	info *database.OwnerInfo,
) (*database.OwnerInfo, error) {
	stored := info.DeepCopy()
	if stored.ID == "" {
		stored.ID = types.ID(bson.NewObjectID().Hex())
	}
	now := gotime.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.ModifiedAt.IsZero() {
		stored.ModifiedAt = now
	}

	if _, err := c.collection(ColOwners).InsertOne(ctx, stored); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%s: %w", stored.RefKey(), database.ErrOwnerAlreadyExists)
		}
		return nil, fmt.Errorf("insert owner: %w", err)
	}

	return stored, nil
}

// UpdateOwnerInfo replaces the stored owner record and bumps ModifiedAt.
func (c *Client) UpdateOwnerInfo(
	ctx context.Context,
	info *database.OwnerInfo,
) (*database.OwnerInfo, error) {
	prev, err := c.FindOwnerInfo(ctx, info.RefKey())
	if err != nil {
		return nil, err
	}

	stored := info.DeepCopy()
	stored.CreatedAt = prev.CreatedAt
	stored.ModifiedAt = nextModifiedAt(prev.ModifiedAt)

	if _, err := c.collection(ColOwners).ReplaceOne(
		ctx,
		bson.M{"_id": stored.ID, "showroom": stored.Showroom},
		stored,
	); err != nil {
		return nil, fmt.Errorf("replace owner: %w", err)
	}

	return stored, nil
}

// SetOwnerDeleted flips the soft-delete flag of the owner.
func (c *Client) SetOwnerDeleted(
	ctx context.Context,
	refKey types.OwnerRefKey,
	deleted bool,
) (*database.OwnerInfo, error) {
	prev, err := c.FindOwnerInfo(ctx, refKey)
	if err != nil {
		return nil, err
	}

	stored := prev.DeepCopy()
	stored.IsDeleted = deleted
	stored.ModifiedAt = nextModifiedAt(prev.ModifiedAt)

	if _, err := c.collection(ColOwners).UpdateOne(
		ctx,
		bson.M{"_id": refKey.OwnerID, "showroom": refKey.Showroom},
		bson.M{"$set": bson.M{
			"is_deleted":  deleted,
			"modified_at": stored.ModifiedAt,
		}},
	); err != nil {
		return nil, fmt.Errorf("update owner: %w", err)
	}

	return stored, nil
}

// RemoveOwnerInfo hard-deletes the owner and its document records.
func (c *Client) RemoveOwnerInfo(
	ctx context.Context,
	refKey types.OwnerRefKey,
) error {
	result, err := c.collection(ColOwners).DeleteOne(ctx, bson.M{
		"_id":      refKey.OwnerID,
		"showroom": refKey.Showroom,
	})
	if err != nil {
		return fmt.Errorf("delete owner: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", refKey, database.ErrOwnerNotFound)
	}

	if _, err := c.collection(ColDocuments).DeleteMany(ctx, bson.M{
		"showroom": refKey.Showroom,
		"owner_id": refKey.OwnerID,
	}); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	c.docCache.Remove(refKey)
	return nil
}

// CreateDocumentInfo stores a document record for the owner. A document with
// the same file name supersedes the previous one with a bumped version, and
// the parent owner's ModifiedAt moves strictly forward either way.
func (c *Client) CreateDocumentInfo(
	ctx context.Context,
	refKey types.OwnerRefKey,
	info *database.DocumentInfo,
) (*database.DocumentInfo, error) {
	owner, err := c.FindOwnerInfo(ctx, refKey)
	if err != nil {
		return nil, err
	}

	stored := info.DeepCopy()
	stored.Showroom = refKey.Showroom
	stored.OwnerID = refKey.OwnerID
	if stored.ID == "" {
		stored.ID = types.ID(bson.NewObjectID().Hex())
	}

	fields := bson.M{
		"type":          stored.Type,
		"url":           stored.URL,
		"download_url":  stored.DownloadURL,
		"storage_path":  stored.StoragePath,
		"upload_status": stored.UploadStatus,
	}
	if stored.Uploaded != nil {
		fields["uploaded"] = *stored.Uploaded
	}
	if stored.Metadata != nil {
		fields["metadata"] = stored.Metadata
	}

	result := c.collection(ColDocuments).FindOneAndUpdate(
		ctx,
		bson.M{
			"showroom":  refKey.Showroom,
			"owner_id":  refKey.OwnerID,
			"file_name": stored.FileName,
		},
		bson.M{
			"$set": fields,
			"$inc": bson.M{"version": 1},
			"$setOnInsert": bson.M{
				"_id":       stored.ID,
				"showroom":  refKey.Showroom,
				"owner_id":  refKey.OwnerID,
				"file_name": stored.FileName,
			},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	)

	updated := &database.DocumentInfo{}
	if err := result.Decode(updated); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	superseded := updated.Version > 1

	now := gotime.Now()
	ownerFields := bson.M{"modified_at": nextModifiedAt(owner.ModifiedAt)}
	ownerUpdate := bson.M{"$set": ownerFields}
	if superseded {
		ownerFields["last_document_updated_at"] = now
	} else {
		ownerFields["last_document_added_at"] = now
		ownerUpdate["$inc"] = bson.M{"total_documents": 1}
	}

	if _, err := c.collection(ColOwners).UpdateOne(
		ctx,
		bson.M{"_id": refKey.OwnerID, "showroom": refKey.Showroom},
		ownerUpdate,
	); err != nil {
		return nil, fmt.Errorf("update owner: %w", err)
	}

	c.docCache.Remove(refKey)
	return updated, nil
}

// nextModifiedAt returns a timestamp strictly after prev. MongoDB stores
// times at millisecond resolution, so the bump stays observable after a
// round trip.
func nextModifiedAt(prev gotime.Time) gotime.Time {
	now := gotime.Now()
	if !now.After(prev.Add(gotime.Millisecond)) {
		return prev.Add(2 * gotime.Millisecond)
	}
	return now
}
