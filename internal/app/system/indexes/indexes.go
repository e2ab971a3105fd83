// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from EnsureSchema at startup and by `threadhubctl schema
ensure`. Every collection set is reconciled independently and the problems
are joined so one bad index does not hide the others.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, set := range collectionSets() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type indexSet struct {
	collection string
	models     []mongo.IndexModel
}

func collectionSets() []indexSet {
	return []indexSet{
		{collection: "users", models: userIndexes()},
		{collection: "threads", models: threadIndexes()},
		{collection: "communities", models: communityIndexes()},
		{collection: "audit_events", models: auditIndexes()},
	}
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Identity-provider id is the upsert key for profile edits.
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_external_id"),
		},
		// Usernames are stored lowercased, so a plain unique index is enough.
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_username"),
		},
		// Directory listing sort.
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_users_createdat_id"),
		},
	}
}

func threadIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		// Feed: top-level posts newest first.
		{
			Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_threads_parent_createdat"),
		},
		// Profile posts and activity.
		{
			Keys:    bson.D{{Key: "author", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_threads_author_createdat"),
		},
		{
			Keys:    bson.D{{Key: "community", Value: 1}},
			Options: options.Index().SetName("idx_threads_community"),
		},
	}
}

func communityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "org_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_communities_org_id"),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("idx_communities_slug"),
		},
		{
			Keys:    bson.D{{Key: "members", Value: 1}},
			Options: options.Index().SetName("idx_communities_members"),
		},
	}
}

func auditIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_category_type_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "details.org_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_orgid_timestamp"),
		},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconciliation                                                              */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Some servers report IndexOptionsConflict when the same keys already exist
// under another name.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listBySig(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// recreate drops ex and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, ex existingIndex, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		return fmt.Errorf("drop %s: %w", ex.Name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		isUnique := unique != nil && *unique
		start := time.Now()

		fields := []zap.Field{
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", isUnique),
		}

		fail := func(err error) {
			if isDuplicateKeyErr(err) && isUnique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed", append(fields, zap.Error(err))...)
		}

		existing := listBySig(ctx, coll)
		if ex, ok := existing[sig]; ok {
			switch {
			case !sameBoolPtr(unique, ex.Unique):
				// Options changed, e.g. an index upgraded to unique.
				if err := recreate(ctx, coll, ex, m); err != nil {
					fail(err)
					continue
				}
				zap.L().Info("index dropped and recreated", append(fields, zap.Duration("took", time.Since(start)))...)
			case name != "" && ex.Name != name:
				if err := recreate(ctx, coll, ex, m); err != nil {
					fail(err)
					continue
				}
				zap.L().Info("index renamed", append(fields, zap.String("from", ex.Name))...)
			default:
				zap.L().Debug("reusing existing index", fields...)
			}
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil && isOptionsConflictErr(err) {
			if ex, ok := listBySig(ctx, coll)[sig]; ok {
				if sameBoolPtr(unique, ex.Unique) {
					continue
				}
				err = recreate(ctx, coll, ex, m)
			}
		}
		if err != nil {
			fail(err)
			continue
		}
		zap.L().Info("index ensured", append(fields,
			zap.String("created_name", created),
			zap.Duration("took", time.Since(start)))...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
