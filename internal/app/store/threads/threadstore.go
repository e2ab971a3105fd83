package threadstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("threads")}
}

// topLevel matches threads whose parent_id is null or missing.
var topLevel = bson.M{"parent_id": nil}

// Create inserts th, assigning its ID and CreatedAt when unset.
func (s *Store) Create(ctx context.Context, th models.Thread) (models.Thread, error) {
	if th.ID.IsZero() {
		th.ID = primitive.NewObjectID()
	}
	if th.CreatedAt.IsZero() {
		th.CreatedAt = time.Now().UTC()
	}
	if th.Children == nil {
		th.Children = []primitive.ObjectID{}
	}
	if _, err := s.c.InsertOne(ctx, th); err != nil {
		return models.Thread{}, err
	}
	return th, nil
}

// GetByID loads a thread by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Thread, error) {
	var th models.Thread
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&th); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Thread{}, apperr.NotFound("thread")
		}
		return models.Thread{}, err
	}
	return th, nil
}

// GetByIDs loads threads by ObjectID in store order. Ids with no document are
// skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Thread, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// FindTopLevel returns top-level threads newest first.
func (s *Store) FindTopLevel(ctx context.Context, skip, limit int64) ([]models.Thread, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, topLevel, opts)
}

// CountTopLevel returns the number of top-level threads.
func (s *Store) CountTopLevel(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, topLevel)
}

// FindByAuthor returns every thread written by author, newest first.
func (s *Store) FindByAuthor(ctx context.Context, author primitive.ObjectID) ([]models.Thread, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{"author": author}, opts)
}

// FindRepliesExcludingAuthor returns the threads among ids that author did
// not write, in store order.
func (s *Store) FindRepliesExcludingAuthor(ctx context.Context, ids []primitive.ObjectID, author primitive.ObjectID) ([]models.Thread, error) {
	if len(ids) == 0 {
		return []models.Thread{}, nil
	}
	return s.find(ctx, bson.M{
		"_id":    bson.M{"$in": ids},
		"author": bson.M{"$ne": author},
	})
}

// AppendChild atomically appends childID to the parent's children.
func (s *Store) AppendChild(ctx context.Context, parentID, childID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, parentID, bson.M{"$push": bson.M{"children": childID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("thread")
	}
	return nil
}

// Delete removes a thread. Deleting an absent thread is not an error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Thread, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Thread{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
