package zensegur

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoRepository[T any] struct {
	database   *mongo.Database
	collection *mongo.Collection
	validator  *Validator
}

// NewMongoRepository binds T to a collection. The Recipe mapping is attached here
// so it does not depend on how the client was built.
func NewMongoRepository[T any](database *mongo.Database, collection string) *MongoRepository[T] {
	return &MongoRepository[T]{
		database:   database,
		collection: database.Collection(collection, options.Collection().SetRegistry(MongoRegistry)),
	}
}

func (r *MongoRepository[T]) WithValidation(validator *Validator) *MongoRepository[T] {
	clone := *r
	clone.validator = validator
	return &clone
}

func (r *MongoRepository[T]) InsertAll(
	ctx context.Context,
	entities []T,
) (int, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	documents := make([]interface{}, 0, len(entities))
	for i, entity := range entities {
		if r.validator != nil {
			if err := r.validator.Validate(entity); err != nil {
				return 0, writeError("insert", fmt.Errorf("%w at index %d: %v", ErrInvalidRecipe, i, err))
			}
		}
		documents = append(documents, entity)
	}

	res, err := r.collection.InsertMany(ctx, documents)
	if err != nil {
		return 0, writeError("insert", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *MongoRepository[T]) Find(
	ctx context.Context,
	filter Filter,
	optsFind ...*options.FindOptions,
) (*Cursor[T], error) {
	cursor, err := r.collection.Find(ctx, filter.Document(), optsFind...)
	if err != nil {
		return nil, readError("find", err)
	}
	return &Cursor[T]{cursor: cursor}, nil
}

// Each walks the matching documents in server order until fn returns false.
func (r *MongoRepository[T]) Each(
	ctx context.Context,
	filter Filter,
	fn func(T) bool,
) error {
	cursor, err := r.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		if !fn(cursor.Value()) {
			break
		}
	}
	return cursor.Err()
}

func (r *MongoRepository[T]) GetAll(
	ctx context.Context,
	filter Filter,
	optsFind ...*options.FindOptions,
) ([]T, error) {
	results := []T{}
	cursor, err := r.Find(ctx, filter, optsFind...)
	if err != nil {
		return results, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		results = append(results, cursor.Value())
	}
	return results, cursor.Err()
}

func (r *MongoRepository[T]) GetFirst(
	ctx context.Context,
	filter Filter,
) (*T, error) {
	var result T
	err := r.collection.FindOne(ctx, filter.Document()).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, readError("find one", err)
	}
	return &result, nil
}

type UpdateOption func(*options.FindOneAndUpdateOptions)

// ReturnBefore makes FindOneAndUpdate hand back the document as it was before the update.
func ReturnBefore() UpdateOption {
	return func(o *options.FindOneAndUpdateOptions) {
		o.SetReturnDocument(options.Before)
	}
}

func (r *MongoRepository[T]) FindOneAndUpdate(
	ctx context.Context,
	filter Filter,
	fields Update,
	opts ...UpdateOption,
) (*T, error) {
	findOpts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	for _, opt := range opts {
		opt(findOpts)
	}

	var result T
	err := r.collection.FindOneAndUpdate(ctx, filter.Document(), fields.Document(), findOpts).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, writeError("find one and update", err)
	}
	return &result, nil
}

func (r *MongoRepository[T]) DeleteMany(
	ctx context.Context,
	filter Filter,
) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, filter.Document())
	if err != nil {
		return 0, writeError("delete", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoRepository[T]) Count(
	ctx context.Context,
	filter Filter,
	optsCount ...*options.CountOptions,
) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter.Document(), optsCount...)
	if err != nil {
		return 0, readError("count", err)
	}
	return count, nil
}
