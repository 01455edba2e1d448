package persistence

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
	"pin-scheduler/infrastructure/utils"
)

type PinRepositoryMongo struct {
	collection *mongo.Collection
	now        utils.Clock
}

func NewPinRepositoryMongo(client *mongo.Client, database string, now utils.Clock) repository.IPinStore {
	if now == nil {
		now = utils.GetCurrentTime
	}
	if database == "" {
		database = "pin_scheduler"
	}
	return &PinRepositoryMongo{collection: client.Database(database).Collection("scheduled_pins"), now: now}
}

func (r *PinRepositoryMongo) List(ctx context.Context) ([]model.ScheduledPin, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "scheduledTime", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	pins := []model.ScheduledPin{}
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

func (r *PinRepositoryMongo) Get(ctx context.Context, id string) (*model.ScheduledPin, error) {
	var pin model.ScheduledPin
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&pin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errPinNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &pin, nil
}

func (r *PinRepositoryMongo) Append(ctx context.Context, pin model.ScheduledPin) error {
	stampCreated(&pin, r.now())
	_, err := r.collection.InsertOne(ctx, pin)
	return insertError(pin.ID, err)
}

func insertError(id string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return apperror.Conflict("pin " + id + " already exists").Wrap(err)
	}
	return err
}

func (r *PinRepositoryMongo) Update(ctx context.Context, id string, patch model.PinPatch) (*model.ScheduledPin, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := patch.Apply(*current, r.now())
	if _, err := r.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *PinRepositoryMongo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errPinNotFound(id)
	}
	return nil
}

func (r *PinRepositoryMongo) Claim(ctx context.Context, id string, from []model.PinStatus, to model.PinStatus) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "status", Value: bson.D{{Key: "$in", Value: statusStrings(from)}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "status", Value: string(to)}, {Key: "updatedAt", Value: r.now()}}},
		{Key: "$unset", Value: bson.D{{Key: "error", Value: ""}, {Key: "publishedAt", Value: ""}, {Key: "pinterestId", Value: ""}}},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
