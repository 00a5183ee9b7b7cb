package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pylos/internal/adapters"
	"pylos/internal/domain/client"
	errors2 "pylos/internal/errors"
)

const profilesCollection = "profiles"

type MongoProfileStorage struct {
	adapter *adapters.AdapterMongo
}

func NewMongoProfileStorage(adapter *adapters.AdapterMongo) *MongoProfileStorage {
	return &MongoProfileStorage{adapter: adapter}
}

func (m *MongoProfileStorage) SaveProfile(ctx context.Context, c client.Client) error {
	collection := m.adapter.Database.Collection(profilesCollection)
	filter := bson.D{{Key: "_id", Value: c.UUID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "user_name", Value: c.Name},
		{Key: "user_avatar", Value: c.Avatar},
		{Key: "updated_at", Value: c.UpdatedAt},
	}}}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", c.UUID, err)
	}
	return nil
}

func (m *MongoProfileStorage) LoadProfile(ctx context.Context, clientUUID string) (client.Client, error) {
	collection := m.adapter.Database.Collection(profilesCollection)
	filter := bson.D{{Key: "_id", Value: clientUUID}}

	var result client.Client
	err := collection.FindOne(ctx, filter).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return client.Client{}, errors2.ErrClientNotFound
		}
		return client.Client{}, fmt.Errorf("find profile %s: %w", clientUUID, err)
	}
	return result, nil
}
