// Package mongostore implements the token and usage stores on MongoDB.
// It is selected when STORE_URI carries a mongodb:// or mongodb+srv:// scheme.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	TokensCollection = "tokens"
	UsagesCollection = "usages"
)

const connectTimeout = 10 * time.Second

// Ping checks that the primary is reachable
func Ping(ctx context.Context, client *mongo.Client) error {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return nil
}

// Connect opens a client for uri and verifies the primary is reachable
func Connect(ctx context.Context, uri string, log zerolog.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := Ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info().Msg("MongoDB connection established")
	return client, nil
}

// EnsureIndexes creates the unique token index and the usage lookup indexes
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(TokensCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bsonD("token", 1),
		Options: options.Index().SetUnique(true).SetName("idx_tokens_token"),
	})
	if err != nil {
		return fmt.Errorf("failed to create token index: %w", err)
	}

	_, err = db.Collection(UsagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bsonD("token", 1), Options: options.Index().SetName("idx_usages_token")},
		{Keys: bsonD("timestamp", 1), Options: options.Index().SetName("idx_usages_timestamp")},
	})
	if err != nil {
		return fmt.Errorf("failed to create usage indexes: %w", err)
	}

	return nil
}
