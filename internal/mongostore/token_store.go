package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/models"
)

func bsonD(key string, value interface{}) bson.D {
	return bson.D{{Key: key, Value: value}}
}

// TokenStore persists bearer tokens in a MongoDB collection
type TokenStore struct {
	coll *mongo.Collection
}

// NewTokenStore creates a token store over db's tokens collection
func NewTokenStore(db *mongo.Database) *TokenStore {
	return &TokenStore{coll: db.Collection(TokensCollection)}
}

// Create inserts a new token. The unique index on token rejects duplicates.
func (s *TokenStore) Create(ctx context.Context, token *models.Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}
	if token.Token == "" {
		return fmt.Errorf("token value is required")
	}

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	} else {
		token.CreatedAt = token.CreatedAt.UTC()
	}

	if _, err := s.coll.InsertOne(ctx, token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create token: %w", apperrors.ErrDuplicateToken)
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// FindByToken returns nil, nil when the token doesn't exist
func (s *TokenStore) FindByToken(ctx context.Context, tokenValue string) (*models.Token, error) {
	if tokenValue == "" {
		return nil, nil
	}

	var token models.Token
	if err := s.coll.FindOne(ctx, bsonD("token", tokenValue)).Decode(&token); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	return &token, nil
}

// ListAll returns every token ordered by creation time
func (s *TokenStore) ListAll(ctx context.Context) ([]*models.Token, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list all tokens: %w", err)
	}
	defer cursor.Close(ctx)

	tokens := make([]*models.Token, 0)
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, fmt.Errorf("failed to decode tokens: %w", err)
	}

	return tokens, nil
}

// Delete removes a token and reports whether one existed
func (s *TokenStore) Delete(ctx context.Context, tokenValue string) (bool, error) {
	if tokenValue == "" {
		return false, nil
	}

	result, err := s.coll.DeleteOne(ctx, bsonD("token", tokenValue))
	if err != nil {
		return false, fmt.Errorf("failed to delete token: %w", err)
	}

	return result.DeletedCount > 0, nil
}

// TouchLastUsed sets last_used without upserting, so a deleted token stays deleted
func (s *TokenStore) TouchLastUsed(ctx context.Context, tokenValue string, when time.Time) error {
	if tokenValue == "" {
		return fmt.Errorf("token value is required")
	}

	update := bsonD("$set", bsonD("last_used", when.UTC()))
	if _, err := s.coll.UpdateOne(ctx, bsonD("token", tokenValue), update); err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}

	return nil
}

// CountAdmins returns the number of admin tokens
func (s *TokenStore) CountAdmins(ctx context.Context) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bsonD("is_admin", true))
	if err != nil {
		return 0, fmt.Errorf("failed to count admin tokens: %w", err)
	}
	return count, nil
}
