package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pulsechat/pulse-backend/internal/apperr"
	"github.com/pulsechat/pulse-backend/internal/database"
	"github.com/pulsechat/pulse-backend/internal/models"
)

// maxMessageLength bounds the text body of a single message.
const maxMessageLength = 4096

// MessageStore persists conversation history. Implementations must assign
// the creation timestamp server-side and keep messages immutable.
type MessageStore interface {
	Append(ctx context.Context, senderID, recipientID uuid.UUID, text, image string) (*models.Message, error)
	History(ctx context.Context, userID, otherID uuid.UUID, before *time.Time, limit int64) ([]models.Message, bool, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// MongoMessageStore stores messages in the MongoDB "messages" collection.
type MongoMessageStore struct {
	col *mongo.Collection
}

func NewMongoMessageStore() *MongoMessageStore {
	return &MongoMessageStore{col: database.DB.Collection("messages")}
}

// EnsureMessageIndexes configures indexes for the messages collection.
// Called on startup from main after Mongo has connected.
func EnsureMessageIndexes(ctx context.Context) error {
	col := database.DB.Collection("messages")

	// One compound index per direction so both halves of a conversation
	// query stay indexed.
	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "recipient_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_sender_recipient_created"),
		},
		{
			Keys: bson.D{
				{Key: "recipient_id", Value: 1},
				{Key: "sender_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_recipient_sender_created"),
		},
	}

	for _, m := range indexModels {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMessageBody trims and checks a message body: it must carry text or
// an image, and text is capped at maxMessageLength characters (runes, not
// bytes). Returns the trimmed text.
func ValidateMessageBody(text, image string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" && image == "" {
		return "", apperr.Validation("message body must contain text or an image")
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		return "", apperr.Validation("message text exceeds %d characters", maxMessageLength)
	}
	return text, nil
}

// Append validates and persists a single message with a server-assigned
// timestamp. The stored message is returned with its ID populated.
func (s *MongoMessageStore) Append(ctx context.Context, senderID, recipientID uuid.UUID, text, image string) (*models.Message, error) {
	text, err := ValidateMessageBody(text, image)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:    senderID.String(),
		RecipientID: recipientID.String(),
		Text:        text,
		Image:       image,
		CreatedAt:   time.Now().UTC(),
	}

	res, err := s.col.InsertOne(ctx, msg)
	if err != nil {
		return nil, apperr.Unavailable("message store unavailable", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	return msg, nil
}

// History returns messages between two users, oldest-first. Pagination is
// newest-first internally: pass the oldest returned timestamp as `before` to
// fetch the previous page. An empty conversation yields an empty slice.
func (s *MongoMessageStore) History(ctx context.Context, userID, otherID uuid.UUID, before *time.Time, limit int64) ([]models.Message, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	a, b := userID.String(), otherID.String()
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": a, "recipient_id": b},
			bson.M{"sender_id": b, "recipient_id": a},
		},
	}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": before.UTC()}
	}

	// Equal timestamps fall back to _id, which is insertion-ordered within
	// a single process.
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, apperr.Unavailable("message store unavailable", err)
	}
	defer cur.Close(ctx)

	msgs := []models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	if err := cur.Err(); err != nil {
		return nil, false, apperr.Unavailable("message store unavailable", err)
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:len(msgs)-1]
	}

	// Reverse to oldest-first for the client.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, hasMore, nil
}

// ListConversations returns the IDs of every user the given user has
// exchanged at least one message with.
func (s *MongoMessageStore) ListConversations(ctx context.Context, userID uuid.UUID) ([]string, error) {
	id := userID.String()

	sentTo, err := s.col.Distinct(ctx, "recipient_id", bson.M{"sender_id": id})
	if err != nil {
		return nil, apperr.Unavailable("message store unavailable", err)
	}
	receivedFrom, err := s.col.Distinct(ctx, "sender_id", bson.M{"recipient_id": id})
	if err != nil {
		return nil, apperr.Unavailable("message store unavailable", err)
	}

	seen := make(map[string]struct{})
	out := []string{}
	for _, vals := range [][]interface{}{sentTo, receivedFrom} {
		for _, v := range vals {
			other, ok := v.(string)
			if !ok || other == id {
				continue
			}
			if _, dup := seen[other]; dup {
				continue
			}
			seen[other] = struct{}{}
			out = append(out, other)
		}
	}
	return out, nil
}
