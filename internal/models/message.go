package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is stored in MongoDB, one document per message. Messages are
// immutable once created; there is no persisted delivery status, live push
// is best-effort and clients recover missed messages via history.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID    string             `bson:"sender_id" json:"sender_id"`
	RecipientID string             `bson:"recipient_id" json:"recipient_id"`
	Text        string             `bson:"text,omitempty" json:"text,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
