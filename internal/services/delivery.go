package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/pulsechat/pulse-backend/internal/apperr"
	"github.com/pulsechat/pulse-backend/internal/models"
)

// DeliveryRouter coordinates a single message send: persist first, then push
// to the recipient's live connections if any. Persistence is the durability
// guarantee; the push is strictly best-effort and never rolled back, so an
// offline recipient recovers the message from history on next fetch.
type DeliveryRouter struct {
	store    MessageStore
	presence *PresenceRegistry
}

func NewDeliveryRouter(store MessageStore, presence *PresenceRegistry) *DeliveryRouter {
	return &DeliveryRouter{store: store, presence: presence}
}

// SendResult reports the outcome of a send. Delivered means at least one
// live push succeeded; the message is durably stored either way.
type SendResult struct {
	Message   *models.Message
	Delivered bool
}

// Send validates, persists and then pushes a message. A store failure aborts
// the whole send; push failures are logged per handle and do not fail it.
func (d *DeliveryRouter) Send(ctx context.Context, senderID, recipientID uuid.UUID, text, image string) (*SendResult, error) {
	if recipientID == uuid.Nil {
		return nil, apperr.Validation("recipient_id is required")
	}
	if recipientID == senderID {
		return nil, apperr.Validation("cannot send a message to yourself")
	}

	msg, err := d.store.Append(ctx, senderID, recipientID, text, image)
	if err != nil {
		return nil, err
	}

	evt := Event{
		Type:      EventNewMessage,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}

	delivered := false
	for _, handle := range d.presence.ActiveHandles(recipientID) {
		if err := handle.SendEvent(evt); err != nil {
			log.Printf("delivery: push to %s failed: %v", recipientID, err)
			continue
		}
		delivered = true
	}

	return &SendResult{Message: msg, Delivered: delivered}, nil
}
