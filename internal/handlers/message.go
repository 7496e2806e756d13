package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pulsechat/pulse-backend/internal/apperr"
	"github.com/pulsechat/pulse-backend/internal/middleware"
	"github.com/pulsechat/pulse-backend/internal/models"
)

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text,omitempty"`
	Image       string `json:"image,omitempty"` // base64 data URI
}

type SendMessageResponse struct {
	Success   bool            `json:"success"`
	Message   *models.Message `json:"message"`
	Delivered bool            `json:"delivered"`
}

type HistoryResponse struct {
	Success  bool             `json:"success"`
	Messages []models.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

type ConversationsResponse struct {
	Success bool     `json:"success"`
	UserIDs []string `json:"user_ids"`
}

// SendMessage persists a message and pushes it to the recipient's live
// connections when there are any. The response reports whether a live push
// went through; either way the message is stored.
func SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Auth("authentication required"))
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	recipientID, err := uuid.Parse(strings.TrimSpace(req.RecipientID))
	if err != nil {
		writeError(w, apperr.Validation("recipient_id must be a valid user ID"))
		return
	}

	imageURL := ""
	if req.Image != "" {
		if cloudinaryService == nil {
			writeError(w, apperr.Validation("image uploads are not configured on this server"))
			return
		}
		imageURL, err = cloudinaryService.UploadBase64(r.Context(), req.Image, "messages")
		if err != nil {
			writeError(w, err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := delivery.Send(ctx, senderID, recipientID, req.Text, imageURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SendMessageResponse{
		Success:   true,
		Message:   result.Message,
		Delivered: result.Delivered,
	})
}

// GetHistory loads paginated conversation history with another user.
// Query params:
//
//	before (optional RFC3339 timestamp for pagination)
//	limit  (optional, default 50, max 100)
func GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Auth("authentication required"))
		return
	}

	otherID, err := uuid.Parse(chi.URLParam(r, "otherUserID"))
	if err != nil {
		writeError(w, apperr.Validation("invalid user ID in path"))
		return
	}

	limit := int64(50)
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if parsed, err := strconv.ParseInt(lStr, 10, 64); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var before *time.Time
	if bStr := r.URL.Query().Get("before"); bStr != "" {
		t, err := time.Parse(time.RFC3339, bStr)
		if err != nil {
			writeError(w, apperr.Validation("before must be an RFC3339 timestamp"))
			return
		}
		before = &t
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	msgs, hasMore, err := messageStore.History(ctx, userID, otherID, before, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Success:  true,
		Messages: msgs,
		HasMore:  hasMore,
	})
}

// ListConversations returns the IDs of everyone the user has a conversation
// with, for the sidebar list.
func ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Auth("authentication required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ids, err := messageStore.ListConversations(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ConversationsResponse{
		Success: true,
		UserIDs: ids,
	})
}
