package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pulsechat/pulse-backend/internal/apperr"
	"github.com/pulsechat/pulse-backend/internal/config"
	"github.com/pulsechat/pulse-backend/internal/services"
)

// Package-level collaborators, wired once from main before the router starts
// serving.
var (
	cfg               *config.Config
	userStore         services.UserStore
	messageStore      services.MessageStore
	presence          *services.PresenceRegistry
	delivery          *services.DeliveryRouter
	cloudinaryService *services.CloudinaryService
)

// Init wires the handler package's collaborators.
func Init(c *config.Config, users services.UserStore, store services.MessageStore, registry *services.PresenceRegistry, router *services.DeliveryRouter) {
	cfg = c
	userStore = users
	messageStore = store
	presence = registry
	delivery = router
}

// InitCloudinaryService enables image uploads. Optional: when not called,
// avatar and image-message requests fail with a clear error instead.
func InitCloudinaryService(c *config.Config) error {
	service, err := services.NewCloudinaryService(
		c.CloudinaryName,
		c.CloudinaryAPIKey,
		c.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps an application error onto the response envelope. Internal
// causes are logged but never shown to clients.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= 500 {
		log.Printf("handler error: %v", err)
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": apperr.Message(err),
	})
}
