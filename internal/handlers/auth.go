package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/pulsechat/pulse-backend/internal/apperr"
	"github.com/pulsechat/pulse-backend/internal/middleware"
	"github.com/pulsechat/pulse-backend/internal/models"
	"github.com/pulsechat/pulse-backend/pkg/utils"
)

const minPasswordLength = 6

type SignupRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name,omitempty"`
	Avatar   string `json:"avatar,omitempty"` // base64 data URI
}

type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *models.User `json:"user,omitempty"`
}

// Signup registers a new account and logs it in by setting the session
// cookie, so a fresh client needs no follow-up login call.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	if err := validateSignup(&req); err != nil {
		writeError(w, err)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, apperr.Internal("failed to hash password", err))
		return
	}

	user, err := userStore.Create(req.Email, req.FullName, hash)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := setSessionCookie(w, user); err != nil {
		writeError(w, apperr.Internal("failed to issue session", err))
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "account created",
		User:    user,
	})
}

// Login verifies credentials and sets the session cookie. The failure
// message never distinguishes an unknown email from a wrong password.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, apperr.Validation("email and password are required"))
		return
	}

	user, err := userStore.GetByEmail(req.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			writeError(w, apperr.Auth("invalid credentials"))
		} else {
			writeError(w, err)
		}
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		writeError(w, apperr.Auth("invalid credentials"))
		return
	}

	if err := setSessionCookie(w, user); err != nil {
		writeError(w, apperr.Internal("failed to issue session", err))
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "login successful",
		User:    user,
	})
}

// Logout clears the session cookie. Sessions are stateless, so there is
// nothing to invalidate server-side; the call always succeeds.
func Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "logged out",
	})
}

// Me returns the authenticated user, letting clients restore a session from
// the cookie alone.
func Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Auth("authentication required"))
		return
	}

	user, err := userStore.GetByID(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: user})
}

// UpdateProfile changes display name and/or avatar. Avatars arrive as base64
// data URIs and are re-hosted on Cloudinary; only the resulting URL is
// persisted.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperr.Auth("authentication required"))
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Validation("invalid request body"))
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	if req.FullName == "" && req.Avatar == "" {
		writeError(w, apperr.Validation("nothing to update"))
		return
	}
	if len(req.FullName) > 100 {
		writeError(w, apperr.Validation("full_name exceeds 100 characters"))
		return
	}

	avatarURL := ""
	if req.Avatar != "" {
		if cloudinaryService == nil {
			writeError(w, apperr.Validation("image uploads are not configured on this server"))
			return
		}
		url, err := cloudinaryService.UploadBase64(r.Context(), req.Avatar, "avatars")
		if err != nil {
			writeError(w, err)
			return
		}
		avatarURL = url
	}

	user, err := userStore.UpdateProfile(userID, req.FullName, avatarURL)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "profile updated",
		User:    user,
	})
}

func validateSignup(req *SignupRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Email == "" || req.FullName == "" || req.Password == "" {
		return apperr.Validation("email, full_name, and password are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperr.Validation("invalid email address")
	}
	if len(req.FullName) > 100 {
		return apperr.Validation("full_name exceeds 100 characters")
	}
	if len(req.Password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func setSessionCookie(w http.ResponseWriter, user *models.User) error {
	if user == nil {
		return errors.New("no user")
	}
	token, err := utils.NewSessionToken(cfg.JWTSecret, user.ID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}
