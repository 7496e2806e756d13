package services

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/pulsechat/pulse-backend/internal/apperr"
	"github.com/pulsechat/pulse-backend/internal/database"
	"github.com/pulsechat/pulse-backend/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// UserStore persists user accounts. The email is the unique handle;
// implementations must fail a duplicate create with a Conflict error and
// report absent users as NotFound.
type UserStore interface {
	Create(email, fullName, passwordHash string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(userID uuid.UUID) (*models.User, error)
	UpdateProfile(userID uuid.UUID, fullName, avatarURL string) (*models.User, error)
}

// PostgresUserStore stores accounts in the PostgreSQL users table.
type PostgresUserStore struct{}

func NewPostgresUserStore() *PostgresUserStore {
	return &PostgresUserStore{}
}

// Create inserts a new account. The race between two signups with the same
// email is resolved by the unique index, not by a prior select.
func (s *PostgresUserStore) Create(email, fullName, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	_, err := database.PostgresDB.Exec(`
		INSERT INTO users (id, email, full_name, password_hash, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Email, user.FullName, user.PasswordHash, user.AvatarURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, apperr.Conflict("an account with this email already exists")
		}
		return nil, apperr.Unavailable("user store unavailable", err)
	}

	return user, nil
}

// GetByEmail loads a user by handle. Returns NotFound when absent; login
// translates that to a generic auth failure so handles can't be enumerated.
func (s *PostgresUserStore) GetByEmail(email string) (*models.User, error) {
	return scanUser(database.PostgresDB.QueryRow(`
		SELECT id, email, full_name, password_hash, avatar_url, created_at, updated_at
		FROM users WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))))
}

// GetByID loads a user by primary key.
func (s *PostgresUserStore) GetByID(userID uuid.UUID) (*models.User, error) {
	return scanUser(database.PostgresDB.QueryRow(`
		SELECT id, email, full_name, password_hash, avatar_url, created_at, updated_at
		FROM users WHERE id = $1
	`, userID))
}

// UpdateProfile persists the mutable profile fields. Empty values leave the
// corresponding column untouched.
func (s *PostgresUserStore) UpdateProfile(userID uuid.UUID, fullName, avatarURL string) (*models.User, error) {
	res, err := database.PostgresDB.Exec(`
		UPDATE users
		SET full_name = CASE WHEN $2 <> '' THEN $2 ELSE full_name END,
		    avatar_url = CASE WHEN $3 <> '' THEN $3 ELSE avatar_url END,
		    updated_at = NOW()
		WHERE id = $1
	`, userID, strings.TrimSpace(fullName), avatarURL)
	if err != nil {
		return nil, apperr.Unavailable("user store unavailable", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, apperr.NotFound("user not found")
	}

	return s.GetByID(userID)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Unavailable("user store unavailable", err)
	}
	return &u, nil
}
