// Package user provides SQL-based persistence for accounts, profiles and the
// downstream conversion records (enquiries, orders).
package user

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/BrightFrames/tapx-go/internal/domain"
	userdomain "github.com/BrightFrames/tapx-go/internal/domain/user"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
)

// SQLUserRepository handles account and profile persistence.
type SQLUserRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLUserRepository creates a new instance of the repository.
func NewSQLUserRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLUserRepository {
	return &SQLUserRepository{db: db, logger: logger}
}

// CreateUser persists a new account.
func (r *SQLUserRepository) CreateUser(u *userdomain.User) error {
	const query = `INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, u.ID, u.Email, nullable(u.Name), u.PasswordHash,
		u.CreatedAt.UTC().Format(database.TimeFormat))
	if err != nil {
		r.logger.Database().Error("User insert failed", "error", err.Error(), "email", u.Email)
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByEmail loads an account by email, for login.
func (r *SQLUserRepository) GetUserByEmail(email string) (*userdomain.User, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRow(query, email), email)
}

// GetUserByID loads an account by id.
func (r *SQLUserRepository) GetUserByID(id string) (*userdomain.User, error) {
	const query = `SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRow(query, id), id)
}

func (r *SQLUserRepository) scanUser(row *sql.Row, key string) (*userdomain.User, error) {
	var (
		u         userdomain.User
		name      sql.NullString
		createdAt database.Timestamp
	)
	err := row.Scan(&u.ID, &u.Email, &name, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.Name = name.String
	u.CreatedAt = createdAt.Time
	return &u, nil
}

// CreateProfile persists a new public profile for a user.
func (r *SQLUserRepository) CreateProfile(p *userdomain.Profile) error {
	const query = `INSERT INTO profiles (id, user_id, username, store_id, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, p.ID, p.UserID, p.Username, nullable(p.StoreID),
		p.CreatedAt.UTC().Format(database.TimeFormat))
	if err != nil {
		r.logger.Database().Error("Profile insert failed", "error", err.Error(), "username", p.Username)
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetProfileByID loads a profile, returning domain.ErrNotFound when missing.
func (r *SQLUserRepository) GetProfileByID(id string) (*userdomain.Profile, error) {
	const query = `SELECT id, user_id, username, store_id, created_at FROM profiles WHERE id = ?`

	var (
		p         userdomain.Profile
		storeID   sql.NullString
		createdAt database.Timestamp
	)
	err := r.db.QueryRow(query, id).Scan(&p.ID, &p.UserID, &p.Username, &storeID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	p.StoreID = storeID.String
	p.CreatedAt = createdAt.Time
	return &p, nil
}

// GetProfileByUserID loads a user's profile.
func (r *SQLUserRepository) GetProfileByUserID(userID string) (*userdomain.Profile, error) {
	const query = `SELECT id, user_id, username, store_id, created_at FROM profiles WHERE user_id = ?`

	var (
		p         userdomain.Profile
		storeID   sql.NullString
		createdAt database.Timestamp
	)
	err := r.db.QueryRow(query, userID).Scan(&p.ID, &p.UserID, &p.Username, &storeID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile for user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	p.StoreID = storeID.String
	p.CreatedAt = createdAt.Time
	return &p, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
