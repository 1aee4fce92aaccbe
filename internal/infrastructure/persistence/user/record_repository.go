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

// SQLRecordRepository handles the downstream conversion records an intent
// links to: enquiries and orders.
type SQLRecordRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLRecordRepository creates a new instance of the repository.
func NewSQLRecordRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLRecordRepository {
	return &SQLRecordRepository{db: db, logger: logger}
}

// CreateEnquiry persists a new lead.
func (r *SQLRecordRepository) CreateEnquiry(e *userdomain.Enquiry) error {
	const query = `
		INSERT INTO enquiries (id, profile_id, seller_id, block_id, name, email, phone, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query, e.ID, e.ProfileID, e.SellerID, nullable(e.BlockID),
		e.Name, e.Email, nullable(e.Phone), nullable(e.Message),
		e.CreatedAt.UTC().Format(database.TimeFormat))
	if err != nil {
		r.logger.Database().Error("Enquiry insert failed", "error", err.Error(), "profileId", e.ProfileID)
		return fmt.Errorf("failed to insert enquiry: %w", err)
	}
	return nil
}

// GetEnquiryByID loads an enquiry, returning domain.ErrNotFound when missing.
func (r *SQLRecordRepository) GetEnquiryByID(id string) (*userdomain.Enquiry, error) {
	const query = `
		SELECT id, profile_id, seller_id, block_id, name, email, phone, message, created_at
		FROM enquiries WHERE id = ?`

	var (
		e                       userdomain.Enquiry
		blockID, phone, message sql.NullString
		createdAt               database.Timestamp
	)
	err := r.db.QueryRow(query, id).Scan(&e.ID, &e.ProfileID, &e.SellerID, &blockID,
		&e.Name, &e.Email, &phone, &message, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("enquiry %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load enquiry: %w", err)
	}
	e.BlockID = blockID.String
	e.Phone = phone.String
	e.Message = message.String
	e.CreatedAt = createdAt.Time
	return &e, nil
}

// CreateOrder persists a new order record.
func (r *SQLRecordRepository) CreateOrder(o *userdomain.Order) error {
	const query = `
		INSERT INTO orders (id, profile_id, intent_id, amount, currency, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query, o.ID, o.ProfileID, nullable(o.IntentID),
		o.Amount, o.Currency, o.Status,
		o.CreatedAt.UTC().Format(database.TimeFormat))
	if err != nil {
		r.logger.Database().Error("Order insert failed", "error", err.Error(), "profileId", o.ProfileID)
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetOrderByID loads an order, returning domain.ErrNotFound when missing.
func (r *SQLRecordRepository) GetOrderByID(id string) (*userdomain.Order, error) {
	const query = `
		SELECT id, profile_id, intent_id, amount, currency, status, created_at
		FROM orders WHERE id = ?`

	var (
		o         userdomain.Order
		intentID  sql.NullString
		createdAt database.Timestamp
	)
	err := r.db.QueryRow(query, id).Scan(&o.ID, &o.ProfileID, &intentID,
		&o.Amount, &o.Currency, &o.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	o.IntentID = intentID.String
	o.CreatedAt = createdAt.Time
	return &o, nil
}
