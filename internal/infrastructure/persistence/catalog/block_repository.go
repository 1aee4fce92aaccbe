// Package catalog provides SQL-based persistence for blocks plus the
// read-through snapshot cache used on the CTA hot path.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/BrightFrames/tapx-go/internal/domain"
	catalogdomain "github.com/BrightFrames/tapx-go/internal/domain/catalog"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// SQLBlockRepository handles block persistence. Reads on the intent creation
// path go through a short-TTL cache; counter increments always hit the
// database so they stay atomic.
type SQLBlockRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
	cache  *gocache.Cache
}

// NewSQLBlockRepository creates a new instance of the repository.
func NewSQLBlockRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLBlockRepository {
	return &SQLBlockRepository{
		db:     db,
		logger: logger,
		cache:  gocache.New(config.BlockCacheTTL, config.BlockCacheSweep),
	}
}

// Create persists a new block for a profile.
func (r *SQLBlockRepository) Create(b *catalogdomain.Block) error {
	const query = `
		INSERT INTO blocks (id, profile_id, block_type, title, cta_type, cta_label, requires_login, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		b.ID, b.ProfileID, b.BlockType, b.Title, b.CTAType,
		nullable(b.CTALabel), b.RequiresLogin,
		b.CreatedAt.UTC().Format(database.TimeFormat))
	if err != nil {
		r.logger.Database().Error("Block insert failed", "error", err.Error(), "blockId", b.ID)
		return fmt.Errorf("failed to insert block: %w", err)
	}
	return nil
}

const blockColumns = `
	id, profile_id, block_type, title, cta_type, cta_label, requires_login,
	views, clicks, conversions, enquiries, created_at, updated_at`

// GetByID resolves a block, serving repeat lookups from the snapshot cache.
// Returns domain.ErrNotFound when the id does not resolve.
func (r *SQLBlockRepository) GetByID(id string) (*catalogdomain.Block, error) {
	if cached, found := r.cache.Get(id); found {
		b := cached.(catalogdomain.Block)
		return &b, nil
	}

	query := `SELECT ` + blockColumns + ` FROM blocks WHERE id = ?`
	b, err := scanBlock(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("block %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		r.logger.Database().Error("Block lookup failed", "error", err.Error(), "blockId", id)
		return nil, fmt.Errorf("failed to load block: %w", err)
	}

	r.cache.Set(id, *b, gocache.DefaultExpiration)
	return b, nil
}

// ListByProfile returns all of a profile's blocks, oldest first.
func (r *SQLBlockRepository) ListByProfile(profileID string) ([]*catalogdomain.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks WHERE profile_id = ? ORDER BY created_at ASC`

	rows, err := r.db.Query(query, profileID)
	if err != nil {
		r.logger.Database().Error("Block listing failed", "error", err.Error(), "profileId", profileID)
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*catalogdomain.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block row: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// IncrementViews atomically bumps the view counter.
func (r *SQLBlockRepository) IncrementViews(id string) error {
	return r.increment(id, "views")
}

// IncrementClicks atomically bumps the click counter.
func (r *SQLBlockRepository) IncrementClicks(id string) error {
	return r.increment(id, "clicks")
}

// IncrementConversions atomically bumps the conversion counter.
func (r *SQLBlockRepository) IncrementConversions(id string) error {
	return r.increment(id, "conversions")
}

// IncrementEnquiries atomically bumps the enquiry counter.
func (r *SQLBlockRepository) IncrementEnquiries(id string) error {
	return r.increment(id, "enquiries")
}

func (r *SQLBlockRepository) increment(id, column string) error {
	// column is always one of the four fixed counter names above.
	query := fmt.Sprintf("UPDATE blocks SET %s = %s + 1, updated_at = ? WHERE id = ?", column, column)
	_, err := r.db.Exec(query, time.Now().UTC().Format(database.TimeFormat), id)
	if err != nil {
		return fmt.Errorf("failed to increment block %s: %w", column, err)
	}
	// Drop any cached snapshot so dashboards see the new counter soon.
	r.cache.Delete(id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(row rowScanner) (*catalogdomain.Block, error) {
	var (
		b                    catalogdomain.Block
		ctaLabel             sql.NullString
		createdAt, updatedAt database.Timestamp
	)
	err := row.Scan(
		&b.ID, &b.ProfileID, &b.BlockType, &b.Title, &b.CTAType, &ctaLabel, &b.RequiresLogin,
		&b.Analytics.Views, &b.Analytics.Clicks, &b.Analytics.Conversions, &b.Analytics.Enquiries,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.CTALabel = ctaLabel.String
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time
	return &b, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
