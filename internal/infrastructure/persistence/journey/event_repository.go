// Package journey provides the concrete SQL-based persistence for journey
// events. Events are append-only; the single permitted mutation is the
// enquiry_id backfill once a visitor's identity becomes known.
package journey

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	journeydomain "github.com/BrightFrames/tapx-go/internal/domain/journey"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// TypeCount is one row of the per-event-type analytics breakdown.
type TypeCount struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// BlockCount is one row of the top-blocks analytics breakdown.
type BlockCount struct {
	BlockID string `json:"block_id"`
	Count   int    `json:"count"`
}

// SQLEventRepository handles journey event persistence to the database.
type SQLEventRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLEventRepository {
	return &SQLEventRepository{db: db, logger: logger}
}

// Insert persists one journey event. The block id inside event_data is also
// written to its own column so the top-blocks aggregate stays a plain SQL
// group-by.
func (r *SQLEventRepository) Insert(e *journeydomain.Event) error {
	const query = `
		INSERT INTO journey_events (
			id, session_id, profile_id, visitor_id, visitor_email, enquiry_id,
			event_type, block_id, event_data, device_type, browser, os,
			country, city, referrer, utm_source, utm_medium, utm_campaign, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	dataJSON, err := json.Marshal(e.EventData)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	start := time.Now()
	_, err = r.db.Exec(
		query,
		e.ID,
		e.SessionID,
		e.ProfileID,
		nullable(e.VisitorID),
		nullable(e.VisitorEmail),
		nullable(e.EnquiryID),
		string(e.EventType),
		nullable(e.EventData.BlockID),
		string(dataJSON),
		nullable(e.DeviceInfo.DeviceType),
		nullable(e.DeviceInfo.Browser),
		nullable(e.DeviceInfo.OS),
		nullable(e.LocationInfo.Country),
		nullable(e.LocationInfo.City),
		nullable(e.Referrer),
		nullable(e.UTMSource),
		nullable(e.UTMMedium),
		nullable(e.UTMCampaign),
		e.Timestamp.UTC().Format(database.TimeFormat),
	)
	if err != nil {
		r.logger.Database().Error("Journey event insert failed",
			"error", err.Error(),
			"eventId", e.ID,
			"sessionId", e.SessionID,
			"eventType", string(e.EventType))
		return fmt.Errorf("failed to insert journey event: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Journey event insert completed",
		"eventId", e.ID,
		"sessionId", e.SessionID,
		"eventType", string(e.EventType),
		"duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

const eventColumns = `
	id, session_id, profile_id, visitor_id, visitor_email, enquiry_id,
	event_type, event_data, device_type, browser, os,
	country, city, referrer, utm_source, utm_medium, utm_campaign, created_at`

// ListBySession returns a session's events ordered by timestamp ascending.
func (r *SQLEventRepository) ListBySession(sessionID string) ([]*journeydomain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM journey_events WHERE session_id = ? ORDER BY created_at ASC`
	return r.queryEvents(query, sessionID)
}

// ListByEnquiry returns the events already linked to an enquiry, ordered by
// timestamp ascending.
func (r *SQLEventRepository) ListByEnquiry(enquiryID string) ([]*journeydomain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM journey_events WHERE enquiry_id = ? ORDER BY created_at ASC`
	return r.queryEvents(query, enquiryID)
}

// ListByEmailWindow finds a visitor's pre-enquiry events by email within a
// time window. Used by the reconciliation fallback when an enquiry has no
// linked events yet.
func (r *SQLEventRepository) ListByEmailWindow(profileID, email string, from, to time.Time) ([]*journeydomain.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM journey_events
		WHERE profile_id = ? AND visitor_email = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC`
	return r.queryEvents(query, profileID, email,
		from.UTC().Format(database.TimeFormat), to.UTC().Format(database.TimeFormat))
}

// LinkToEnquiry backfills enquiry_id and visitor_email onto every event
// matching the session id or the visitor email. Matching on either field is
// deliberate so pre-login events from earlier sessions are captured too.
// Idempotent: re-running writes the same values.
func (r *SQLEventRepository) LinkToEnquiry(sessionID, enquiryID, visitorEmail string) (int64, error) {
	const query = `
		UPDATE journey_events
		SET enquiry_id = ?, visitor_email = ?
		WHERE session_id = ? OR visitor_email = ?`

	res, err := r.db.Exec(query, enquiryID, visitorEmail, sessionID, visitorEmail)
	if err != nil {
		r.logger.Database().Error("Journey link update failed",
			"error", err.Error(),
			"sessionId", sessionID,
			"enquiryId", enquiryID)
		return 0, fmt.Errorf("failed to link journey events: %w", err)
	}
	linked, _ := res.RowsAffected()
	return linked, nil
}

// BackfillEnquiryID sets enquiry_id on a specific set of events. Used after
// the time-window reconciliation so a second lookup takes the direct path.
func (r *SQLEventRepository) BackfillEnquiryID(eventIDs []string, enquiryID string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	query := `UPDATE journey_events SET enquiry_id = ? WHERE id IN (?`
	args := []any{enquiryID, eventIDs[0]}
	for _, id := range eventIDs[1:] {
		query += ", ?"
		args = append(args, id)
	}
	query += ")"

	if _, err := r.db.Exec(query, args...); err != nil {
		r.logger.Database().Error("Journey enquiry backfill failed",
			"error", err.Error(),
			"enquiryId", enquiryID,
			"eventCount", len(eventIDs))
		return fmt.Errorf("failed to backfill enquiry id: %w", err)
	}
	return nil
}

// CountsByType breaks down a profile's events by type over the trailing window.
func (r *SQLEventRepository) CountsByType(profileID string, since time.Time) ([]TypeCount, error) {
	const query = `
		SELECT event_type, COUNT(*)
		FROM journey_events
		WHERE profile_id = ? AND created_at >= ?
		GROUP BY event_type
		ORDER BY COUNT(*) DESC`

	rows, err := r.db.Query(query, profileID, since.UTC().Format(database.TimeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to count events by type: %w", err)
	}
	defer rows.Close()

	var counts []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.EventType, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

// SessionCounts returns the distinct session total and the distinct count of
// sessions holding at least one enquiry-linked event.
func (r *SQLEventRepository) SessionCounts(profileID string, since time.Time) (total, converted int, err error) {
	const query = `
		SELECT COUNT(DISTINCT session_id),
		       COUNT(DISTINCT CASE WHEN enquiry_id IS NOT NULL THEN session_id END)
		FROM journey_events
		WHERE profile_id = ? AND created_at >= ?`

	err = r.db.QueryRow(query, profileID, since.UTC().Format(database.TimeFormat)).Scan(&total, &converted)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return total, converted, nil
}

// TopBlocks returns the ten most interacted-with blocks over the window.
func (r *SQLEventRepository) TopBlocks(profileID string, since time.Time) ([]BlockCount, error) {
	const query = `
		SELECT block_id, COUNT(*)
		FROM journey_events
		WHERE profile_id = ? AND created_at >= ? AND block_id IS NOT NULL
		GROUP BY block_id
		ORDER BY COUNT(*) DESC
		LIMIT 10`

	rows, err := r.db.Query(query, profileID, since.UTC().Format(database.TimeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to rank blocks: %w", err)
	}
	defer rows.Close()

	var blocks []BlockCount
	for rows.Next() {
		var bc BlockCount
		if err := rows.Scan(&bc.BlockID, &bc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan block count: %w", err)
		}
		blocks = append(blocks, bc)
	}
	return blocks, rows.Err()
}

func (r *SQLEventRepository) queryEvents(query string, args ...any) ([]*journeydomain.Event, error) {
	start := time.Now()
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Database().Error("Journey event query failed", "error", err.Error())
		return nil, fmt.Errorf("failed to query journey events: %w", err)
	}
	defer rows.Close()

	var events []*journeydomain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journey event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journey events: %w", err)
	}

	if duration := time.Since(start); duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (*journeydomain.Event, error) {
	var (
		e                                 journeydomain.Event
		visitorID, visitorEmail, enquiry  sql.NullString
		eventData                         sql.NullString
		deviceType, browser, osName       sql.NullString
		country, city, referrer           sql.NullString
		utmSource, utmMedium, utmCampaign sql.NullString
		createdAt                         database.Timestamp
	)

	err := rows.Scan(
		&e.ID, &e.SessionID, &e.ProfileID, &visitorID, &visitorEmail, &enquiry,
		(*string)(&e.EventType), &eventData, &deviceType, &browser, &osName,
		&country, &city, &referrer, &utmSource, &utmMedium, &utmCampaign, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	e.VisitorID = visitorID.String
	e.VisitorEmail = visitorEmail.String
	e.EnquiryID = enquiry.String
	e.DeviceInfo = journeydomain.DeviceInfo{DeviceType: deviceType.String, Browser: browser.String, OS: osName.String}
	e.LocationInfo = journeydomain.LocationInfo{Country: country.String, City: city.String}
	e.Referrer = referrer.String
	e.UTMSource = utmSource.String
	e.UTMMedium = utmMedium.String
	e.UTMCampaign = utmCampaign.String
	e.Timestamp = createdAt.Time

	if eventData.Valid && eventData.String != "" {
		if err := json.Unmarshal([]byte(eventData.String), &e.EventData); err != nil {
			return nil, fmt.Errorf("failed to decode event data: %w", err)
		}
	}
	return &e, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
