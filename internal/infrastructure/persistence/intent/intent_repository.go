// Package intent provides the concrete SQL-based persistence for Intent
// records. Intents are append-mostly: rows are inserted once on CTA click
// and thereafter only touched by the narrow lifecycle updates below.
package intent

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrightFrames/tapx-go/internal/domain"
	intentdomain "github.com/BrightFrames/tapx-go/internal/domain/intent"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/persistence/database"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/security"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

const sqliteTimeFormat = "2006-01-02 15:04:05"

// ListFilters narrows a dashboard listing of intents.
type ListFilters struct {
	FlowType string
	Status   string
	Limit    int
	Skip     int
}

// SQLIntentRepository handles intent persistence to the database.
type SQLIntentRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLIntentRepository creates a new instance of the repository.
func NewSQLIntentRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLIntentRepository {
	return &SQLIntentRepository{db: db, logger: logger}
}

// Insert persists a freshly created intent.
func (r *SQLIntentRepository) Insert(i *intentdomain.Intent) error {
	const query = `
		INSERT INTO intents (
			id, actor_type, actor_id, visitor_fingerprint, session_id,
			profile_id, store_id, block_id, block_type, block_title,
			cta_type, cta_label, flow_type, status, login_required,
			meta_ip, meta_user_agent, meta_referrer, meta_device, meta_source,
			meta_utm_source, meta_utm_medium, meta_utm_campaign,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var actorID, fingerprint, sessionID sql.NullString
	switch a := i.Actor.(type) {
	case intentdomain.User:
		actorID = sql.NullString{String: a.ID, Valid: true}
	case intentdomain.Visitor:
		fingerprint = nullable(r.sealFingerprint(a.Fingerprint))
		sessionID = nullable(a.SessionID)
	}

	start := time.Now()
	_, err := r.db.Exec(
		query,
		i.ID,
		string(i.Actor.ActorType()),
		actorID,
		fingerprint,
		sessionID,
		i.ProfileID,
		nullable(i.StoreID),
		i.BlockID,
		i.BlockType,
		i.BlockTitle,
		i.CTAType,
		nullable(i.CTALabel),
		string(i.FlowType),
		string(i.Status),
		i.LoginRequired,
		nullable(i.Metadata.IP),
		nullable(i.Metadata.UserAgent),
		nullable(i.Metadata.Referrer),
		nullable(i.Metadata.Device),
		nullable(i.Metadata.Source),
		nullable(i.Metadata.UTMSource),
		nullable(i.Metadata.UTMMedium),
		nullable(i.Metadata.UTMCampaign),
		i.CreatedAt.UTC().Format(sqliteTimeFormat),
		i.UpdatedAt.UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		r.logger.Database().Error("Intent insert failed",
			"error", err.Error(),
			"intentId", i.ID,
			"profileId", i.ProfileID,
			"blockId", i.BlockID)
		return fmt.Errorf("failed to insert intent: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Intent insert completed",
		"intentId", i.ID,
		"profileId", i.ProfileID,
		"flowType", string(i.FlowType),
		"status", string(i.Status),
		"duration", duration)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

const intentColumns = `
	id, actor_type, actor_id, visitor_fingerprint, session_id,
	profile_id, store_id, block_id, block_type, block_title,
	cta_type, cta_label, flow_type, status, login_required, login_completed_at,
	linked_enquiry_id, linked_order_id, linked_plugin_install_id,
	txn_status, txn_gateway, txn_gateway_order_id, txn_gateway_payment_id,
	txn_amount, txn_currency,
	meta_ip, meta_user_agent, meta_referrer, meta_device, meta_source,
	meta_utm_source, meta_utm_medium, meta_utm_campaign, meta_failure_reason,
	created_at, updated_at, completed_at`

// GetByID loads a single intent, returning domain.ErrNotFound when the id
// does not resolve.
func (r *SQLIntentRepository) GetByID(id string) (*intentdomain.Intent, error) {
	query := `SELECT ` + intentColumns + ` FROM intents WHERE id = ?`

	row := r.db.QueryRow(query, id)
	i, err := scanIntent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("intent %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		r.logger.Database().Error("Intent lookup failed", "error", err.Error(), "intentId", id)
		return nil, fmt.Errorf("failed to load intent: %w", err)
	}
	return i, nil
}

// UpdateResume records a completed login against a gated intent. The actor
// becomes the resuming user.
func (r *SQLIntentRepository) UpdateResume(id, userID string, at time.Time) error {
	const query = `
		UPDATE intents
		SET actor_type = 'user', actor_id = ?, visitor_fingerprint = NULL, session_id = NULL,
		    status = ?, login_completed_at = ?, updated_at = ?
		WHERE id = ?`

	ts := at.UTC().Format(sqliteTimeFormat)
	_, err := r.db.Exec(query, userID, string(intentdomain.StatusLoginCompleted), ts, ts, id)
	if err != nil {
		r.logger.Database().Error("Intent resume update failed", "error", err.Error(), "intentId", id)
		return fmt.Errorf("failed to resume intent: %w", err)
	}
	return nil
}

// UpdateComplete marks an intent completed and attaches linkage ids and the
// gateway transaction. Only non-nil linkage fields overwrite, so repeated
// completion calls converge on the same row.
func (r *SQLIntentRepository) UpdateComplete(id string, linkage intentdomain.Linkage, txn *intentdomain.Transaction, at time.Time) error {
	sets := []string{"status = ?", "completed_at = ?", "updated_at = ?"}
	ts := at.UTC().Format(sqliteTimeFormat)
	args := []any{string(intentdomain.StatusCompleted), ts, ts}

	if linkage.EnquiryID != nil {
		sets = append(sets, "linked_enquiry_id = ?")
		args = append(args, *linkage.EnquiryID)
	}
	if linkage.OrderID != nil {
		sets = append(sets, "linked_order_id = ?")
		args = append(args, *linkage.OrderID)
	}
	if linkage.PluginInstallID != nil {
		sets = append(sets, "linked_plugin_install_id = ?")
		args = append(args, *linkage.PluginInstallID)
	}
	if txn != nil {
		sets = append(sets,
			"txn_status = ?", "txn_gateway = ?", "txn_gateway_order_id = ?",
			"txn_gateway_payment_id = ?", "txn_amount = ?", "txn_currency = ?")
		args = append(args, txn.Status, txn.Gateway, txn.GatewayOrderID,
			txn.GatewayPaymentID, txn.Amount, txn.Currency)
	}
	args = append(args, id)

	query := "UPDATE intents SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.Exec(query, args...); err != nil {
		r.logger.Database().Error("Intent complete update failed", "error", err.Error(), "intentId", id)
		return fmt.Errorf("failed to complete intent: %w", err)
	}
	return nil
}

// UpdateFail marks an intent failed with a reason and optional transaction.
func (r *SQLIntentRepository) UpdateFail(id, reason string, txn *intentdomain.Transaction, at time.Time) error {
	sets := []string{"status = ?", "meta_failure_reason = ?", "updated_at = ?"}
	args := []any{string(intentdomain.StatusFailed), reason, at.UTC().Format(sqliteTimeFormat)}

	if txn != nil {
		sets = append(sets,
			"txn_status = ?", "txn_gateway = ?", "txn_gateway_order_id = ?",
			"txn_gateway_payment_id = ?", "txn_amount = ?", "txn_currency = ?")
		args = append(args, txn.Status, txn.Gateway, txn.GatewayOrderID,
			txn.GatewayPaymentID, txn.Amount, txn.Currency)
	}
	args = append(args, id)

	query := "UPDATE intents SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.Exec(query, args...); err != nil {
		r.logger.Database().Error("Intent fail update failed", "error", err.Error(), "intentId", id)
		return fmt.Errorf("failed to fail intent: %w", err)
	}
	return nil
}

// ListByProfile returns a page of a profile's intents, newest first.
func (r *SQLIntentRepository) ListByProfile(profileID string, f ListFilters) ([]*intentdomain.Intent, error) {
	query := `SELECT ` + intentColumns + ` FROM intents WHERE profile_id = ?`
	args := []any{profileID}

	if f.FlowType != "" {
		query += " AND flow_type = ?"
		args = append(args, f.FlowType)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, f.Skip)

	start := time.Now()
	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Database().Error("Intent listing failed", "error", err.Error(), "profileId", profileID)
		return nil, fmt.Errorf("failed to list intents: %w", err)
	}
	defer rows.Close()

	var intents []*intentdomain.Intent
	for rows.Next() {
		i, err := scanIntent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan intent row: %w", err)
		}
		intents = append(intents, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intent rows: %w", err)
	}

	if duration := time.Since(start); duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return intents, nil
}

// StatsByProfile computes the dashboard aggregate: per-flow totals with
// completion counts, plus rolling today and this-week counts.
func (r *SQLIntentRepository) StatsByProfile(profileID string, now time.Time) (*intentdomain.Stats, error) {
	const flowQuery = `
		SELECT flow_type,
		       COUNT(*),
		       SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END)
		FROM intents
		WHERE profile_id = ?
		GROUP BY flow_type`

	rows, err := r.db.Query(flowQuery, profileID)
	if err != nil {
		r.logger.Database().Error("Intent stats query failed", "error", err.Error(), "profileId", profileID)
		return nil, fmt.Errorf("failed to compute intent stats: %w", err)
	}
	defer rows.Close()

	stats := &intentdomain.Stats{ByFlow: make(map[intentdomain.FlowType]intentdomain.FlowStats)}
	for rows.Next() {
		var flow string
		var total, completed int
		if err := rows.Scan(&flow, &total, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan intent stats row: %w", err)
		}
		stats.ByFlow[intentdomain.FlowType(flow)] = intentdomain.FlowStats{Total: total, Completed: completed}
		stats.Total += total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate intent stats rows: %w", err)
	}

	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := now.Add(-7 * 24 * time.Hour)

	const sinceQuery = `SELECT COUNT(*) FROM intents WHERE profile_id = ? AND created_at >= ?`
	if err := r.db.QueryRow(sinceQuery, profileID, dayStart.Format(sqliteTimeFormat)).Scan(&stats.Today); err != nil {
		return nil, fmt.Errorf("failed to count today's intents: %w", err)
	}
	if err := r.db.QueryRow(sinceQuery, profileID, weekStart.Format(sqliteTimeFormat)).Scan(&stats.ThisWeek); err != nil {
		return nil, fmt.Errorf("failed to count this week's intents: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntent(row rowScanner) (*intentdomain.Intent, error) {
	var (
		i                                     intentdomain.Intent
		actorType                             string
		actorID, fingerprint, sessionID       sql.NullString
		storeID, ctaLabel                     sql.NullString
		loginCompletedAt, completedAt         database.Timestamp
		enquiryID, orderID, pluginID          sql.NullString
		txnStatus, txnGateway, txnOID, txnPID sql.NullString
		txnAmount                             sql.NullFloat64
		txnCurrency                           sql.NullString
		ip, ua, referrer, device, source      sql.NullString
		utmSource, utmMedium, utmCampaign     sql.NullString
		failureReason                         sql.NullString
		createdAt, updatedAt                  database.Timestamp
	)

	err := row.Scan(
		&i.ID, &actorType, &actorID, &fingerprint, &sessionID,
		&i.ProfileID, &storeID, &i.BlockID, &i.BlockType, &i.BlockTitle,
		&i.CTAType, &ctaLabel, (*string)(&i.FlowType), (*string)(&i.Status), &i.LoginRequired, &loginCompletedAt,
		&enquiryID, &orderID, &pluginID,
		&txnStatus, &txnGateway, &txnOID, &txnPID,
		&txnAmount, &txnCurrency,
		&ip, &ua, &referrer, &device, &source,
		&utmSource, &utmMedium, &utmCampaign, &failureReason,
		&createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	switch intentdomain.ActorType(actorType) {
	case intentdomain.ActorUser:
		i.Actor = intentdomain.User{ID: actorID.String}
	default:
		i.Actor = intentdomain.Visitor{Fingerprint: openFingerprint(fingerprint.String), SessionID: sessionID.String}
	}

	i.StoreID = storeID.String
	i.CTALabel = ctaLabel.String

	if enquiryID.Valid {
		i.LinkedEnquiryID = &enquiryID.String
	}
	if orderID.Valid {
		i.LinkedOrderID = &orderID.String
	}
	if pluginID.Valid {
		i.LinkedPluginInstallID = &pluginID.String
	}

	if txnStatus.Valid || txnGateway.Valid || txnAmount.Valid {
		i.Transaction = &intentdomain.Transaction{
			Status:           txnStatus.String,
			Gateway:          txnGateway.String,
			GatewayOrderID:   txnOID.String,
			GatewayPaymentID: txnPID.String,
			Amount:           txnAmount.Float64,
			Currency:         txnCurrency.String,
		}
	}

	i.Metadata = intentdomain.Metadata{
		IP:            ip.String,
		UserAgent:     ua.String,
		Referrer:      referrer.String,
		Device:        device.String,
		Source:        source.String,
		UTMSource:     utmSource.String,
		UTMMedium:     utmMedium.String,
		UTMCampaign:   utmCampaign.String,
		FailureReason: failureReason.String,
	}

	i.CreatedAt = createdAt.Time
	i.UpdatedAt = updatedAt.Time
	i.LoginCompletedAt = loginCompletedAt.Ptr()
	i.CompletedAt = completedAt.Ptr()
	return &i, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Browser fingerprints are encrypted at rest when AES_KEY is configured.
// They are only ever stored and hydrated, never matched in SQL, so the
// random-nonce ciphertext is safe here.
func (r *SQLIntentRepository) sealFingerprint(fp string) string {
	if fp == "" || config.AESKey == "" {
		return fp
	}
	sealed, err := security.Encrypt(fp, config.AESKey)
	if err != nil {
		r.logger.Database().Error("Fingerprint encryption failed, storing plaintext", "error", err.Error())
		return fp
	}
	return sealed
}

// openFingerprint reverses sealFingerprint. Values that do not decrypt are
// returned as-is: rows written before the key was configured.
func openFingerprint(fp string) string {
	if fp == "" || config.AESKey == "" {
		return fp
	}
	opened, err := security.Decrypt(fp, config.AESKey)
	if err != nil {
		return fp
	}
	return opened
}
