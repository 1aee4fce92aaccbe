package database

import "fmt"

// TableCreator handles the creation of the TapX database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build tables and indexes.
// Every statement is idempotent so the creator can run on every startup.
func (tc *TableCreator) CreateSchema(db *DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		username TEXT NOT NULL UNIQUE,
		store_id TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id),
		block_type TEXT NOT NULL,
		title TEXT NOT NULL,
		cta_type TEXT NOT NULL DEFAULT 'none',
		cta_label TEXT,
		requires_login INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		clicks INTEGER NOT NULL DEFAULT 0,
		conversions INTEGER NOT NULL DEFAULT 0,
		enquiries INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS intents (
		id TEXT PRIMARY KEY,
		actor_type TEXT NOT NULL,
		actor_id TEXT,
		visitor_fingerprint TEXT,
		session_id TEXT,
		profile_id TEXT NOT NULL,
		store_id TEXT,
		block_id TEXT NOT NULL,
		block_type TEXT NOT NULL,
		block_title TEXT NOT NULL,
		cta_type TEXT NOT NULL,
		cta_label TEXT,
		flow_type TEXT NOT NULL,
		status TEXT NOT NULL,
		login_required INTEGER NOT NULL DEFAULT 0,
		login_completed_at TIMESTAMP,
		linked_enquiry_id TEXT,
		linked_order_id TEXT,
		linked_plugin_install_id TEXT,
		txn_status TEXT,
		txn_gateway TEXT,
		txn_gateway_order_id TEXT,
		txn_gateway_payment_id TEXT,
		txn_amount REAL,
		txn_currency TEXT,
		meta_ip TEXT,
		meta_user_agent TEXT,
		meta_referrer TEXT,
		meta_device TEXT,
		meta_source TEXT,
		meta_utm_source TEXT,
		meta_utm_medium TEXT,
		meta_utm_campaign TEXT,
		meta_failure_reason TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS journey_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		profile_id TEXT NOT NULL,
		visitor_id TEXT,
		visitor_email TEXT,
		enquiry_id TEXT,
		event_type TEXT NOT NULL,
		block_id TEXT,
		event_data TEXT,
		device_type TEXT,
		browser TEXT,
		os TEXT,
		country TEXT,
		city TEXT,
		referrer TEXT,
		utm_source TEXT,
		utm_medium TEXT,
		utm_campaign TEXT,
		created_at TIMESTAMP NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS enquiries (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id),
		seller_id TEXT NOT NULL,
		block_id TEXT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		message TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id),
		intent_id TEXT,
		amount REAL NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_profiles_user_id ON profiles(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_blocks_profile_id ON blocks(profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_intents_profile_id ON intents(profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_intents_profile_status ON intents(profile_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_intents_created_at ON intents(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_journey_events_session ON journey_events(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_journey_events_profile ON journey_events(profile_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_journey_events_enquiry ON journey_events(enquiry_id)`,
	`CREATE INDEX IF NOT EXISTS idx_journey_events_email ON journey_events(visitor_email)`,
	`CREATE INDEX IF NOT EXISTS idx_enquiries_profile_id ON enquiries(profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_profile_id ON orders(profile_id)`,
}
