package postgres

import (
	"context"
	"database/sql"

	"chama-backend/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id SERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	phone_number TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	created_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS groups (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_by_id INTEGER NOT NULL REFERENCES users(id),
	created_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS group_members (
	group_id INTEGER NOT NULL REFERENCES groups(id),
	user_id INTEGER NOT NULL REFERENCES users(id),
	role_name TEXT NOT NULL DEFAULT 'member',
	joined_on TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS goals (
	id SERIAL PRIMARY KEY,
	group_id INTEGER NOT NULL REFERENCES groups(id),
	created_by_id INTEGER NOT NULL REFERENCES users(id),
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	target_amount NUMERIC(14,2) NOT NULL CHECK (target_amount > 0),
	deadline TIMESTAMPTZ NOT NULL,
	treasurer_approved BOOLEAN NOT NULL DEFAULT FALSE,
	secretary_approved BOOLEAN NOT NULL DEFAULT FALSE,
	chairperson_approved BOOLEAN NOT NULL DEFAULT FALSE,
	status TEXT NOT NULL,
	rejection_reason TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS transactions (
	id SERIAL PRIMARY KEY,
	group_id INTEGER NOT NULL REFERENCES groups(id),
	user_id INTEGER NOT NULL REFERENCES users(id),
	created_by_id INTEGER NOT NULL REFERENCES users(id),
	amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
	transaction_type TEXT NOT NULL,
	status TEXT NOT NULL,
	payment_method TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	treasurer_approved BOOLEAN NOT NULL DEFAULT FALSE,
	secretary_approved BOOLEAN NOT NULL DEFAULT FALSE,
	chairperson_approved BOOLEAN NOT NULL DEFAULT FALSE,
	created_by_treasurer BOOLEAN NOT NULL DEFAULT FALSE,
	is_manual_entry BOOLEAN NOT NULL DEFAULT FALSE,
	rejection_reason TEXT NOT NULL DEFAULT '',
	goal_id INTEGER REFERENCES goals(id),
	required_guarantee_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	guarantor_share NUMERIC(14,2) NOT NULL DEFAULT 0,
	user_savings NUMERIC(14,2) NOT NULL DEFAULT 0,
	max_loan_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
	duration INTEGER NOT NULL DEFAULT 0,
	version INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	CHECK (NOT secretary_approved OR treasurer_approved),
	CHECK (NOT chairperson_approved OR secretary_approved)
);

CREATE INDEX IF NOT EXISTS idx_transactions_group ON transactions(group_id, transaction_type, status);
CREATE INDEX IF NOT EXISTS idx_transactions_goal ON transactions(goal_id) WHERE goal_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS transaction_guarantors (
	transaction_id INTEGER NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id),
	email TEXT NOT NULL DEFAULT '',
	has_approved BOOLEAN NOT NULL DEFAULT FALSE,
	approved_at TIMESTAMPTZ,
	PRIMARY KEY (transaction_id, user_id)
);

CREATE TABLE IF NOT EXISTS notifications (
	id SERIAL PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	group_id INTEGER NOT NULL REFERENCES groups(id),
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	attributes JSONB,
	created_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_on DESC);
`

// Migrate creates the schema when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("MIGRATE", "schema")
	_, err := db.ExecContext(ctx, schema)
	logger.DatabaseResult("MIGRATE", 0, err)
	return err
}
