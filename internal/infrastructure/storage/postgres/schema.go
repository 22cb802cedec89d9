package postgres

import (
	"context"
	"fmt"

	"shopcore/pkg/logger"
)

// schemaStatements is applied in order on startup. Statements are idempotent
// so repeated runs are safe.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sys_sequences (
		key         TEXT PRIMARY KEY,
		current_val BIGINT NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS cat_products (
		id            UUID PRIMARY KEY,
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		version       INTEGER NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by    TEXT NOT NULL DEFAULT '',
		updated_by    TEXT NOT NULL DEFAULT '',
		name          TEXT NOT NULL,
		sku           TEXT,
		description   TEXT,
		quantity      BIGINT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		cost_price    NUMERIC(18,2) NOT NULL DEFAULT 0,
		price         NUMERIC(18,2) NOT NULL DEFAULT 0
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku
		ON cat_products (sku) WHERE sku IS NOT NULL AND deletion_mark = FALSE`,

	`CREATE TABLE IF NOT EXISTS doc_vouchers (
		id               UUID PRIMARY KEY,
		deletion_mark    BOOLEAN NOT NULL DEFAULT FALSE,
		version          INTEGER NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by       TEXT NOT NULL DEFAULT '',
		updated_by       TEXT NOT NULL DEFAULT '',
		number           TEXT NOT NULL UNIQUE,
		type             TEXT NOT NULL CHECK (type IN ('import', 'export')),
		status           TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled')),
		reason           TEXT NOT NULL DEFAULT '',
		notes            TEXT NOT NULL DEFAULT '',
		total_value      NUMERIC(18,2) NOT NULL DEFAULT 0,
		order_id         UUID,
		approved_by      TEXT,
		approved_at      TIMESTAMPTZ,
		rejected_by      TEXT,
		rejected_at      TIMESTAMPTZ,
		rejection_reason TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_vouchers_status ON doc_vouchers (status)`,
	`CREATE INDEX IF NOT EXISTS idx_vouchers_order ON doc_vouchers (order_id) WHERE order_id IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS doc_voucher_lines (
		line_id      UUID PRIMARY KEY,
		voucher_id   UUID NOT NULL REFERENCES doc_vouchers (id) ON DELETE CASCADE,
		product_id   UUID NOT NULL REFERENCES cat_products (id),
		product_name TEXT NOT NULL,
		quantity     BIGINT NOT NULL CHECK (quantity > 0),
		cost_price   NUMERIC(18,2) NOT NULL DEFAULT 0,
		note         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_voucher_lines_voucher ON doc_voucher_lines (voucher_id)`,

	`CREATE TABLE IF NOT EXISTS doc_orders (
		id                  UUID PRIMARY KEY,
		deletion_mark       BOOLEAN NOT NULL DEFAULT FALSE,
		version             INTEGER NOT NULL DEFAULT 1,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by          TEXT NOT NULL DEFAULT '',
		updated_by          TEXT NOT NULL DEFAULT '',
		user_id             TEXT NOT NULL,
		payment_method      TEXT NOT NULL DEFAULT '',
		total_price         NUMERIC(18,2) NOT NULL DEFAULT 0,
		is_paid             BOOLEAN NOT NULL DEFAULT FALSE,
		paid_at             TIMESTAMPTZ,
		status              TEXT NOT NULL CHECK (status IN ('pending', 'processing', 'completed', 'cancelled')),
		ship_address        TEXT NOT NULL DEFAULT '',
		ship_city           TEXT NOT NULL DEFAULT '',
		ship_postal_code    TEXT NOT NULL DEFAULT '',
		ship_country        TEXT NOT NULL DEFAULT '',
		payment_id          TEXT,
		payment_status      TEXT,
		payment_update_time TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON doc_orders (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON doc_orders (status)`,

	`CREATE TABLE IF NOT EXISTS doc_order_items (
		order_id   UUID NOT NULL REFERENCES doc_orders (id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES cat_products (id),
		name       TEXT NOT NULL,
		price      NUMERIC(18,2) NOT NULL DEFAULT 0,
		quantity   BIGINT NOT NULL CHECK (quantity > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON doc_order_items (order_id)`,

	`CREATE TABLE IF NOT EXISTS reg_stock_history (
		id              UUID PRIMARY KEY,
		product_id      UUID NOT NULL REFERENCES cat_products (id),
		product_name    TEXT NOT NULL,
		voucher_type    TEXT NOT NULL,
		quantity_before BIGINT NOT NULL,
		quantity_change BIGINT NOT NULL,
		quantity_after  BIGINT NOT NULL CHECK (quantity_after >= 0),
		voucher_id      UUID NOT NULL,
		voucher_number  TEXT NOT NULL,
		order_id        UUID,
		reason          TEXT NOT NULL DEFAULT '',
		created_by      TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_history_product ON reg_stock_history (product_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_history_voucher ON reg_stock_history (voucher_id)`,

	`CREATE TABLE IF NOT EXISTS fin_transactions (
		id               UUID PRIMARY KEY,
		deletion_mark    BOOLEAN NOT NULL DEFAULT FALSE,
		version          INTEGER NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by       TEXT NOT NULL DEFAULT '',
		updated_by       TEXT NOT NULL DEFAULT '',
		number           TEXT NOT NULL UNIQUE,
		type             TEXT NOT NULL CHECK (type IN ('income', 'expense')),
		category         TEXT NOT NULL CHECK (category IN ('order', 'stock')),
		amount           NUMERIC(18,2) NOT NULL CHECK (amount >= 0),
		description      TEXT NOT NULL,
		payment_method   TEXT NOT NULL DEFAULT '',
		order_id         UUID,
		voucher_id       UUID,
		customer_id      TEXT,
		transaction_date TIMESTAMPTZ NOT NULL,
		auto_created     BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON fin_transactions (transaction_date DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_order_income
		ON fin_transactions (order_id) WHERE auto_created AND type = 'income'`,

	`CREATE TABLE IF NOT EXISTS pay_sessions (
		id         UUID PRIMARY KEY,
		order_id   UUID NOT NULL REFERENCES doc_orders (id),
		amount     NUMERIC(18,2) NOT NULL,
		method     TEXT NOT NULL,
		status     TEXT NOT NULL CHECK (status IN ('open', 'paid', 'failed', 'expired')),
		gateway_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pay_sessions_order ON pay_sessions (order_id, status)`,

	`CREATE TABLE IF NOT EXISTS sys_users (
		id                    UUID PRIMARY KEY,
		email                 TEXT NOT NULL,
		password_hash         TEXT NOT NULL,
		name                  TEXT NOT NULL DEFAULT '',
		is_active             BOOLEAN NOT NULL DEFAULT TRUE,
		is_admin              BOOLEAN NOT NULL DEFAULT FALSE,
		last_login_at         TIMESTAMPTZ,
		failed_login_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until          TIMESTAMPTZ,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at            TIMESTAMPTZ,
		version               INTEGER NOT NULL DEFAULT 1,
		roles                 TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email
		ON sys_users (email) WHERE deleted_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS sys_refresh_tokens (
		id             UUID PRIMARY KEY,
		user_id        UUID NOT NULL REFERENCES sys_users (id),
		token_hash     TEXT NOT NULL UNIQUE,
		expires_at     TIMESTAMPTZ NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		revoked_at     TIMESTAMPTZ,
		revoked_reason TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS sys_audit (
		id                 UUID PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          UUID NOT NULL,
		action             TEXT NOT NULL,
		user_id            TEXT NOT NULL DEFAULT '',
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_entity ON sys_audit (entity_type, entity_id, created_at DESC)`,
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	logger.Info(ctx, "database schema up to date")
	return nil
}
