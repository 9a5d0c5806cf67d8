package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		name          VARCHAR(50)  NOT NULL,
		email         VARCHAR(255) NOT NULL,
		password_hash TEXT         NOT NULL,
		role          VARCHAR(10)  NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
		is_active     BOOLEAN      NOT NULL DEFAULT TRUE,
		last_login    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email))`,
	`CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS products (
		id             UUID PRIMARY KEY,
		name           VARCHAR(100)   NOT NULL,
		description    VARCHAR(1000)  NOT NULL,
		price          NUMERIC(12, 2) NOT NULL CHECK (price >= 0.01),
		category       VARCHAR(20)    NOT NULL
			CHECK (category IN ('electronics', 'clothing', 'books', 'home', 'sports', 'other')),
		stock          INTEGER        NOT NULL DEFAULT 0 CHECK (stock >= 0),
		images         TEXT[]         NOT NULL DEFAULT '{}',
		brand          VARCHAR(50)    NOT NULL DEFAULT '',
		tags           TEXT[]         NOT NULL DEFAULT '{}',
		specifications JSONB,
		rating_average DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (rating_average BETWEEN 0 AND 5),
		rating_count   INTEGER        NOT NULL DEFAULT 0 CHECK (rating_count >= 0),
		is_active      BOOLEAN        NOT NULL DEFAULT TRUE,
		created_by     BIGINT         NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		created_at     TIMESTAMPTZ    NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ    NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS products_search_idx
		ON products USING GIN (to_tsvector('simple', name || ' ' || description))`,
	`CREATE INDEX IF NOT EXISTS products_category_idx ON products (category)`,
	`CREATE INDEX IF NOT EXISTS products_price_idx ON products (price)`,
	`CREATE INDEX IF NOT EXISTS products_created_by_idx ON products (created_by)`,
	`CREATE INDEX IF NOT EXISTS products_active_created_idx ON products (is_active, created_at DESC)`,
}

// Migrate creates the tables and indexes the repositories rely on.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
