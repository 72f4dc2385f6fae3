package db

import "context"

// Schema is applied on startup and by the seed command. Every statement is
// idempotent so repeated runs are safe.
const Schema = `
CREATE TABLE IF NOT EXISTS menu_items (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	price BIGINT NOT NULL,
	available BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS menu_item_sizes (
	id BIGSERIAL PRIMARY KEY,
	menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
	size TEXT NOT NULL,
	size_name TEXT NOT NULL,
	price_diff BIGINT NOT NULL DEFAULT 0,
	available BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (menu_item_id, size)
);

CREATE TABLE IF NOT EXISTS modifiers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	price BIGINT NOT NULL DEFAULT 0,
	is_available BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order INT NOT NULL DEFAULT 0,
	UNIQUE (name, category)
);

CREATE TABLE IF NOT EXISTS menu_item_modifiers (
	menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
	modifier_id BIGINT NOT NULL REFERENCES modifiers(id),
	PRIMARY KEY (menu_item_id, modifier_id)
);

CREATE TABLE IF NOT EXISTS orders (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	user_name TEXT NOT NULL,
	total BIGINT NOT NULL,
	pickup_time TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS order_items (
	id BIGSERIAL PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id),
	menu_item_id BIGINT NOT NULL,
	name TEXT NOT NULL,
	price BIGINT NOT NULL,
	quantity INT NOT NULL,
	size TEXT NOT NULL DEFAULT '',
	size_name TEXT NOT NULL DEFAULT '',
	modifier_ids BIGINT[] NOT NULL DEFAULT '{}',
	modifier_names TEXT[] NOT NULL DEFAULT '{}',
	modifiers_price BIGINT NOT NULL DEFAULT 0,
	comment TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS favorites (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, menu_item_id)
);

CREATE TABLE IF NOT EXISTS loyalty (
	user_id BIGINT PRIMARY KEY,
	points BIGINT NOT NULL DEFAULT 0,
	stamps INT NOT NULL DEFAULT 0,
	total_orders BIGINT NOT NULL DEFAULT 0,
	total_spent BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS points_history (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES loyalty(user_id),
	amount BIGINT NOT NULL,
	operation TEXT NOT NULL,
	order_id BIGINT,
	description TEXT NOT NULL DEFAULT '',
	refunded BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
CREATE INDEX IF NOT EXISTS idx_points_history_user ON points_history(user_id);
CREATE INDEX IF NOT EXISTS idx_points_history_order ON points_history(user_id, order_id);
CREATE INDEX IF NOT EXISTS idx_modifiers_category ON modifiers(category);
`

// EnsureSchema creates all tables if they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, Schema)
	return err
}
