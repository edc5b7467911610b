package repos

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"canteen/internal/domain"
)

// OpenDB connects to sqlite (default) or PostgreSQL via pgx, creates the
// schema and optionally seeds demo data.
func OpenDB(driver, dsn string, seed bool) (*sqlx.DB, error) {
	if driver == "" {
		driver = "sqlite"
	}
	var schema string
	switch driver {
	case "sqlite":
		schema = sqliteSchema
	case "pgx":
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// One connection serializes writers and keeps ":memory:" databases
		// shared by every caller.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db, schema); err != nil {
		return nil, err
	}
	if !seed {
		return db, nil
	}
	// Seed menu only if the catalog is empty
	if err := seedMenuIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	return db, nil
}

// InTx runs fn in one transaction. The transaction commits only when fn
// returns nil; readers never observe a partial write.
func InTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrTransactionFailed, err)
	}
	return nil
}

func ensureSchema(db *sqlx.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

const sqliteSchema = `
PRAGMA foreign_keys = ON;

-- Products (menu)
CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,                 -- exact decimal, 2 places
  category TEXT NOT NULL,
  image_url TEXT,
  is_available INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','confirmed','completed','cancelled')),
  total_amount TEXT NOT NULL,
  payment_method TEXT NOT NULL CHECK (payment_method IN ('cod','gpay')),
  payment_status TEXT NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending','paid')),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

-- product_id is not a foreign key: items keep their own snapshot
CREATE TABLE IF NOT EXISTS order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL,
  product_name TEXT NOT NULL,
  product_category TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price_at_time TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  mobile TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('student','admin')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS products(
  id BIGSERIAL PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
  category TEXT NOT NULL,
  image_url TEXT,
  is_available BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

CREATE TABLE IF NOT EXISTS orders(
  id BIGSERIAL PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','confirmed','completed','cancelled')),
  total_amount NUMERIC(10,2) NOT NULL,
  payment_method TEXT NOT NULL CHECK (payment_method IN ('cod','gpay')),
  payment_status TEXT NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending','paid')),
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  id BIGSERIAL PRIMARY KEY,
  order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id BIGINT NOT NULL,
  product_name TEXT NOT NULL,
  product_category TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  price_at_time NUMERIC(10,2) NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  mobile TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('student','admin')),
  created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TIMESTAMPTZ DEFAULT NOW(),
  last_seen TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)
`

func seedMenuIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo menu")

	now := domain.Timestamp(time.Now())
	menu := []struct{ name, desc, price, cat string }{
		{"Masala Dosa", "Crisp dosa with potato filling, chutney and sambar", "60.00", "Breakfast"},
		{"Idli Vada", "Two idlis and one vada", "45.00", "Breakfast"},
		{"Veg Thali", "Rice, two curries, dal, roti and curd", "90.00", "Meals"},
		{"Veg Sandwich", "Grilled sandwich with cheese", "50.00", "Snacks"},
		{"Samosa", "Two samosas with green chutney", "30.00", "Snacks"},
		{"Cold Coffee", "Chilled coffee with ice cream", "40.00", "Beverages"},
		{"Masala Chai", "", "15.00", "Beverages"},
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()
	for _, m := range menu {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO products(name, description, price, category, is_available, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`), m.name, m.desc, m.price, m.cat, true, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// seedUsers ensures one admin and two students exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Mobile, Name, Hash string
		Role                   domain.Role
	}
	mk := func(id, mobile, name string, role domain.Role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Mobile: mobile, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-admin", "9000000001", "Canteen Staff", domain.RoleAdmin, "Passw0rd!"),
		mk("u-asha", "9000000002", "Asha", domain.RoleStudent, "Passw0rd!"),
		mk("u-ravi", "9000000003", "Ravi", domain.RoleStudent, "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO users(id,mobile,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(mobile) DO NOTHING
		`), x.ID, x.Mobile, x.Name, x.Hash, string(x.Role)); err != nil {
			return err
		}
	}

	return tx.Commit()
}
