package repos

import (
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

// OpenDB connects with the given driver ("sqlite" or "pgx"), ensures the
// schema and seeds baseline data. Safe to call on every start.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	if err := seedFlags(db); err != nil {
		return nil, err
	}
	return db, nil
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name))`,

	`CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  discount_percent NUMERIC CHECK (discount_percent IS NULL OR (discount_percent >= 0 AND discount_percent <= 100)),
  stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
  in_stock BOOLEAN NOT NULL DEFAULT FALSE,
  requires_prescription BOOLEAN NOT NULL DEFAULT FALSE,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id)`,
	`CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)`,
	`CREATE INDEX IF NOT EXISTS idx_products_name_lower ON products(LOWER(name))`,

	`CREATE TABLE IF NOT EXISTS daily_sales(
  id TEXT PRIMARY KEY,
  sale_date TEXT NOT NULL,
  products_sold TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_sales_date ON daily_sales(sale_date)`,

	`CREATE TABLE IF NOT EXISTS monthly_reports(
  id TEXT PRIMARY KEY,
  month TEXT NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT NOT NULL,
  total_sales TEXT NOT NULL,
  products_sold TEXT NOT NULL,
  most_sold_product TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_monthly_reports_month ON monthly_reports(month)`,

	`CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT NOT NULL DEFAULT '',
  last_seen TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id)`,

	`CREATE TABLE IF NOT EXISTS notifications(
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  action_url TEXT NOT NULL DEFAULT '',
  is_read BOOLEAN NOT NULL DEFAULT FALSE,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  request_id TEXT NOT NULL DEFAULT '',
  reminder_date TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS medicine_requests(
  id TEXT PRIMARY KEY,
  customer_name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  medicine_name TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','in_progress','resolved')),
  notes TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_medicine_requests_status ON medicine_requests(status, created_at)`,

	`CREATE TABLE IF NOT EXISTS unavailable_medicines(
  medicine_name TEXT PRIMARY KEY,
  search_count INTEGER NOT NULL DEFAULT 0,
  first_searched_at TEXT NOT NULL DEFAULT '',
  last_searched_at TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','in_progress','resolved'))
)`,

	`CREATE TABLE IF NOT EXISTS feature_flags(
  name TEXT PRIMARY KEY,
  enabled BOOLEAN NOT NULL DEFAULT TRUE,
  updated_at TEXT NOT NULL DEFAULT ''
)`,

	`CREATE TABLE IF NOT EXISTS carts(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS cart_items(
  cart_id    TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  qty INTEGER NOT NULL CHECK (qty >= 1),
  price_at_add NUMERIC NOT NULL,
  created_at TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (cart_id, product_id)
)`,

	`CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  payment_method TEXT NOT NULL DEFAULT 'cod',
  total NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'PLACED',
  created_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items(
  order_id  TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  product_name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  PRIMARY KEY (order_id, product_id)
)`,

	`CREATE TABLE IF NOT EXISTS wishlists(
  id TEXT PRIMARY KEY,
  session_id TEXT UNIQUE NOT NULL,
  updated_at TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS wishlist_items(
  wishlist_id TEXT NOT NULL REFERENCES wishlists(id) ON DELETE CASCADE,
  product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE RESTRICT,
  created_at  TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (wishlist_id, product_id)
)`,
}

func ensureSchema(db *sqlx.DB) error {
	if db.DriverName() == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return err
		}
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products")

	ts := now()
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cats := [][2]string{
		{"pain-relief", "Pain Relief"},
		{"cold-flu", "Cold & Flu"},
		{"vitamins", "Vitamins & Supplements"},
		{"first-aid", "First Aid"},
		{"antibiotics", "Antibiotics"},
	}
	for _, c := range cats {
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO categories(id,name,created_at) VALUES(?,?,?)`), c[0], c[1], ts); err != nil {
			return err
		}
	}

	type p struct {
		id, cat, name, desc, price, discount string
		qty                                  int
		rx                                   bool
	}
	prods := []p{
		{"paracetamol-500", "pain-relief", "Paracetamol 500mg", "Strip of 10 tablets", "2.50", "", 120, false},
		{"ibuprofen-400", "pain-relief", "Ibuprofen 400mg", "Strip of 10 tablets", "4.75", "", 60, false},
		{"cetirizine-10", "cold-flu", "Cetirizine 10mg", "Antihistamine, strip of 10", "3.20", "", 5, false},
		{"vitamin-c-1000", "vitamins", "Vitamin C 1000mg", "Effervescent, tube of 20", "8.99", "", 0, false},
		{"bandage-roll", "first-aid", "Elastic Bandage Roll", "7.5cm x 4m", "5.00", "10", 25, false},
		{"amoxicillin-500", "antibiotics", "Amoxicillin 500mg", "Capsules, strip of 10", "12.40", "", 30, true},
	}
	for _, x := range prods {
		var discount any
		if x.discount != "" {
			discount = x.discount
		}
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO products(id,category_id,name,description,price,discount_percent,stock_quantity,in_stock,requires_prescription,active,created_at)
			VALUES(?,?,?,?,?,?,?,?,?,?,?)`),
			x.id, x.cat, x.name, x.desc, x.price, discount, x.qty, x.qty > 0, x.rx, true, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// seedUsers ensures the demo customers and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM users`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) (u, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}, err
	}
	specs := [][4]string{
		{"u-alice", "alice@medicart.test", "Alice", "USER"},
		{"u-bob", "bob@medicart.test", "Bob", "USER"},
		{"u-admin", "admin@medicart.test", "Admin", "ADMIN"},
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ts := now()
	for _, s := range specs {
		x, err := mk(s[0], s[1], s[2], s[3], "Passw0rd!")
		if err != nil {
			return err
		}
		if _, err := tx.Exec(tx.Rebind(`
			INSERT INTO users(id,email,name,password_hash,role,created_at)
			VALUES(?,?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`), x.ID, x.Email, x.Name, x.Hash, x.Role, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DefaultFlags mirrors the storefront's feature switches.
var DefaultFlags = []string{
	"advancedSearch", "productComparison", "stockStatus", "reviews",
	"quickAddToCart", "wishlist", "recentlyViewed", "bulkOrder",
}

func seedFlags(db *sqlx.DB) error {
	ts := now()
	for _, name := range DefaultFlags {
		if _, err := db.Exec(db.Rebind(`
			INSERT INTO feature_flags(name, enabled, updated_at) VALUES(?, ?, ?)
			ON CONFLICT(name) DO NOTHING
		`), name, true, ts); err != nil {
			return err
		}
	}
	return nil
}
