/*
Package sqlite provides a SQLite-backed ledger.SnapshotStore.

PURPOSE:
  Persists the shop snapshot (products, partners, employees, transactions)
  in relational tables so the data is inspectable with plain SQL, while
  keeping the snapshot store's whole-state overwrite contract.

KEY TABLES:
  products:      Catalog, one row per product
  partners:      Customers and suppliers with running balance
  employees:     Staff
  transactions:  Ledger entries; line items as JSON, newest first by position

OVERWRITE CONTRACT:
  Save() replaces every row inside one SQL transaction. Either the whole new
  snapshot is visible or the old one is; there is no torn state where stock
  is updated but the ledger entry is missing.

ABSENT VALUES:
  Optional fields (barcode, image, partner, employee, payment method, note,
  profit) are written as NULL when absent and read back as Go zero values.
  Money is stored as decimal TEXT, never REAL.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and a single connection,
  which also keeps ":memory:" databases on one shared connection.

USAGE:
  store, err := sqlite.New("./data/pos.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  book := ledger.NewBook(engine, store, logger)

SEE ALSO:
  - ledger/store.go: SnapshotStore interface
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/ziyobook/pos-ledger/ledger"
	"github.com/ziyobook/pos-ledger/pos"
)

// Store implements ledger.SnapshotStore using SQLite.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	subs ledger.Subscribers
}

var _ ledger.SnapshotStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price_buy TEXT NOT NULL,
		price_sell TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		min_stock INTEGER NOT NULL DEFAULT 0,
		barcode TEXT,
		image_url TEXT,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_barcode
		ON products(barcode) WHERE barcode IS NOT NULL;

	CREATE TABLE IF NOT EXISTS partners (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		partner_type TEXT NOT NULL,
		balance TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	-- Ledger, newest first by position
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		items_json TEXT,
		partner_id TEXT,
		employee_id TEXT,
		payment_method TEXT,
		note TEXT,
		profit TEXT,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_position
		ON transactions(position);
	CREATE INDEX IF NOT EXISTS idx_transactions_partner
		ON transactions(partner_id) WHERE partner_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_type
		ON transactions(tx_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOT STORE (ledger.SnapshotStore interface)
// =============================================================================

// Load reads the whole snapshot. An empty database yields an empty snapshot.
func (s *Store) Load(ctx context.Context) (pos.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := pos.EmptySnapshot()
	var err error
	if snap.Products, err = s.loadProducts(ctx); err != nil {
		return pos.Snapshot{}, err
	}
	if snap.Partners, err = s.loadPartners(ctx); err != nil {
		return pos.Snapshot{}, err
	}
	if snap.Employees, err = s.loadEmployees(ctx); err != nil {
		return pos.Snapshot{}, err
	}
	if snap.Transactions, err = s.loadTransactions(ctx); err != nil {
		return pos.Snapshot{}, err
	}
	return snap, nil
}

// Save replaces the stored snapshot atomically, then notifies subscribers.
func (s *Store) Save(ctx context.Context, snap pos.Snapshot) error {
	if err := s.save(ctx, snap); err != nil {
		return err
	}
	s.subs.Notify(snap)
	return nil
}

func (s *Store) save(ctx context.Context, snap pos.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := clearTables(ctx, sqlTx); err != nil {
		return err
	}
	for i, p := range snap.Products {
		if err := insertProduct(ctx, sqlTx, p, i); err != nil {
			return err
		}
	}
	for i, p := range snap.Partners {
		if err := insertPartner(ctx, sqlTx, p, i); err != nil {
			return err
		}
	}
	for i, e := range snap.Employees {
		if err := insertEmployee(ctx, sqlTx, e, i); err != nil {
			return err
		}
	}
	for i, tx := range snap.Transactions {
		if err := insertTransaction(ctx, sqlTx, tx, i); err != nil {
			return err
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Subscribe registers fn for snapshots saved through this Store.
func (s *Store) Subscribe(fn func(pos.Snapshot)) func() {
	return s.subs.Add(fn)
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clearTables(ctx, s.db)
}

// =============================================================================
// WRITES
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func clearTables(ctx context.Context, db execer) error {
	for _, table := range []string{"transactions", "products", "partners", "employees"} {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func insertProduct(ctx context.Context, db execer, p pos.Product, position int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO products
		(id, name, category, price_buy, price_sell, stock, min_stock, barcode, image_url, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category,
		p.PriceBuy.String(), p.PriceSell.String(),
		p.Stock, p.MinStock,
		nullString(p.Barcode), nullString(p.ImageURL),
		position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
	}
	return nil
}

func insertPartner(ctx context.Context, db execer, p pos.Partner, position int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO partners (id, name, phone, partner_type, balance, position)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Phone, p.Type, p.Balance.String(), position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert partner %s: %w", p.ID, err)
	}
	return nil
}

func insertEmployee(ctx context.Context, db execer, e pos.Employee, position int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO employees (id, name, role, phone, salary, position)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Role, e.Phone, e.Salary.String(), position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert employee %s: %w", e.ID, err)
	}
	return nil
}

func insertTransaction(ctx context.Context, db execer, tx pos.Transaction, position int) error {
	var items sql.NullString
	if len(tx.Items) > 0 {
		raw, err := json.Marshal(tx.Items)
		if err != nil {
			return fmt.Errorf("failed to encode items of %s: %w", tx.ID, err)
		}
		items = sql.NullString{String: string(raw), Valid: true}
	}
	var profit sql.NullString
	if tx.Profit != nil {
		profit = sql.NullString{String: tx.Profit.String(), Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions
		(id, date, tx_type, total_amount, items_json, partner_id, employee_id,
		 payment_method, note, profit, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID,
		tx.Date.UTC().Format(time.RFC3339Nano),
		tx.Type,
		tx.TotalAmount.String(),
		items,
		nullString(string(tx.PartnerID)),
		nullString(string(tx.EmployeeID)),
		nullString(string(tx.PaymentMethod)),
		nullString(tx.Note),
		profit,
		position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", tx.ID, err)
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) loadProducts(ctx context.Context) ([]pos.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, price_buy, price_sell, stock, min_stock, barcode, image_url
		FROM products ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []pos.Product{}
	for rows.Next() {
		var (
			p                   pos.Product
			priceBuy, priceSell string
			barcode, imageURL   sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &priceBuy, &priceSell,
			&p.Stock, &p.MinStock, &barcode, &imageURL); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		if p.PriceBuy, err = parseDecimal(priceBuy); err != nil {
			return nil, err
		}
		if p.PriceSell, err = parseDecimal(priceSell); err != nil {
			return nil, err
		}
		p.Barcode = barcode.String
		p.ImageURL = imageURL.String
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) loadPartners(ctx context.Context) ([]pos.Partner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, partner_type, balance
		FROM partners ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query partners: %w", err)
	}
	defer rows.Close()

	partners := []pos.Partner{}
	for rows.Next() {
		var (
			p       pos.Partner
			balance string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.Type, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan partner: %w", err)
		}
		if p.Balance, err = parseDecimal(balance); err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

func (s *Store) loadEmployees(ctx context.Context) ([]pos.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, phone, salary
		FROM employees ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []pos.Employee{}
	for rows.Next() {
		var (
			e      pos.Employee
			salary string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Role, &e.Phone, &salary); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		if e.Salary, err = parseDecimal(salary); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) loadTransactions(ctx context.Context) ([]pos.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, tx_type, total_amount, items_json, partner_id, employee_id,
		       payment_method, note, profit
		FROM transactions ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []pos.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (pos.Transaction, error) {
	var (
		tx            pos.Transaction
		date          string
		total         string
		itemsJSON     sql.NullString
		partnerID     sql.NullString
		employeeID    sql.NullString
		paymentMethod sql.NullString
		note          sql.NullString
		profit        sql.NullString
	)

	err := rows.Scan(&tx.ID, &date, &tx.Type, &total, &itemsJSON,
		&partnerID, &employeeID, &paymentMethod, &note, &profit)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if tx.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
		return tx, fmt.Errorf("transaction %s: bad date %q: %w", tx.ID, date, err)
	}
	if tx.TotalAmount, err = parseDecimal(total); err != nil {
		return tx, err
	}
	if itemsJSON.Valid && itemsJSON.String != "" {
		if err := json.Unmarshal([]byte(itemsJSON.String), &tx.Items); err != nil {
			return tx, fmt.Errorf("transaction %s: bad items: %w", tx.ID, err)
		}
	}
	tx.PartnerID = pos.PartnerID(partnerID.String)
	tx.EmployeeID = pos.EmployeeID(employeeID.String)
	tx.PaymentMethod = pos.PaymentMethod(paymentMethod.String)
	tx.Note = note.String
	if profit.Valid {
		p, err := parseDecimal(profit.String)
		if err != nil {
			return tx, err
		}
		tx.Profit = &p
	}

	return tx, nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad decimal %q: %w", s, err)
	}
	return d, nil
}
