// Package storage implements the data access layer over database/sql.
// Production runs against PostgreSQL; tests and local tooling can open
// an in-memory SQLite database instead.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"expense-api/internal/models"

	"github.com/lib/pq"

	// sqlite driver for tests and local tooling
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a row does not exist, or exists but
	// is not owned by the requesting user.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("storage: duplicate")
)

// Seed categories, matching the reference data the dashboard expects.
var categoryNames = []string{
	"Utilities",
	"Entertainment",
	"Transportation",
	"Healthcare",
	"Insurance",
	"Salaries and Wages",
	"Marketing",
	"Infrastructure",
	"Inventory",
	"Research and Development",
	"Other",
}

// DB wraps a sql.DB connection.
type DB struct {
	conn   *sql.DB
	driver string
}

// NewDB opens a database connection, runs migrations, and seeds the
// category table on first use. Supported drivers: "postgres", "sqlite".
func NewDB(driver, dsn string) (*DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

var migrations = map[string][]string{
	"postgres": {
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			category_id INTEGER REFERENCES categories(id),
			company_name TEXT NOT NULL DEFAULT '',
			amount DOUBLE PRECISION NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			receipt_url TEXT,
			expense_date TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
	"sqlite": {
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			category_id INTEGER REFERENCES categories(id),
			company_name TEXT NOT NULL DEFAULT '',
			amount REAL NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			receipt_url TEXT,
			expense_date TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	},
}

func (db *DB) migrate() error {
	stmts, ok := migrations[db.driver]
	if !ok {
		return fmt.Errorf("unsupported driver %q", db.driver)
	}

	for _, m := range stmts {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return db.seedCategories()
}

func (db *DB) seedCategories() error {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, name := range categoryNames {
		if _, err := db.conn.Exec("INSERT INTO categories (name) VALUES ($1)", name); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// isUniqueViolation recognizes unique-constraint errors from both drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateExpense inserts a new expense row and returns its generated id.
func (db *DB) CreateExpense(e *models.Expense) (int64, error) {
	var id int64
	err := db.conn.QueryRow(
		`INSERT INTO expenses (user_id, category_id, company_name, amount, description, notes, receipt_url, expense_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		e.UserID, e.CategoryID, e.CompanyName, e.Amount, e.Description, e.Notes, e.ReceiptURL, e.ExpenseDate,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetExpense retrieves a single expense by id.
func (db *DB) GetExpense(id int64) (*models.Expense, error) {
	row := db.conn.QueryRow(
		`SELECT id, user_id, category_id, company_name, amount, description, notes, receipt_url, expense_date
		 FROM expenses WHERE id = $1`,
		id,
	)

	var e models.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.CompanyName, &e.Amount, &e.Description, &e.Notes, &e.ReceiptURL, &e.ExpenseDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListExpensesByUser retrieves all expenses for a user joined with their
// category name, newest expense date first. Expenses without a category
// get the "Uncategorized" placeholder.
func (db *DB) ListExpensesByUser(userID int64) ([]models.ExpenseWithCategory, error) {
	rows, err := db.conn.Query(
		`SELECT e.id, e.user_id, e.category_id, e.company_name, e.amount, e.description, e.notes,
		        e.receipt_url, e.expense_date, COALESCE(c.name, 'Uncategorized')
		 FROM expenses e
		 LEFT JOIN categories c ON e.category_id = c.id
		 WHERE e.user_id = $1
		 ORDER BY e.expense_date DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []models.ExpenseWithCategory{}
	for rows.Next() {
		var e models.ExpenseWithCategory
		if err := rows.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.CompanyName, &e.Amount, &e.Description,
			&e.Notes, &e.ReceiptURL, &e.ExpenseDate, &e.CategoryName); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// UpdateExpense replaces the mutable fields of an expense. The predicate
// requires both expense id and owning user id; the returned count lets
// callers distinguish "not found or not owner" from success.
func (db *DB) UpdateExpense(e *models.Expense) (int64, error) {
	result, err := db.conn.Exec(
		`UPDATE expenses
		 SET category_id = $1, company_name = $2, amount = $3, description = $4, notes = $5,
		     receipt_url = $6, expense_date = $7
		 WHERE id = $8 AND user_id = $9`,
		e.CategoryID, e.CompanyName, e.Amount, e.Description, e.Notes, e.ReceiptURL, e.ExpenseDate,
		e.ID, e.UserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteExpense removes an expense owned by the given user and returns
// the number of rows affected.
func (db *DB) DeleteExpense(id, userID int64) (int64, error) {
	result, err := db.conn.Exec(
		"DELETE FROM expenses WHERE id = $1 AND user_id = $2",
		id, userID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListCategories retrieves all categories.
func (db *DB) ListCategories() ([]models.Category, error) {
	rows, err := db.conn.Query("SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// CreateUser creates a new user. It returns ErrDuplicate when the email
// is already registered.
func (db *DB) CreateUser(email, passwordHash, firstName, lastName string) (*models.User, error) {
	var id int64
	err := db.conn.QueryRow(
		`INSERT INTO users (email, password_hash, first_name, last_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		email, passwordHash, firstName, lastName,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by id.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE id = $1",
		id,
	))
}

// GetUserByEmail retrieves a user by email. It returns ErrNotFound when
// no such user exists; callers decide how much of that to reveal.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE email = $1",
		email,
	))
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
