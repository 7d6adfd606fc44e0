package repos

import (
	"errors"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"marktplatz/internal/validate"
)

// OpenDB opens the local SQLite store. It only holds dashboard admins and their
// sessions; offers and categories live on the record backend.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

// ErrWeakAdminPassword is returned when the seeded password could never pass the login
// form's password check.
var ErrWeakAdminPassword = errors.New("ADMIN_PASSWORD must be 8-64 characters with lower and upper case letters, a digit and a symbol")

// SeedAdmin ensures an ADMIN account exists for email (idempotent). An existing
// account keeps its password.
func SeedAdmin(db *sqlx.DB, id, email, name, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		log.Println("[seed] ADMIN_EMAIL/ADMIN_PASSWORD not set, no admin seeded")
		return nil
	}
	if !validate.Password(password) {
		return ErrWeakAdminPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,name,password_hash,role)
		VALUES(?,?,?,?,'ADMIN')
		ON CONFLICT(email) DO NOTHING
	`, id, email, name, string(h))
	return err
}
