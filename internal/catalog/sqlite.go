// internal/catalog/sqlite.go
//
// SQLite backend for the product catalog.
// Responsibilities:
//   - Opening the SQLite file with WAL, a busy timeout and foreign keys on.
//   - Applying embedded migrations from assets/sql (idempotent, recorded in _migrations).
//   - Seeding the products table from a JSON catalog when it is empty.
//   - Reading the products table back into a validated Catalog.

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/robalobadob/priceguess/assets"
	"github.com/robalobadob/priceguess/internal/game"
)

// sqliteParams are the go-sqlite3 connection options applied to every catalog db.
var sqliteParams = url.Values{
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"1"},
	"_journal_mode": {"WAL"},
}

// OpenDB opens (and creates if missing) the SQLite catalog at path and checks
// that it answers. The parent directory is created for paths like ./data/catalog.db.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("catalog dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?"+sqliteParams.Encode())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	return db, nil
}

// Migrate applies the embedded *.sql scripts in lexical order, each inside
// its own transaction. Applied scripts are recorded in _migrations and skipped.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	root, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	var files []string
	if err := fs.WalkDir(root, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("walk migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		var done int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM _migrations WHERE name=?`, f).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := fs.ReadFile(root, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO _migrations(name) VALUES (?)`, f); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f, err)
		}
		log.Info().Str("migration", f).Msg("applied")
	}
	return nil
}

// Seed inserts the products of c when the products table is empty.
// Returns the number of rows inserted.
func Seed(ctx context.Context, db *sql.DB, c *Catalog) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	for _, p := range c.products {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, name, image_ref, price) VALUES (?,?,?,?)`,
			p.ID, p.Name, p.ImageRef, p.Price.StringFixed(2),
		); err != nil {
			return 0, fmt.Errorf("insert %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(c.products), nil
}

// FromDB reads every product row, in insertion order, into a Catalog.
func FromDB(ctx context.Context, db *sql.DB) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, image_ref, price FROM products ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []game.Product
	for rows.Next() {
		var (
			p     game.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.ImageRef, &price); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("%w: product %q has price %q", ErrInvalidProduct, p.ID, price)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return New(products)
}

// LoadSQLite opens dsn, migrates it, seeds it from seed when empty (seed may be
// nil), and returns the stored catalog. The database is closed before returning.
func LoadSQLite(ctx context.Context, dsn string, seed *Catalog) (*Catalog, error) {
	db, err := OpenDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	defer db.Close()

	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	if seed != nil {
		n, err := Seed(ctx, db, seed)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			log.Info().Int("products", n).Str("dsn", dsn).Msg("seeded catalog")
		}
	}
	return FromDB(ctx, db)
}
