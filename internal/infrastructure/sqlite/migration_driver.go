package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang-migrate/migrate/v4/database"
)

const migrationsTable = "schema_migrations"

// migrationDriver adapts our connection to golang-migrate. The stock
// sqlite3 database driver registers its own database/sql driver, which
// collides with the one we already use, so we bring our own.
type migrationDriver struct {
	conn *sql.DB
}

func newMigrationDriver(conn *sql.DB) (database.Driver, error) {
	d := &migrationDriver{conn: conn}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *migrationDriver) ensureVersionTable() error {
	query := `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (version uint64, dirty bool);
CREATE UNIQUE INDEX IF NOT EXISTS version_unique ON ` + migrationsTable + ` (version)`
	if _, err := d.conn.Exec(query); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}
	return nil
}

func (d *migrationDriver) Open(string) (database.Driver, error) {
	return nil, fmt.Errorf("URL-based open is not supported, use migrate.NewWithInstance")
}

// Close is a no-op: the connection belongs to DB and outlives migrations.
func (d *migrationDriver) Close() error { return nil }

// Lock and Unlock are no-ops. The database is a single local file and
// migrations run once at startup.
func (d *migrationDriver) Lock() error   { return nil }
func (d *migrationDriver) Unlock() error { return nil }

func (d *migrationDriver) Run(migration io.Reader) error {
	stmts, err := io.ReadAll(migration)
	if err != nil {
		return fmt.Errorf("reading migration: %w", err)
	}
	if _, err := d.conn.Exec(string(stmts)); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (d *migrationDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning version update: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM ` + migrationsTable); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clearing version: %w", err)
	}
	if version >= 0 || (version == database.NilVersion && dirty) {
		query := `INSERT INTO ` + migrationsTable + ` (version, dirty) VALUES (?, ?)`
		if _, err := tx.Exec(query, version, dirty); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording version: %w", err)
		}
	}
	return tx.Commit()
}

func (d *migrationDriver) Version() (int, bool, error) {
	var version int
	var dirty bool
	query := `SELECT version, dirty FROM ` + migrationsTable + ` LIMIT 1`
	err := d.conn.QueryRow(query).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return database.NilVersion, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("reading version: %w", err)
	}
	return version, dirty, nil
}

func (d *migrationDriver) Drop() error {
	rows, err := d.conn.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, table := range tables {
		if strings.EqualFold(table, migrationsTable) {
			continue
		}
		if _, err := d.conn.Exec(`DROP TABLE ` + table); err != nil {
			return fmt.Errorf("dropping table %s: %w", table, err)
		}
	}
	return nil
}
