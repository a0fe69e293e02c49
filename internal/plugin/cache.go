package plugin

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Cache is a sqlite-backed discovery cache mapping a plugin's canonical
// path and on-disk content hash to its already-decoded manifest. The
// Registry writes an entry on every load and never calls Lookup, so
// every load still opens the .so. The connection pool is limited to a
// single connection.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if absent) the discovery cache at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open plugin cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping plugin cache: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply plugin cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached manifest for canonicalPath if one exists and
// its content hash still matches currentHash (i.e. the file on disk
// hasn't changed since it was last probed).
func (c *Cache) Lookup(ctx context.Context, canonicalPath, currentHash string) (*Manifest, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT content_hash, short_name, type, type_version, abi_version, dlopen_mode, factory_symbol
		FROM plugin_manifests WHERE canonical_path = ?`, canonicalPath)

	var m Manifest
	var abiVersion, dlopenMode int
	m.CanonicalPath = canonicalPath
	var typ string
	if err := row.Scan(&m.ContentHash, &m.ShortName, &typ, &m.TypeVersion, &abiVersion, &dlopenMode, &m.FactorySymbol); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query plugin cache: %w", err)
	}
	if m.ContentHash != currentHash {
		return nil, false, nil
	}
	m.Type = Type(typ)
	m.ABIVersion = ManifestVersion(abiVersion)
	m.DlopenMode = DlopenMode(dlopenMode)
	return &m, true, nil
}

// Put inserts or replaces the cached entry for a manifest, along with the
// Unix timestamp of the probe (passed in, since this package must not
// call time.Now() internally to keep cache writes test-reproducible).
func (c *Cache) Put(ctx context.Context, m *Manifest, probedAtUnix int64) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO plugin_manifests
			(canonical_path, content_hash, short_name, type, type_version, abi_version, dlopen_mode, factory_symbol, probed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(canonical_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			short_name = excluded.short_name,
			type = excluded.type,
			type_version = excluded.type_version,
			abi_version = excluded.abi_version,
			dlopen_mode = excluded.dlopen_mode,
			factory_symbol = excluded.factory_symbol,
			probed_at = excluded.probed_at`,
		m.CanonicalPath, m.ContentHash, m.ShortName, string(m.Type), m.TypeVersion,
		int(m.ABIVersion), int(m.DlopenMode), m.FactorySymbol, probedAtUnix)
	if err != nil {
		return fmt.Errorf("write plugin cache entry for %s: %w", m.CanonicalPath, err)
	}
	return nil
}
