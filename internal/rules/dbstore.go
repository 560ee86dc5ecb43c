package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/oakmere/invoiceparse/internal/common"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver
)

// ddl is applied by Init. One table; the engine never writes to it outside
// of Init/Seed, rules are operator-managed.
const ddl = `
CREATE TABLE IF NOT EXISTS parsing_rules (
    id TEXT PRIMARY KEY,
    text_pattern TEXT NOT NULL,
    supplier_id TEXT,
    default_category_id TEXT,
    default_site_id TEXT,
    site_name_replacements TEXT NOT NULL DEFAULT '[]',
    priority INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
)`

// DBStore serves rules from a parsing_rules table over database/sql.
// The DSN picks the driver: postgres:// DSNs use pgx, anything else is
// treated as a SQLite path (":memory:" included).
type DBStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenDBStore(dsn string, logger *slog.Logger) (*DBStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, common.WrapError(err, "open rules db")
	}
	if driver == "sqlite" {
		// one connection: sqlite is single-writer and a pooled :memory:
		// DSN would give every connection its own empty database
		db.SetMaxOpenConns(1)
	}
	return &DBStore{db: db, logger: logger}, nil
}

// Init creates the parsing_rules table if missing.
func (s *DBStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return common.WrapError(err, "init rules schema")
	}
	return nil
}

// Seed inserts rules, replacing any row with the same id.
func (s *DBStore) Seed(ctx context.Context, list []Rule) error {
	for _, r := range list {
		reps, err := json.Marshal(r.SiteNameReplacements)
		if err != nil {
			return err
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO parsing_rules
			   (id, text_pattern, supplier_id, default_category_id, default_site_id, site_name_replacements, priority, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO UPDATE SET
			   text_pattern = excluded.text_pattern,
			   supplier_id = excluded.supplier_id,
			   default_category_id = excluded.default_category_id,
			   default_site_id = excluded.default_site_id,
			   site_name_replacements = excluded.site_name_replacements,
			   priority = excluded.priority,
			   is_active = excluded.is_active`,
			r.ID.String(), r.TextPattern,
			uuidPtrToNull(r.SupplierID), uuidPtrToNull(r.DefaultCategoryID), uuidPtrToNull(r.DefaultSiteID),
			string(reps), r.Priority, r.IsActive)
		if err != nil {
			return fmt.Errorf("seed rule %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *DBStore) ListActiveRules(ctx context.Context) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text_pattern, supplier_id, default_category_id, default_site_id, site_name_replacements, priority, is_active
		   FROM parsing_rules
		  WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", common.ErrRuleStore, err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var (
			r        Rule
			id       string
			supplier sql.NullString
			category sql.NullString
			site     sql.NullString
			repsJSON string
		)
		if err := rows.Scan(&id, &r.TextPattern, &supplier, &category, &site, &repsJSON, &r.Priority, &r.IsActive); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("rule id %q: %w", id, err)
		}
		if r.SupplierID, err = nullToUUIDPtr(supplier); err != nil {
			return nil, err
		}
		if r.DefaultCategoryID, err = nullToUUIDPtr(category); err != nil {
			return nil, err
		}
		if r.DefaultSiteID, err = nullToUUIDPtr(site); err != nil {
			return nil, err
		}
		if repsJSON != "" {
			if err := json.Unmarshal([]byte(repsJSON), &r.SiteNameReplacements); err != nil {
				return nil, fmt.Errorf("rule %s replacements: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.logger.Debug("rules.db.loaded", "active", len(out))
	return out, nil
}

func (s *DBStore) Close() error {
	return s.db.Close()
}

func uuidPtrToNull(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullToUUIDPtr(v sql.NullString) (*uuid.UUID, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v.String)
	if err != nil {
		return nil, fmt.Errorf("uuid %q: %w", v.String, err)
	}
	return &id, nil
}
