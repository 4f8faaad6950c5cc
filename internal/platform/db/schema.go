package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Provision applies the schema script in a single transaction. The script
// is idempotent, so Provision is safe to call on an already-initialized
// database.
func (s *Store) Provision(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		return nil
	})
}

// VerifySchema checks that every table the schema script creates exists in
// the database, case-insensitively. Missing tables are named in the error.
func (s *Store) VerifySchema(ctx context.Context) error {
	required := requiredTables(schemaSQL)

	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return fmt.Errorf("query sqlite_master: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan table name: %w", err)
		}
		existing[strings.ToLower(name)] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate table names: %w", err)
	}

	var missing []string
	for _, name := range required {
		if !existing[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("database missing required tables: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// requiredTables extracts the table names from CREATE TABLE statements in
// the schema script, stripping an IF NOT EXISTS prefix when present.
func requiredTables(script string) []string {
	var names []string
	for _, line := range strings.Split(strings.ToLower(script), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "create table") {
			continue
		}
		name := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(line, "create table"), "(", 2)[0])
		name = strings.TrimSpace(strings.TrimPrefix(name, "if not exists"))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
