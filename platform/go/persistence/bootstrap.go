package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/benchline/lims-core/database"
)

// BootstrapConfig names the schema that receives the DDL and the non-owner role used for
// user-scoped (RLS-enforced) transactions.
type BootstrapConfig struct {
	Schema  string
	AppRole string
}

// BootstrapSchema creates the schema (if missing) and applies the embedded DDL in a single
// transaction with search_path set to that schema, in this order:
//  1. access control (clients, roles, permissions, users, System client seed)
//  2. units
//  3. name templates + per-entity-type sequences
//  4. entity tables
//  5. row-level security helpers and policies
//
// When AppRole is set, the role is created NOLOGIN if missing, granted to the current user
// so SET LOCAL ROLE works, and given DML on every table. The helper is idempotent and
// intended for CLI bootstrap and tests.
func BootstrapSchema(ctx context.Context, pool *pgxpool.Pool, cfg BootstrapConfig) error {
	if pool == nil {
		return fmt.Errorf("bootstrap schema: pool is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		return fmt.Errorf("bootstrap schema: schema is required")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, schema); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	for i, ddl := range sqlassets.Ordered() {
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("apply ddl %d: %w", i+1, err)
		}
	}

	if role := strings.TrimSpace(cfg.AppRole); role != "" {
		if err := ensureAppRole(ctx, tx, schema, role); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func ensureAppRole(ctx context.Context, tx pgx.Tx, schema, role string) error {
	// Create the role only if missing to avoid aborting the transaction.
	var roleExists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", role).Scan(&roleExists); err != nil {
		return fmt.Errorf("check role existence: %w", err)
	}

	roleIdent := pgx.Identifier{role}.Sanitize()
	schemaIdent := pgx.Identifier{schema}.Sanitize()

	statements := []string{
		fmt.Sprintf("GRANT %s TO CURRENT_USER", roleIdent),
		fmt.Sprintf("GRANT USAGE ON SCHEMA %s TO %s", schemaIdent, roleIdent),
		fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA %s TO %s", schemaIdent, roleIdent),
		fmt.Sprintf("GRANT USAGE, SELECT, UPDATE ON ALL SEQUENCES IN SCHEMA %s TO %s", schemaIdent, roleIdent),
		fmt.Sprintf("GRANT EXECUTE ON ALL FUNCTIONS IN SCHEMA %s TO %s", schemaIdent, roleIdent),
	}
	if !roleExists {
		statements = append([]string{fmt.Sprintf("CREATE ROLE %s NOLOGIN", roleIdent)}, statements...)
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("grant app role: %w", err)
		}
	}

	return nil
}
