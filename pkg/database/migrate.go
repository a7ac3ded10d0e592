package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.up.sql
var migrationFS embed.FS

// Execer runs a statement. Satisfied by pgxpool.Pool, pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Migrate applies the embedded schema files in lexical order.
// Every file is idempotent, so running it against an existing schema is a no-op.
func Migrate(ctx context.Context, db Execer) error {
	files, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := db.Exec(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		log.Info().Str("migration", file).Msg("migration applied")
	}
	return nil
}
