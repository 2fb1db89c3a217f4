package postgres

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/KunalPandey-675/oceanResQ/pkg/e"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies every pending migration embedded in the binary.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	const op = "postgres.Migrate"

	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return e.Wrap(op, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return e.Wrap(op+".NewProvider", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		logger.Error("migration failed", slog.String("op", op), slog.Any("error", err))
		return e.Wrap(op+".Up", err)
	}

	for _, r := range results {
		logger.Info("migration applied",
			slog.String("op", op),
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration))
	}

	return nil
}
