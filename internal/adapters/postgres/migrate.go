package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded goose migrations to databaseURL.
func Migrate(ctx context.Context, databaseURL string) error {
	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return eris.Wrap(err, "postgres: open for migrations")
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{zap.S()})
	if err := goose.SetDialect("postgres"); err != nil {
		return eris.Wrap(err, "postgres: goose dialect")
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return eris.Wrap(err, "postgres: migrate up")
	}
	return nil
}

type gooseLogger struct{ s *zap.SugaredLogger }

func (l gooseLogger) Printf(format string, v ...any) {
	l.s.Info(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.s.Fatal(strings.TrimSuffix(fmt.Sprintf(format, v...), "\n"))
}
