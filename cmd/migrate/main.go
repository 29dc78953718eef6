package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/quietbishop/chess-ledger/internal/db"
)

// Usage: migrate [goose-command], defaulting to "up". The migration files
// are embedded, so the binary is self-contained.
func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if err := run(context.Background(), cmd); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd string) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer conn.Close()
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect(db.Dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.RunContext(ctx, cmd, conn, "migrations"); err != nil {
		return fmt.Errorf("goose %s: %w", cmd, err)
	}
	return nil
}
