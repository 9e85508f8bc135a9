package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"ptc_mining/internal/db"
	"ptc_mining/internal/logger"
)

// Lists the SQL migrations under internal/migrations; -apply executes them
// in file order against DATABASE_URL.
func main() {
	apply := flag.Bool("apply", false, "execute the migrations instead of listing them")
	dir := flag.String("dir", filepath.Join("internal", "migrations"), "migrations directory")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"), false)

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Fatal("cannot read migrations directory", "dir", *dir, "error", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		if !*apply {
			logger.Info("pending migration", "file", name)
			continue
		}

		sql, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			logger.Fatal("cannot read migration", "file", name, "error", err)
		}
		if _, err := pool.Exec(context.Background(), string(sql)); err != nil {
			logger.Fatal("migration failed", "file", name, "error", err)
		}
		logger.Info("migration applied", "file", name)
	}
}
