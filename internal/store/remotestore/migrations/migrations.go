// Package migrations runs the RemoteDataStore's Postgres schema migrations
// using golang-migrate, following the resolve-a-directory/file-source
// pattern the rest of the retrieval pack uses for this library.
package migrations

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Up applies every pending migration against dbURL. It treats "no change"
// as success, so a restart against an already-migrated database stays
// quiet.
func Up(dbURL string) error {
	dir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}
	m, err := migrate.New("file://"+filepath.ToSlash(dir), dbURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer closeMigrator(m)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Printf("[Migration] schema already up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Printf("[Migration] schema migrations applied")
	return nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("[Migration] close source: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("[Migration] close db: %v", dbErr)
	}
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		os.Getenv("MIGRATIONS_DIR"),
		"./internal/store/remotestore/migrations",
		"/app/internal/store/remotestore/migrations",
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./internal/store/remotestore/migrations, /app/internal/store/remotestore/migrations)")
}
