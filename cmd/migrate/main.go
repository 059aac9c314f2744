// Command migrate applies, inspects and scaffolds the settlement schema
// migrations.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/solarerp/backend/internal/infrastructure/config"
	"github.com/solarerp/backend/internal/infrastructure/logger"
	"github.com/solarerp/backend/internal/infrastructure/migration"
	"github.com/solarerp/backend/migrations"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

// dbCommand runs against an open migrator; args excludes the command name
type dbCommand func(m *migration.Migrator, log *zap.Logger, args []string) error

var dbCommands = map[string]dbCommand{
	"up": func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Up()
	},
	"down": func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
		return m.Down()
	},
	"step": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "step <n>")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "goto <version>")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must not be negative, got %d", n)
		}
		return m.GoTo(uint(n))
	},
	"force": func(m *migration.Migrator, _ *zap.Logger, args []string) error {
		n, err := intArg(args, "force <version>")
		if err != nil {
			return err
		}
		return m.Force(n)
	},
	"version": func(m *migration.Migrator, log *zap.Logger, _ []string) error {
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("current schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
}

func main() {
	path := flag.String("path", "", "Read migrations from this directory instead of the embedded set")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	command, rest := args[0], args[1:]
	switch command {
	case "create":
		err = create(log, sourceDir(*path), rest)
	case "list":
		err = list(log, sourceDir(*path))
	default:
		run, ok := dbCommands[command]
		if !ok {
			log.Error("unknown command", zap.String("command", command))
			printUsage()
			os.Exit(1)
		}
		err = withMigrator(log, *path, func(m *migration.Migrator) error {
			return run(m, log, rest)
		})
	}
	if err != nil {
		log.Fatal("migrate "+command+" failed", zap.Error(err))
	}
}

// withMigrator opens the configured database for the duration of fn
func withMigrator(log *zap.Logger, path string, fn func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping %s: %w", cfg.Database.Host, err)
	}

	var m *migration.Migrator
	if path != "" {
		m, err = migration.New(db, path, log)
	} else {
		m, err = migration.NewFromFS(db, migrations.FS, log)
	}
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

func create(log *zap.Logger, dir string, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: migrate create <name> [description]")
	}
	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(log *zap.Logger, dir string) error {
	names, err := migration.ListMigrations(dir)
	if err != nil {
		return err
	}
	log.Info("migrations in source tree", zap.String("dir", dir), zap.Int("count", len(names)))
	for _, n := range names {
		fmt.Println("  -", n)
	}
	return nil
}

// sourceDir is where create and list look; they never use the embedded set
func sourceDir(path string) string {
	if path == "" {
		return defaultMigrationsDir
	}
	return path
}

func intArg(args []string, usage string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("usage: migrate " + usage)
	}
	return strconv.Atoi(args[0])
}

func printUsage() {
	fmt.Println(`SolarERP schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative n rolls back)
  goto <version>        Migrate up or down to version
  version               Print the applied version
  force <version>       Mark version as applied (repairs a dirty schema)
  create <name> [desc]  Write the next numbered up/down pair
  list                  List migrations in the source tree

Flags:
  -path string          Migrations directory (default: embedded set; ./migrations for create/list)
  -log-level string     debug, info, warn or error (default: info)

Database settings come from config.toml, .env and SOLARERP_DATABASE_* variables.`)
}
