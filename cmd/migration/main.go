package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/db/migrations"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/config"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
)

type command struct {
	usage string
	run   func(m *migrate.Migrate, args []string, logger *logging.Logger) error
}

var commands = map[string]command{
	"up":      {usage: "up", run: runUp},
	"down":    {usage: "down [steps=1]", run: runDown},
	"version": {usage: "version", run: runVersion},
	"force":   {usage: "force <version>", run: runForce},
	"goto":    {usage: "goto <version>", run: runGoto},
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok {
		printUsage()
		return 2
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg, err := config.LoadMigration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := logging.NewJSON(logging.ParseLevel(cfg.LogLevel)).Named("migration")
	defer func() { _ = logger.Sync() }()

	m, origin, err := newMigrator(cfg)
	if err != nil {
		logger.Error("create migrator", "error", err)
		return 1
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err := crerr.CombineErrors(srcErr, dbErr); err != nil {
			logger.Warn("close migrator", "error", err)
		}
	}()

	logger.Info("migration source", "origin", origin)
	if err := cmd.run(m, args[1:], logger); err != nil {
		logger.Error("migration failed", "command", cmd.usage, "error", err)
		return 1
	}
	return 0
}

// newMigrator reads migrations from MIGRATIONS_DIR when it is set and from the
// copy embedded in the binary otherwise.
func newMigrator(cfg config.MigrationConfig) (*migrate.Migrate, string, error) {
	if cfg.MigrationsDir != "" {
		abs, err := filepath.Abs(cfg.MigrationsDir)
		if err != nil {
			return nil, "", crerr.Wrapf(err, "resolve %s", cfg.MigrationsDir)
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return nil, "", crerr.Newf("MIGRATIONS_DIR %s is not a directory", abs)
		}
		sourceURL := "file://" + filepath.ToSlash(abs)
		m, err := migrate.New(sourceURL, cfg.DatabaseURL())
		return m, sourceURL, err
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, "", crerr.Wrap(err, "open embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.DatabaseURL())
	return m, "embedded", err
}

func runUp(m *migrate.Migrate, _ []string, logger *logging.Logger) error {
	if err := ignoreNoChange(m.Up(), logger); err != nil {
		return err
	}
	return logVersion(m, logger)
}

func runDown(m *migrate.Migrate, args []string, logger *logging.Logger) error {
	steps := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || n <= 0 {
			return crerr.Newf("down steps must be a positive integer, got %q", args[0])
		}
		steps = n
	}
	if err := ignoreNoChange(m.Steps(-steps), logger); err != nil {
		return err
	}
	logger.Info("rolled back", "steps", steps)
	return logVersion(m, logger)
}

func runVersion(m *migrate.Migrate, _ []string, logger *logging.Logger) error {
	return logVersion(m, logger)
}

func runForce(m *migrate.Migrate, args []string, logger *logging.Logger) error {
	version, err := versionArg(args)
	if err != nil {
		return err
	}
	if err := m.Force(int(version)); err != nil {
		return crerr.Wrapf(err, "force version %d", version)
	}
	logger.Info("forced version", "version", version)
	return nil
}

func runGoto(m *migrate.Migrate, args []string, logger *logging.Logger) error {
	version, err := versionArg(args)
	if err != nil {
		return err
	}
	if err := ignoreNoChange(m.Migrate(version), logger); err != nil {
		return err
	}
	return logVersion(m, logger)
}

func versionArg(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, crerr.New("a version argument is required")
	}
	v, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 31)
	if err != nil {
		return 0, crerr.Newf("invalid version %q", args[0])
	}
	return uint(v), nil
}

func ignoreNoChange(err error, logger *logging.Logger) error {
	if crerr.Is(err, migrate.ErrNoChange) {
		logger.Info("schema already at target version")
		return nil
	}
	return err
}

func logVersion(m *migrate.Migrate, logger *logging.Logger) error {
	version, dirty, err := m.Version()
	if crerr.Is(err, migrate.ErrNilVersion) {
		logger.Info("schema version", "version", "none", "dirty", false)
		return nil
	}
	if err != nil {
		return crerr.Wrap(err, "read version")
	}
	logger.Info("schema version", "version", version, "dirty", dirty)
	return nil
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <command> [args]\n\ncommands:\n", name)
	for _, key := range []string{"up", "down", "version", "force", "goto"} {
		fmt.Fprintf(os.Stderr, "  %s %s\n", name, commands[key].usage)
	}
}
