package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopfront/backend/migrations"
	"go.uber.org/zap"
)

// Migrator runs schema commands against one postgres database.
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// New opens the migration source and binds it to db. With an empty dir
// the migrations compiled into the binary are used.
func New(db *sql.DB, dir string, logger *zap.Logger) (*Migrator, error) {
	src, err := openSource(dir)
	if err != nil {
		return nil, err
	}
	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("source", src, "postgres", target)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return &Migrator{m: m, logger: logger}, nil
}

func openSource(dir string) (source.Driver, error) {
	if dir == "" {
		src, err := iofs.New(migrations.FS, ".")
		if err != nil {
			return nil, fmt.Errorf("embedded migrations: %w", err)
		}
		return src, nil
	}
	src, err := (&file.File{}).Open("file://" + dir)
	if err != nil {
		return nil, fmt.Errorf("migrations in %s: %w", dir, err)
	}
	return src, nil
}

// Status is the schema version recorded in schema_migrations.
type Status struct {
	Version uint
	Dirty   bool
}

// command is one migrate subcommand; arg is only read when takesArg is set.
type command struct {
	usage    string
	takesArg bool
	exec     func(m *migrate.Migrate, arg int) error
}

var commands = map[string]command{
	"up":   {usage: "up", exec: func(m *migrate.Migrate, _ int) error { return m.Up() }},
	"down": {usage: "down", exec: func(m *migrate.Migrate, _ int) error { return m.Down() }},
	"step": {usage: "step <n>", takesArg: true, exec: func(m *migrate.Migrate, n int) error { return m.Steps(n) }},
	"goto": {usage: "goto <version>", takesArg: true, exec: func(m *migrate.Migrate, v int) error {
		if v < 0 {
			return errors.New("version must not be negative")
		}
		return m.Migrate(uint(v))
	}},
	"force": {usage: "force <version>", takesArg: true, exec: func(m *migrate.Migrate, v int) error { return m.Force(v) }},
}

// parseArg validates the argument list of a known command.
func parseArg(name string, args []string) (command, int, error) {
	cmd, ok := commands[name]
	if !ok {
		return command{}, 0, fmt.Errorf("unknown command %q", name)
	}
	if !cmd.takesArg {
		return cmd, 0, nil
	}
	if len(args) == 0 {
		return command{}, 0, fmt.Errorf("missing argument, usage: migrate %s", cmd.usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return command{}, 0, fmt.Errorf("invalid number %q", args[0])
	}
	return cmd, n, nil
}

// Up applies every pending migration.
func (mg *Migrator) Up() error {
	return mg.Run("up", nil)
}

// Run executes a schema command (up, down, step, goto, force). Having
// nothing to apply is not an error.
func (mg *Migrator) Run(name string, args []string) error {
	cmd, arg, err := parseArg(name, args)
	if err != nil {
		return err
	}
	if name == "force" {
		mg.logger.Warn("Forcing migration version", zap.Int("version", arg))
	}

	err = cmd.exec(mg.m, arg)
	if errors.Is(err, migrate.ErrNoChange) {
		mg.logger.Info("No migrations to apply", zap.String("command", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", name, err)
	}

	st, err := mg.Status()
	if err != nil {
		return err
	}
	mg.logger.Info("Migrations completed",
		zap.String("command", name),
		zap.Uint("version", st.Version),
		zap.Bool("dirty", st.Dirty),
	)
	return nil
}

// Status reports version 0 for a database with nothing applied.
func (mg *Migrator) Status() (Status, error) {
	v, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return Status{}, nil
	case err != nil:
		return Status{}, fmt.Errorf("read migration version: %w", err)
	}
	return Status{Version: v, Dirty: dirty}, nil
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
