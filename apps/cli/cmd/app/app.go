// Package app loads CLI configuration from the environment and wires the core services
// shared by every subcommand.
package app

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	accessrepo "github.com/benchline/lims-core/domains/access/be/repo"
	accessservice "github.com/benchline/lims-core/domains/access/be/service"
	namingrepo "github.com/benchline/lims-core/domains/naming/be/repo"
	namingservice "github.com/benchline/lims-core/domains/naming/be/service"
	unitsrepo "github.com/benchline/lims-core/domains/units/be/repo"
	unitsservice "github.com/benchline/lims-core/domains/units/be/service"
	platformlogging "github.com/benchline/lims-core/platform/go/logging"
	"github.com/benchline/lims-core/platform/go/persistence"
)

// Config is read from the environment.
type Config struct {
	DatabaseURL      string `env:"DATABASE_URL,required,notEmpty"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	Schema           string `env:"DB_SCHEMA" envDefault:"lims"`
	AppRole          string `env:"DB_APP_ROLE" envDefault:"lims_app"`
	MaxConns         int32  `env:"DB_MAX_CONNS" envDefault:"4"`
	NameMaxRetries   int    `env:"NAME_MAX_RETRIES" envDefault:"10"`
	DecimalPrecision int32  `env:"DECIMAL_PRECISION" envDefault:"28"`
}

// LoadConfig parses Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	return cfg, nil
}

// App holds the process-wide dependencies of one CLI invocation.
type App struct {
	Config    Config
	Logger    *zap.Logger
	Pool      *pgxpool.Pool
	SessionDB *persistence.SessionDB
}

// Open loads configuration, builds the logger and connects to Postgres.
func Open(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{Component: "lims-cli", Level: cfg.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString: cfg.DatabaseURL,
		MaxConns:   cfg.MaxConns,
		SearchPath: cfg.Schema,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init pool: %w", err)
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		SessionDB: persistence.NewSessionDB(persistence.SessionDBConfig{Pool: pool, AppRole: cfg.AppRole}),
	}, nil
}

// Close releases the pool and flushes the logger.
func (a *App) Close() {
	persistence.ClosePool(a.Pool)
	_ = a.Logger.Sync()
}

// Units wires the conversion service.
func (a *App) Units() (unitsservice.Service, *persistence.UnitStore, error) {
	store, err := persistence.NewUnitStore(a.SessionDB)
	if err != nil {
		return nil, nil, fmt.Errorf("init unit store: %w", err)
	}
	svc := unitsservice.New(unitsrepo.NewPostgresRepository(store),
		unitsservice.WithPrecision(a.Config.DecimalPrecision),
		unitsservice.WithLogger(a.Logger),
	)
	return svc, store, nil
}

// Access wires the access control service.
func (a *App) Access() (accessservice.Service, error) {
	store, err := persistence.NewAccessStore(a.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("init access store: %w", err)
	}
	return accessservice.New(accessrepo.NewPostgresRepository(store), a.SessionDB, a.Logger), nil
}

// Naming wires the name generator.
func (a *App) Naming() (namingservice.Service, error) {
	templates, err := persistence.NewNameTemplateStore(a.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("init template store: %w", err)
	}
	sequences, err := persistence.NewSequenceStore(a.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("init sequence store: %w", err)
	}
	names, err := persistence.NewEntityNameStore(a.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("init entity name store: %w", err)
	}
	return namingservice.New(namingrepo.NewPostgresRepository(templates, sequences, names),
		namingservice.WithLogger(a.Logger),
		namingservice.WithMaxRetries(a.Config.NameMaxRetries),
	), nil
}
