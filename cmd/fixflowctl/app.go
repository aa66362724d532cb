package main

import (
	"encoding/json"
	"fmt"

	apptenancy "github.com/fixflow/backend/internal/application/tenancy"
	"github.com/fixflow/backend/internal/bootstrap"
	"github.com/fixflow/backend/internal/infrastructure/auth"
	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/fixflow/backend/internal/infrastructure/logger"
	"github.com/fixflow/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every command needs. It is filled lazily by the root
// command so that --help never touches the database.
type app struct {
	logLevel string

	loadConfig func() (*config.Config, error)
	openDB     func(cfg *config.Config, log *zap.Logger) (*persistence.Database, error)

	cfg      *config.Config
	log      *zap.Logger
	db       *persistence.Database
	services *bootstrap.Services
}

func newApp() *app {
	return &app{
		loadConfig: config.Load,
		openDB: func(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
			gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.SQLLevel), logger.WithSlowThreshold(cfg.Log.SQLSlowThreshold))
			return persistence.NewDatabase(&cfg.Database, persistence.Options{Logger: gormLog})
		},
	}
}

// init loads the configuration, opens the database and wires the engine
func (a *app) init() error {
	if a.services != nil {
		return nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	level := a.logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	log, err := logger.New(&logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	db, err := a.openDB(cfg, log)
	if err != nil {
		return err
	}
	services, err := bootstrap.NewServices(db.DB, bootstrap.Config{
		Logger:        log,
		InvoicePrefix: cfg.Invoice.NumberPrefix,
		RateDefaults: apptenancy.RateDefaults{
			TaxRate:        cfg.Invoice.DefaultTaxRate,
			CommissionRate: cfg.Invoice.DefaultCommissionRate,
		},
	})
	if err != nil {
		_ = db.Close()
		return err
	}
	a.cfg, a.log, a.db, a.services = cfg, log, db, services
	return nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Error closing database", zap.Error(err))
		}
		a.db = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// tokens returns the signer of the server's bearer tokens
func (a *app) tokens() (*auth.JWTService, error) {
	if a.cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is not configured")
	}
	return auth.NewJWTService(a.cfg.JWT), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: invalid id %q", name, raw)
	}
	return id, nil
}

// parseRate parses an optional rate flag; an empty value means unset
func parseRate(name, raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &d, nil
}
