package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/yieldkeeper/internal/config"
	"github.com/elys-network/yieldkeeper/internal/handler"
	"github.com/elys-network/yieldkeeper/internal/secrets"
	"github.com/elys-network/yieldkeeper/internal/state"
)

// App is everything an entry point needs after startup.
type App struct {
	Config  *config.Config
	Handler *handler.Handler
}

// Bootstrap loads configuration, selects the secret source, connects the optional ledger
// and builds the invocation handler.
func Bootstrap(ctx context.Context) (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	provider, err := NewSecretProvider(cfg)
	if err != nil {
		return nil, err
	}

	var ledger handler.Ledger
	if cfg.DB != nil {
		if err := state.InitDB(*cfg.DB); err != nil {
			return nil, fmt.Errorf("failed to initialize ledger database: %w", err)
		}
		if err := state.EnsureSchema(ctx); err != nil {
			state.CloseDB()
			return nil, fmt.Errorf("failed to ensure ledger schema: %w", err)
		}
		ledger = state.Ledger{}
	} else {
		log.Info().Msg("DB_HOST not set, execution ledger disabled")
	}

	if cfg.DryRun {
		log.Warn().Msg("KEEPER_DRY_RUN is set. Deposits and withdrawals will be logged, not broadcast.")
	}

	h, err := handler.NewFromConfig(cfg, provider, ledger)
	if err != nil {
		state.CloseDB()
		return nil, err
	}

	return &App{Config: cfg, Handler: h}, nil
}

// LedgerEnabled reports whether runs are being recorded.
func (a *App) LedgerEnabled() bool {
	return a.Config.DB != nil
}

// Close releases the ledger connection if one was opened.
func (a *App) Close() {
	state.CloseDB()
}

// NewSecretProvider returns the provider selected by SECRET_SOURCE.
func NewSecretProvider(cfg *config.Config) (secrets.Provider, error) {
	switch cfg.SecretSource {
	case config.SecretSourceEnv:
		log.Warn().Msg("Reading secrets from the process environment")
		return secrets.EnvProvider{}, nil
	case config.SecretSourceAWS:
		return secrets.NewAWSProvider(cfg.AWSRegion)
	default:
		return nil, fmt.Errorf("unknown secret source %q", cfg.SecretSource)
	}
}
