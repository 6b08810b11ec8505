package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldkeeper/internal/config"
	"github.com/elys-network/yieldkeeper/internal/keeper"
	"github.com/elys-network/yieldkeeper/internal/logger"
	"github.com/elys-network/yieldkeeper/internal/metrics"
	"github.com/elys-network/yieldkeeper/internal/secrets"
	"github.com/elys-network/yieldkeeper/internal/types"
	"github.com/elys-network/yieldkeeper/internal/vault"
	"github.com/elys-network/yieldkeeper/internal/wallet"
)

// Response bodies, JSON-encoded strings.
const (
	SuccessMessage = "Execution completed successfully"
	FailureMessage = "Error during execution"
)

// SessionOpener establishes the per-invocation connection and signer.
type SessionOpener func(ctx context.Context) (*wallet.Session, error)

// FarmFactory binds the farm contract to an open session.
type FarmFactory func(session *wallet.Session) (vault.Farm, error)

// Ledger persists the outcome of an invocation.
type Ledger interface {
	RecordRun(ctx context.Context, result *types.RunResult, runErr error) error
}

// Config holds the dependencies for creating a new Handler
type Config struct {
	Strategy    config.Strategy
	OpenSession SessionOpener
	NewFarm     FarmFactory
	// Ledger is optional.
	Ledger Ledger
}

// Handler runs one keeper cycle per invocation. Nothing survives between invocations
// except what the ledger stores.
type Handler struct {
	logger      zerolog.Logger
	strategy    config.Strategy
	openSession SessionOpener
	newFarm     FarmFactory
	ledger      Ledger

	// Serializes invocations arriving through the web trigger.
	mu sync.Mutex
}

// New creates a Handler after validating its dependencies.
func New(cfg Config) (*Handler, error) {
	if cfg.OpenSession == nil {
		return nil, errors.New("session opener cannot be nil")
	}
	if cfg.NewFarm == nil {
		return nil, errors.New("farm factory cannot be nil")
	}
	if err := cfg.Strategy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}

	return &Handler{
		logger:      logger.GetForComponent("handler"),
		strategy:    cfg.Strategy,
		openSession: cfg.OpenSession,
		newFarm:     cfg.NewFarm,
		ledger:      cfg.Ledger,
	}, nil
}

// NewFromConfig wires the production session and farm binding from the loaded configuration.
func NewFromConfig(cfg *config.Config, provider secrets.Provider, ledger Ledger) (*Handler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if provider == nil {
		return nil, errors.New("secret provider cannot be nil")
	}

	endpoints := cfg.Endpoints
	contract := cfg.ContractAddress
	dryRun := cfg.DryRun

	return New(Config{
		Strategy: cfg.Strategy,
		OpenSession: func(ctx context.Context) (*wallet.Session, error) {
			return wallet.OpenSession(ctx, endpoints, provider)
		},
		NewFarm: func(session *wallet.Session) (vault.Farm, error) {
			client, err := vault.NewFarmClient(contract, session.Client, session.Signer)
			if err != nil {
				return nil, err
			}
			if dryRun {
				return vault.NewDryRunFarm(client), nil
			}
			return client, nil
		},
		Ledger: ledger,
	})
}

// Invoke is the Lambda entry point. The event payload is ignored.
func (h *Handler) Invoke(ctx context.Context, event json.RawMessage) events.APIGatewayProxyResponse {
	h.logger.Debug().Int("eventBytes", len(event)).Msg("Invocation received")

	_, err := h.Run(ctx)
	return Response(err)
}

// Run executes one cycle and records it. The returned error is the cycle's error;
// ledger failures are logged and never change the outcome.
func (h *Handler) Run(ctx context.Context) (*types.RunResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	result, err := h.runCycle(ctx)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		h.logger.Error().Err(err).Msg("Error during execution")
	}
	metrics.ObserveRun(status, time.Since(start))

	if h.ledger != nil {
		if result == nil {
			// Failed before the keeper started, still one row per invocation.
			result = &types.RunResult{RunID: uuid.New().String(), StartedAt: start.UTC(), FinishedAt: time.Now().UTC()}
		}
		if ledgerErr := h.ledger.RecordRun(ctx, result, err); ledgerErr != nil {
			h.logger.Error().Err(ledgerErr).Str("run_id", result.RunID).Msg("Failed to record run in ledger")
		}
	}

	return result, err
}

func (h *Handler) runCycle(ctx context.Context) (*types.RunResult, error) {
	session, err := h.openSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	farm, err := h.newFarm(session)
	if err != nil {
		return nil, fmt.Errorf("failed to bind farm contract: %w", err)
	}

	k, err := keeper.NewKeeper(keeper.Config{Farm: farm, Strategy: h.strategy})
	if err != nil {
		return nil, err
	}
	return k.RunCycle(ctx)
}

// Response maps a cycle error to the invocation result: nil is 200, anything else 500.
func Response(err error) events.APIGatewayProxyResponse {
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       encodeBody(FailureMessage),
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       encodeBody(SuccessMessage),
	}
}

func encodeBody(message string) string {
	b, _ := json.Marshal(message)
	return string(b)
}
