package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
)

// Secret sources understood by the keeper.
const (
	SecretSourceAWS = "aws"
	SecretSourceEnv = "env"
)

// Config holds all application configuration loaded from environment variables.
// It is built once at startup by LoadConfig and passed explicitly; nothing mutates it afterwards.
type Config struct {
	// AWSRegion is the region of the Secrets Manager holding the keeper's secrets.
	AWSRegion string
	// SecretSource selects where secrets come from ("aws" or "env").
	SecretSource string

	// ContractAddress is the deployed LeveragedYieldFarm contract.
	ContractAddress common.Address

	// DryRun logs deposit/withdraw decisions without broadcasting them.
	DryRun bool

	Endpoints Endpoints
	Strategy  Strategy

	// DB is nil when the execution ledger is disabled.
	DB *DBConfig

	// WebPort is used by the serve command.
	WebPort string
	// Schedule is the cron expression used by the schedule command.
	Schedule string
}

// DBConfig holds the optional ledger database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LoadConfig loads configuration from environment variables.
// AWS_REGION and FARM_CONTRACT_ADDRESS are required; everything else has a default.
func LoadConfig() (*Config, error) {
	log.Info().Msg("Loading application configuration from environment variables...")

	cfg := &Config{
		SecretSource: getEnvOrDefault("SECRET_SOURCE", SecretSourceAWS),
		WebPort:      getEnvOrDefault("WEB_PORT", "8080"),
		Schedule:     getEnvOrDefault("KEEPER_SCHEDULE", "@every 10m"),
		Strategy:     DefaultStrategy,
	}

	var err error

	if cfg.SecretSource != SecretSourceAWS && cfg.SecretSource != SecretSourceEnv {
		return nil, errors.New("environment variable SECRET_SOURCE must be \"aws\" or \"env\", got: " + cfg.SecretSource)
	}

	if cfg.SecretSource == SecretSourceAWS {
		cfg.AWSRegion, err = getEnv("AWS_REGION")
		if err != nil {
			return nil, err
		}
	}

	contract, err := getEnv("FARM_CONTRACT_ADDRESS")
	if err != nil {
		return nil, err
	}
	if !common.IsHexAddress(contract) {
		return nil, errors.New("environment variable FARM_CONTRACT_ADDRESS must be a hex address, got: " + contract)
	}
	cfg.ContractAddress = common.HexToAddress(contract)

	cfg.DryRun, err = getEnvAsBool("KEEPER_DRY_RUN", false)
	if err != nil {
		return nil, err
	}

	cfg.Endpoints, err = loadEndpointConfig()
	if err != nil {
		return nil, err
	}

	cfg.DB, err = LoadDBConfig()
	if err != nil {
		return nil, err
	}

	if err := cfg.Strategy.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("contract", cfg.ContractAddress.Hex()).
		Str("secretSource", cfg.SecretSource).
		Bool("dryRun", cfg.DryRun).
		Bool("ledger", cfg.DB != nil).
		Msg("Configuration loaded successfully.")

	return cfg, nil
}

// LoadDBConfig returns nil when DB_HOST is unset, which disables the ledger.
func LoadDBConfig() (*DBConfig, error) {
	host := strings.TrimSpace(os.Getenv("DB_HOST"))
	if host == "" {
		return nil, nil
	}

	port, err := getEnvAsInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	return &DBConfig{
		Host:     host,
		Port:     port,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "require"),
	}, nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an optional boolean environment variable.
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, errors.New("environment variable " + key + " must be a valid bool, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt retrieves an optional integer environment variable.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}
