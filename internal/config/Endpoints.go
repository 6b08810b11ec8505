package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultRPCURLTemplate points at Base mainnet through Alchemy. The API key is substituted for %s.
const DefaultRPCURLTemplate = "https://base-mainnet.g.alchemy.com/v2/%s"

// Endpoints holds the node endpoint and the names of the secrets needed to reach it.
type Endpoints struct {
	// RPCURLTemplate is the JSON-RPC URL with a single %s placeholder for the API key.
	RPCURLTemplate string
	// APIKeySecretName is the secret holding the node provider API key.
	APIKeySecretName string
	// PrivateKeySecretName is the secret holding the hex-encoded signing key.
	PrivateKeySecretName string
}

// RPCURL renders the endpoint for the given API key.
func (e Endpoints) RPCURL(apiKey string) string {
	return fmt.Sprintf(e.RPCURLTemplate, apiKey)
}

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() (Endpoints, error) {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	endpoints := Endpoints{
		RPCURLTemplate:       getEnvOrDefault("RPC_URL_TEMPLATE", DefaultRPCURLTemplate),
		APIKeySecretName:     getEnvOrDefault("API_KEY_SECRET_NAME", "ALCHEMY_API_KEY"),
		PrivateKeySecretName: getEnvOrDefault("PRIVATE_KEY_SECRET_NAME", "PRIVATE_KEY"),
	}

	if strings.Count(endpoints.RPCURLTemplate, "%s") != 1 {
		return Endpoints{}, errors.New("environment variable RPC_URL_TEMPLATE must contain exactly one %s placeholder")
	}

	log.Debug().
		Str("APIKeySecretName", endpoints.APIKeySecretName).
		Str("PrivateKeySecretName", endpoints.PrivateKeySecretName).
		Msg("Endpoint configuration loaded successfully.")

	return endpoints, nil
}
