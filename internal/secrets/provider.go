package secrets

import (
	"context"
	"errors"
	"os"
)

// ErrSecretNotFound is returned when no secret of the requested name exists.
var ErrSecretNotFound = errors.New("secret not found")

// Provider resolves named secrets to their string values.
type Provider interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// EnvProvider resolves secrets from the process environment. Intended for local runs.
type EnvProvider struct{}

func (EnvProvider) Resolve(_ context.Context, name string) (string, error) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", errors.Join(ErrSecretNotFound, errors.New("environment variable "+name+" is not set"))
	}
	return value, nil
}
