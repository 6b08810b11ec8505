package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldkeeper/internal/logger"
)

// AWSProvider resolves secrets from AWS Secrets Manager.
type AWSProvider struct {
	client secretsmanageriface.SecretsManagerAPI
	logger zerolog.Logger
}

// NewAWSProvider creates a Secrets Manager client for the given region.
func NewAWSProvider(region string) (*AWSProvider, error) {
	if region == "" {
		return nil, errors.New("AWS region cannot be empty")
	}
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewAWSProviderWithClient(secretsmanager.New(sess)), nil
}

// NewAWSProviderWithClient wraps an existing Secrets Manager client.
func NewAWSProviderWithClient(client secretsmanageriface.SecretsManagerAPI) *AWSProvider {
	return &AWSProvider{
		client: client,
		logger: logger.GetForComponent("secrets"),
	}
}

// Resolve returns SecretString when present, otherwise the raw SecretBinary.
func (p *AWSProvider) Resolve(ctx context.Context, name string) (string, error) {
	out, err := p.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return "", errors.Join(ErrSecretNotFound, fmt.Errorf("secret %q: %w", name, err))
		}
		return "", fmt.Errorf("failed to get secret %q: %w", name, err)
	}

	var value string
	if out.SecretString != nil {
		value = aws.StringValue(out.SecretString)
	} else {
		value = string(out.SecretBinary)
	}
	if value == "" {
		return "", errors.Join(ErrSecretNotFound, fmt.Errorf("secret %q is empty", name))
	}

	p.logger.Debug().Str("secret", name).Msg("Secret resolved")
	return value, nil
}
