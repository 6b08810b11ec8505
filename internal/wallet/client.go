package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/elys-network/yieldkeeper/internal/config"
	"github.com/elys-network/yieldkeeper/internal/logger"
	"github.com/elys-network/yieldkeeper/internal/secrets"
)

// Error definitions for connection and signer setup
var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrRPCConnectionFailed = errors.New("RPC connection failed")
	ErrInvalidPrivateKey   = errors.New("private key is invalid")
	ErrChainIDUnavailable  = errors.New("chain ID unavailable")
)

// ChainIDReader is the part of a node connection the signer needs.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// Signer is the keeper's transacting identity on a specific chain.
type Signer struct {
	Address common.Address
	ChainID *big.Int
	opts    *bind.TransactOpts
}

// TransactOpts returns a copy of the signer's transact options bound to ctx.
// Nonce, gas price and gas limit are left to the node.
func (s *Signer) TransactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *s.opts
	opts.Context = ctx
	return &opts
}

// Connect dials the JSON-RPC endpoint.
func Connect(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("RPC URL cannot be empty"))
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Join(ErrRPCConnectionFailed, err)
	}
	return client, nil
}

// DeriveSigner parses a hex private key (with or without 0x) and binds it to the chain the connection serves.
func DeriveSigner(ctx context.Context, privateKeyHex string, conn ChainIDReader) (*Signer, error) {
	key, err := parsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	chainID, err := conn.ChainID(ctx)
	if err != nil {
		return nil, errors.Join(ErrChainIDUnavailable, err)
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, errors.Join(ErrChainIDUnavailable, fmt.Errorf("node returned chain ID %v", chainID))
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	return &Signer{
		Address: opts.From,
		ChainID: chainID,
		opts:    opts,
	}, nil
}

func parsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if trimmed == "" {
		return nil, errors.Join(ErrInvalidPrivateKey, errors.New("private key is empty"))
	}
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		// Never include the key material in the error.
		return nil, errors.Join(ErrInvalidPrivateKey, errors.New("not a valid secp256k1 hex key"))
	}
	return key, nil
}

// Session is the connection and signer pair scoped to one invocation.
type Session struct {
	Client *ethclient.Client
	Signer *Signer
}

// OpenSession resolves the API key and private key, dials the node and derives the signer.
// The caller must Close the session.
func OpenSession(ctx context.Context, endpoints config.Endpoints, provider secrets.Provider) (*Session, error) {
	walletLogger := logger.GetForComponent("wallet_client")

	apiKey, err := provider.Resolve(ctx, endpoints.APIKeySecretName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve API key: %w", err)
	}

	client, err := Connect(ctx, endpoints.RPCURL(apiKey))
	if err != nil {
		return nil, err
	}

	privateKey, err := provider.Resolve(ctx, endpoints.PrivateKeySecretName)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to resolve private key: %w", err)
	}

	signer, err := DeriveSigner(ctx, privateKey, client)
	if err != nil {
		client.Close()
		return nil, err
	}

	walletLogger.Info().
		Str("address", signer.Address.Hex()).
		Str("chainID", signer.ChainID.String()).
		Msg("Session opened")

	return &Session{Client: client, Signer: signer}, nil
}

// Close releases the RPC connection.
func (s *Session) Close() {
	if s != nil && s.Client != nil {
		s.Client.Close()
	}
}
