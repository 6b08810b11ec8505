package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/yieldkeeper/internal/config"
	"github.com/elys-network/yieldkeeper/internal/secrets"
	"github.com/elys-network/yieldkeeper/internal/types"
	"github.com/elys-network/yieldkeeper/internal/vault"
	"github.com/elys-network/yieldkeeper/internal/wallet"
)

type stubFarm struct {
	snapshot  types.PositionSnapshot
	readErr   error
	deposits  int
	withdraws int
}

func (s *stubFarm) GetPositionInfo(context.Context, common.Address) (types.PositionSnapshot, error) {
	return s.snapshot, s.readErr
}

func (s *stubFarm) Deposit(context.Context, common.Address, sdkmath.Int, uint64) (string, error) {
	s.deposits++
	return "0xdeposit", nil
}

func (s *stubFarm) Withdraw(context.Context, common.Address, sdkmath.Int) (string, error) {
	s.withdraws++
	return "0xwithdraw", nil
}

type recordedRun struct {
	result *types.RunResult
	err    error
}

type stubLedger struct {
	runs []recordedRun
	err  error
}

func (l *stubLedger) RecordRun(_ context.Context, result *types.RunResult, runErr error) error {
	l.runs = append(l.runs, recordedRun{result: result, err: runErr})
	return l.err
}

func newTestHandler(t *testing.T, farm *stubFarm, ledger Ledger) *Handler {
	t.Helper()
	h, err := New(Config{
		Strategy: config.DefaultStrategy,
		OpenSession: func(context.Context) (*wallet.Session, error) {
			return &wallet.Session{}, nil
		},
		NewFarm: func(*wallet.Session) (vault.Farm, error) { return farm, nil },
		Ledger:  ledger,
	})
	require.NoError(t, err)
	return h
}

func decodeBody(t *testing.T, body string) string {
	t.Helper()
	var message string
	require.NoError(t, json.Unmarshal([]byte(body), &message))
	return message
}

func position(supplied, borrowed, rewards int64) types.PositionSnapshot {
	return types.PositionSnapshot{
		Supplied: sdkmath.NewInt(supplied),
		Borrowed: sdkmath.NewInt(borrowed),
		Rewards:  sdkmath.NewInt(rewards),
	}
}

func TestResponse(t *testing.T) {
	ok := Response(nil)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
	assert.Equal(t, `"Execution completed successfully"`, ok.Body)

	failed := Response(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, failed.StatusCode)
	assert.Equal(t, `"Error during execution"`, failed.Body)
}

func TestInvoke_NoActionReturns200(t *testing.T) {
	farm := &stubFarm{snapshot: position(2_000_000, 1_000_000, 864_000_000)}
	ledger := &stubLedger{}

	resp := newTestHandler(t, farm, ledger).Invoke(context.Background(), json.RawMessage(`{}`))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, SuccessMessage, decodeBody(t, resp.Body))
	assert.Zero(t, farm.deposits)
	assert.Zero(t, farm.withdraws)

	require.Len(t, ledger.runs, 1)
	assert.NoError(t, ledger.runs[0].err)
	assert.NotEmpty(t, ledger.runs[0].result.RunID)
}

func TestInvoke_ReadFailureReturns500WithoutWrites(t *testing.T) {
	farm := &stubFarm{readErr: errors.New("execution reverted")}
	ledger := &stubLedger{}

	resp := newTestHandler(t, farm, ledger).Invoke(context.Background(), nil)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, FailureMessage, decodeBody(t, resp.Body))
	assert.Zero(t, farm.deposits)
	assert.Zero(t, farm.withdraws)

	require.Len(t, ledger.runs, 1)
	assert.Error(t, ledger.runs[0].err)
}

func TestInvoke_SessionFailureReturns500AndIsRecorded(t *testing.T) {
	ledger := &stubLedger{}
	h, err := New(Config{
		Strategy: config.DefaultStrategy,
		OpenSession: func(context.Context) (*wallet.Session, error) {
			return nil, secrets.ErrSecretNotFound
		},
		NewFarm: func(*wallet.Session) (vault.Farm, error) {
			t.Fatal("farm must not be bound without a session")
			return nil, nil
		},
		Ledger: ledger,
	})
	require.NoError(t, err)

	resp := h.Invoke(context.Background(), nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	require.Len(t, ledger.runs, 1)
	assert.ErrorIs(t, ledger.runs[0].err, secrets.ErrSecretNotFound)
	assert.NotEmpty(t, ledger.runs[0].result.RunID)
}

func TestInvoke_DepositReturns200(t *testing.T) {
	farm := &stubFarm{snapshot: position(2_000_000, 1_000_000, 16_439*86_400)}

	resp := newTestHandler(t, farm, nil).Invoke(context.Background(), nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, farm.deposits)
	assert.Zero(t, farm.withdraws)
}

func TestInvoke_LedgerFailureDoesNotChangeStatus(t *testing.T) {
	farm := &stubFarm{snapshot: position(2_000_000, 1_000_000, 864_000_000)}
	ledger := &stubLedger{err: errors.New("connection refused")}

	resp := newTestHandler(t, farm, ledger).Invoke(context.Background(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRun_ReturnsEvaluations(t *testing.T) {
	farm := &stubFarm{snapshot: position(2_000_000, 1_000_000, 2_740*86_400)}

	result, err := newTestHandler(t, farm, nil).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Evaluations, 1)
	assert.Equal(t, types.ActionWithdraw, result.Evaluations[0].Action)
	assert.Equal(t, 1, farm.withdraws)
}

func TestNew_Validation(t *testing.T) {
	opener := func(context.Context) (*wallet.Session, error) { return &wallet.Session{}, nil }
	factory := func(*wallet.Session) (vault.Farm, error) { return &stubFarm{}, nil }

	_, err := New(Config{Strategy: config.DefaultStrategy, NewFarm: factory})
	assert.Error(t, err)

	_, err = New(Config{Strategy: config.DefaultStrategy, OpenSession: opener})
	assert.Error(t, err)

	_, err = New(Config{Strategy: config.Strategy{}, OpenSession: opener, NewFarm: factory})
	assert.Error(t, err)

	_, err = NewFromConfig(nil, secrets.EnvProvider{}, nil)
	assert.Error(t, err)
}
