package evm

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// stubBackend answers contract calls from canned return data and records
// submitted transactions.
type stubBackend struct {
	callResult  []byte
	callErr     error
	sent        []*types.Transaction
	receipts    map[common.Hash]*types.Receipt
	receiptErrs int
}

func (b *stubBackend) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	return b.callResult, b.callErr
}

func (b *stubBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(42), nil
}

func (b *stubBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (b *stubBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *stubBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 90_000, nil
}

func (b *stubBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.sent = append(b.sent, tx)
	return nil
}

func (b *stubBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if b.receiptErrs > 0 {
		b.receiptErrs--
		return nil, ethereum.NotFound
	}
	receipt, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func uint256Word(value int64) []byte {
	return common.LeftPadBytes(big.NewInt(value).Bytes(), 32)
}

func TestCallUintWidensNarrowReturns(t *testing.T) {
	backend := &stubBackend{callResult: uint256Word(8000)}
	client := NewClient(backend)

	// LTVBorrow returns uint16 on the wire; the read must still come back
	// as a *big.Int.
	got, err := client.VaultLTVBorrow(context.Background(), common.Address{1}, common.Address{2})
	require.NoError(t, err)
	require.Equal(t, int64(8000), got.Int64())
}

func TestCallUintWrapsBackendError(t *testing.T) {
	backend := &stubBackend{callErr: errors.New("execution reverted")}
	client := NewClient(backend)

	_, err := client.VaultCash(context.Background(), common.Address{1})
	require.ErrorContains(t, err, "call cash")
	require.ErrorContains(t, err, "execution reverted")
}

func TestERC20BalanceDecodes(t *testing.T) {
	backend := &stubBackend{callResult: uint256Word(123456)}
	client := NewClient(backend)

	got, err := client.ERC20Balance(context.Background(), common.Address{1}, common.Address{2})
	require.NoError(t, err)
	require.Equal(t, int64(123456), got.Int64())
}

func testTransactor(t *testing.T, backend *stubBackend) *Transactor {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := NewTransactor(backend, key, big.NewInt(1))
	tx.poll = time.Millisecond
	return tx
}

func TestExecuteWaitsForReceipt(t *testing.T) {
	backend := &stubBackend{receipts: map[common.Hash]*types.Receipt{}, receiptErrs: 2}
	tx := testTransactor(t, backend)

	hash, err := tx.submit(context.Background(), common.Address{3}, erc20ABI, "approve", nil, common.Address{4}, big.NewInt(10))
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)
	backend.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusSuccessful}

	require.NoError(t, tx.await(context.Background(), hash))
}

func TestExecuteReportsRevert(t *testing.T) {
	backend := &stubBackend{receipts: map[common.Hash]*types.Receipt{}}
	tx := testTransactor(t, backend)

	hash, err := tx.submit(context.Background(), common.Address{3}, erc20ABI, "approve", nil, common.Address{4}, big.NewInt(10))
	require.NoError(t, err)
	backend.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusFailed}

	err = tx.await(context.Background(), hash)
	require.ErrorIs(t, err, errTxReverted)
}

func TestAwaitHonoursContext(t *testing.T) {
	backend := &stubBackend{receipts: map[common.Hash]*types.Receipt{}}
	tx := testTransactor(t, backend)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err := tx.await(ctx, common.Hash{9})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
