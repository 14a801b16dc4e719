package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const defaultReceiptPoll = 2 * time.Second

var errTxReverted = errors.New("transaction reverted on-chain")

// Transactor signs and submits contract calls for a single key and waits for
// their receipts. Callers serialize submissions per form, so nonce handling
// stays a simple pending-nonce read.
type Transactor struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	poll    time.Duration
}

// NewTransactor binds a signing key to a backend and chain.
func NewTransactor(backend Backend, key *ecdsa.PrivateKey, chainID *big.Int) *Transactor {
	return &Transactor{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		poll:    defaultReceiptPoll,
	}
}

// From returns the signing account's address.
func (t *Transactor) From() common.Address {
	return t.from
}

// Execute submits a state-changing call and blocks until it is mined,
// returning an error if the receipt reports a revert. The value argument is
// the native currency attached to the call; pass nil for none.
func (t *Transactor) Execute(ctx context.Context, to common.Address, contract abi.ABI, method string, value *big.Int, args ...interface{}) error {
	hash, err := t.submit(ctx, to, contract, method, value, args...)
	if err != nil {
		return err
	}
	return t.await(ctx, hash)
}

func (t *Transactor) submit(ctx context.Context, to common.Address, contract abi.ABI, method string, value *big.Int, args ...interface{}) (common.Hash, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", method, err)
	}
	if value == nil {
		value = new(big.Int)
	}
	nonce, err := t.backend.PendingNonceAt(ctx, t.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("read pending nonce: %w", err)
	}
	gasPrice, err := t.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}
	gasLimit, err := t.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  t.from,
		To:    &to,
		Value: value,
		Data:  input,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas for %s: %w", method, err)
	}
	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, input)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(t.chainID), t.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign %s: %w", method, err)
	}
	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send %s: %w", method, err)
	}
	return signed.Hash(), nil
}

func (t *Transactor) await(ctx context.Context, hash common.Hash) error {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()
	for {
		receipt, err := t.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("%w: %s", errTxReverted, hash.Hex())
			}
			return nil
		case errors.Is(err, ethereum.NotFound):
			// Not mined yet, keep polling.
		default:
			return fmt.Errorf("read receipt for %s: %w", hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
