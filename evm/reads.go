package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Typed wrappers over the view methods the snapshot refresher reads. Each
// maps one contract method onto the generic call helpers.

func (c *Client) ERC20Balance(ctx context.Context, token, account common.Address) (*big.Int, error) {
	return c.CallUint(ctx, token, erc20ABI, "balanceOf", account)
}

func (c *Client) ERC20Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	return c.CallUint(ctx, token, erc20ABI, "allowance", owner, spender)
}

func (c *Client) VaultShareBalance(ctx context.Context, vault, account common.Address) (*big.Int, error) {
	return c.CallUint(ctx, vault, vaultABI, "balanceOf", account)
}

func (c *Client) VaultConvertToAssets(ctx context.Context, vault common.Address, shares *big.Int) (*big.Int, error) {
	return c.CallUint(ctx, vault, vaultABI, "convertToAssets", shares)
}

func (c *Client) VaultDebtOf(ctx context.Context, vault, account common.Address) (*big.Int, error) {
	return c.CallUint(ctx, vault, vaultABI, "debtOf", account)
}

func (c *Client) VaultCash(ctx context.Context, vault common.Address) (*big.Int, error) {
	return c.CallUint(ctx, vault, vaultABI, "cash")
}

func (c *Client) VaultOracle(ctx context.Context, vault common.Address) (common.Address, error) {
	return c.CallAddress(ctx, vault, vaultABI, "oracle")
}

func (c *Client) VaultUnitOfAccount(ctx context.Context, vault common.Address) (common.Address, error) {
	return c.CallAddress(ctx, vault, vaultABI, "unitOfAccount")
}

func (c *Client) VaultLTVBorrow(ctx context.Context, vault, collateral common.Address) (*big.Int, error) {
	return c.CallUint(ctx, vault, vaultABI, "LTVBorrow", collateral)
}

func (c *Client) VaultLTVLiquidation(ctx context.Context, vault, collateral common.Address) (*big.Int, error) {
	return c.CallUint(ctx, vault, vaultABI, "LTVLiquidation", collateral)
}

func (c *Client) VaultInterestRate(ctx context.Context, vault common.Address) (*big.Int, error) {
	return c.CallUint(ctx, vault, vaultABI, "interestRate")
}

func (c *Client) RouterQuote(ctx context.Context, router common.Address, inAmount *big.Int, base, quote common.Address) (*big.Int, error) {
	return c.CallUint(ctx, router, routerABI, "getQuote", inAmount, base, quote)
}

func (c *Client) SRMShareBalance(ctx context.Context, srm, account common.Address) (*big.Int, error) {
	return c.CallUint(ctx, srm, srmABI, "balanceOf", account)
}

func (c *Client) SRMMaxWithdraw(ctx context.Context, srm, owner common.Address) (*big.Int, error) {
	return c.CallUint(ctx, srm, srmABI, "maxWithdraw", owner)
}

func (c *Client) SRMDripRate(ctx context.Context, srm common.Address) (*big.Int, error) {
	return c.CallUint(ctx, srm, srmABI, "dripRate")
}

func (c *Client) SRMTotalAssets(ctx context.Context, srm common.Address) (*big.Int, error) {
	return c.CallUint(ctx, srm, srmABI, "totalAssets")
}
