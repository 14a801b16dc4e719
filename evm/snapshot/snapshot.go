// Package snapshot refreshes the on-chain state each console surface renders
// from. Reads fan out concurrently where they are independent; every failed
// or unconfigured read leaves its field nil so the surfaces degrade to
// placeholders instead of showing zeros.
package snapshot

import (
	"context"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"dbconsole/evm"
	"dbconsole/native/borrow"
	"dbconsole/native/earn"
	"dbconsole/native/position"
	"dbconsole/observability"
)

// TokenMeta names a token's display symbol and decimal scale.
type TokenMeta struct {
	Symbol   string
	Decimals uint8
}

// Fallback unit of account when the debt vault's unit token is unknown.
var fallbackUnit = TokenMeta{Symbol: "USDC", Decimals: 6}

// SwapFunds carries the wallet balances and PSM allowances the swap surface
// depends on.
type SwapFunds struct {
	UnderlyingBalance   *big.Int
	SynthBalance        *big.Int
	UnderlyingAllowance *big.Int
	SynthAllowance      *big.Int
}

// Service reads the full state behind a surface in one pass.
type Service struct {
	client  *evm.Client
	addrs   evm.Addresses
	account common.Address
	tokens  map[common.Address]TokenMeta

	collateralDecimals uint8
	debtDecimals       uint8

	limiter *rate.Limiter
	metrics *observability.ConsoleMetrics
	logger  *slog.Logger
}

// NewService builds a refresher for one account. The tokens map resolves the
// debt vault's unit-of-account address to display metadata; limiter may be
// nil to disable throttling.
func NewService(client *evm.Client, addrs evm.Addresses, account common.Address, tokens map[common.Address]TokenMeta, collateralDecimals, debtDecimals uint8, limiter *rate.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:             client,
		addrs:              addrs,
		account:            account,
		tokens:             tokens,
		collateralDecimals: collateralDecimals,
		debtDecimals:       debtDecimals,
		limiter:            limiter,
		metrics:            observability.Console(),
		logger:             logger,
	}
}

// Allow reports whether a refresh for the surface fits the rate limit.
func (s *Service) Allow(surface string) bool {
	if s.limiter == nil || s.limiter.Allow() {
		return true
	}
	s.metrics.RecordThrottle(surface)
	return false
}

// read runs one contract read, records its outcome, and maps any failure to
// a nil result.
func (s *Service) read(name string, fn func() (*big.Int, error)) *big.Int {
	value, err := fn()
	s.metrics.RecordRead(name, err)
	if err != nil {
		s.logger.Debug("snapshot read failed", "read", name, "error", err)
		return nil
	}
	return value
}

// Borrow reads everything the borrow surface renders from: the position
// snapshot and the wallet balances and allowances.
func (s *Service) Borrow(ctx context.Context) (position.Snapshot, borrow.Wallet) {
	start := time.Now()
	defer func() { s.metrics.ObserveRefresh("borrow", time.Since(start)) }()

	snap := position.Snapshot{
		CollateralDecimals: s.collateralDecimals,
		DebtDecimals:       s.debtDecimals,
	}
	var wallet borrow.Wallet

	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() {
		wallet.NativeBalance = s.read("nativeBalance", func() (*big.Int, error) {
			return s.client.NativeBalance(ctx, s.account)
		})
	})
	if evm.Configured(s.addrs.WETH) {
		run(func() {
			wallet.CollateralBalance = s.read("collateralBalance", func() (*big.Int, error) {
				return s.client.ERC20Balance(ctx, s.addrs.WETH, s.account)
			})
		})
		if evm.Configured(s.addrs.CollateralVault) {
			run(func() {
				wallet.CollateralAllowance = s.read("collateralAllowance", func() (*big.Int, error) {
					return s.client.ERC20Allowance(ctx, s.addrs.WETH, s.account, s.addrs.CollateralVault)
				})
			})
		}
	}
	if evm.Configured(s.addrs.DBUSD) {
		run(func() {
			wallet.DebtBalance = s.read("debtBalance", func() (*big.Int, error) {
				return s.client.ERC20Balance(ctx, s.addrs.DBUSD, s.account)
			})
		})
		if evm.Configured(s.addrs.DebtVault) {
			run(func() {
				wallet.DebtAllowance = s.read("debtAllowance", func() (*big.Int, error) {
					return s.client.ERC20Allowance(ctx, s.addrs.DBUSD, s.account, s.addrs.DebtVault)
				})
			})
		}
	}
	if evm.Configured(s.addrs.DebtVault) {
		run(func() {
			snap.DebtAmount = s.read("debtOf", func() (*big.Int, error) {
				return s.client.VaultDebtOf(ctx, s.addrs.DebtVault, s.account)
			})
		})
		run(func() {
			snap.AvailableLiquidity = s.read("cash", func() (*big.Int, error) {
				return s.client.VaultCash(ctx, s.addrs.DebtVault)
			})
		})
		run(func() {
			snap.InterestRatePerSecond = s.read("interestRate", func() (*big.Int, error) {
				return s.client.VaultInterestRate(ctx, s.addrs.DebtVault)
			})
		})
		if evm.Configured(s.addrs.CollateralVault) {
			run(func() {
				snap.MaxLTVBps = s.read("ltvBorrow", func() (*big.Int, error) {
					return s.client.VaultLTVBorrow(ctx, s.addrs.DebtVault, s.addrs.CollateralVault)
				})
			})
			run(func() {
				snap.LiquidationLTVBps = s.read("ltvLiquidation", func() (*big.Int, error) {
					return s.client.VaultLTVLiquidation(ctx, s.addrs.DebtVault, s.addrs.CollateralVault)
				})
			})
		}
	}
	wg.Wait()

	// The valuation chain is sequential: shares feed the asset conversion
	// and the oracle quote, and the quote target comes from the vault's own
	// oracle and unit-of-account reads.
	unit := fallbackUnit
	if evm.Configured(s.addrs.CollateralVault) {
		snap.CollateralShares = s.read("shareBalance", func() (*big.Int, error) {
			return s.client.VaultShareBalance(ctx, s.addrs.CollateralVault, s.account)
		})
		if snap.CollateralShares != nil {
			snap.CollateralAssets = s.read("convertToAssets", func() (*big.Int, error) {
				return s.client.VaultConvertToAssets(ctx, s.addrs.CollateralVault, snap.CollateralShares)
			})
		}
		if evm.Configured(s.addrs.DebtVault) {
			oracle, err := s.client.VaultOracle(ctx, s.addrs.DebtVault)
			s.metrics.RecordRead("oracle", err)
			unitAddr, unitErr := s.client.VaultUnitOfAccount(ctx, s.addrs.DebtVault)
			s.metrics.RecordRead("unitOfAccount", unitErr)
			if unitErr == nil {
				if meta, ok := s.tokens[unitAddr]; ok {
					unit = meta
				}
			}
			if err == nil && unitErr == nil && snap.CollateralShares != nil {
				snap.CollateralValue = s.read("collateralValue", func() (*big.Int, error) {
					return s.client.RouterQuote(ctx, oracle, snap.CollateralShares, s.addrs.CollateralVault, unitAddr)
				})
			}
		}
	}
	snap.UnitDecimals = unit.Decimals

	return snap, wallet
}

// UnitSymbol resolves the display symbol of the unit of account, falling
// back to the default when the vault read fails.
func (s *Service) UnitSymbol(ctx context.Context) string {
	if evm.Configured(s.addrs.DebtVault) {
		if unitAddr, err := s.client.VaultUnitOfAccount(ctx, s.addrs.DebtVault); err == nil {
			if meta, ok := s.tokens[unitAddr]; ok {
				return meta.Symbol
			}
		}
	}
	return fallbackUnit.Symbol
}

// Earn reads everything the savings surface renders from.
func (s *Service) Earn(ctx context.Context) earn.Snapshot {
	start := time.Now()
	defer func() { s.metrics.ObserveRefresh("earn", time.Since(start)) }()

	var snap earn.Snapshot
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if evm.Configured(s.addrs.DBUSD) {
		run(func() {
			snap.AssetBalance = s.read("savingsAssetBalance", func() (*big.Int, error) {
				return s.client.ERC20Balance(ctx, s.addrs.DBUSD, s.account)
			})
		})
		if evm.Configured(s.addrs.SRM) {
			run(func() {
				snap.Allowance = s.read("savingsAllowance", func() (*big.Int, error) {
					return s.client.ERC20Allowance(ctx, s.addrs.DBUSD, s.account, s.addrs.SRM)
				})
			})
		}
	}
	if evm.Configured(s.addrs.SRM) {
		run(func() {
			snap.ShareBalance = s.read("savingsShares", func() (*big.Int, error) {
				return s.client.SRMShareBalance(ctx, s.addrs.SRM, s.account)
			})
		})
		run(func() {
			snap.MaxWithdraw = s.read("maxWithdraw", func() (*big.Int, error) {
				return s.client.SRMMaxWithdraw(ctx, s.addrs.SRM, s.account)
			})
		})
		run(func() {
			snap.DripRate = s.read("dripRate", func() (*big.Int, error) {
				return s.client.SRMDripRate(ctx, s.addrs.SRM)
			})
		})
		run(func() {
			snap.TotalAssets = s.read("totalAssets", func() (*big.Int, error) {
				return s.client.SRMTotalAssets(ctx, s.addrs.SRM)
			})
		})
	}
	wg.Wait()
	return snap
}

// Swap reads the balances and allowances behind the swap surface.
func (s *Service) Swap(ctx context.Context) SwapFunds {
	start := time.Now()
	defer func() { s.metrics.ObserveRefresh("swap", time.Since(start)) }()

	var funds SwapFunds
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	if evm.Configured(s.addrs.USDC) {
		run(func() {
			funds.UnderlyingBalance = s.read("underlyingBalance", func() (*big.Int, error) {
				return s.client.ERC20Balance(ctx, s.addrs.USDC, s.account)
			})
		})
		if evm.Configured(s.addrs.PSM) {
			run(func() {
				funds.UnderlyingAllowance = s.read("underlyingAllowance", func() (*big.Int, error) {
					return s.client.ERC20Allowance(ctx, s.addrs.USDC, s.account, s.addrs.PSM)
				})
			})
		}
	}
	if evm.Configured(s.addrs.DBUSD) {
		run(func() {
			funds.SynthBalance = s.read("synthBalance", func() (*big.Int, error) {
				return s.client.ERC20Balance(ctx, s.addrs.DBUSD, s.account)
			})
		})
		if evm.Configured(s.addrs.PSM) {
			run(func() {
				funds.SynthAllowance = s.read("synthAllowance", func() (*big.Int, error) {
					return s.client.ERC20Allowance(ctx, s.addrs.DBUSD, s.account, s.addrs.PSM)
				})
			})
		}
	}
	wg.Wait()
	return funds
}
