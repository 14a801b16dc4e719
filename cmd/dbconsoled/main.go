package main

import (
	"context"
	"flag"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/time/rate"

	"dbconsole/config"
	"dbconsole/evm"
	"dbconsole/evm/snapshot"
	"dbconsole/native/borrow"
	"dbconsole/native/earn"
	"dbconsole/native/swap"
	"dbconsole/observability/logging"
	"dbconsole/services/console"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config/console.yaml", "path to dbconsoled config")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.Setup(logging.Options{Service: "dbconsoled", Env: cfg.Environment, File: cfg.Log.File})

	keyHex, err := os.ReadFile(cfg.Wallet.KeyFile)
	if err != nil {
		log.Fatalf("read signing key: %v", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(string(keyHex)), "0x"))
	if err != nil {
		log.Fatalf("parse signing key: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := evm.Dial(ctx, cfg.RPC.Endpoint)
	if err != nil {
		log.Fatalf("connect rpc: %v", err)
	}
	defer backend.Close()

	client := evm.NewClient(backend)
	transactor := evm.NewTransactor(backend, key, big.NewInt(cfg.RPC.ChainID))

	addrs := evm.Addresses{
		USDC:            config.Address(cfg.Contracts.USDC),
		DBUSD:           config.Address(cfg.Contracts.DBUSD),
		WETH:            config.Address(cfg.Contracts.WETH),
		CollateralVault: config.Address(cfg.Contracts.CollateralVault),
		DebtVault:       config.Address(cfg.Contracts.DebtVault),
		PSM:             config.Address(cfg.Contracts.PSM),
		SRM:             config.Address(cfg.Contracts.SRM),
	}

	tokens := make(map[common.Address]snapshot.TokenMeta, len(cfg.Tokens))
	for _, token := range cfg.Tokens {
		tokens[config.Address(token.Address)] = snapshot.TokenMeta{
			Symbol:   token.Symbol,
			Decimals: token.Decimals,
		}
	}

	var limiter *rate.Limiter
	if cfg.Refresh.PerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Refresh.PerSecond), cfg.Refresh.Burst)
	}

	snapshots := snapshot.NewService(client, addrs, transactor.From(), tokens, 18, 18, limiter, logger)

	borrowForm := borrow.NewForm(evm.NewBorrowActions(client, transactor, addrs), logger)
	borrowForm.SetContracts(borrow.Contracts{
		CollateralToken: evm.Configured(addrs.WETH),
		CollateralVault: evm.Configured(addrs.CollateralVault),
		DebtToken:       evm.Configured(addrs.DBUSD),
		DebtVault:       evm.Configured(addrs.DebtVault),
	})
	borrowForm.SetSymbols(borrow.Symbols{
		Collateral: "WETH",
		Debt:       "dbUSD",
		Unit:       snapshots.UnitSymbol(ctx),
	})
	borrowForm.SetConfigWarning(configWarning([]contractRef{
		{"weth", addrs.WETH},
		{"collateral_vault", addrs.CollateralVault},
		{"dbusd", addrs.DBUSD},
		{"debt_vault", addrs.DebtVault},
	}))

	swapForm := swap.NewForm(evm.NewSwapActions(client, transactor, addrs), swap.Pair{
		Underlying: swap.Token{Symbol: "USDC", Decimals: 6, Configured: evm.Configured(addrs.USDC)},
		Synth:      swap.Token{Symbol: "dbUSD", Decimals: 18, Configured: evm.Configured(addrs.DBUSD)},
	}, evm.Configured(addrs.PSM), logger)
	swapForm.SetConfigWarning(configWarning([]contractRef{
		{"usdc", addrs.USDC},
		{"dbusd", addrs.DBUSD},
		{"psm", addrs.PSM},
	}))

	earnForm := earn.NewForm(evm.NewEarnActions(client, transactor, addrs),
		"dbUSD", 18, evm.Configured(addrs.SRM), evm.Configured(addrs.DBUSD), logger)
	earnForm.SetConfigWarning(configWarning([]contractRef{
		{"dbusd", addrs.DBUSD},
		{"srm", addrs.SRM},
	}))

	refreshBorrow := func(ctx context.Context) error {
		snap, wallet := snapshots.Borrow(ctx)
		borrowForm.SetSnapshot(snap, wallet)
		return nil
	}
	refreshSwap := func(ctx context.Context) error {
		funds := snapshots.Swap(ctx)
		swapForm.SetBalances(funds.UnderlyingBalance, funds.SynthBalance)
		swapForm.SetAllowances(funds.UnderlyingAllowance, funds.SynthAllowance)
		return nil
	}
	refreshEarn := func(ctx context.Context) error {
		earnForm.SetSnapshot(snapshots.Earn(ctx))
		return nil
	}
	borrowForm.SetRefresh(refreshBorrow)
	swapForm.SetRefresh(refreshSwap)
	earnForm.SetRefresh(refreshEarn)

	// Prime every surface before serving.
	_ = refreshBorrow(ctx)
	_ = refreshSwap(ctx)
	_ = refreshEarn(ctx)

	server := console.NewServer(borrowForm, swapForm, earnForm, console.Refresh{
		Borrow: refreshBorrow,
		Swap:   refreshSwap,
		Earn:   refreshEarn,
		Allow:  snapshots.Allow,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("console listening", "addr", cfg.ListenAddress, "account", transactor.From().Hex())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}
}

type contractRef struct {
	name string
	addr common.Address
}

// configWarning builds the persistent banner text for a surface from its
// unconfigured contract entries. An empty string means fully configured.
func configWarning(refs []contractRef) string {
	missing := make([]string, 0, len(refs))
	for _, ref := range refs {
		if !evm.Configured(ref.addr) {
			missing = append(missing, ref.name)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "Missing configuration: " + strings.Join(missing, ", ") + "."
}
