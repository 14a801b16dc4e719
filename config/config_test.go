package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
rpc:
  endpoint: https://rpc.example.org
  chain_id: 1
wallet:
  key_file: /etc/dbconsole/key
refresh:
  per_second: 0.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8490", cfg.ListenAddress)
	require.Equal(t, 1, cfg.Refresh.Burst)
}

func TestLoadRejectsBadAddress(t *testing.T) {
	path := writeConfig(t, `
rpc:
  endpoint: https://rpc.example.org
  chain_id: 1
wallet:
  key_file: /etc/dbconsole/key
contracts:
  psm: not-an-address
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "psm")
}

func TestLoadAllowsUnsetContracts(t *testing.T) {
	path := writeConfig(t, `
rpc:
  endpoint: https://rpc.example.org
  chain_id: 10
wallet:
  key_file: /etc/dbconsole/key
contracts:
  weth: "0x4200000000000000000000000000000000000006"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, cfg.Contracts.PSM)
	require.True(t, Address(cfg.Contracts.WETH) != Address(""))
}

func TestLoadRequiresEndpoint(t *testing.T) {
	path := writeConfig(t, `
wallet:
  key_file: /etc/dbconsole/key
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "endpoint")
}

func TestLoadValidatesTokens(t *testing.T) {
	path := writeConfig(t, `
rpc:
  endpoint: https://rpc.example.org
  chain_id: 1
wallet:
  key_file: /etc/dbconsole/key
tokens:
  - address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
    symbol: ""
    decimals: 6
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "symbol")
}
