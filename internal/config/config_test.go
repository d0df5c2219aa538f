package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func validConfig() *Config {
	return &Config{
		PrivateKey:       testKey,
		RPCURL:           DefaultRPCURL,
		RegistryContract: "0x1111111111111111111111111111111111111111",
		EscrowContract:   "0x2222222222222222222222222222222222222222",
		JWTSecret:        "secret",
		ExplorerURL:      DefaultExplorerURL,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	t.Run("0x prefix accepted", func(t *testing.T) {
		cfg := validConfig()
		cfg.PrivateKey = "0x" + testKey
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing private key", func(t *testing.T) {
		cfg := validConfig()
		cfg.PrivateKey = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("short private key", func(t *testing.T) {
		cfg := validConfig()
		cfg.PrivateKey = "abc123"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing contracts", func(t *testing.T) {
		cfg := validConfig()
		cfg.RegistryContract = ""
		assert.Error(t, cfg.Validate())

		cfg = validConfig()
		cfg.EscrowContract = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestTxURL(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "https://sepolia.etherscan.io/tx/0xabc", cfg.TxURL("0xabc"))
}
