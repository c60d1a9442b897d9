package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.SolanaRPCURL)
	assert.Equal(t, ":8080", cfg.ServerAddr) // Default
	assert.Equal(t, "info", cfg.LogLevel)    // Default
	assert.Equal(t, "wallets.json", cfg.WatchlistPath)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Hour, cfg.SeenTTL)
	assert.Equal(t, 15*time.Second, cfg.RPCTimeout)
	assert.Equal(t, 5, cfg.SignatureLimit)
	assert.True(t, cfg.MinBuyAmountSOL.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, 3, cfg.MinWalletsTrigger)
	assert.Equal(t, ProviderDexScreener, cfg.MetadataProvider)
	assert.Equal(t, 10, cfg.RankingTopK)
	assert.False(t, cfg.NATSEnabled())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestLoad_MissingSolanaRPCURL(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SOLANA_RPC_URL is required")
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("POLL_INTERVAL", "invalid")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_InvalidMinBuyAmount(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("MIN_BUY_AMOUNT_SOL", "half")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid decimal")
}

func TestLoad_SeenTTLMustExceedPollInterval(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	os.Setenv("POLL_INTERVAL", "30s")
	os.Setenv("SEEN_TTL", "10s")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "must be greater than PollInterval")
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SOLANA_RPC_URL", "https://mainnet.helius-rpc.com/?api-key=secret")
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("NATS_URL", "nats://nats.example.com:4222")
	os.Setenv("POLL_INTERVAL", "20s")
	os.Setenv("SIGNATURE_LIMIT", "10")
	os.Setenv("MIN_BUY_AMOUNT_SOL", "1.25")
	os.Setenv("MIN_WALLETS_TRIGGER", "2")
	os.Setenv("METADATA_PROVIDER", "birdeye")
	os.Setenv("BIRDEYE_URL", "https://public-api.birdeye.so/defi/v3")
	os.Setenv("BIRDEYE_API_KEY", "secret-key")
	os.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	os.Setenv("TELEGRAM_CHANNEL_ID", "-100123")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "nats://nats.example.com:4222", cfg.NATSURL)
	assert.True(t, cfg.NATSEnabled())
	assert.Equal(t, 20*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.SignatureLimit)
	assert.Equal(t, "1.25", cfg.MinBuyAmountSOL.String())
	assert.Equal(t, 2, cfg.MinWalletsTrigger)
	assert.Equal(t, ProviderBirdeye, cfg.MetadataProvider)
	assert.Equal(t, "secret-key", cfg.BirdeyeAPIKey)
	assert.True(t, cfg.TelegramEnabled())
}

func validConfig() *Config {
	return &Config{
		DatabaseURL:       "postgres://localhost/test",
		SolanaRPCURL:      "https://api.mainnet-beta.solana.com",
		WatchlistPath:     "wallets.json",
		PollInterval:      10 * time.Second,
		SeenTTL:           time.Hour,
		RPCTimeout:        15 * time.Second,
		SignatureLimit:    5,
		MinBuyAmountSOL:   decimal.RequireFromString("0.5"),
		MinWalletsTrigger: 3,
		MetadataProvider:  ProviderDexScreener,
		DexScreenerURL:    "https://api.dexscreener.com",
		MetadataRPS:       5,
		RankingTopK:       10,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatabaseURL is required")
}

func TestValidate_TooShortInterval(t *testing.T) {
	cfg := validConfig()
	cfg.PollInterval = 500 * time.Millisecond

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be at least 1 second")
}

func TestValidate_Thresholds(t *testing.T) {
	cfg := validConfig()
	cfg.MinWalletsTrigger = 0
	cfg.MinBuyAmountSOL = decimal.NewFromFloat(-1)
	cfg.SignatureLimit = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MinWalletsTrigger must be at least 1")
	assert.Contains(t, err.Error(), "MinBuyAmountSOL cannot be negative")
	assert.Contains(t, err.Error(), "SignatureLimit must be between 1 and 1000")
}

func TestValidate_BirdeyeRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.MetadataProvider = ProviderBirdeye

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BIRDEYE_URL is required")
	assert.Contains(t, err.Error(), "BIRDEYE_API_KEY is required")
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.MetadataProvider = "coingecko"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown METADATA_PROVIDER")
}

func TestValidate_TelegramHalfConfigured(t *testing.T) {
	cfg := validConfig()
	cfg.TelegramBotToken = "123:abc"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set together")
}

func TestMustLoad_Panics(t *testing.T) {
	// Don't set required env vars
	defer cleanupEnv()

	assert.Panics(t, func() {
		MustLoad()
	})
}

func TestMustLoad_Success(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/test")
	os.Setenv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com")
	defer cleanupEnv()

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

// cleanupEnv clears all environment variables used in tests
func cleanupEnv() {
	for _, key := range []string{
		"DATABASE_URL",
		"SOLANA_RPC_URL",
		"RPC_TIMEOUT",
		"SERVER_ADDR",
		"LOG_LEVEL",
		"NATS_URL",
		"WATCHLIST_PATH",
		"POLL_INTERVAL",
		"SEEN_TTL",
		"SIGNATURE_LIMIT",
		"MIN_BUY_AMOUNT_SOL",
		"MIN_WALLETS_TRIGGER",
		"METADATA_PROVIDER",
		"DEXSCREENER_URL",
		"BIRDEYE_URL",
		"BIRDEYE_API_KEY",
		"METADATA_RPS",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_CHANNEL_ID",
		"RANKING_TOP_K",
		"TOKEN_LINK_BASE",
	} {
		os.Unsetenv(key)
	}
}
