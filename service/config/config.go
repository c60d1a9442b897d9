package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Metadata providers supported by the token resolver.
const (
	ProviderDexScreener = "dexscreener"
	ProviderBirdeye     = "birdeye"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Database configuration
	DatabaseURL string

	// Solana configuration
	SolanaRPCURL string
	RPCTimeout   time.Duration

	// Watchlist and polling configuration
	WatchlistPath  string
	PollInterval   time.Duration
	SignatureLimit int
	SeenTTL        time.Duration

	// Signal thresholds
	MinBuyAmountSOL   decimal.Decimal
	MinWalletsTrigger int

	// Token metadata configuration
	MetadataProvider string
	DexScreenerURL   string
	BirdeyeURL       string
	BirdeyeAPIKey    string
	MetadataRPS      float64

	// Delivery configuration (both optional)
	NATSURL           string
	TelegramBotToken  string
	TelegramChannelID string

	// Reporting configuration
	RankingTopK   int
	TokenLinkBase string
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Database configuration
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required"))
	}

	// Solana configuration
	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}

	rpcTimeout, err := parseDuration("RPC_TIMEOUT", "15s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RPCTimeout = rpcTimeout
	}

	// Watchlist and polling configuration
	cfg.WatchlistPath = getEnvOrDefault("WATCHLIST_PATH", "wallets.json")

	pollInterval, err := parseDuration("POLL_INTERVAL", "10s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PollInterval = pollInterval
	}

	seenTTL, err := parseDuration("SEEN_TTL", "1h")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SeenTTL = seenTTL
	}

	limit, err := parseInt("SIGNATURE_LIMIT", 5)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SignatureLimit = limit
	}

	// Signal thresholds
	minBuy, err := parseDecimal("MIN_BUY_AMOUNT_SOL", "0.5")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MinBuyAmountSOL = minBuy
	}

	trigger, err := parseInt("MIN_WALLETS_TRIGGER", 3)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MinWalletsTrigger = trigger
	}

	// Token metadata configuration
	cfg.MetadataProvider = getEnvOrDefault("METADATA_PROVIDER", ProviderDexScreener)
	cfg.DexScreenerURL = getEnvOrDefault("DEXSCREENER_URL", "https://api.dexscreener.com")
	cfg.BirdeyeURL = os.Getenv("BIRDEYE_URL")
	cfg.BirdeyeAPIKey = os.Getenv("BIRDEYE_API_KEY")

	rps, err := parseFloat("METADATA_RPS", 5)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.MetadataRPS = rps
	}

	// Delivery configuration
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChannelID = os.Getenv("TELEGRAM_CHANNEL_ID")

	// Reporting configuration
	topK, err := parseInt("RANKING_TOP_K", 10)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RankingTopK = topK
	}
	cfg.TokenLinkBase = getEnvOrDefault("TOKEN_LINK_BASE", "https://app.axiom.xyz/token/")

	// Parse errors are reported before cross-field validation so the
	// messages are not drowned out by follow-on failures.
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DatabaseURL is required"))
	}

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if c.WatchlistPath == "" {
		errs = append(errs, fmt.Errorf("WatchlistPath is required"))
	}

	if c.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("PollInterval must be at least 1 second"))
	}

	if c.SeenTTL <= c.PollInterval {
		errs = append(errs, fmt.Errorf("SeenTTL (%v) must be greater than PollInterval (%v)", c.SeenTTL, c.PollInterval))
	}

	if c.RPCTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RPCTimeout must be positive"))
	}

	if c.SignatureLimit < 1 || c.SignatureLimit > 1000 {
		errs = append(errs, fmt.Errorf("SignatureLimit must be between 1 and 1000, got %d", c.SignatureLimit))
	}

	if c.MinBuyAmountSOL.IsNegative() {
		errs = append(errs, fmt.Errorf("MinBuyAmountSOL cannot be negative"))
	}

	if c.MinWalletsTrigger < 1 {
		errs = append(errs, fmt.Errorf("MinWalletsTrigger must be at least 1, got %d", c.MinWalletsTrigger))
	}

	switch c.MetadataProvider {
	case ProviderDexScreener:
		if c.DexScreenerURL == "" {
			errs = append(errs, fmt.Errorf("DexScreenerURL is required for the dexscreener provider"))
		}
	case ProviderBirdeye:
		if c.BirdeyeURL == "" {
			errs = append(errs, fmt.Errorf("BIRDEYE_URL is required for the birdeye provider"))
		}
		if c.BirdeyeAPIKey == "" {
			errs = append(errs, fmt.Errorf("BIRDEYE_API_KEY is required for the birdeye provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown METADATA_PROVIDER %q (expected %q or %q)",
			c.MetadataProvider, ProviderDexScreener, ProviderBirdeye))
	}

	if c.MetadataRPS <= 0 {
		errs = append(errs, fmt.Errorf("MetadataRPS must be positive"))
	}

	// Telegram needs both halves or neither.
	if (c.TelegramBotToken == "") != (c.TelegramChannelID == "") {
		errs = append(errs, fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHANNEL_ID must be set together"))
	}

	if c.RankingTopK < 1 {
		errs = append(errs, fmt.Errorf("RankingTopK must be at least 1, got %d", c.RankingTopK))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChannelID != ""
}

// NATSEnabled reports whether signals should be fanned out to JetStream.
func (c *Config) NATSEnabled() bool {
	return c.NATSURL != ""
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, value, err)
	}
	return result, nil
}

func parseDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnvOrDefault(key, defaultValue)
	result, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, value, err)
	}
	return result, nil
}
