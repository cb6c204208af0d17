package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Version     string
	Dealer      DealerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Solana      SolanaConfig
	BSC         BSCConfig
}

// DealerConfig contains the control loop's process-scoped settings.
//
// WalletImpl and StrategyImpl are the two named selectors spec.md §6
// requires; an unrecognized or empty value is a ConfigurationError raised
// at construction time, never from tick().
type DealerConfig struct {
	MinimumPositiveLiabilityUSD float64
	WalletImpl                  string // "solana" or "bsc"
	StrategyImpl                string // "paper" today; additional names are wired as strategies are added
	DepositRetries              int
	TickInterval                time.Duration
	PriceCacheTTL               time.Duration
}

// DatabaseConfig contains PostgreSQL configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	SSLMode      string
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SolanaConfig contains Solana blockchain configuration
type SolanaConfig struct {
	RPCURL            string
	WalletPrivateKey  string
	WalletAddress     string
	Network           string // mainnet, testnet, devnet
	ConfirmationLevel string // finalized, confirmed
	USDCMint          string // SPL mint backing the USD-denominated liability balance
}

// BSCConfig contains Binance Smart Chain configuration
type BSCConfig struct {
	RPCURL           string
	WalletPrivateKey string
	WalletAddress    string
	Network          string // mainnet, testnet
	ChainID          int64
	USDTContract     string // BEP20 contract backing the USD-denominated liability balance
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	config := &Config{
		Environment: getEnv("ENV", "development"),
		Version:     getEnv("VERSION", "1.0.0"),
		Dealer: DealerConfig{
			MinimumPositiveLiabilityUSD: getEnvAsFloat("DEALER_MIN_POSITIVE_LIABILITY_USD", 5.0),
			WalletImpl:                  getEnv("DEALER_WALLET_IMPL", "solana"),
			StrategyImpl:                getEnv("DEALER_STRATEGY_IMPL", "paper"),
			DepositRetries:              getEnvAsInt("DEALER_DEPOSIT_RETRIES", 2),
			TickInterval:                time.Duration(getEnvAsInt("DEALER_TICK_INTERVAL_SECONDS", 30)) * time.Second,
			PriceCacheTTL:               time.Duration(getEnvAsInt("DEALER_PRICE_CACHE_TTL_SECONDS", 5)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "dealer"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Solana: SolanaConfig{
			RPCURL:            getEnv("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
			WalletPrivateKey:  getEnv("SOLANA_WALLET_PRIVATE_KEY", ""),
			WalletAddress:     getEnv("SOLANA_WALLET_ADDRESS", ""),
			Network:           getEnv("SOLANA_NETWORK", "devnet"),
			ConfirmationLevel: getEnv("SOLANA_CONFIRMATION_LEVEL", "finalized"),
			USDCMint:          getEnv("SOLANA_USDC_MINT", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"),
		},
		BSC: BSCConfig{
			RPCURL:           getEnv("BSC_RPC_URL", "https://data-seed-prebsc-1-s1.binance.org:8545"),
			WalletPrivateKey: getEnv("BSC_WALLET_PRIVATE_KEY", ""),
			WalletAddress:    getEnv("BSC_WALLET_ADDRESS", ""),
			Network:          getEnv("BSC_NETWORK", "testnet"),
			ChainID:          getEnvAsInt64("BSC_CHAIN_ID", 97),
			USDTContract:     getEnv("BSC_USDT_CONTRACT", ""),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if all required configuration values are set
func (c *Config) Validate() error {
	var errs []string

	if c.Dealer.WalletImpl == "" {
		errs = append(errs, "DEALER_WALLET_IMPL is required")
	}
	if c.Dealer.StrategyImpl == "" {
		errs = append(errs, "DEALER_STRATEGY_IMPL is required")
	}
	if c.Dealer.MinimumPositiveLiabilityUSD < 0 {
		errs = append(errs, "DEALER_MIN_POSITIVE_LIABILITY_USD must be non-negative")
	}

	if c.Database.Host == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if c.Database.Database == "" {
		errs = append(errs, "DB_NAME is required")
	}

	if c.Redis.Host == "" {
		errs = append(errs, "REDIS_HOST is required")
	}

	if c.Environment == "production" {
		if c.Database.Password == "" {
			errs = append(errs, "DB_PASSWORD is required in production")
		}
		if c.Database.SSLMode == "disable" {
			errs = append(errs, "DB_SSL_MODE must be enabled in production")
		}
		switch c.Dealer.WalletImpl {
		case "solana":
			if c.Solana.WalletPrivateKey == "" {
				errs = append(errs, "SOLANA_WALLET_PRIVATE_KEY is required in production")
			}
		case "bsc":
			if c.BSC.WalletPrivateKey == "" {
				errs = append(errs, "BSC_WALLET_PRIVATE_KEY is required in production")
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetDatabaseDSN returns PostgreSQL connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns Redis connection address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions to read environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
