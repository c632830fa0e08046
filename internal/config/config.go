package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"apega/internal/services/fees"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// Values come from the environment (optionally seeded by a .env file) with
// defaults for every key.
type Config struct {
	Env      string         `mapstructure:"env"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Fees     FeesConfig     `mapstructure:"fees"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Orders   OrdersConfig   `mapstructure:"orders"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns the key/value connection string the gorm postgres driver expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// FeesConfig holds the fee schedule used until the settings table says
// otherwise. Values are decimal strings.
type FeesConfig struct {
	CommissionStandard string        `mapstructure:"commission_standard"`
	CommissionPremium  string        `mapstructure:"commission_premium"`
	PixFee             string        `mapstructure:"pix_fee"`
	CardFeePercent     string        `mapstructure:"card_fee_percent"`
	CardFeeFixed       string        `mapstructure:"card_fee_fixed"`
	BoletoFee          string        `mapstructure:"boleto_fee"`
	WithdrawalFee      string        `mapstructure:"withdrawal_fee"`
	Cashback           string        `mapstructure:"cashback"`
	RefreshInterval    time.Duration `mapstructure:"refresh_interval"`
}

// Configuration parses the defaults into a validated fee schedule.
func (f FeesConfig) Configuration() (fees.Configuration, error) {
	var cfg fees.Configuration
	targets := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"commission_standard", f.CommissionStandard, &cfg.CommissionRateStandard},
		{"commission_premium", f.CommissionPremium, &cfg.CommissionRatePremium},
		{"pix_fee", f.PixFee, &cfg.PixFeeRate},
		{"card_fee_percent", f.CardFeePercent, &cfg.CardFeeRate},
		{"card_fee_fixed", f.CardFeeFixed, &cfg.CardFeeFixed},
		{"boleto_fee", f.BoletoFee, &cfg.BoletoFeeFixed},
		{"withdrawal_fee", f.WithdrawalFee, &cfg.WithdrawalFeeFixed},
		{"cashback", f.Cashback, &cfg.CashbackRate},
	}
	for _, t := range targets {
		v, err := decimal.NewFromString(strings.TrimSpace(t.raw))
		if err != nil {
			return fees.Configuration{}, fmt.Errorf("fees.%s: %w", t.name, err)
		}
		*t.dst = v
	}
	if err := cfg.Validate(); err != nil {
		return fees.Configuration{}, err
	}
	return cfg, nil
}

type WalletConfig struct {
	MinimumWithdrawal string        `mapstructure:"minimum_withdrawal"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

type OrdersConfig struct {
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
	ShippingFlat string        `mapstructure:"shipping_flat"`
}

// envBindings keeps the environment variable names the deployment already uses.
var envBindings = map[string]string{
	"env":                         "ENV",
	"server.port":                 "PORT",
	"server.allow_origins":        "CORS_ALLOW_ORIGINS",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.name":               "DB_NAME",
	"database.sslmode":            "DB_SSLMODE",
	"database.max_idle_conns":     "DB_MAX_IDLE_CONNS",
	"database.max_open_conns":     "DB_MAX_OPEN_CONNS",
	"database.conn_max_lifetime":  "DB_CONN_MAX_LIFETIME",
	"database.conn_max_idle_time": "DB_CONN_MAX_IDLE_TIME",
	"redis.host":                  "REDIS_HOST",
	"redis.port":                  "REDIS_PORT",
	"redis.password":              "REDIS_PASSWORD",
	"redis.db":                    "REDIS_DB",
	"redis.ttl":                   "REDIS_TTL",
	"auth.jwt_secret":             "JWT_SECRET",
	"auth.token_ttl":              "JWT_TTL",
	"fees.commission_standard":    "FEES_COMMISSION_STANDARD",
	"fees.commission_premium":     "FEES_COMMISSION_PREMIUM",
	"fees.pix_fee":                "FEES_PIX_FEE",
	"fees.card_fee_percent":       "FEES_CARD_FEE_PERCENT",
	"fees.card_fee_fixed":         "FEES_CARD_FEE_FIXED",
	"fees.boleto_fee":             "FEES_BOLETO_FEE",
	"fees.withdrawal_fee":         "FEES_WITHDRAWAL_FEE",
	"fees.cashback":               "FEES_CASHBACK",
	"fees.refresh_interval":       "FEES_REFRESH_INTERVAL",
	"wallet.minimum_withdrawal":   "WALLET_MINIMUM_WITHDRAWAL",
	"wallet.cache_ttl":            "WALLET_CACHE_TTL",
	"orders.lock_ttl":             "ORDERS_LOCK_TTL",
	"orders.shipping_flat":        "ORDERS_SHIPPING_FLAT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.allow_origins", "http://localhost:5173")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "apega")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", 30*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("auth.jwt_secret", "apega")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	def := fees.DefaultConfiguration()
	v.SetDefault("fees.commission_standard", def.CommissionRateStandard.String())
	v.SetDefault("fees.commission_premium", def.CommissionRatePremium.String())
	v.SetDefault("fees.pix_fee", def.PixFeeRate.String())
	v.SetDefault("fees.card_fee_percent", def.CardFeeRate.String())
	v.SetDefault("fees.card_fee_fixed", def.CardFeeFixed.String())
	v.SetDefault("fees.boleto_fee", def.BoletoFeeFixed.String())
	v.SetDefault("fees.withdrawal_fee", def.WithdrawalFeeFixed.String())
	v.SetDefault("fees.cashback", def.CashbackRate.String())
	v.SetDefault("fees.refresh_interval", 5*time.Minute)

	v.SetDefault("wallet.minimum_withdrawal", "10.00")
	v.SetDefault("wallet.cache_ttl", 5*time.Minute)

	v.SetDefault("orders.lock_ttl", 30*time.Second)
	v.SetDefault("orders.shipping_flat", "15.00")
}

// Load reads .env (when present) and the environment into a Config.
func Load() (*Config, error) {
	LoadEnv()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := cfg.Fees.Configuration(); err != nil {
		return nil, fmt.Errorf("invalid fee defaults: %w", err)
	}
	return &cfg, nil
}

// IsProduction checks if the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
