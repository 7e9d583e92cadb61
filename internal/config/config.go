package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Seller   SellerConfig
	Invoice  InvoiceConfig
	Report   ReportConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	LogLevel string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int

	// ConflictRetries bounds retries after a unique-index conflict on
	// recipe versions and daily snapshots.
	ConflictRetries int
}

// RedisConfig enables the distributed invoice-chain lock when URL is set.
type RedisConfig struct {
	URL string
}

// KafkaConfig enables the event publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// SellerConfig identifies the issuing business on every tax invoice.
type SellerConfig struct {
	Name        string
	VATNumber   string
	CRNumber    string
	Street      string
	City        string
	PostalCode  string
	CountryCode string
}

type InvoiceConfig struct {
	DefaultTaxRate decimal.Decimal
	MaxRetries     int
	LockTTL        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

type ReportConfig struct {
	Timezone string
}

// Load reads configs/.env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found, using environment variables")
	}
	return FromViper(viper.New())
}

// FromViper applies defaults to v and builds a Config from it.
func FromViper(v *viper.Viper) *Config {
	v.AutomaticEnv()

	v.SetDefault("APP_NAME", "cafeledger")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONFLICT_RETRIES", 3)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "cafeledger-events")
	v.SetDefault("JWT_SECRET", "default_super_secret_key")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("SELLER_NAME", "")
	v.SetDefault("SELLER_VAT_NUMBER", "")
	v.SetDefault("SELLER_CR_NUMBER", "")
	v.SetDefault("SELLER_STREET", "")
	v.SetDefault("SELLER_CITY", "")
	v.SetDefault("SELLER_POSTAL_CODE", "")
	v.SetDefault("SELLER_COUNTRY_CODE", "SA")
	v.SetDefault("DEFAULT_TAX_RATE", "0.15")
	v.SetDefault("INVOICE_MAX_RETRIES", 3)
	v.SetDefault("INVOICE_LOCK_TTL", "30s")
	v.SetDefault("INVOICE_RATE_LIMIT_RPS", 5)
	v.SetDefault("INVOICE_RATE_LIMIT_BURST", 10)
	v.SetDefault("REPORT_TIMEZONE", "Asia/Riyadh")

	rate, err := decimal.NewFromString(v.GetString("DEFAULT_TAX_RATE"))
	if err != nil {
		log.Printf("Invalid DEFAULT_TAX_RATE %q, falling back to 0.15", v.GetString("DEFAULT_TAX_RATE"))
		rate = decimal.RequireFromString("0.15")
	}
	retries := atLeastOne(v.GetInt("INVOICE_MAX_RETRIES"))

	return &Config{
		App: AppConfig{
			Name:     v.GetString("APP_NAME"),
			Env:      v.GetString("APP_ENV"),
			Port:     v.GetString("APP_PORT"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			Name:         v.GetString("DB_NAME"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),

			ConflictRetries: atLeastOne(v.GetInt("DB_CONFLICT_RETRIES")),
		},
		Redis: RedisConfig{URL: v.GetString("REDIS_URL")},
		Kafka: KafkaConfig{
			Brokers: SplitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		JWT:  JWTConfig{Secret: v.GetString("JWT_SECRET")},
		CORS: CORSConfig{AllowedOrigins: SplitList(v.GetString("CORS_ALLOWED_ORIGINS"))},
		Seller: SellerConfig{
			Name:        v.GetString("SELLER_NAME"),
			VATNumber:   v.GetString("SELLER_VAT_NUMBER"),
			CRNumber:    v.GetString("SELLER_CR_NUMBER"),
			Street:      v.GetString("SELLER_STREET"),
			City:        v.GetString("SELLER_CITY"),
			PostalCode:  v.GetString("SELLER_POSTAL_CODE"),
			CountryCode: v.GetString("SELLER_COUNTRY_CODE"),
		},
		Invoice: InvoiceConfig{
			DefaultTaxRate: rate,
			MaxRetries:     retries,
			LockTTL:        v.GetDuration("INVOICE_LOCK_TTL"),
			RateLimitRPS:   v.GetFloat64("INVOICE_RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("INVOICE_RATE_LIMIT_BURST"),
		},
		Report: ReportConfig{Timezone: v.GetString("REPORT_TIMEZONE")},
	}
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Location resolves the reporting timezone, defaulting to UTC.
func (r ReportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SplitList parses a comma separated env value like "kafka-1:9092, kafka-2:9092".
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
