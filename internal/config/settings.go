package config

import "time"

// Config is the typed view of the environment used by cmd/server.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Match      MatchConfig
	Withdrawal WithdrawalConfig
	Payment    PaymentConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins string
	JoinRateLimit  int
}

// StoreConfig selects the persistence backend: "postgres" or "memory".
type StoreConfig struct {
	Driver string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
	Expiry time.Duration
}

type MatchConfig struct {
	JoinableStatuses    []string
	CancellationFeeRate float64
	NoRefundWindow      time.Duration
	SchedulerInterval   time.Duration
}

type WithdrawalConfig struct {
	Minimum            float64
	MaxOpenRequests    int
	TDSRate            float64
	TDSExemptUpTo      float64
	PaymentMethodLimit int
}

type PaymentConfig struct {
	GatewaySecret       string
	WebhookSecret       string
	StripeWebhookSecret string
}

// Load reads the process environment. Call LoadEnv first to pick up a .env file.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           GetEnv("PORT", "3000"),
			Env:            GetEnv("ENV", "development"),
			AllowedOrigins: GetEnv("CORS_ORIGINS", "http://localhost:5173"),
			JoinRateLimit:  GetIntEnv("JOIN_RATE_LIMIT", 20),
		},
		Store: StoreConfig{
			Driver: GetEnv("STORE_DRIVER", "postgres"),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "playarena"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  GetBoolEnv("REDIS_ENABLED", true),
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: GetEnv("JWT_SECRET", "change-me"),
			Issuer: GetEnv("JWT_ISSUER", "playarena"),
			Expiry: GetDurationEnv("JWT_EXPIRY", 24*time.Hour),
		},
		Match: MatchConfig{
			JoinableStatuses:    GetListEnv("JOINABLE_STATUSES", []string{"registration_open"}),
			CancellationFeeRate: GetFloatEnv("CANCELLATION_FEE_RATE", 0.10),
			NoRefundWindow:      GetDurationEnv("NO_REFUND_WINDOW", 0),
			SchedulerInterval:   GetDurationEnv("SCHEDULER_INTERVAL", time.Minute),
		},
		Withdrawal: WithdrawalConfig{
			Minimum:            GetFloatEnv("MIN_WITHDRAWAL", 100),
			MaxOpenRequests:    GetIntEnv("MAX_OPEN_WITHDRAWALS", 1),
			TDSRate:            GetFloatEnv("TDS_RATE", 0),
			TDSExemptUpTo:      GetFloatEnv("TDS_EXEMPT_UP_TO", 0),
			PaymentMethodLimit: GetIntEnv("PAYMENT_METHOD_LIMIT", 5),
		},
		Payment: PaymentConfig{
			GatewaySecret:       GetEnv("PAYMENT_GATEWAY_SECRET", ""),
			WebhookSecret:       GetEnv("PAYMENT_WEBHOOK_SECRET", ""),
			StripeWebhookSecret: GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		},
	}
}
