package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	Pin          PinConfig
	Stripe       StripeConfig
	Custody      CustodyConfig
	Payout       PayoutConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OPENLY_APP_ENV" required:"true"`
	Port         string `envconfig:"OPENLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OPENLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OPENLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OPENLY_DB_DSN"`
	Driver string `envconfig:"OPENLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OPENLY_DB_HOST"`
	LegacyPort     int    `envconfig:"OPENLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OPENLY_DB_USER"`
	LegacyPassword string `envconfig:"OPENLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"OPENLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"OPENLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OPENLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OPENLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OPENLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OPENLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OPENLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OPENLY_REDIS_ADDR"`
	Password     string        `envconfig:"OPENLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"OPENLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OPENLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OPENLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OPENLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OPENLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OPENLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// IdentityConfig covers verification of identity-provider session tokens and
// the shared secret for identity lifecycle webhooks.
type IdentityConfig struct {
	SessionSecret string `envconfig:"OPENLY_IDENTITY_SESSION_SECRET" required:"true"`
	Issuer        string `envconfig:"OPENLY_IDENTITY_ISSUER" required:"true"`
	WebhookSecret string `envconfig:"OPENLY_IDENTITY_WEBHOOK_SECRET"`
}

type PinConfig struct {
	ArgonMemoryKB    int `envconfig:"OPENLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"OPENLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"OPENLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"OPENLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"OPENLY_ARGON_KEY_LEN" default:"32"`
}

type StripeConfig struct {
	APIKey string `envconfig:"OPENLY_STRIPE_API_KEY"`
	Secret string `envconfig:"OPENLY_STRIPE_SECRET"`
	Env    string `envconfig:"OPENLY_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CustodyConfig struct {
	BaseURL string        `envconfig:"OPENLY_CUSTODY_BASE_URL"`
	APIKey  string        `envconfig:"OPENLY_CUSTODY_API_KEY"`
	Timeout time.Duration `envconfig:"OPENLY_CUSTODY_TIMEOUT" default:"10s"`
}

type PayoutConfig struct {
	Interval    time.Duration `envconfig:"OPENLY_PAYOUT_INTERVAL" default:"1m"`
	MaxAttempts int           `envconfig:"OPENLY_PAYOUT_MAX_ATTEMPTS" default:"5"`
	BackoffBase time.Duration `envconfig:"OPENLY_PAYOUT_BACKOFF_BASE" default:"30s"`
	BackoffCap  time.Duration `envconfig:"OPENLY_PAYOUT_BACKOFF_CAP" default:"10m"`
	BatchSize   int           `envconfig:"OPENLY_PAYOUT_BATCH_SIZE" default:"50"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"OPENLY_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"OPENLY_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	PaymentEventsTopic string `envconfig:"OPENLY_PUBSUB_PAYMENT_EVENTS_TOPIC" default:"openly-payment-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"OPENLY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"OPENLY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"OPENLY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OPENLY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
