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
	JWT          JWTConfig
	Provider     ProviderConfig
	Escrow       EscrowConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"CONSULTDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"CONSULTDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CONSULTDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CONSULTDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CONSULTDESK_DB_DSN"`
	Driver string `envconfig:"CONSULTDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CONSULTDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"CONSULTDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CONSULTDESK_DB_USER"`
	LegacyPassword string `envconfig:"CONSULTDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"CONSULTDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"CONSULTDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CONSULTDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CONSULTDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CONSULTDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CONSULTDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CONSULTDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CONSULTDESK_REDIS_ADDR"`
	Password     string        `envconfig:"CONSULTDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"CONSULTDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CONSULTDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CONSULTDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CONSULTDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CONSULTDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CONSULTDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CONSULTDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CONSULTDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CONSULTDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// ProviderConfig carries the hosted payment provider credentials. KeyID is
// safe to hand to browser checkouts; KeySecret signs verification payloads
// and WebhookSecret authenticates asynchronous callbacks.
type ProviderConfig struct {
	BaseURL       string        `envconfig:"CONSULTDESK_PROVIDER_BASE_URL" default:"https://api.payprovider.example"`
	KeyID         string        `envconfig:"CONSULTDESK_PROVIDER_KEY_ID"`
	KeySecret     string        `envconfig:"CONSULTDESK_PROVIDER_KEY_SECRET"`
	WebhookSecret string        `envconfig:"CONSULTDESK_PROVIDER_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"CONSULTDESK_PROVIDER_TIMEOUT" default:"10s"`
}

type EscrowConfig struct {
	HoldingPeriod time.Duration `envconfig:"CONSULTDESK_ESCROW_HOLDING_PERIOD" default:"168h"`
	SweepInterval time.Duration `envconfig:"CONSULTDESK_ESCROW_SWEEP_INTERVAL" default:"1h"`
	SweepBatch    int           `envconfig:"CONSULTDESK_ESCROW_SWEEP_BATCH" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CONSULTDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CONSULTDESK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CONSULTDESK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CONSULTDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CONSULTDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PaymentsTopic         string `envconfig:"CONSULTDESK_PUBSUB_PAYMENTS_TOPIC" default:"cd-payment-events"`
	NotificationTopic     string `envconfig:"CONSULTDESK_PUBSUB_NOTIFICATION_TOPIC" default:"cd-notification-events"`
	PaymentsSubscription  string `envconfig:"CONSULTDESK_PUBSUB_PAYMENTS_SUBSCRIPTION"`
	NotificationSubscription string `envconfig:"CONSULTDESK_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CONSULTDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CONSULTDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CONSULTDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
