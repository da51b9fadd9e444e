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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Commerce     CommerceConfig
	Cron         CronConfig
	Inventory    InventoryConfig
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
	Env          string `envconfig:"LOOMWORKS_APP_ENV" required:"true"`
	Port         string `envconfig:"LOOMWORKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOOMWORKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOOMWORKS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"LOOMWORKS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOOMWORKS_DB_DSN"`
	Driver string `envconfig:"LOOMWORKS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOOMWORKS_DB_HOST"`
	LegacyPort     int    `envconfig:"LOOMWORKS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOOMWORKS_DB_USER"`
	LegacyPassword string `envconfig:"LOOMWORKS_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOOMWORKS_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOOMWORKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOOMWORKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOOMWORKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOOMWORKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOOMWORKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOOMWORKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOOMWORKS_REDIS_ADDR"`
	Password     string        `envconfig:"LOOMWORKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOOMWORKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOOMWORKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOOMWORKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOOMWORKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOOMWORKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOOMWORKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LOOMWORKS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LOOMWORKS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LOOMWORKS_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOOMWORKS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"LOOMWORKS_EVENTING_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LOOMWORKS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"LOOMWORKS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LOOMWORKS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	ProductionTopic        string `envconfig:"LOOMWORKS_PUBSUB_PRODUCTION_TOPIC" required:"true"`
	ProductionSubscription string `envconfig:"LOOMWORKS_PUBSUB_PRODUCTION_SUBSCRIPTION"`
	InventoryTopic         string `envconfig:"LOOMWORKS_PUBSUB_INVENTORY_TOPIC" required:"true"`
	InventorySubscription  string `envconfig:"LOOMWORKS_PUBSUB_INVENTORY_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"LOOMWORKS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"LOOMWORKS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"LOOMWORKS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"LOOMWORKS_OUTBOX_RETENTION" default:"720h"`
}

// PollInterval converts the configured milliseconds into a duration.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type CommerceConfig struct {
	BaseURL string        `envconfig:"LOOMWORKS_COMMERCE_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"LOOMWORKS_COMMERCE_API_KEY"`
	Timeout time.Duration `envconfig:"LOOMWORKS_COMMERCE_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"LOOMWORKS_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"LOOMWORKS_CRON_LOCK_TTL" default:"10m"`
}

type InventoryConfig struct {
	LowStockSweepEnabled bool `envconfig:"LOOMWORKS_LOW_STOCK_SWEEP_ENABLED" default:"true"`
	LowStockSweepLimit   int  `envconfig:"LOOMWORKS_LOW_STOCK_SWEEP_LIMIT" default:"500"`
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
