package config

// EnvPrefix is passed to envconfig; every field carries its full name so the
// prefix only matters for unset tags.
const EnvPrefix = "LOOMWORKS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "LOOMWORKS_APP_ENV"
	EnvPort   = "LOOMWORKS_APP_PORT"
	EnvDBDSN  = "LOOMWORKS_DB_DSN"
	EnvDBHost = "LOOMWORKS_DB_HOST"
	EnvDBUser = "LOOMWORKS_DB_USER"
	EnvDBName = "LOOMWORKS_DB_NAME"
	EnvDBPort = "LOOMWORKS_DB_PORT"

	EnvRedisURL  = "LOOMWORKS_REDIS_URL"
	EnvJWTSecret = "LOOMWORKS_JWT_SECRET"
	EnvJWTIssuer = "LOOMWORKS_JWT_ISSUER"

	EnvGCPProjectID          = "LOOMWORKS_GCP_PROJECT_ID"
	EnvPubSubProductionTopic = "LOOMWORKS_PUBSUB_PRODUCTION_TOPIC"
	EnvPubSubInventoryTopic  = "LOOMWORKS_PUBSUB_INVENTORY_TOPIC"
	EnvCommerceBaseURL       = "LOOMWORKS_COMMERCE_BASE_URL"
	EnvCronInterval          = "LOOMWORKS_CRON_INTERVAL"
	EnvLowStockSweepEnabled  = "LOOMWORKS_LOW_STOCK_SWEEP_ENABLED"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
