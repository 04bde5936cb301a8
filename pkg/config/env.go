package config

// EnvPrefix is the envconfig prefix; every field carries its full variable
// name as the tag so the prefixed lookup falls back to the tag directly.
const EnvPrefix = "TALLY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "TALLY_APP_ENV"
	EnvPort         = "TALLY_APP_PORT"
	EnvLogLevel     = "TALLY_LOG_LEVEL"
	EnvLogWarnStack = "TALLY_LOG_WARN_STACK"
	EnvLogFormat    = "TALLY_LOG_FORMAT"

	EnvDBDSN      = "TALLY_DB_DSN"
	EnvDBHost     = "TALLY_DB_HOST"
	EnvDBPort     = "TALLY_DB_PORT"
	EnvDBUser     = "TALLY_DB_USER"
	EnvDBPassword = "TALLY_DB_PASSWORD"
	EnvDBName     = "TALLY_DB_NAME"

	EnvRedisURL = "TALLY_REDIS_URL"

	EnvJWTSecret = "TALLY_JWT_SECRET"
	EnvJWTIssuer = "TALLY_JWT_ISSUER"

	EnvUseSQLite   = "TALLY_USE_SQLITE"
	EnvAutoMigrate = "TALLY_AUTO_MIGRATE"
	EnvAuthEnabled = "TALLY_AUTH_ENABLED"

	EnvInvoiceMaxItems  = "TALLY_INVOICE_MAX_ITEMS"
	EnvInvoiceTxTimeout = "TALLY_INVOICE_TX_TIMEOUT"

	EnvKafkaBrokers        = "TALLY_KAFKA_BROKERS"
	EnvKafkaInvoicesTopic  = "TALLY_KAFKA_INVOICES_TOPIC"
	EnvKafkaInventoryTopic = "TALLY_KAFKA_INVENTORY_TOPIC"

	EnvTracingEndpoint = "TALLY_OTEL_EXPORTER_OTLP_ENDPOINT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
