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
	FeatureFlags FeatureFlagsConfig
	Invoice      InvoiceConfig
	Kafka        KafkaConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
	Tracing      TracingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.AuthEnabled && strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("%s is required when %s is set", EnvJWTSecret, EnvAuthEnabled)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TALLY_APP_ENV" required:"true"`
	Port         string `envconfig:"TALLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TALLY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"TALLY_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"TALLY_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"TALLY_CORS_ORIGINS"`
	ShutdownTimeout time.Duration `envconfig:"TALLY_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"TALLY_DB_DSN"`
	Driver     string `envconfig:"TALLY_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"TALLY_DB_SQLITE_PATH" default:"tally.db"`

	LegacyHost     string `envconfig:"TALLY_DB_HOST"`
	LegacyPort     int    `envconfig:"TALLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TALLY_DB_USER"`
	LegacyPassword string `envconfig:"TALLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"TALLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"TALLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TALLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TALLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TALLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TALLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"TALLY_DB_SLOW_QUERY" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TALLY_REDIS_URL"`
	Address      string        `envconfig:"TALLY_REDIS_ADDR"`
	Password     string        `envconfig:"TALLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"TALLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TALLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TALLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TALLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TALLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TALLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JWTConfig carries the verification settings for bearer tokens issued by the
// upstream identity provider.
type JWTConfig struct {
	Secret string `envconfig:"TALLY_JWT_SECRET"`
	Issuer string `envconfig:"TALLY_JWT_ISSUER" default:"tally"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TALLY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TALLY_AUTO_MIGRATE" default:"false"`
	AuthEnabled bool `envconfig:"TALLY_AUTH_ENABLED" default:"false"`
}

type InvoiceConfig struct {
	MaxItems  int           `envconfig:"TALLY_INVOICE_MAX_ITEMS" default:"200"`
	TxTimeout time.Duration `envconfig:"TALLY_INVOICE_TX_TIMEOUT" default:"10s"`
}

type KafkaConfig struct {
	Brokers        []string      `envconfig:"TALLY_KAFKA_BROKERS"`
	InvoicesTopic  string        `envconfig:"TALLY_KAFKA_INVOICES_TOPIC" default:"tally.invoices"`
	InventoryTopic string        `envconfig:"TALLY_KAFKA_INVENTORY_TOPIC" default:"tally.inventory"`
	WriteTimeout   time.Duration `envconfig:"TALLY_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TALLY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TALLY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TALLY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"TALLY_MAINTENANCE_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"TALLY_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays    int           `envconfig:"TALLY_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

type TracingConfig struct {
	Endpoint    string  `envconfig:"TALLY_OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `envconfig:"TALLY_OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	SampleRatio float64 `envconfig:"TALLY_OTEL_SAMPLE_RATIO" default:"1"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// IsSQLite reports whether the SQLite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.IsSQLite() {
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
