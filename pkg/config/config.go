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
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Tracking     TrackingConfig
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
	Env          string `envconfig:"VALETFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"VALETFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VALETFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VALETFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VALETFLOW_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VALETFLOW_DB_DSN"`
	Driver string `envconfig:"VALETFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VALETFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"VALETFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VALETFLOW_DB_USER"`
	LegacyPassword string `envconfig:"VALETFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"VALETFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"VALETFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VALETFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VALETFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VALETFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VALETFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VALETFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VALETFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"VALETFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"VALETFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VALETFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VALETFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VALETFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VALETFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VALETFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VALETFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VALETFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VALETFLOW_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VALETFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VALETFLOW_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VALETFLOW_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VALETFLOW_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VALETFLOW_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"VALETFLOW_PUBSUB_NOTIFICATION_TOPIC" required:"true"`
	NotificationSubscription string `envconfig:"VALETFLOW_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type StripeConfig struct {
	APIKey   string `envconfig:"VALETFLOW_STRIPE_API_KEY"`
	Env      string `envconfig:"VALETFLOW_STRIPE_ENV" default:"test"`
	Currency string `envconfig:"VALETFLOW_STRIPE_CURRENCY" default:"usd"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type TrackingConfig struct {
	ChannelPrefix string `envconfig:"VALETFLOW_TRACKING_CHANNEL_PREFIX" default:"driver_location"`
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
