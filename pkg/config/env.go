package config

// EnvPrefix is the envconfig prefix shared by every variable below.
const EnvPrefix = "VALETFLOW"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "VALETFLOW_APP_ENV"
	EnvPort     = "VALETFLOW_APP_PORT"
	EnvLogLevel = "VALETFLOW_LOG_LEVEL"

	EnvDBDSN  = "VALETFLOW_DB_DSN"
	EnvDBHost = "VALETFLOW_DB_HOST"
	EnvDBPort = "VALETFLOW_DB_PORT"
	EnvDBUser = "VALETFLOW_DB_USER"
	EnvDBName = "VALETFLOW_DB_NAME"

	EnvRedisURL = "VALETFLOW_REDIS_URL"

	EnvJWTSecret  = "VALETFLOW_JWT_SECRET"
	EnvJWTIssuer  = "VALETFLOW_JWT_ISSUER"
	EnvJWTExpMins = "VALETFLOW_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "VALETFLOW_GCP_PROJECT_ID"

	EnvPubSubNotificationTopic = "VALETFLOW_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "VALETFLOW_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvStripeAPIKey = "VALETFLOW_STRIPE_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
