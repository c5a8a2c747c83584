package config

// EnvPrefix namespaces every environment variable consumed by the service.
const EnvPrefix = "AGRITRACE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags (tests, error
// messages, deploy tooling).
const (
	EnvAppEnv = "AGRITRACE_APP_ENV"
	EnvPort   = "AGRITRACE_APP_PORT"

	EnvDBDSN      = "AGRITRACE_DB_DSN"
	EnvDBHost     = "AGRITRACE_DB_HOST"
	EnvDBUser     = "AGRITRACE_DB_USER"
	EnvDBName     = "AGRITRACE_DB_NAME"
	EnvDBPassword = "AGRITRACE_DB_PASSWORD"

	EnvRedisURL = "AGRITRACE_REDIS_URL"

	EnvJWTSecret              = "AGRITRACE_JWT_SECRET"
	EnvJWTIssuer              = "AGRITRACE_JWT_ISSUER"
	EnvJWTExpMins             = "AGRITRACE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "AGRITRACE_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID = "AGRITRACE_GCP_PROJECT_ID"

	EnvPubSubDomainTopic = "AGRITRACE_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub   = "AGRITRACE_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
