package config

const (
	EnvPrefix = "OPENLY"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "OPENLY_APP_ENV"
	EnvPort   = "OPENLY_APP_PORT"

	EnvDBDSN  = "OPENLY_DB_DSN"
	EnvDBHost = "OPENLY_DB_HOST"
	EnvDBUser = "OPENLY_DB_USER"
	EnvDBName = "OPENLY_DB_NAME"

	EnvRedisURL = "OPENLY_REDIS_URL"

	EnvIdentitySessionSecret = "OPENLY_IDENTITY_SESSION_SECRET"
	EnvIdentityIssuer        = "OPENLY_IDENTITY_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
