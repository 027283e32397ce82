package config

// Environment variable names, shared with tests.
const (
	EnvAppEnv     = "PHARMAPOS_APP_ENV"
	EnvPort       = "PHARMAPOS_APP_PORT"
	EnvDBDSN      = "PHARMAPOS_DB_DSN"
	EnvRedisURL   = "PHARMAPOS_REDIS_URL"
	EnvJWTSecret  = "PHARMAPOS_JWT_SECRET"
	EnvJWTIssuer  = "PHARMAPOS_JWT_ISSUER"
	EnvJWTExpMins = "PHARMAPOS_JWT_EXPIRATION_MINUTES"
)
