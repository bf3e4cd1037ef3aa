package config

const (
	EnvPrefix = "REPLYFLOW"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "REPLYFLOW_APP_ENV"
	EnvPort   = "REPLYFLOW_APP_PORT"

	EnvDBDSN  = "REPLYFLOW_DB_DSN"
	EnvDBHost = "REPLYFLOW_DB_HOST"
	EnvDBUser = "REPLYFLOW_DB_USER"
	EnvDBName = "REPLYFLOW_DB_NAME"

	EnvRedisURL = "REPLYFLOW_REDIS_URL"

	EnvJWTSecret = "REPLYFLOW_JWT_SECRET"
	EnvJWTIssuer = "REPLYFLOW_JWT_ISSUER"

	EnvMetaAppSecret   = "REPLYFLOW_META_APP_SECRET"
	EnvMetaVerifyToken = "REPLYFLOW_META_VERIFY_TOKEN"

	EnvPipelineRateLimit        = "REPLYFLOW_PIPELINE_RATE_LIMIT"
	EnvPipelineRateLimitWindow  = "REPLYFLOW_PIPELINE_RATE_LIMIT_WINDOW"
	EnvPipelineRateLimitBackend = "REPLYFLOW_PIPELINE_RATE_LIMIT_BACKEND"

	EnvUseSQLite = "REPLYFLOW_USE_SQLITE"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	RateLimitBackendLedger = "ledger"
	RateLimitBackendRedis  = "redis"

	defaultSQLiteDSN = "file:replyflow.db?_busy_timeout=5000"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
