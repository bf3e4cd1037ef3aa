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
	Meta         MetaConfig
	Workflow     WorkflowConfig
	Pipeline     PipelineConfig
	Retention    RetentionConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pipeline.validate(); err != nil {
		return nil, err
	}
	if cfg.Retention.LedgerMaxAge < cfg.Pipeline.RateLimitWindow {
		return nil, fmt.Errorf("ledger retention %s is shorter than the rate limit window %s", cfg.Retention.LedgerMaxAge, cfg.Pipeline.RateLimitWindow)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"REPLYFLOW_APP_ENV" required:"true"`
	Port         string   `envconfig:"REPLYFLOW_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"REPLYFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"REPLYFLOW_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"REPLYFLOW_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"REPLYFLOW_DB_DSN"`
	Driver string `envconfig:"REPLYFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REPLYFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"REPLYFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REPLYFLOW_DB_USER"`
	LegacyPassword string `envconfig:"REPLYFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"REPLYFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"REPLYFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REPLYFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REPLYFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REPLYFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REPLYFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REPLYFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REPLYFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"REPLYFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"REPLYFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REPLYFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REPLYFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REPLYFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REPLYFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REPLYFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"REPLYFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"REPLYFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"REPLYFLOW_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"REPLYFLOW_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns how long an access session stays valid in Redis.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

// MetaConfig holds the Graph platform credentials used for webhook
// verification and outbound messaging.
type MetaConfig struct {
	AppSecret      string        `envconfig:"REPLYFLOW_META_APP_SECRET" required:"true"`
	VerifyToken    string        `envconfig:"REPLYFLOW_META_VERIFY_TOKEN" required:"true"`
	GraphBaseURL   string        `envconfig:"REPLYFLOW_META_GRAPH_BASE_URL" default:"https://graph.facebook.com"`
	GraphVersion   string        `envconfig:"REPLYFLOW_META_GRAPH_VERSION" default:"v21.0"`
	RequestTimeout time.Duration `envconfig:"REPLYFLOW_META_REQUEST_TIMEOUT" default:"10s"`
}

type WorkflowConfig struct {
	BaseURL        string        `envconfig:"REPLYFLOW_WORKFLOW_BASE_URL"`
	APIKey         string        `envconfig:"REPLYFLOW_WORKFLOW_API_KEY"`
	RequestTimeout time.Duration `envconfig:"REPLYFLOW_WORKFLOW_REQUEST_TIMEOUT" default:"15s"`
}

// Enabled reports whether an external workflow engine is configured.
func (w WorkflowConfig) Enabled() bool {
	return strings.TrimSpace(w.BaseURL) != ""
}

type PipelineConfig struct {
	RateLimitPerWindow int           `envconfig:"REPLYFLOW_PIPELINE_RATE_LIMIT" default:"600"`
	RateLimitWindow    time.Duration `envconfig:"REPLYFLOW_PIPELINE_RATE_LIMIT_WINDOW" default:"60s"`
	RateLimitBackend   string        `envconfig:"REPLYFLOW_PIPELINE_RATE_LIMIT_BACKEND" default:"ledger"`
	Workers            int           `envconfig:"REPLYFLOW_PIPELINE_WORKERS" default:"8"`
	QueueSize          int           `envconfig:"REPLYFLOW_PIPELINE_QUEUE_SIZE" default:"1024"`
	DirectExecution    bool          `envconfig:"REPLYFLOW_PIPELINE_DIRECT_EXECUTION" default:"true"`
	Dispatch           bool          `envconfig:"REPLYFLOW_PIPELINE_DISPATCH" default:"false"`
	CalendarURL        string        `envconfig:"REPLYFLOW_PIPELINE_CALENDAR_URL"`
}

func (p PipelineConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(p.RateLimitBackend)) {
	case RateLimitBackendLedger, RateLimitBackendRedis:
	default:
		return fmt.Errorf("unsupported rate limit backend %q", p.RateLimitBackend)
	}
	if p.RateLimitPerWindow <= 0 {
		return fmt.Errorf("%s must be positive", EnvPipelineRateLimit)
	}
	if p.RateLimitWindow <= 0 {
		return fmt.Errorf("%s must be positive", EnvPipelineRateLimitWindow)
	}
	return nil
}

// UsesRedisRateLimit reports whether admission counting lives in Redis instead
// of the processed-event ledger.
func (p PipelineConfig) UsesRedisRateLimit() bool {
	return strings.EqualFold(strings.TrimSpace(p.RateLimitBackend), RateLimitBackendRedis)
}

// RetentionConfig controls how long ledger and dead-letter rows are kept. The
// ledger must outlive the platform's redelivery horizon or replays slip
// through dedup.
type RetentionConfig struct {
	Interval          time.Duration `envconfig:"REPLYFLOW_RETENTION_INTERVAL" default:"1h"`
	LedgerMaxAge      time.Duration `envconfig:"REPLYFLOW_RETENTION_LEDGER_MAX_AGE" default:"168h"`
	FailedEventMaxAge time.Duration `envconfig:"REPLYFLOW_RETENTION_FAILED_EVENT_MAX_AGE" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"REPLYFLOW_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"REPLYFLOW_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
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
