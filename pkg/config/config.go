package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is passed to envconfig; individual fields carry fully qualified
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	FeatureFlags  FeatureFlagsConfig
	Checkout      CheckoutConfig
	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"PHARMAPOS_APP_ENV" required:"true"`
	Port         string `envconfig:"PHARMAPOS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PHARMAPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PHARMAPOS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PHARMAPOS_DB_DSN"`
	Driver string `envconfig:"PHARMAPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PHARMAPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"PHARMAPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PHARMAPOS_DB_USER"`
	LegacyPassword string `envconfig:"PHARMAPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PHARMAPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PHARMAPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PHARMAPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PHARMAPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PHARMAPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PHARMAPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either PHARMAPOS_DB_DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.LegacyUser),
		url.QueryEscape(d.LegacyPassword),
		d.LegacyHost,
		d.LegacyPort,
		d.LegacyName,
		d.LegacySSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"PHARMAPOS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PHARMAPOS_REDIS_ADDR"`
	Password     string        `envconfig:"PHARMAPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHARMAPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHARMAPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHARMAPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHARMAPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHARMAPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHARMAPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PHARMAPOS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PHARMAPOS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PHARMAPOS_JWT_EXPIRATION_MINUTES" default:"720"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PHARMAPOS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHARMAPOS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHARMAPOS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHARMAPOS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHARMAPOS_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PHARMAPOS_FEATURE_AUTO_MIGRATE" default:"false"`
}

// AuthRateLimitConfig throttles credential endpoints per source IP and per
// submitted email.
type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"PHARMAPOS_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"PHARMAPOS_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginEmailLimit int           `envconfig:"PHARMAPOS_LOGIN_RATE_EMAIL_LIMIT" default:"5"`
}

// CheckoutConfig tunes the transaction core.
type CheckoutConfig struct {
	// AllowNegativeStock is only the default for CheckoutInput; callers may
	// still override it per request.
	AllowNegativeStock bool `envconfig:"PHARMAPOS_CHECKOUT_ALLOW_NEGATIVE_STOCK" default:"false"`
	AllocationRetries  int  `envconfig:"PHARMAPOS_CHECKOUT_ALLOCATION_RETRIES" default:"3"`
	InvoicePadWidth    int  `envconfig:"PHARMAPOS_INVOICE_PAD_WIDTH" default:"4"`
}
