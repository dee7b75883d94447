package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Checkout      CheckoutConfig
	Activity      ActivityConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"CRAFTLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"CRAFTLANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CRAFTLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CRAFTLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CRAFTLANE_DB_DSN"`
	Driver string `envconfig:"CRAFTLANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CRAFTLANE_DB_HOST"`
	LegacyPort     int    `envconfig:"CRAFTLANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CRAFTLANE_DB_USER"`
	LegacyPassword string `envconfig:"CRAFTLANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CRAFTLANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CRAFTLANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CRAFTLANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CRAFTLANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CRAFTLANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CRAFTLANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CRAFTLANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CRAFTLANE_REDIS_ADDR"`
	Password     string        `envconfig:"CRAFTLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CRAFTLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CRAFTLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CRAFTLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CRAFTLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CRAFTLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CRAFTLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CRAFTLANE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CRAFTLANE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CRAFTLANE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CRAFTLANE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CRAFTLANE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CRAFTLANE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CRAFTLANE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CRAFTLANE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CRAFTLANE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CRAFTLANE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CRAFTLANE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CRAFTLANE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CRAFTLANE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CRAFTLANE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CheckoutConfig struct {
	Currency       string        `envconfig:"CRAFTLANE_CHECKOUT_CURRENCY" default:"INR"`
	ReceiptPrefix  string        `envconfig:"CRAFTLANE_CHECKOUT_RECEIPT_PREFIX" default:"order_rcpt"`
	GatewayTimeout time.Duration `envconfig:"CRAFTLANE_CHECKOUT_GATEWAY_TIMEOUT" default:"15s"`
}

type ActivityConfig struct {
	FeedSize int `envconfig:"CRAFTLANE_ACTIVITY_FEED_SIZE" default:"50"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CRAFTLANE_AUTO_MIGRATE" default:"false"`
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
