package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable the backend reads.
	EnvPrefix = "QITAF"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "QITAF_DB_DSN"
	EnvDBHost = "QITAF_DB_HOST"
	EnvDBUser = "QITAF_DB_USER"
	EnvDBName = "QITAF_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Mail         MailConfig
	Orders       OrdersConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"QITAF_APP_ENV" required:"true"`
	Port         string `envconfig:"QITAF_APP_PORT" required:"true"`
	StoreName    string `envconfig:"QITAF_STORE_NAME" default:"Qitaf Auto Parts"`
	LogLevel     string `envconfig:"QITAF_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QITAF_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"QITAF_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"QITAF_DB_DSN"`
	Driver string `envconfig:"QITAF_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QITAF_DB_HOST"`
	LegacyPort     int    `envconfig:"QITAF_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QITAF_DB_USER"`
	LegacyPassword string `envconfig:"QITAF_DB_PASSWORD"`
	LegacyName     string `envconfig:"QITAF_DB_NAME"`
	LegacySSLMode  string `envconfig:"QITAF_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QITAF_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QITAF_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QITAF_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QITAF_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QITAF_REDIS_URL" required:"true"`
	Address      string        `envconfig:"QITAF_REDIS_ADDR"`
	Password     string        `envconfig:"QITAF_REDIS_PASSWORD"`
	DB           int           `envconfig:"QITAF_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QITAF_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QITAF_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QITAF_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QITAF_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QITAF_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"QITAF_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"QITAF_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"QITAF_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"QITAF_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"QITAF_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"QITAF_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"QITAF_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"QITAF_ARGON_KEY_LEN" default:"32"`
}

// MailConfig configures the outbound notification sender. Delivery is
// best-effort; a blank host downgrades the mailer to log-only mode.
type MailConfig struct {
	Host        string `envconfig:"QITAF_MAIL_HOST"`
	Port        int    `envconfig:"QITAF_MAIL_PORT" default:"587"`
	Username    string `envconfig:"QITAF_MAIL_USERNAME"`
	Password    string `envconfig:"QITAF_MAIL_PASSWORD"`
	DefaultFrom string `envconfig:"QITAF_MAIL_FROM" default:"orders@qitafauto.example"`
}

type OrdersConfig struct {
	AbandonedCutoff time.Duration `envconfig:"QITAF_ORDERS_ABANDONED_CUTOFF" default:"168h"`
}

type CronConfig struct {
	HourlyInterval time.Duration `envconfig:"QITAF_CRON_HOURLY_INTERVAL" default:"1h"`
	DailyInterval  time.Duration `envconfig:"QITAF_CRON_DAILY_INTERVAL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"QITAF_AUTO_MIGRATE" default:"false"`
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
