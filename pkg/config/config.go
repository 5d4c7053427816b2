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
	Crypto       CryptoConfig
	Search       SearchConfig
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
	Env          string `envconfig:"RENTALCRM_APP_ENV" required:"true"`
	Port         string `envconfig:"RENTALCRM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RENTALCRM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RENTALCRM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RENTALCRM_DB_DSN"`
	Driver string `envconfig:"RENTALCRM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RENTALCRM_DB_HOST"`
	LegacyPort     int    `envconfig:"RENTALCRM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RENTALCRM_DB_USER"`
	LegacyPassword string `envconfig:"RENTALCRM_DB_PASSWORD"`
	LegacyName     string `envconfig:"RENTALCRM_DB_NAME"`
	LegacySSLMode  string `envconfig:"RENTALCRM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RENTALCRM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RENTALCRM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RENTALCRM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RENTALCRM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RENTALCRM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RENTALCRM_REDIS_ADDR"`
	Password     string        `envconfig:"RENTALCRM_REDIS_PASSWORD"`
	DB           int           `envconfig:"RENTALCRM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RENTALCRM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RENTALCRM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RENTALCRM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RENTALCRM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RENTALCRM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CryptoConfig carries the field-encryption key material. Size labels and
// item names are encrypted at rest and only compared after decryption.
type CryptoConfig struct {
	FieldKeyBase64 string `envconfig:"RENTALCRM_FIELD_KEY" required:"true"`
}

// SearchConfig bounds catalog scans: decryption is per-record CPU work, so
// scans run in small batches under a wall-clock deadline.
type SearchConfig struct {
	BatchSize      int           `envconfig:"RENTALCRM_SEARCH_BATCH_SIZE" default:"5"`
	Timeout        time.Duration `envconfig:"RENTALCRM_SEARCH_TIMEOUT" default:"3s"`
	MaxItemsScan   int           `envconfig:"RENTALCRM_SEARCH_MAX_ITEMS_SCAN" default:"500"`
	WarningTimeout time.Duration `envconfig:"RENTALCRM_WARNING_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RENTALCRM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RENTALCRM_AUTO_MIGRATE" default:"false"`
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
