package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/hacienda/pkg/db"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/pkg/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var config *Config

// Config holds every setting of the api server and the client. Nothing else
// in the module reads the environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=development"`
	AppName             string `env:"APP_NAME,default=hacienda"`
	AppVersion          string `env:"APP_VERSION,default=1.0.0"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:3000"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=10s"`
	HttpCorsOrigin     string        `env:"HTTP_CORS_ORIGIN,default=*"`

	DBDriver      string `env:"DB_DRIVER,default=sqlite"`
	DBPath        string `env:"DB_PATH,default=hacienda.db"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE,default=true"`
	DBSeed        bool   `env:"DB_SEED,default=false"`
	DBDebug       bool   `env:"DB_DEBUG,default=false"`

	PostgresHost     string `env:"POSTGRES_HOST"`
	PostgresPort     string `env:"POSTGRES_PORT,default=5432"`
	PostgresUser     string `env:"POSTGRES_USER"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresDatabase string `env:"POSTGRES_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=hacienda:"`

	IdempotencyLockTTL time.Duration `env:"IDEMPOTENCY_LOCK_TTL,default=30s"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL,default=24h"`

	PromNamespace string `env:"PROM_NAMESPACE,default=hacienda"`

	PasswordHashCost int `env:"PASSWORD_HASH_COST,default=10"`

	// client side
	APIBaseURL     string        `env:"API_BASE_URL,default=http://localhost:3000/api"`
	APITimeout     time.Duration `env:"API_TIMEOUT,default=10s"`
	LocalDBPath    string        `env:"LOCAL_DB_PATH,default=hacienda_local.db"`
	ProbeInterval  time.Duration `env:"PROBE_INTERVAL,default=30s"`
	ReconnectDelay time.Duration `env:"RECONNECT_DELAY,default=2s"`
	SyncSchedule   string        `env:"SYNC_SCHEDULE,default=@every 5m"`
}

func Load(path string) error {
	c, err := Parse(path)
	if err != nil {
		return err
	}
	config = c
	return nil
}

// Parse reads the optional dotenv file at path, then maps the environment.
func Parse(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return nil, errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return nil, errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}
	return c, nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment || c.AppEnv == "dev"
}

// ServerDB is the record store behind the api.
func (c *Config) ServerDB() db.Config {
	return db.Config{
		Driver: c.DBDriver,
		Path:   c.DBPath,
		Postgres: db.PostgresConfig{
			User:     c.PostgresUser,
			Host:     c.PostgresHost,
			Port:     c.PostgresPort,
			Password: c.PostgresPassword,
			Database: c.PostgresDatabase,
		},
		Debug: c.DBDebug,
	}
}

// LocalDB is the on-device mirror, always sqlite.
func (c *Config) LocalDB() db.Config {
	return db.Config{Driver: db.DriverSQLite, Path: c.LocalDBPath, Debug: c.DBDebug}
}
