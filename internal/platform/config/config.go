// Package config carga la configuración del servicio desde env vars (y opcionalmente config.yaml).
// Las keys anidadas se mapean a env reemplazando "." por "_": mongo.uri => MONGO_URI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	EnvDevelopment = "development"
)

type Config struct {
	Port    string `mapstructure:"port"`
	AppName string `mapstructure:"app_name"`
	AppEnv  string `mapstructure:"app_env"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Storage struct {
		Driver string `mapstructure:"driver"`
	} `mapstructure:"storage"`

	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mongo"`

	Postgres struct {
		DSN     string `mapstructure:"dsn"`
		Migrate bool   `mapstructure:"migrate"`
	} `mapstructure:"postgres"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Auth struct {
		JWTSecret        string        `mapstructure:"jwt_secret"`
		AccessTTL        time.Duration `mapstructure:"access_ttl"`
		RefreshTTL       time.Duration `mapstructure:"refresh_ttl"`
		CookieSecure     bool          `mapstructure:"cookie_secure"`
		IntrospectURL    string        `mapstructure:"introspect_url"`
		IntrospectAPIKey string        `mapstructure:"introspect_api_key"`
	} `mapstructure:"auth"`

	Admin struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"admin"`

	CORS struct {
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`

	LoginRateLimit int `mapstructure:"login_rate_limit"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app_name", "pet-health-tracker")
	v.SetDefault("app_env", EnvDevelopment)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("storage.driver", DriverMemory)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "pet_health")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_ttl", 30*24*time.Hour)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.introspect_url", "")
	v.SetDefault("auth.introspect_api_key", "")

	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("login_rate_limit", 10)
}

// Load lee env vars y, si existe, config.yaml en "." o "./config".
// El archivo es opcional; las env vars siempre ganan.
func Load() (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// CORS_ALLOWED_ORIGINS llega como string separado por comas.
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverMongo, DriverPostgres:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && strings.TrimSpace(c.Postgres.DSN) == "" {
		return errors.New("config: POSTGRES_DSN is required for the postgres driver")
	}
	if !c.IsDevelopment() && strings.TrimSpace(c.Auth.JWTSecret) == "" && strings.TrimSpace(c.Auth.IntrospectURL) == "" {
		return errors.New("config: AUTH_JWT_SECRET is required outside development")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if strings.TrimSpace(c.Admin.Username) == "" {
		return errors.New("config: ADMIN_USERNAME must not be empty")
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), EnvDevelopment)
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
