package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	IdP     IdPConfig     `yaml:"identity_provider"`
	Backend BackendConfig `yaml:"backend"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
}

type ServerConfig struct {
	Host         string `yaml:"host" env:"HOST"`
	Port         int    `yaml:"port" env:"PORT"`
	BaseURL      string `yaml:"base_url" env:"APP_URL"`
	Environment  string `yaml:"environment" env:"APP_ENV"`
	CookieDomain string `yaml:"cookie_domain" env:"COOKIE_DOMAIN"`
}

// SecureCookies reports whether cookies must carry the Secure attribute.
func (s ServerConfig) SecureCookies() bool {
	return strings.EqualFold(s.Environment, "production")
}

// CallbackURL is the fixed redirect URI registered with the identity provider.
func (s ServerConfig) CallbackURL() string {
	return strings.TrimRight(s.BaseURL, "/") + "/auth/callback"
}

type IdPConfig struct {
	Domain   string `yaml:"domain" env:"COGNITO_DOMAIN"`
	ClientID string `yaml:"client_id" env:"COGNITO_CLIENT_ID"`
	Region   string `yaml:"region" env:"AWS_REGION"`
	Endpoint string `yaml:"endpoint,omitempty" env:"COGNITO_ENDPOINT"`
	Issuer   string `yaml:"issuer,omitempty" env:"COGNITO_ISSUER"`
	// IdentityProviders maps a route alias ("google") to the provider hint
	// sent on the authorize request ("Google").
	IdentityProviders map[string]string `yaml:"identity_providers" env:"COGNITO_IDENTITY_PROVIDERS" envSeparator:"," envKeyValSeparator:":"`
	Scopes            []string          `yaml:"scopes" env:"COGNITO_SCOPES" envSeparator:" "`
	Timeout           time.Duration     `yaml:"timeout" env:"IDP_TIMEOUT"`
}

// BaseURL returns the hosted login origin. A bare domain is served over https.
func (c IdPConfig) BaseURL() string {
	if strings.Contains(c.Domain, "://") {
		return strings.TrimRight(c.Domain, "/")
	}
	return "https://" + strings.TrimRight(c.Domain, "/")
}

type BackendConfig struct {
	URL     string        `yaml:"url" env:"API_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT"`
}

type CacheConfig struct {
	Type            string        `yaml:"type" env:"CACHE_TYPE"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CACHE_CLEANUP_INTERVAL"`
	Redis           *RedisConfig  `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Address    string `yaml:"address" env:"REDIS_ADDR"`
	Password   string `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"REDIS_DB"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
	KeyPrefix  string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type UIConfig struct {
	Title string `yaml:"title" env:"UI_TITLE"`
}

// Load reads the optional YAML file at path, overlays environment variables
// and fills defaults. It does not validate; callers run Validate.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) loadFromEnv() error {
	// Redis settings only come from the environment when redis is selected.
	if c.Cache.Redis == nil && (os.Getenv("CACHE_TYPE") == "redis" || os.Getenv("REDIS_ADDR") != "") {
		c.Cache.Redis = &RedisConfig{}
	}

	return env.Parse(c)
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if len(c.IdP.IdentityProviders) == 0 {
		c.IdP.IdentityProviders = map[string]string{"google": "Google"}
	}
	if len(c.IdP.Scopes) == 0 {
		c.IdP.Scopes = []string{"openid", "email", "profile"}
	}
	if c.IdP.Timeout == 0 {
		c.IdP.Timeout = 10 * time.Second
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}

	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.CleanupInterval == 0 {
		c.Cache.CleanupInterval = time.Minute
	}
	if c.Cache.Type == "redis" && c.Cache.Redis != nil {
		if c.Cache.Redis.PoolSize == 0 {
			c.Cache.Redis.PoolSize = 10
		}
		if c.Cache.Redis.MaxRetries == 0 {
			c.Cache.Redis.MaxRetries = 3
		}
		if c.Cache.Redis.KeyPrefix == "" {
			c.Cache.Redis.KeyPrefix = "readhabit-web:"
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.UI.Title == "" {
		c.UI.Title = "Sign In"
	}
}
