package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// reservedAliases are /api/auth/ routes that a provider alias must not shadow.
var reservedAliases = []string{"session", "logout", "otp"}

func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.validateIdP(); err != nil {
		return fmt.Errorf("identity provider config: %w", err)
	}

	if err := c.validateBackend(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.validateCache(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.BaseURL == "" {
		return fmt.Errorf("base_url is required (APP_URL)")
	}

	if err := validateAbsoluteURL(c.Server.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}

	return nil
}

func (c *Config) validateIdP() error {
	if c.IdP.Domain == "" {
		return fmt.Errorf("domain is required (COGNITO_DOMAIN)")
	}

	if err := validateAbsoluteURL(c.IdP.BaseURL()); err != nil {
		return fmt.Errorf("invalid domain: %w", err)
	}

	if c.IdP.ClientID == "" {
		return fmt.Errorf("client_id is required (COGNITO_CLIENT_ID)")
	}

	if c.IdP.Region == "" {
		return fmt.Errorf("region is required (AWS_REGION)")
	}

	if c.IdP.Endpoint != "" {
		if err := validateAbsoluteURL(c.IdP.Endpoint); err != nil {
			return fmt.Errorf("invalid endpoint: %w", err)
		}
	}

	if c.IdP.Issuer != "" {
		if err := validateAbsoluteURL(c.IdP.Issuer); err != nil {
			return fmt.Errorf("invalid issuer: %w", err)
		}
	}

	for alias, hint := range c.IdP.IdentityProviders {
		if alias == "" || hint == "" {
			return fmt.Errorf("identity_providers: empty alias or provider name")
		}
		if alias != strings.ToLower(alias) || strings.ContainsAny(alias, "/?#") {
			return fmt.Errorf("identity_providers: invalid alias %q", alias)
		}
		if slices.Contains(reservedAliases, alias) {
			return fmt.Errorf("identity_providers: alias %q collides with a built-in route", alias)
		}
	}

	if !slices.Contains(c.IdP.Scopes, "openid") {
		return fmt.Errorf("'openid' scope is required")
	}

	if c.IdP.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("url is required (API_BASE_URL)")
	}

	if err := validateAbsoluteURL(c.Backend.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Type != "memory" && c.Cache.Type != "redis" {
		return fmt.Errorf("invalid type: %s (must be memory or redis)", c.Cache.Type)
	}

	if c.Cache.Type == "redis" {
		if c.Cache.Redis == nil {
			return fmt.Errorf("redis config is required when type is redis")
		}
		if c.Cache.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" {
		return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https: %s", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required: %s", raw)
	}
	return nil
}
