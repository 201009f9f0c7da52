package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	MonCash       MonCashConfig       `mapstructure:"moncash"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

// MonCashConfig holds the provider credentials and endpoints. API and
// gateway hosts default from Mode when left empty.
type MonCashConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Mode         string        `mapstructure:"mode"`
	APIHost      string        `mapstructure:"api_host"`
	GatewayURL   string        `mapstructure:"gateway_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	moncashSandboxHost    = "sandbox.moncashbutton.digicelgroup.com"
	moncashProductionHost = "moncashbutton.digicelgroup.com"
)

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.MonCash.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("moncash config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *MonCashConfig) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errors.New("client_id and client_secret are required")
	}
	switch c.Mode {
	case "sandbox", "production":
	case "":
		return errors.New("mode is required (sandbox or production)")
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	return nil
}

// Host returns the configured API host, falling back to the host implied
// by Mode.
func (c *MonCashConfig) Host() string {
	if c.APIHost != "" {
		return c.APIHost
	}
	if c.Mode == "production" {
		return moncashProductionHost
	}
	return moncashSandboxHost
}

// Gateway returns the base URL of the hosted payment page.
func (c *MonCashConfig) Gateway() string {
	if c.GatewayURL != "" {
		return strings.TrimSuffix(c.GatewayURL, "/")
	}
	return fmt.Sprintf("https://%s/Moncash-middleware", c.Host())
}

// RequestTimeout bounds every outbound provider call.
func (c *MonCashConfig) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}
