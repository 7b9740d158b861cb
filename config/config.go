package config

import (
	"errors"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/angeloszaimis/hamster/internal/retry"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	StoreMemory  = "memory"
	StoreLevelDB = "leveldb"
)

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Environment  string `mapstructure:"environment"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

type SiteConfig struct {
	BasePath       string `mapstructure:"base_path"`
	Dir            string `mapstructure:"dir"`
	EnvFile        string `mapstructure:"env_file"`
	InsecureCookie bool   `mapstructure:"insecure_cookie"`
}

// PagesConfig holds the redirect targets of the poller.
type PagesConfig struct {
	Root       string `mapstructure:"root"`
	Hamster    string `mapstructure:"hamster"`
	Unknown    string `mapstructure:"unknown"`
	ServerDown string `mapstructure:"server_down"`
}

type PollerConfig struct {
	ConfigURL     string `mapstructure:"config_url"`
	ConfigTimeout string `mapstructure:"config_timeout"`
	TTL           string `mapstructure:"ttl"`
	Policy        string `mapstructure:"policy"`
	Delay         string `mapstructure:"delay"`
	MaxDelay      string `mapstructure:"max_delay"`
	MaxRetries    int    `mapstructure:"max_retries"`
}

type ProbeConfig struct {
	Timeout          string `mapstructure:"timeout"`
	RequireOK        bool   `mapstructure:"require_ok"`
	BypassHeader     string `mapstructure:"bypass_header"`
	BypassValue      string `mapstructure:"bypass_value"`
	BreakerThreshold int    `mapstructure:"breaker_threshold"`
	BreakerReset     string `mapstructure:"breaker_reset"`
}

type SessionConfig struct {
	Store string `mapstructure:"store"`
	Path  string `mapstructure:"path"`
}

type GateConfig struct {
	Probe     bool   `mapstructure:"probe"`
	CallerTTL string `mapstructure:"caller_ttl"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Site    SiteConfig    `mapstructure:"site"`
	Pages   PagesConfig   `mapstructure:"pages"`
	Poller  PollerConfig  `mapstructure:"poller"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Session SessionConfig `mapstructure:"session"`
	Gate    GateConfig    `mapstructure:"gate"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// New returns a viper instance with every default set, the config search
// path and environment overrides (POLLER_MAX_RETRIES=40 and the like).
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.write_timeout", "3m")

	v.SetDefault("site.base_path", "/Pokemon")
	v.SetDefault("site.dir", "./docs")
	v.SetDefault("site.env_file", "./docs/env.json")
	v.SetDefault("site.insecure_cookie", false)

	v.SetDefault("pages.root", "/Pokemon")
	v.SetDefault("pages.hamster", "/Pokemon/pages/hamster.html")
	v.SetDefault("pages.unknown", "/Pokemon/pages/unknown.html")
	v.SetDefault("pages.server_down", "/Pokemon/pages/server-down.html")

	v.SetDefault("poller.config_url", "")
	v.SetDefault("poller.config_timeout", "10s")
	v.SetDefault("poller.ttl", "3h")
	v.SetDefault("poller.policy", retry.TypeFixed)
	v.SetDefault("poller.delay", "10s")
	v.SetDefault("poller.max_delay", "2m")
	v.SetDefault("poller.max_retries", 10)

	v.SetDefault("probe.timeout", "5s")
	v.SetDefault("probe.require_ok", true)
	v.SetDefault("probe.bypass_header", "ngrok-skip-browser-warning")
	v.SetDefault("probe.bypass_value", "true")
	v.SetDefault("probe.breaker_threshold", 0)
	v.SetDefault("probe.breaker_reset", "30s")

	v.SetDefault("session.store", StoreMemory)
	v.SetDefault("session.path", "./data/session")

	v.SetDefault("gate.probe", false)
	v.SetDefault("gate.caller_ttl", "10m")

	v.SetDefault("logging.level", LogLevelInfo)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// Load reads the config with the default search path.
func Load() (*Config, error) {
	return LoadFrom(New())
}

// LoadFrom reads, unmarshals and validates the configuration held by v.
// A missing config file is not an error; defaults and environment apply.
func LoadFrom(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.WriteTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Site,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(SiteConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a SiteConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.BasePath, validation.Required, validation.By(validateAbsolutePath)),
					validation.Field(&sc.Dir, validation.Required),
					validation.Field(&sc.EnvFile, validation.Required),
				)
			}),
		),
		validation.Field(&c.Pages,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(PagesConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a PagesConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Root, validation.Required, validation.By(validateAbsolutePath)),
					validation.Field(&pc.Hamster, validation.Required, validation.By(validateAbsolutePath)),
					validation.Field(&pc.Unknown, validation.Required, validation.By(validateAbsolutePath)),
					validation.Field(&pc.ServerDown, validation.Required, validation.By(validateAbsolutePath)),
				)
			}),
		),
		validation.Field(&c.Poller,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(PollerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a PollerConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.ConfigURL, validation.By(validateServerURL)),
					validation.Field(&pc.ConfigTimeout, validation.Required, validation.By(validateDuration)),
					validation.Field(&pc.TTL, validation.Required, validation.By(validateDuration)),
					validation.Field(&pc.Policy,
						validation.Required,
						validation.In(retry.TypeFixed, retry.TypeExponential, retry.TypeUnbounded),
					),
					validation.Field(&pc.Delay, validation.Required, validation.By(validateDuration)),
					validation.Field(&pc.MaxDelay, validation.Required, validation.By(validateDuration)),
					validation.Field(&pc.MaxRetries,
						validation.When(pc.Policy != retry.TypeUnbounded, validation.Required, validation.Min(1)),
					),
				)
			}),
		),
		validation.Field(&c.Probe,
			validation.Required,
			validation.By(func(value interface{}) error {
				pc, ok := value.(ProbeConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ProbeConfig")
				}
				return validation.ValidateStruct(&pc,
					validation.Field(&pc.Timeout, validation.Required, validation.By(validateDuration)),
					validation.Field(&pc.BreakerThreshold, validation.Min(0)),
					validation.Field(&pc.BreakerReset, validation.Required, validation.By(validateDuration)),
				)
			}),
		),
		validation.Field(&c.Session,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(SessionConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a SessionConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Store, validation.Required, validation.In(StoreMemory, StoreLevelDB)),
					validation.Field(&sc.Path, validation.When(sc.Store == StoreLevelDB, validation.Required)),
				)
			}),
		),
		validation.Field(&c.Gate,
			validation.Required,
			validation.By(func(value interface{}) error {
				gc, ok := value.(GateConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a GateConfig")
				}
				return validation.ValidateStruct(&gc,
					validation.Field(&gc.CallerTTL, validation.Required, validation.By(validateDuration)),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
	)
}

// Duration parses a field that Validate already accepted.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateAbsolutePath(value interface{}) error {
	p, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if !strings.HasPrefix(p, "/") {
		return validation.NewError("validation_invalid_path", "must start with /")
	}

	return nil
}

// validateServerURL accepts an empty value, meaning "not configured".
func validateServerURL(value interface{}) error {
	serverURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if serverURL == "" {
		return nil
	}

	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
