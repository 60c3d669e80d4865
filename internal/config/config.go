// Package config assembles the service configuration.
//
// Values are layered, each source overriding the previous one:
// built-in defaults, a JSON file (CONFIG env variable or -c flag), environment
// variables (optionally loaded from .env), command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"-" validate:"gt=0s"`

	RedisURL     string        `env:"REDIS_URL" json:"redis_url" validate:"omitempty,url"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" json:"-" validate:"gt=0s"`

	SessionSecret string        `env:"SESSION_SECRET" json:"session_secret" validate:"required,min=16"`
	CookieName    string        `env:"COOKIE_NAME" json:"cookie_name" validate:"required,alphanum"`
	CookieDomain  string        `env:"COOKIE_DOMAIN" json:"cookie_domain" validate:"omitempty,hostname"`
	SecureCookie  bool          `env:"SECURE_COOKIE" json:"secure_cookie"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" json:"-" validate:"gt=0s"`
	CORSOrigin    string        `env:"CORS_ORIGIN" json:"cors_origin" validate:"url"`

	ResetLinkOrigin      string        `env:"RESET_LINK_ORIGIN" json:"reset_link_origin" validate:"omitempty,url"`
	ForgetPasswordPrefix string        `env:"REDIS_FORGET_PASSWORD_PREFIX" json:"forget_password_prefix" validate:"required"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL" json:"-" validate:"gt=0s"`
	ForgotPasswordFloor  time.Duration `env:"FORGOT_PASSWORD_FLOOR" json:"-" validate:"gte=0s"`

	MailFrom          string `env:"EMAIL" json:"email" validate:"email"`
	SMTPHost          string `env:"SMTP_HOST" json:"smtp_host"`
	SMTPPort          int    `env:"SMTP_PORT" json:"smtp_port" validate:"min=1,max=65535"`
	SMTPUsername      string `env:"SMTP_USERNAME" json:"smtp_username"`
	SMTPPassword      string `env:"SMTP_PASSWORD" json:"smtp_password"`
	MailQueueCapacity int    `env:"MAIL_QUEUE_CAPACITY" json:"mail_queue_capacity" validate:"min=1"`

	TrustedSubnet string  `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" json:"auth_rate_limit" validate:"gt=0"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" json:"auth_rate_burst" validate:"min=1"`
}

var defaultConfig = Config{
	RunAddr:              ":4000",
	LogLevel:             "info",
	DBConnectionTimeout:  10 * time.Second,
	StoreTimeout:         2 * time.Second,
	SessionSecret:        "dev-session-secret-change-me",
	CookieName:           "qid",
	SessionMaxAge:        2 * 365 * 24 * time.Hour,
	CORSOrigin:           "http://localhost:3000",
	ForgetPasswordPrefix: "forget-password:",
	ResetTokenTTL:        24 * time.Hour,
	ForgotPasswordFloor:  300 * time.Millisecond,
	MailFrom:             "no-reply@tracky.local",
	SMTPPort:             587,
	MailQueueCapacity:    100,
	AuthRateLimit:        1,
	AuthRateBurst:        5,
}

// duration lets the JSON file spell durations as "10s" instead of nanoseconds.
type duration time.Duration

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = duration(v)

	return nil
}

// fileConfig shadows the duration fields of the embedded Config.
type fileConfig struct {
	*Config
	DBConnectionTimeout *duration `json:"db_connection_timeout"`
	StoreTimeout        *duration `json:"store_timeout"`
	SessionMaxAge       *duration `json:"session_max_age"`
	ResetTokenTTL       *duration `json:"reset_token_ttl"`
	ForgotPasswordFloor *duration `json:"forgot_password_floor"`
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

type flagValues struct {
	configPath string
	set        map[string]bool
	values     Config
}

func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := Config{}
	applyDefaults(&values, defaultConfig)

	flags := flagValues{set: map[string]bool{}}
	if !options.disableFlagsParsing {
		if err := flags.parse(os.Args); err != nil {
			return nil, err
		}
	}

	configPath := os.Getenv("CONFIG")
	if flags.set["c"] {
		configPath = flags.configPath
	}
	if configPath != "" {
		if err := values.loadJSON(configPath); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(&values); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	flags.apply(&values)

	if values.ResetLinkOrigin == "" {
		values.ResetLinkOrigin = values.CORSOrigin
	}

	if err := validate(&values); err != nil {
		return nil, err
	}

	return &values, nil
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

func (c *Config) loadJSON(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	file := fileConfig{Config: c}
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	for _, d := range []struct {
		from *duration
		to   *time.Duration
	}{
		{file.DBConnectionTimeout, &c.DBConnectionTimeout},
		{file.StoreTimeout, &c.StoreTimeout},
		{file.SessionMaxAge, &c.SessionMaxAge},
		{file.ResetTokenTTL, &c.ResetTokenTTL},
		{file.ForgotPasswordFloor, &c.ForgotPasswordFloor},
	} {
		if d.from != nil {
			*d.to = time.Duration(*d.from)
		}
	}

	return nil
}

func (f *flagValues) parse(args []string) error {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.StringVar(&f.values.RunAddr, "a", "", "address and port to run server")
	fs.StringVar(&f.values.LogLevel, "l", "", "logger level")
	fs.StringVar(&f.values.DatabaseDSN, "d", "", "a string with the database connection details")
	fs.StringVar(&f.values.RedisURL, "r", "", "redis URL of the session and token store")
	fs.StringVar(&f.values.SessionSecret, "s", "", "secret used to sign session cookies")
	fs.StringVar(&f.values.CORSOrigin, "o", "", "origin allowed to send credentialed requests")
	fs.StringVar(&f.values.TrustedSubnet, "t", "", "CIDR whose proxies may set X-Real-IP")
	fs.StringVar(&f.configPath, "c", "", "path to a JSON configuration file")

	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("in internal/config/config.go/parse(): error while `fs.Parse()` calling: %w", err)
	}
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})

	return nil
}

func (f *flagValues) apply(values *Config) {
	for name, p := range map[string]struct{ dst, src *string }{
		"a": {&values.RunAddr, &f.values.RunAddr},
		"l": {&values.LogLevel, &f.values.LogLevel},
		"d": {&values.DatabaseDSN, &f.values.DatabaseDSN},
		"r": {&values.RedisURL, &f.values.RedisURL},
		"s": {&values.SessionSecret, &f.values.SessionSecret},
		"o": {&values.CORSOrigin, &f.values.CORSOrigin},
		"t": {&values.TrustedSubnet, &f.values.TrustedSubnet},
	} {
		if f.set[name] {
			*p.dst = *p.src
		}
	}
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

var ErrInvalidConfig = errors.New("invalid configuration")

func validate(values *Config) error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	if err := validate.Struct(values); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}
