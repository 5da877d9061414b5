// Package config loads server settings from defaults, an optional config
// file, environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds runtime settings for the card market server.
type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigin  string

	// Failed-login lockout keyed by (email, client IP).
	LoginMaxFails int
	LoginWindow   time.Duration
	LoginBlockFor time.Duration
	// AuthBurst caps register/login requests per IP per minute; 0 disables.
	AuthBurst int

	TLSCert string
	TLSKey  string

	ShutdownTimeout time.Duration
	Dev             bool
}

const (
	keyAddr            = "addr"
	keyPort            = "port"
	keyDatabaseURL     = "database-url"
	keyJWTSecret       = "jwt-secret"
	keyTokenTTL        = "token-ttl"
	keyCORSOrigin      = "cors-origin"
	keyLoginMaxFails   = "login-max-fails"
	keyLoginWindow     = "login-window"
	keyLoginBlockFor   = "login-block-for"
	keyAuthBurst       = "auth-burst"
	keyTLSCert         = "tls-cert"
	keyTLSKey          = "tls-key"
	keyShutdownTimeout = "shutdown-timeout"
	keyDev             = "dev"
	keyConfigFile      = "config"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAddr, ":5000")
	v.SetDefault(keyTokenTTL, time.Hour)
	v.SetDefault(keyCORSOrigin, "http://localhost:3000")
	v.SetDefault(keyLoginMaxFails, 5)
	v.SetDefault(keyLoginWindow, 15*time.Minute)
	v.SetDefault(keyLoginBlockFor, 15*time.Minute)
	v.SetDefault(keyAuthBurst, 30)
	v.SetDefault(keyShutdownTimeout, 5*time.Second)
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String(keyConfigFile, "", "path to a config file (json, yaml, toml)")
	fs.String(keyAddr, ":5000", "listen address")
	fs.String(keyDatabaseURL, "", "PostgreSQL DSN (required)")
	fs.String(keyJWTSecret, "", "HS256 signing key (required)")
	fs.Duration(keyTokenTTL, time.Hour, "token lifetime")
	fs.String(keyCORSOrigin, "http://localhost:3000", "allowed CORS origin")
	fs.Int(keyLoginMaxFails, 5, "failed logins before lockout")
	fs.Duration(keyLoginWindow, 15*time.Minute, "failed-login counting window")
	fs.Duration(keyLoginBlockFor, 15*time.Minute, "lockout duration")
	fs.Int(keyAuthBurst, 30, "register/login requests per IP per minute (0 disables)")
	fs.String(keyTLSCert, "", "TLS certificate (PEM)")
	fs.String(keyTLSKey, "", "TLS private key (PEM)")
	fs.Duration(keyShutdownTimeout, 5*time.Second, "graceful shutdown timeout")
	fs.Bool(keyDev, false, "development logging")
	return fs
}

// Load builds a Config from args (without the program name) and the environment.
// Environment variables are the upper-cased keys with dashes replaced by
// underscores (DATABASE_URL, JWT_SECRET, ...). PORT is honored when ADDR is unset.
func Load(args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := newFlagSet("card-market")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(keyPort, "PORT"); err != nil {
		return nil, err
	}

	if path := v.GetString(keyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Addr:            v.GetString(keyAddr),
		DatabaseURL:     v.GetString(keyDatabaseURL),
		JWTSecret:       v.GetString(keyJWTSecret),
		TokenTTL:        v.GetDuration(keyTokenTTL),
		CORSOrigin:      v.GetString(keyCORSOrigin),
		LoginMaxFails:   v.GetInt(keyLoginMaxFails),
		LoginWindow:     v.GetDuration(keyLoginWindow),
		LoginBlockFor:   v.GetDuration(keyLoginBlockFor),
		AuthBurst:       v.GetInt(keyAuthBurst),
		TLSCert:         v.GetString(keyTLSCert),
		TLSKey:          v.GetString(keyTLSKey),
		ShutdownTimeout: v.GetDuration(keyShutdownTimeout),
		Dev:             v.GetBool(keyDev),
	}
	if port := v.GetString(keyPort); port != "" && !addrOverridden(v, fs) {
		cfg.Addr = ":" + port
	}
	return cfg, nil
}

// addrOverridden reports whether addr came from somewhere other than its default.
func addrOverridden(v *viper.Viper, fs *pflag.FlagSet) bool {
	if f := fs.Lookup(keyAddr); f != nil && f.Changed {
		return true
	}
	if _, ok := os.LookupEnv("ADDR"); ok {
		return true
	}
	return v.InConfig(keyAddr)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing database url (DATABASE_URL / --database-url)"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("missing jwt signing key (JWT_SECRET / --jwt-secret)"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.LoginMaxFails < 0 {
		errs = append(errs, errors.New("login max fails must not be negative"))
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		errs = append(errs, errors.New("tls cert and key must be set together"))
	}
	return errors.Join(errs...)
}
