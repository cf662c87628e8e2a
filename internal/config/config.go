// Package config provides functionality for managing configuration options
// for the server using command-line flags, a JSON file and environment
// variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// JWTSecret signs and verifies bearer tokens.
	JWTSecret string `json:"jwt_secret"`

	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// HistoryRetentionDays prunes logged meals older than this many days.
	// Zero keeps history forever.
	HistoryRetentionDays int `json:"history_retention_days"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Parse loads a .env file if present and then parses os.Args and the
// process environment.
func Parse() (*Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return ParseArgs(os.Args[1:], os.Getenv)
}

// ParseArgs applies, in increasing precedence, defaults, flags, the JSON
// config file and environment variables.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.JWTSecret, "s", "", "token signing secret")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	env := map[string]*string{
		"SERVER_ADDRESS": &options.Port,
		"DATABASE_DSN":   &options.DatabaseDSN,
		"JWT_SECRET":     &options.JWTSecret,
		"LOG_LEVEL":      &options.LogLevel,
		"LOG_FILE":       &options.LogFile,
		"TLS_CERT":       &options.TLSCert,
		"TLS_KEY":        &options.TLSKey,
	}
	for name, dst := range env {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	if v := getenv("HISTORY_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HISTORY_RETENTION_DAYS: %w", err)
		}
		options.HistoryRetentionDays = days
	}

	return options, nil
}

// Validate reports settings the server cannot start without.
func (o *Options) Validate() error {
	var errs []error
	if o.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required (-d or DATABASE_DSN)"))
	}
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("token secret is required (-s or JWT_SECRET)"))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("TLS_CERT and TLS_KEY must be set together"))
	}
	if o.HistoryRetentionDays < 0 {
		errs = append(errs, errors.New("history retention must not be negative"))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether HTTPS should be served.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
