// Package config provides configuration handling for the domain checker application
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mallocator/domain-expiry/pkg/logger"
	"github.com/mallocator/domain-expiry/pkg/record"
)

// Supported lookup backends
const (
	BackendWhois = "whois"
	BackendRDAP  = "rdap"
)

// Config holds application settings
type Config struct {
	// Number of days ahead within which an expiration is reported
	ThresholdDays int `json:"threshold_days" yaml:"threshold_days"`

	// Path of the SQLite database holding tracked domains
	DBPath string `json:"db_path" yaml:"db_path"`

	// Print progress and confirmation messages
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Notification addresses
	EmailFrom string `json:"email_from" yaml:"email_from"`
	EmailTo   string `json:"email_to" yaml:"email_to"`

	// SMTP configuration for email notifications
	SMTPHost string `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort int    `json:"smtp_port" yaml:"smtp_port"`
	SMTPUser string `json:"smtp_user" yaml:"smtp_user"`
	SMTPPass string `json:"smtp_pass" yaml:"smtp_pass"`

	// Local sendmail binary, used when no SMTP host is set
	SendmailPath string `json:"sendmail_path" yaml:"sendmail_path"`

	// Top-level domains accepted by add/delete
	AllowedTLDs []string `json:"allowed_tlds" yaml:"allowed_tlds"`

	// Lookup settings
	LookupBackend string        `json:"lookup_backend" yaml:"lookup_backend"`
	LookupTimeout time.Duration `json:"lookup_timeout" yaml:"lookup_timeout"` // per lookup timeout, "30s" or nanoseconds

	// Confirm "no match" whois answers against the zone's SOA record
	DNSCrossCheck bool   `json:"dns_crosscheck" yaml:"dns_crosscheck"`
	Nameserver    string `json:"nameserver" yaml:"nameserver"` // host:port, empty reads resolv.conf

	// Optional rotating log file
	LogFile string `json:"log_file" yaml:"log_file"`
}

// New creates a new configuration with default values
func New(log *logger.Logger) *Config {
	user := os.Getenv("USER")
	if user == "" {
		user = "root"
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		log.Debugf("Could not determine hostname, using localhost for the sender address")
		host = "localhost"
	}

	dbPath := ".domain-checker.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, dbPath)
	}

	cfg := &Config{
		ThresholdDays: 14,
		DBPath:        dbPath,
		EmailFrom:     fmt.Sprintf("domain-checker <%s@%s>", user, host),
		EmailTo:       user,
		SMTPPort:      25,
		SendmailPath:  "/usr/sbin/sendmail",
		AllowedTLDs:   append([]string(nil), record.DefaultTLDs...),
		LookupBackend: BackendWhois,
		LookupTimeout: 30 * time.Second,
	}

	return cfg
}

// LoadDotEnv loads variables from a .env file into the environment without
// overriding values that are already set. A missing file is not an error.
func (c *Config) LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadFromFile loads configuration from a JSON or YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("invalid config in %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("invalid config in %s: %w", path, err)
		}
	}

	return nil
}

// fileConfig has Config's fields without its UnmarshalJSON
type fileConfig Config

// UnmarshalJSON decodes a config file on top of the current values. The
// lookup timeout may be a duration string or a number of nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	aux := struct {
		*fileConfig
		LookupTimeout json.RawMessage `json:"lookup_timeout"`
	}{fileConfig: (*fileConfig)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.LookupTimeout) == 0 || string(aux.LookupTimeout) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(aux.LookupTimeout, &s); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid lookup_timeout: %w", err)
		}
		c.LookupTimeout = d
		return nil
	}
	var ns int64
	if err := json.Unmarshal(aux.LookupTimeout, &ns); err != nil {
		return fmt.Errorf("invalid lookup_timeout %s", aux.LookupTimeout)
	}
	c.LookupTimeout = time.Duration(ns)
	return nil
}

// LoadFromEnv overrides configuration with environment variables
func (c *Config) LoadFromEnv() {
	setInt(&c.ThresholdDays, "THRESHOLD_DAYS")
	setString(&c.DBPath, "DB_PATH")
	setBool(&c.Verbose, "VERBOSE")
	setString(&c.EmailFrom, "EMAIL_FROM")
	setString(&c.EmailTo, "EMAIL_TO")
	setString(&c.SMTPHost, "SMTP_HOST")
	setInt(&c.SMTPPort, "SMTP_PORT")
	setString(&c.SMTPUser, "SMTP_USER")
	setString(&c.SMTPPass, "SMTP_PASS")
	setString(&c.SendmailPath, "SENDMAIL_PATH")
	setStringList(&c.AllowedTLDs, "ALLOWED_TLDS", ",")
	setString(&c.LookupBackend, "LOOKUP_BACKEND")
	setDuration(&c.LookupTimeout, "LOOKUP_TIMEOUT")
	setBool(&c.DNSCrossCheck, "DNS_CROSSCHECK")
	setString(&c.Nameserver, "NAMESERVER")
	setString(&c.LogFile, "LOG_FILE")
}

// Validate checks the settings that would otherwise fail late
func (c *Config) Validate() error {
	if c.ThresholdDays < 0 {
		return fmt.Errorf("threshold_days must not be negative, got %d", c.ThresholdDays)
	}
	switch c.LookupBackend {
	case BackendWhois, BackendRDAP:
	default:
		return fmt.Errorf("unknown lookup_backend %q, use %q or %q", c.LookupBackend, BackendWhois, BackendRDAP)
	}
	if c.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.SMTPHost != "" && c.SMTPPort <= 0 {
		return fmt.Errorf("smtp_port must be positive, got %d", c.SMTPPort)
	}
	return nil
}

// setStringList sets a []string from env split by sep
func setStringList(field *[]string, env, sep string) {
	if v := os.Getenv(env); v != "" {
		*field = strings.Split(v, sep)
	}
}

// setString sets a string field from env
func setString(field *string, env string) {
	if v := os.Getenv(env); v != "" {
		*field = strings.TrimSpace(v)
	}
}

// setInt sets an int field from env
func setInt(field *int, env string) {
	if v := os.Getenv(env); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*field = i
		}
	}
}

// setBool sets a bool field from env
func setBool(field *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*field = b
		}
	}
}

// setDuration sets a time.Duration field from env
func setDuration(field *time.Duration, env string) {
	if v := os.Getenv(env); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*field = d
		}
	}
}
