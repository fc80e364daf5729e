// Package config loads mzkit settings from an optional YAML file and the
// environment. Environment variables win over the file, the file wins over
// defaults. Keys map to variables by upper-casing and replacing "." with "_",
// so db.host is read from DB_HOST.
package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	TimestampsNull = "null"
	TimestampsFail = "fail"
)

// Config is the complete mzkit configuration.
type Config struct {
	DB         DBConfig         `mapstructure:"db"`
	Backup     BackupConfig     `mapstructure:"backup"`
	MZ         APIConfig        `mapstructure:"mz"`
	Timestamps TimestampsConfig `mapstructure:"timestamps"`
}

// DBConfig describes the restore target.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite file
}

// BackupConfig points at the CSV export, either a directory or an S3 prefix.
type BackupConfig struct {
	Dir        string `mapstructure:"dir"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Prefix   string `mapstructure:"s3_prefix"`
	S3Region   string `mapstructure:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
}

// APIConfig holds the platform REST API settings.
type APIConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APIBaseURL string `mapstructure:"api_base_url"`
}

type TimestampsConfig struct {
	OnUnmatched string `mapstructure:"on_unmatched"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.driver", DriverPostgres)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.database", "")
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "mzkit.db")

	v.SetDefault("backup.dir", "backup/database")
	v.SetDefault("backup.s3_bucket", "")
	v.SetDefault("backup.s3_prefix", "")
	v.SetDefault("backup.s3_region", "")
	v.SetDefault("backup.s3_endpoint", "")

	v.SetDefault("mz.api_key", "")
	v.SetDefault("mz.api_base_url", "https://api.materials.zone/v2beta1")

	v.SetDefault("timestamps.on_unmatched", TimestampsNull)
}

// Load reads the configuration. configPath may be empty.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		log.Printf("📁 Loading config from file: %s", configPath)
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the tool cannot act on.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown db driver %q (want %s or %s)", c.DB.Driver, DriverPostgres, DriverSQLite)
	}
	switch c.Timestamps.OnUnmatched {
	case TimestampsNull, TimestampsFail:
	default:
		return fmt.Errorf("unknown timestamps.on_unmatched %q (want %s or %s)", c.Timestamps.OnUnmatched, TimestampsNull, TimestampsFail)
	}
	return nil
}

// DSN renders the connection string for the configured driver.
func (c DBConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return "file:" + c.Path + "?_pragma=foreign_keys(1)"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Redacted is DSN with the password masked, for log lines.
func (c DBConfig) Redacted() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	masked := c
	if masked.Password != "" {
		masked.Password = "xxxxx"
	}
	return masked.DSN()
}

// UsesS3 reports whether the backup should be fetched from S3.
func (b BackupConfig) UsesS3() bool {
	return b.S3Bucket != ""
}
