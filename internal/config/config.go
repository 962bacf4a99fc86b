// Package config loads service settings from defaults, an optional config
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/thomasarchive/archive/internal/languages"
)

const EnvPrefix = "ARCHIVE"

// Catalog backends.
const (
	BackendFiles    = "files"
	BackendS3       = "s3"
	BackendHTTP     = "http"
	BackendPostgres = "postgres"
)

// Field is a setting with its default. Aliases are extra environment
// variable names accepted besides ARCHIVE_<KEY>.
type Field struct {
	Key         string
	Value       any
	Description string
	Aliases     []string
}

var Fields = []Field{
	{Key: "port", Value: "8080", Description: "HTTP listen port", Aliases: []string{"PORT"}},
	{Key: "base_url", Value: "http://localhost:8080", Description: "Public site URL used in share links", Aliases: []string{"BASE_URL"}},
	{Key: "default_region", Value: languages.BritishEnglish, Description: "Region used when none can be detected"},
	{Key: "static_dir", Value: "public", Description: "Directory with the static site"},
	{Key: "catalog.backend", Value: BackendFiles, Description: "Where catalog documents come from: files, s3, http or postgres"},
	{Key: "catalog.dir", Value: "public/data", Description: "Document directory for the files backend"},
	{Key: "catalog.url", Value: "", Description: "Base URL for the http backend"},
	{Key: "catalog.manifest", Value: "", Description: "Path to a section manifest; empty uses the built-in one"},
	{Key: "catalog.cache_ttl", Value: 5 * time.Minute, Description: "How long a loaded catalog is reused per region"},
	{Key: "database_url", Value: "", Description: "Postgres URL for the postgres backend", Aliases: []string{"DATABASE_URL"}},
	{Key: "s3.endpoint", Value: "", Description: "S3-compatible endpoint", Aliases: []string{"S3_ENDPOINT"}},
	{Key: "s3.bucket", Value: "thomas-archive", Description: "Bucket holding catalog documents", Aliases: []string{"S3_BUCKET"}},
	{Key: "s3.prefix", Value: "data", Description: "Key prefix inside the bucket"},
	{Key: "s3.access_key", Value: "", Description: "S3 access key", Aliases: []string{"S3_ACCESS_KEY"}},
	{Key: "s3.secret_key", Value: "", Description: "S3 secret key", Aliases: []string{"S3_SECRET_KEY"}},
	{Key: "s3.region", Value: "eu-central-1", Description: "S3 region", Aliases: []string{"S3_REGION"}},
	{Key: "session_secret", Value: "", Description: "HMAC secret for visitor session cookies", Aliases: []string{"SESSION_SECRET"}},
	{Key: "session_ttl", Value: 2 * time.Hour, Description: "Idle time before a visitor's player is dropped"},
	{Key: "secure_cookies", Value: false, Description: "Mark session cookies Secure"},
	{Key: "shield_dwell", Value: 3 * time.Second, Description: "How long the title shield stays up"},
	{Key: "geoip_db", Value: "", Description: "MaxMind country database for default regions", Aliases: []string{"GEOIP_DB_PATH"}},
	{Key: "uptimerobot.api_key", Value: "", Description: "UptimeRobot read-only API key", Aliases: []string{"UPTIMEROBOT_API_KEY"}},
	{Key: "uptimerobot.base_url", Value: "https://api.uptimerobot.com", Description: "UptimeRobot API base URL"},
	{Key: "log_level", Value: "info", Description: "debug, info, warn or error", Aliases: []string{"LOG_LEVEL"}},
}

type S3 struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Region    string
}

type Config struct {
	Port            string
	BaseURL         string
	DefaultRegion   string
	StaticDir       string
	CatalogBackend  string
	CatalogDir      string
	CatalogURL      string
	CatalogManifest string
	CatalogCacheTTL time.Duration
	DatabaseURL     string
	S3              S3
	SessionSecret   string
	SessionTTL      time.Duration
	SecureCookies   bool
	ShieldDwell     time.Duration
	GeoIPDB         string
	UptimeRobotKey  string
	UptimeRobotURL  string
	LogLevel        string
}

// New returns a viper instance with defaults and environment bindings for
// every Field.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, f := range Fields {
		v.SetDefault(f.Key, f.Value)
		envs := append([]string{f.Env()}, f.Aliases...)
		_ = v.BindEnv(append([]string{f.Key}, envs...)...)
	}
	return v
}

// Env is the primary environment variable for the field.
func (f Field) Env() string {
	return EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(f.Key))
}

// ReadFile merges a config file into v. A missing default file is not an
// error; an explicitly named one is.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("archive")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:            v.GetString("port"),
		BaseURL:         strings.TrimRight(v.GetString("base_url"), "/"),
		DefaultRegion:   languages.Normalize(v.GetString("default_region")),
		StaticDir:       v.GetString("static_dir"),
		CatalogBackend:  strings.ToLower(v.GetString("catalog.backend")),
		CatalogDir:      v.GetString("catalog.dir"),
		CatalogURL:      v.GetString("catalog.url"),
		CatalogManifest: v.GetString("catalog.manifest"),
		CatalogCacheTTL: v.GetDuration("catalog.cache_ttl"),
		DatabaseURL:     v.GetString("database_url"),
		S3: S3{
			Endpoint:  v.GetString("s3.endpoint"),
			Bucket:    v.GetString("s3.bucket"),
			Prefix:    v.GetString("s3.prefix"),
			AccessKey: v.GetString("s3.access_key"),
			SecretKey: v.GetString("s3.secret_key"),
			Region:    v.GetString("s3.region"),
		},
		SessionSecret:  v.GetString("session_secret"),
		SessionTTL:     v.GetDuration("session_ttl"),
		SecureCookies:  v.GetBool("secure_cookies"),
		ShieldDwell:    v.GetDuration("shield_dwell"),
		GeoIPDB:        v.GetString("geoip_db"),
		UptimeRobotKey: v.GetString("uptimerobot.api_key"),
		UptimeRobotURL: v.GetString("uptimerobot.base_url"),
		LogLevel:       strings.ToLower(v.GetString("log_level")),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !languages.IsSupported(c.DefaultRegion) {
		return fmt.Errorf("default_region %q is not supported", c.DefaultRegion)
	}
	switch c.CatalogBackend {
	case BackendFiles:
		if c.CatalogDir == "" {
			return errors.New("catalog.dir is required for the files backend")
		}
	case BackendHTTP:
		if c.CatalogURL == "" {
			return errors.New("catalog.url is required for the http backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required for the postgres backend")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown catalog.backend %q", c.CatalogBackend)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.LogLevel) {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
