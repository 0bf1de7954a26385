// Package config loads the spacetraveling configuration from an optional YAML
// file, .env files and environment variables.
//
// Environment variables always win over the YAML file. Before they are read,
// .env files are loaded in this order (earlier files win):
//
//  1. the file named by ENV_FILE, if set (and nothing else)
//  2. .env.local
//  3. .env
//
// Example config.yml:
//
//	prismic:
//	  endpoint: https://spacetraveling.cdn.prismic.io/api/v2
//	  page_size: 1
//	site:
//	  title: spacetraveling
//	  revalidate: 30m
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 5 * time.Second
	defaultDocumentType    = "posts"
	defaultPageSize        = 1
	defaultPrismicTimeout  = 10 * time.Second
	defaultSiteTitle       = "spacetraveling"
	defaultLocale          = "pt-BR"
	defaultRevalidate      = 1800 * time.Second
	defaultDatabasePath    = "./spacetraveling.db"
	defaultLogLevel        = "info"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Prismic  PrismicConfig  `yaml:"prismic"`
	Site     SiteConfig     `yaml:"site"`
	Database DatabaseConfig `yaml:"database"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

type PrismicConfig struct {
	// Endpoint is the repository API, e.g. https://my-repo.cdn.prismic.io/api/v2
	Endpoint     string        `yaml:"endpoint" env:"PRISMIC_API_ENDPOINT"`
	AccessToken  string        `yaml:"access_token" env:"PRISMIC_ACCESS_TOKEN"`
	DocumentType string        `yaml:"document_type" env:"PRISMIC_DOCUMENT_TYPE"`
	PageSize     int           `yaml:"page_size" env:"PRISMIC_PAGE_SIZE"`
	Timeout      time.Duration `yaml:"timeout" env:"PRISMIC_TIMEOUT"`
	// Lang is the Prismic locale code; empty derives it from Site.Locale.
	Lang string `yaml:"lang" env:"PRISMIC_LANG"`
}

type SiteConfig struct {
	Title   string `yaml:"title" env:"SITE_TITLE"`
	BaseURL string `yaml:"base_url" env:"SITE_BASE_URL"`
	Locale  string `yaml:"locale" env:"SITE_LOCALE"`
	// Intro is markdown shown above the post listing.
	Intro      string        `yaml:"intro" env:"SITE_INTRO"`
	Revalidate time.Duration `yaml:"revalidate" env:"SITE_REVALIDATE"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"SQLITE_DB_PATH"`
}

type WebhookConfig struct {
	Secret string `yaml:"secret" env:"WEBHOOK_SECRET"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            defaultAddr,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Prismic: PrismicConfig{
			DocumentType: defaultDocumentType,
			PageSize:     defaultPageSize,
			Timeout:      defaultPrismicTimeout,
		},
		Site: SiteConfig{
			Title:      defaultSiteTitle,
			Locale:     defaultLocale,
			Revalidate: defaultRevalidate,
		},
		Database: DatabaseConfig{
			Path: defaultDatabasePath,
		},
		Log: LogConfig{
			Level: defaultLogLevel,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty), .env files and the environment, then validates it.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env files without overriding variables that are already set.
// Missing files are ignored.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// LocaleTag returns the parsed site locale.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Site.Locale)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

// PrismicLang returns the Prismic locale code: Prismic.Lang when set,
// otherwise the lowercased site locale ("pt-br").
func (c *Config) PrismicLang() string {
	if c.Prismic.Lang != "" {
		return c.Prismic.Lang
	}
	return toPrismicLang(c.LocaleTag())
}

func toPrismicLang(tag language.Tag) string {
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.No {
		return base.String()
	}
	return base.String() + "-" + strings.ToLower(region.String())
}
