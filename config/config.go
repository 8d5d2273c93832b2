package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the listing site crawled when no base_url is configured
const DefaultBaseURL = "https://quotes.toscrape.com/"

// DefaultOutput is the CSV path used when neither config nor CLI names one
const DefaultOutput = "result.csv"

// Termination rules understood by the crawler
const (
	TerminateOnEmpty    = "empty"
	TerminateOnLastLink = "last-link"
)

// Tag extraction strategies understood by the parser
const (
	TagsFromElements = "elements"
	TagsFromLabel    = "label"
)

// Config represents the scraper configuration
type Config struct {
	BaseURL     string `yaml:"base_url" validate:"required,url"`
	Output      string `yaml:"output" validate:"required"`
	Termination string `yaml:"termination" validate:"oneof=empty last-link"`
	TagsFrom    string `yaml:"tags_from" validate:"oneof=elements label"`
	MaxPages    int    `yaml:"max_pages" validate:"min=0"`

	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Log      LogConfig      `yaml:"log"`
	Store    StoreConfig    `yaml:"store"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// FetcherConfig selects and tunes the page fetcher
type FetcherConfig struct {
	Kind           string        `yaml:"kind" validate:"oneof=colly resty rod"`
	UserAgent      string        `yaml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// StoreConfig enables persisting crawl runs to a database.
// An empty driver disables the store.
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" validate:"required_with=Driver"`
}

// SheetsConfig enables exporting quotes to Google Sheets
type SheetsConfig struct {
	SpreadsheetURL string `yaml:"spreadsheet_url" validate:"omitempty,url"`
	Credentials    string `yaml:"credentials"`
}

// TelegramConfig enables run notifications.
// An empty token disables notifications.
type TelegramConfig struct {
	Token    string `yaml:"token"`
	ChatID   int64  `yaml:"chat_id" validate:"required_with=Token"`
	Endpoint string `yaml:"endpoint"`
}

// LoadConfig loads configuration from a YAML file on top of the defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Output:      DefaultOutput,
		Termination: TerminateOnEmpty,
		TagsFrom:    TagsFromElements,
		Fetcher: FetcherConfig{
			Kind:      "colly",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
