// Package config loads settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/expense-analyzer/internal/store"
)

// Attachment backends.
const (
	AttachmentsKV  = "kv"
	AttachmentsGCS = "gcs"
)

// Classifier choices.
const (
	ClassifierNone  = "none"
	ClassifierGenAI = "genai"
	ClassifierBayes = "bayes"
)

// Config holds every setting of the API server and the CLI.
type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	APIToken string `yaml:"api_token"` // empty disables bearer auth

	StorageBackend string `yaml:"storage_backend"` // memory | bolt | sqlite
	StoragePath    string `yaml:"storage_path"`

	AttachmentBackend string `yaml:"attachment_backend"` // kv | gcs
	AttachmentBucket  string `yaml:"attachment_bucket"`

	Classifier  string `yaml:"classifier"` // none | genai | bayes
	GeminiModel string `yaml:"gemini_model"`

	NotionToken string `yaml:"notion_token"`
	NotionDBID  string `yaml:"notion_db_id"`

	BigQueryProject string `yaml:"bigquery_project"`
	BigQueryDataset string `yaml:"bigquery_dataset"`
	BigQueryTable   string `yaml:"bigquery_table"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() *Config {
	return &Config{
		Port:              "8080",
		LogLevel:          "info",
		StorageBackend:    store.BackendBolt,
		StoragePath:       "expenses.db",
		AttachmentBackend: AttachmentsKV,
		Classifier:        ClassifierNone,
		GeminiModel:       "gemini-2.5-flash",
		BigQueryDataset:   "finance",
		BigQueryTable:     "household_transactions",
	}
}

// Load reads the YAML file named by EXPENSE_CONFIG, if any, then applies
// environment overrides and validates the result.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("EXPENSE_CONFIG"))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadFile: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("LoadFile: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("EXPENSE_PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.APIToken = getEnv("EXPENSE_API_TOKEN", c.APIToken)
	c.StorageBackend = getEnv("EXPENSE_STORAGE", c.StorageBackend)
	c.StoragePath = getEnv("EXPENSE_STORAGE_PATH", c.StoragePath)
	c.AttachmentBackend = getEnv("EXPENSE_ATTACHMENTS", c.AttachmentBackend)
	c.AttachmentBucket = getEnv("GCS_BUCKET", c.AttachmentBucket)
	c.Classifier = getEnv("EXPENSE_CLASSIFIER", c.Classifier)
	c.GeminiModel = getEnv("GEMINI_MODEL", c.GeminiModel)
	c.NotionToken = getEnv("NOTION_TOKEN", c.NotionToken)
	c.NotionDBID = getEnv("NOTION_DB_ID", c.NotionDBID)
	c.BigQueryProject = getEnv("BIGQUERY_PROJECT", c.BigQueryProject)
	c.BigQueryDataset = getEnv("BIGQUERY_DATASET", c.BigQueryDataset)
	c.BigQueryTable = getEnv("BIGQUERY_TABLE", c.BigQueryTable)
}

// Validate rejects unknown backends and missing required paths.
func (c *Config) Validate() error {
	var errs []error

	switch c.StorageBackend {
	case store.BackendMemory:
	case store.BackendBolt, store.BackendSQLite:
		if strings.TrimSpace(c.StoragePath) == "" {
			errs = append(errs, fmt.Errorf("storage_path is required for the %s backend", c.StorageBackend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.StorageBackend))
	}

	switch c.AttachmentBackend {
	case AttachmentsKV:
	case AttachmentsGCS:
		if c.AttachmentBucket == "" {
			errs = append(errs, fmt.Errorf("attachment_bucket is required for the gcs backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown attachment backend %q", c.AttachmentBackend))
	}

	switch c.Classifier {
	case ClassifierNone, ClassifierGenAI, ClassifierBayes:
	default:
		errs = append(errs, fmt.Errorf("unknown classifier %q", c.Classifier))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// NotionEnabled reports whether Notion sync has credentials.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionDBID != ""
}

// WarehouseEnabled reports whether a BigQuery project is configured.
func (c *Config) WarehouseEnabled() bool {
	return c.BigQueryProject != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
