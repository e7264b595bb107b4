package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stanle/cityperthscraper/pkg/scraper/internalerr"
)

// Config holds the runtime configuration for a scrape run.
type Config struct {
	// SourceURL is the council listing page enumerating the PDF documents.
	SourceURL string `yaml:"source_url"`
	// Database is the SQLite file holding records and the processed ledger.
	Database string `yaml:"database"`
	// JavaPath is the java binary used to run the extraction engine.
	JavaPath string `yaml:"java_path"`
	// TabulaJar is the tabula-java jar implementing table extraction.
	TabulaJar string `yaml:"tabula_jar"`
	// UserAgent overrides the User-Agent header on PDF downloads; some
	// council servers reject the default Go client string.
	UserAgent string `yaml:"user_agent"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		SourceURL: "https://www.perth.wa.gov.au/develop/planning-and-building-applications/building-and-development-applications",
		Database:  "data.sqlite",
		JavaPath:  "java",
		TabulaJar: "tabula.jar",
		UserAgent: "Mozilla/5.0 (compatible; cityperthscraper)",
	}
}

// Load reads a YAML configuration file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every required field is set.
func (c Config) Validate() error {
	if c.SourceURL == "" {
		return fmt.Errorf("%w: source_url is empty", internalerr.ErrInvalidConfig)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database is empty", internalerr.ErrInvalidConfig)
	}
	if c.TabulaJar == "" {
		return fmt.Errorf("%w: tabula_jar is empty", internalerr.ErrInvalidConfig)
	}
	return nil
}
