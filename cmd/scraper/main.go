package main

import (
	"context"
	"flag"
	"log"

	"github.com/stanle/cityperthscraper/internal/listing"
	"github.com/stanle/cityperthscraper/internal/tabula"
	"github.com/stanle/cityperthscraper/pkg/scraper"
	"github.com/stanle/cityperthscraper/pkg/scraper/config"
	"github.com/stanle/cityperthscraper/pkg/scraper/store/sqlite"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional)")
		dbPath     = flag.String("db", "", "Database path (overrides config)")
		sourceURL  = flag.String("url", "", "Listing page URL (overrides config)")
		jarPath    = flag.String("jar", "", "tabula-java jar path (overrides config)")
		javaPath   = flag.String("java", "", "java binary (overrides config)")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("Failed to load configuration: ", err)
		}
		cfg = loaded
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	if *sourceURL != "" {
		cfg.SourceURL = *sourceURL
	}
	if *jarPath != "" {
		cfg.TabulaJar = *jarPath
	}
	if *javaPath != "" {
		cfg.JavaPath = *javaPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	st, err := sqlite.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer st.Close()

	s := &scraper.Scraper{
		Store: st,
		Discovery: &listing.Client{
			PageURL:   cfg.SourceURL,
			UserAgent: cfg.UserAgent,
		},
		Extract: &tabula.Extractor{
			JavaPath:  cfg.JavaPath,
			JarPath:   cfg.TabulaJar,
			UserAgent: cfg.UserAgent,
		},
	}

	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("✓ Scrape complete: run %s, %d documents processed, %d records, %d skipped",
		sum.RunID, sum.Documents, sum.Records, sum.Skipped)
}
