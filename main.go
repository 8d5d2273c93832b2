package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"quotes-scraper/config"
	"quotes-scraper/csvfile"
	"quotes-scraper/db"
	"quotes-scraper/fetcher"
	"quotes-scraper/models"
	"quotes-scraper/notify"
	"quotes-scraper/parser"
	"quotes-scraper/scraper"
	"quotes-scraper/sheets"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "quotes-scraper [output-path]",
		Short: "Scrapes every quote from the listing site into a CSV file",
		Long: "Walks the numbered listing pages starting at page 1, extracts text, author and tags\n" +
			"from every quote and writes them to a CSV file (default " + config.DefaultOutput + ").",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Output = args[0]
			}

			setupLogger(cfg.Log.Level)
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file (optional)")
	return cmd
}

// loadConfig loads configuration from file, or returns defaults when no path is given
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return config.GetDefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func setupLogger(level string) {
	log.SetReportTimestamp(true)
	log.SetOutput(os.Stderr)

	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// run crawls the site, writes the CSV and then feeds the optional sinks.
// Nothing is written when the crawl fails.
func run(ctx context.Context, cfg *config.Config) error {
	started := time.Now()

	quotes, stats, err := scrapeQuotes(ctx, cfg)
	if err != nil {
		return fmt.Errorf("scraping failed: %w", err)
	}

	if err := csvfile.WriteQuotes(cfg.Output, quotes); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	summary := notify.Summary{
		BaseURL:    cfg.BaseURL,
		Quotes:     len(quotes),
		Pages:      stats.Pages,
		OutputPath: cfg.Output,
	}
	exportResults(ctx, cfg, quotes, &summary)

	summary.Duration = time.Since(started)
	notifyRun(cfg, summary)

	fmt.Printf("Scraped %d quotes from %d pages into %s\n", len(quotes), stats.Pages, cfg.Output)
	return nil
}

// scrapeQuotes performs the fetching and extraction
func scrapeQuotes(ctx context.Context, cfg *config.Config) ([]models.Quote, scraper.Stats, error) {
	termination, err := scraper.ParseTermination(cfg.Termination)
	if err != nil {
		return nil, scraper.Stats{}, err
	}
	tags, err := parser.ParseTagStrategy(cfg.TagsFrom)
	if err != nil {
		return nil, scraper.Stats{}, err
	}

	f, closer, err := fetcher.New(cfg.Fetcher)
	if err != nil {
		return nil, scraper.Stats{}, fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warnf("Failed to close fetcher: %v", err)
		}
	}()

	crawler := scraper.NewCrawler(f, parser.NewParser(tags), scraper.Options{
		BaseURL:     cfg.BaseURL,
		Termination: termination,
		MaxPages:    cfg.MaxPages,
	})

	return crawler.Crawl(ctx)
}

// exportResults writes to the configured store and spreadsheet.
// Failures here are reported but never fail the run: the CSV is already on disk.
func exportResults(ctx context.Context, cfg *config.Config, quotes []models.Quote, summary *notify.Summary) {
	if cfg.Store.Driver != "" {
		if err := saveToStore(ctx, cfg, quotes, summary.Pages); err != nil {
			log.Warnf("Failed to save run to %s store: %v", cfg.Store.Driver, err)
		}
	}

	if cfg.Sheets.SpreadsheetURL != "" {
		sheetURL, err := writeToSheets(ctx, cfg, quotes)
		if err != nil {
			log.Warnf("Failed to write to Google Sheets: %v", err)
		} else {
			summary.SheetURL = sheetURL
		}
	}
}

func saveToStore(ctx context.Context, cfg *config.Config, quotes []models.Quote, pages int) error {
	store, err := db.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	runID, err := store.SaveRun(ctx, db.Run{
		BaseURL:    cfg.BaseURL,
		Pages:      pages,
		OutputPath: cfg.Output,
	}, quotes)
	if err != nil {
		return err
	}

	log.Infof("Saved run %s with %d quotes", runID, len(quotes))
	return nil
}

func writeToSheets(ctx context.Context, cfg *config.Config, quotes []models.Quote) (string, error) {
	spreadsheetID := sheets.ExtractSpreadsheetID(cfg.Sheets.SpreadsheetURL)
	if spreadsheetID == "" {
		return "", fmt.Errorf("could not extract spreadsheet ID from URL: %s", cfg.Sheets.SpreadsheetURL)
	}

	writer, err := sheets.NewWriter(ctx, spreadsheetID, cfg.Sheets.Credentials)
	if err != nil {
		return "", err
	}

	sheetName := fmt.Sprintf("Quotes_%s", time.Now().Format("20060102_150405"))
	_, sheetID, err := writer.CreateSheetAndWriteQuotes(sheetName, quotes, cfg.BaseURL)
	if err != nil {
		return "", err
	}

	return sheets.SheetURL(spreadsheetID, sheetID), nil
}

func notifyRun(cfg *config.Config, summary notify.Summary) {
	if cfg.Telegram.Token == "" {
		return
	}

	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.Endpoint)
	if err != nil {
		log.Warnf("Failed to initialize Telegram notifier: %v", err)
		return
	}
	if err := tg.NotifyRun(summary); err != nil {
		log.Warnf("%v", err)
	}
}
