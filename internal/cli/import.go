// Package cli implements the command line interface for one-off
// operations that do not need the HTTP server.
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/containerhub/containerhub/internal/auth"
	"github.com/containerhub/containerhub/internal/catalog"
	"github.com/containerhub/containerhub/internal/config"
	"github.com/containerhub/containerhub/internal/database"
	"github.com/containerhub/containerhub/internal/entities"
	"github.com/containerhub/containerhub/internal/fetchproxy"
	"github.com/containerhub/containerhub/internal/importer"
)

// ImportCommand runs the bulk import pipeline against a local database
// without starting the HTTP server.
type ImportCommand struct {
	FilePath     string
	URLsPath     string
	DatabasePath string
	ItemType     string
	Format       string
	Visibility   string
	DryRun       bool
}

func NewImportCommand() *ImportCommand {
	return &ImportCommand{}
}

func (cmd *ImportCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a JSON, JSONL or CSV file of items to import")
	fs.StringVar(&cmd.URLsPath, "urls", "", "Path to a file with one URL per line to import")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the local catalog database")
	fs.StringVar(&cmd.ItemType, "type", "app", "Item type to import: app, voice or workflow")
	fs.StringVar(&cmd.Format, "format", "", "Source format: json, jsonl or csv (default: inferred from the file extension)")
	fs.StringVar(&cmd.Visibility, "visibility", "public", "Visibility of imported items: public, restricted or admin_only")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse the input and report what would be imported without making changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import (-file <path> | -urls <path>) [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import catalog items from a file or a list of URLs into a local database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Import apps from a JSON export:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file apps.json -type app\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Import voice agents from a CSV sheet:\n")
		fmt.Fprintf(os.Stderr, "  %s import -file agents.csv -type voice -format csv\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Fetch and register a list of app URLs:\n")
		fmt.Fprintf(os.Stderr, "  %s import -urls apps.txt\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" && cmd.URLsPath == "" {
		return fmt.Errorf("one of -file or -urls is required")
	}
	if cmd.FilePath != "" && cmd.URLsPath != "" {
		return fmt.Errorf("-file and -urls are mutually exclusive")
	}
	if cmd.Format == "" && cmd.FilePath != "" {
		cmd.Format = formatFromExtension(cmd.FilePath)
	}

	return nil
}

func (cmd *ImportCommand) Run() error {
	opts, err := cmd.buildOptions()
	if err != nil {
		return err
	}

	if cmd.DryRun {
		return cmd.dryRun(opts)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	defaultOrgID, err := db.DefaultOrganizationID()
	if err != nil {
		return fmt.Errorf("failed to resolve default organization: %w", err)
	}

	fetcher := fetchproxy.NewFetcher(20*time.Second, 0)
	runner := importer.NewRunner(catalog.NewLocal(db, fetcher, defaultOrgID, auth.DefaultUserID), importer.RunnerConfig{})

	run, err := runner.Start(opts)
	if err != nil {
		return err
	}

	for !run.Phase().Terminal() {
		progress := run.Progress()
		fmt.Printf("\rProcessed %d/%d items (batch %d/%d)",
			progress.ItemsProcessed, progress.TotalItems,
			progress.CompletedBatches, progress.TotalBatches)
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println()

	result, err := run.Result()
	if err != nil {
		return err
	}
	printSummary(run, result)

	if run.Phase() == importer.PhaseFailed {
		return run.Err()
	}
	return nil
}

func (cmd *ImportCommand) buildOptions() (importer.RunOptions, error) {
	opts := importer.RunOptions{
		ItemType:   entities.ItemType(cmd.ItemType),
		Visibility: entities.Visibility(cmd.Visibility),
	}

	if cmd.URLsPath != "" {
		data, err := os.ReadFile(cmd.URLsPath)
		if err != nil {
			return opts, fmt.Errorf("failed to read URL list: %w", err)
		}
		opts.Mode = importer.ModeBulkURLs
		opts.Origin = importer.OriginBulkURLs
		opts.URLs = strings.Split(strings.TrimSpace(string(data)), "\n")
		return opts, nil
	}

	data, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return opts, fmt.Errorf("failed to read import file: %w", err)
	}
	opts.Mode = importer.ModeFile
	opts.Origin = importer.OriginFile
	opts.Format = importer.SourceFormat(cmd.Format)
	opts.Payload = data
	return opts, nil
}

func (cmd *ImportCommand) dryRun(opts importer.RunOptions) error {
	if opts.Mode == importer.ModeBulkURLs {
		fmt.Printf("Would import %d URL(s)\n", len(opts.URLs))
		return nil
	}

	var (
		records []importer.ImportSourceRecord
		err     error
	)
	switch opts.Format {
	case importer.FormatJSON:
		records, err = importer.ParseJSON(opts.Payload, opts.Origin)
	case importer.FormatJSONL:
		records, err = importer.ParseJSONL(opts.Payload, opts.Origin)
	case importer.FormatCSV:
		records, err = importer.ParseCSV(opts.Payload, opts.ItemType, opts.Origin)
	default:
		return fmt.Errorf("unsupported format: %q", opts.Format)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Would import %d record(s) from %s\n", len(records), cmd.FilePath)
	return nil
}

func printSummary(run *importer.Run, result *importer.ImportResult) {
	summary := importer.Summarize(result)

	fmt.Printf("Run %s finished: %s\n", run.ID, run.Phase())
	fmt.Printf("  Created:            %d\n", summary.Succeeded)
	fmt.Printf("  Failed:             %d\n", summary.Failed)
	fmt.Printf("  Skipped duplicates: %d\n", summary.SkippedDuplicates)
	for class, identifiers := range summary.FailuresByClass {
		fmt.Printf("  %s:\n", class)
		for _, id := range identifiers {
			fmt.Printf("    - %s\n", id)
		}
	}
}

func formatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return "jsonl"
	case ".csv":
		return "csv"
	default:
		return "json"
	}
}
