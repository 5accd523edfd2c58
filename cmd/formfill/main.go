// Package main is the formfill CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dsillex/formfill/internal/cli"
	"github.com/dsillex/formfill/internal/config"
	"github.com/dsillex/formfill/internal/fill"
	"github.com/dsillex/formfill/internal/history"
	"github.com/dsillex/formfill/internal/models"
	"github.com/dsillex/formfill/internal/server"
	"github.com/dsillex/formfill/internal/template"
	"github.com/dsillex/formfill/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/formfill/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "formfill server" from the project dir uses the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// No config file anywhere: run on defaults.
		cfg := &config.Config{}
		config.ApplyDefaults(cfg)
		return cfg, "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "fill":
		runFill()
	case "batch":
		runBatch()
	case "templates":
		runTemplates()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("formfill version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`formfill - map structured records onto fillable documents

Usage:
  formfill server    [flags]                       start the HTTP API
  formfill analyze   [flags] <document>            list fillable fields
  formfill fill      [flags] <document>            fill one document
  formfill batch     [flags] <jobs.json>           run a batch of fill jobs
  formfill templates <list|show|export|import|duplicate|delete> [flags]
  formfill history   [flags]                       list recorded fills
  formfill version                                 print version

Run "formfill <command> -h" for command flags.`)
}

func mustLogger(debug bool) *zap.Logger {
	logger, err := utils.NewLogger(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func mustConfig(path string) (*config.Config, string) {
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved
}

func mustFormat(v string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath := mustConfig(*configPath)
	debugMode := cfg.Debug || *debug
	logger := mustLogger(debugMode)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	templates, err := template.NewStore(cfg.Storage.TemplatesPath, logger)
	if err != nil {
		logger.Fatal("Failed to open template store", zap.Error(err))
	}
	defer templates.Close()
	if err := templates.Watch(); err != nil {
		logger.Warn("template live reload unavailable", zap.Error(err))
	}

	hist, err := history.NewStore(cfg.Storage.HistoryPath)
	if err != nil {
		logger.Fatal("Failed to open history store", zap.Error(err))
	}
	defer hist.Close()

	engine := fill.NewEngine(logger)
	engine.SetRecorder(hist)

	srv := server.NewServer(engine, templates, hist, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	docType := fs.String("type", "", "document type: pdf, docx, or xlsx (default: detect)")
	maxColumns := fs.Int("max-columns", 0, "max spreadsheet columns to report (default: from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: formfill analyze [flags] <document>")
		os.Exit(1)
	}
	format := mustFormat(*outputFormat)
	cfg, _ := mustConfig(*configPath)
	logger := mustLogger(cfg.Debug)
	defer logger.Sync()

	columns := *maxColumns
	if columns == 0 {
		columns = cfg.Spreadsheet.MaxColumns
	}
	engine := fill.NewEngine(logger)
	result, err := engine.Analyze(context.Background(), fs.Arg(0), models.DocumentType(*docType), &models.AnalyzeOptions{MaxColumns: columns})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnalysis(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// readJSONFile decodes one JSON file into out.
func readJSONFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// fillMappings resolves the mapping set for a fill: either a stored template
// by id or a JSON file holding a mapping array.
func fillMappings(cfg *config.Config, logger *zap.Logger, templateID, mappingsPath string) ([]models.FieldMapping, error) {
	switch {
	case templateID != "":
		store, err := template.NewStore(cfg.Storage.TemplatesPath, logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		t, err := store.Get(templateID)
		if err != nil {
			return nil, err
		}
		return t.Mappings, nil
	case mappingsPath != "":
		var mappings []models.FieldMapping
		if err := readJSONFile(mappingsPath, &mappings); err != nil {
			return nil, err
		}
		return mappings, nil
	}
	return nil, fmt.Errorf("either -template or -mappings is required")
}

func runFill() {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	templateID := fs.String("template", "", "stored template id supplying the mappings")
	mappingsPath := fs.String("mappings", "", "JSON file holding a mapping array")
	dataPath := fs.String("data", "", "JSON file holding the data context")
	outPath := fs.String("out", "", "output file path")
	docType := fs.String("type", "", "document type: pdf, docx, or xlsx (default: detect)")
	sheet := fs.String("sheet", "", "target sheet name for spreadsheet fills")
	dataStartRow := fs.Int("data-start-row", 0, "first data row for roster fills (default: from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 || *dataPath == "" || *outPath == "" {
		fmt.Println("Usage: formfill fill -data <data.json> -out <path> (-template <id> | -mappings <file>) [flags] <document>")
		os.Exit(1)
	}
	format := mustFormat(*outputFormat)
	cfg, _ := mustConfig(*configPath)
	logger := mustLogger(cfg.Debug)
	defer logger.Sync()

	mappings, err := fillMappings(cfg, logger, *templateID, *mappingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load mappings: %v\n", err)
		os.Exit(1)
	}
	var data models.DataContext
	if err := readJSONFile(*dataPath, &data); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load data context: %v\n", err)
		os.Exit(1)
	}

	job := models.BatchJob{
		FilePath:     fs.Arg(0),
		DocumentType: models.DocumentType(*docType),
		Mappings:     mappings,
		Data:         data,
		OutputPath:   *outPath,
	}
	if *sheet != "" || *dataStartRow != 0 {
		row := *dataStartRow
		if row == 0 {
			row = cfg.Spreadsheet.DataStartRow
		}
		job.SheetOptions = &models.SheetFillOptions{SheetName: *sheet, DataStartRow: row}
	}

	engine := fill.NewEngine(logger)
	result := engine.Fill(context.Background(), &job)
	if err := cli.WriteFillResult(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		os.Exit(1)
	}
}

func runBatch() {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	parallel := fs.Int("parallel", 0, "parallel jobs (default: from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: formfill batch [flags] <jobs.json>")
		os.Exit(1)
	}
	format := mustFormat(*outputFormat)
	cfg, _ := mustConfig(*configPath)
	logger := mustLogger(cfg.Debug)
	defer logger.Sync()

	var jobs []models.BatchJob
	if err := readJSONFile(fs.Arg(0), &jobs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load jobs: %v\n", err)
		os.Exit(1)
	}
	workers := *parallel
	if workers == 0 {
		workers = cfg.Batch.Parallel
	}

	engine := fill.NewEngine(logger)
	summary := engine.RunBatch(context.Background(), jobs, workers)
	if err := cli.WriteBatchSummary(os.Stdout, summary, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func runTemplates() {
	if len(os.Args) < 3 {
		printTemplatesUsage()
		os.Exit(1)
	}
	action := os.Args[2]

	fs := flag.NewFlagSet("templates "+action, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	name := fs.String("name", "", "name for duplicated template (duplicate only)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[3:])

	format := mustFormat(*outputFormat)
	cfg, _ := mustConfig(*configPath)
	logger := mustLogger(cfg.Debug)
	defer logger.Sync()

	store, err := template.NewStore(cfg.Storage.TemplatesPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open template store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch action {
	case "list":
		if err := cli.WriteTemplates(os.Stdout, store.List(), format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "show":
		t := mustTemplate(store, fs)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(t)
	case "export":
		t := mustTemplate(store, fs)
		exp, err := store.Export(t.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(exp)
	case "import":
		if fs.NArg() < 1 {
			fmt.Println("Usage: formfill templates import [flags] <template.json>")
			os.Exit(1)
		}
		var exp models.TemplateExport
		if err := readJSONFile(fs.Arg(0), &exp); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read template: %v\n", err)
			os.Exit(1)
		}
		t, err := store.Import(&exp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %q as %s\n", t.Name, t.ID)
	case "duplicate":
		t := mustTemplate(store, fs)
		dup, err := store.Duplicate(t.ID, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Duplicate failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Duplicated as %s (%q)\n", dup.ID, dup.Name)
	case "delete":
		t := mustTemplate(store, fs)
		if err := store.Delete(t.ID); err != nil {
			fmt.Fprintf(os.Stderr, "Delete failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted %s\n", t.ID)
	default:
		fmt.Printf("Unknown templates action: %s\n", action)
		printTemplatesUsage()
		os.Exit(1)
	}
}

func mustTemplate(store *template.Store, fs *flag.FlagSet) *models.Template {
	if fs.NArg() < 1 {
		fmt.Println("A template id argument is required.")
		os.Exit(1)
	}
	t, err := store.Get(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return t
}

func printTemplatesUsage() {
	fmt.Println(`Usage:
  formfill templates list      [flags]
  formfill templates show      [flags] <id>
  formfill templates export    [flags] <id>
  formfill templates import    [flags] <template.json>
  formfill templates duplicate [flags] <id>
  formfill templates delete    [flags] <id>`)
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of entries")
	offset := fs.Int("offset", 0, "entries to skip")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := mustFormat(*outputFormat)
	cfg, _ := mustConfig(*configPath)

	store, err := history.NewStore(cfg.Storage.HistoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	entries, err := store.List(context.Background(), *offset, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "History list failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHistory(os.Stdout, entries, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}
