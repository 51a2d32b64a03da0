package main

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/EternisAI/toucan-to-messages/pkg/config"
	"github.com/EternisAI/toucan-to-messages/pkg/db"
	"github.com/EternisAI/toucan-to-messages/pkg/langdetect"
	"github.com/EternisAI/toucan-to-messages/pkg/logging"
	"github.com/EternisAI/toucan-to-messages/pkg/toucan"
)

type options struct {
	Limit          int     `long:"limit" description:"Stop after reading this many input rows"`
	Sample         bool    `long:"sample" description:"Convert a single row, pretty-print it, and exit"`
	URL            string  `long:"url" description:"Dataset locator: local path, glob, or hf:// URL (default from TOUCAN_DATASET_URL)"`
	Output         string  `long:"output" short:"o" description:"Write JSONL to this file instead of stdout"`
	Quiet          bool    `long:"quiet" short:"q" description:"Suppress progress output and per-row warnings"`
	Verbose        bool    `long:"verbose" description:"Enable debug logging"`
	MaxToolCalls   *int    `long:"max-tool-calls" description:"Reject conversations with more tool calls than this (default: no limit)"`
	LangConfidence float64 `long:"lang-confidence" default:"0.8" description:"Minimum confidence for English detection"`
	NoLangFilter   bool    `long:"no-lang-filter" description:"Disable English language filtering"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Convert Toucan-1.5M to MessagesRequest JSONL"
	if _, err := parser.Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Converted rows go to stdout, so everything else goes to stderr.
	logger := logging.New(os.Stderr, opts.Quiet, opts.Verbose)

	cfg, err := config.LoadConfig(opts.Verbose)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	url := cfg.DatasetURL
	if opts.URL != "" {
		url = opts.URL
	}

	ctx := context.Background()

	store, err := db.NewStore(ctx)
	if err != nil {
		logger.Error("Failed to open DuckDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close DuckDB", "error", err)
		}
	}()

	if strings.Contains(url, "://") {
		if err := store.EnableRemote(ctx, cfg.HFToken); err != nil {
			logger.Error("Failed to enable remote access", "error", err)
			os.Exit(1)
		}
	}

	// Sample mode reads exactly one row regardless of --limit.
	limit := opts.Limit
	if opts.Sample {
		limit = 1
	}

	source, err := toucan.OpenSource(ctx, store, url, limit)
	if err != nil {
		logger.Error("Failed to open dataset", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Error("Failed to close dataset", "error", err)
		}
	}()

	conv := toucan.NewConverter(logger, cfg.Model, cfg.MaxTokens)
	pipe := toucan.NewPipeline(logger, source, langdetect.NewLinguaDetector(), conv, toucan.Options{
		MaxToolCalls:   opts.MaxToolCalls,
		LangConfidence: opts.LangConfidence,
		NoLangFilter:   opts.NoLangFilter,
	})

	if opts.Sample {
		if err := pipe.Sample(os.Stdout); err != nil {
			logger.Error("Failed to convert sample row", "error", err)
			os.Exit(1)
		}
		return
	}

	out := os.Stdout
	if opts.Output != "" {
		file, err := os.Create(opts.Output)
		if err != nil {
			logger.Error("Failed to create output file", "file", opts.Output, "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := file.Close(); err != nil {
				logger.Error("Failed to close output file", "error", err)
			}
		}()
		out = file
	}
	writer := bufio.NewWriter(out)

	logger.Info("Streaming dataset", "url", url)
	if !opts.NoLangFilter {
		logger.Info("Filtering by language", "lang", "en", "min_confidence", opts.LangConfidence)
	}
	if opts.MaxToolCalls != nil {
		logger.Info("Filtering by tool calls", "max", *opts.MaxToolCalls)
	}

	stats, runErr := pipe.Run(ctx, writer)
	if err := writer.Flush(); err != nil {
		logger.Error("Failed to flush output", "error", err)
		os.Exit(1)
	}
	if runErr != nil {
		logger.Error("Conversion aborted", "error", runErr,
			"processed", stats.Processed, "converted", stats.Converted)
		os.Exit(1)
	}

	logger.Info("Done",
		"converted", stats.Converted,
		"filtered_lang", stats.FilteredLang,
		"filtered_tool_calls", stats.FilteredToolCalls,
		"errors", stats.Errors,
		"processed", stats.Processed,
	)
}
