package main

import (
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/samber/lo"

	"github.com/EternisAI/toucan-to-messages/pkg/helpers"
	"github.com/EternisAI/toucan-to-messages/pkg/logging"
	"github.com/EternisAI/toucan-to-messages/pkg/messages"
)

type options struct {
	Verbose bool `long:"verbose" description:"Enable debug logging"`
	Args    struct {
		File string `positional-arg-name:"FILE" description:"JSONL file to check (defaults to stdin)"`
	} `positional-args:"yes"`
}

type lineSummary struct {
	model    string
	messages int
	toolUses int
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Validate MessagesRequest JSONL"
	if _, err := parser.Parse(); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, false, opts.Verbose)

	var in io.Reader = os.Stdin
	if opts.Args.File != "" {
		file, err := os.Open(opts.Args.File)
		if err != nil {
			logger.Error("Failed to open input", "file", opts.Args.File, "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = file.Close()
		}()
		in = file
	}

	var (
		summaries []lineSummary
		malformed int
		invalid   int
		warnings  int
		tools     int
	)
	roleCounts := map[string]int{}
	blockCounts := map[string]int{}

	err := helpers.DecodeJSONL(in, func(line int, req messages.MessagesRequest, decodeErr error) error {
		if decodeErr != nil {
			malformed++
			logger.Error("Malformed JSON line", "line", line, "error", decodeErr)
			return nil
		}
		if err := req.Validate(); err != nil {
			invalid++
			logger.Error("Invalid request", "line", line, "error", err)
			return nil
		}
		if len(req.Messages) == 0 {
			warnings++
			logger.Warn("Empty conversation", "line", line)
		}
		if dangling := req.DanglingResultIDs(); len(dangling) > 0 {
			warnings++
			logger.Warn("Results answering undeclared tool calls", "line", line, "ids", dangling)
		}
		for _, msg := range req.Messages {
			roleCounts[string(msg.Role)]++
			for _, block := range msg.Content.Blocks {
				blockCounts[block.Type]++
			}
		}
		tools += len(req.Tools)
		summaries = append(summaries, lineSummary{
			model:    req.Model,
			messages: len(req.Messages),
			toolUses: len(req.ToolUseIDs()),
		})
		return nil
	})
	if err != nil {
		logger.Error("Failed to read input", "error", err)
		os.Exit(1)
	}

	totalMessages := lo.SumBy(summaries, func(s lineSummary) int { return s.messages })
	totalToolUses := lo.SumBy(summaries, func(s lineSummary) int { return s.toolUses })
	byModel := lo.CountValuesBy(summaries, func(s lineSummary) string { return s.model })

	logger.Info("Checked",
		"lines", len(summaries)+malformed+invalid,
		"valid", len(summaries),
		"malformed", malformed,
		"invalid", invalid,
		"warnings", warnings,
	)
	logger.Info("Totals", "messages", totalMessages, "tool_uses", totalToolUses, "tools", tools)
	logger.Info("Roles", "counts", roleCounts)
	logger.Info("Blocks", "counts", blockCounts)
	for model, count := range byModel {
		logger.Info("Model", "name", model, "requests", count)
	}

	if malformed+invalid > 0 {
		os.Exit(1)
	}
}
