// Package toucan streams rows of the Toucan-1.5M agentic dataset and
// reshapes them into Messages API requests: role-tagged turns become
// user/assistant messages with tool_use and tool_result content blocks,
// OpenAI-style tool declarations become flat tool definitions, and rows
// can be filtered by tool-call count and by the language of the opening
// user turn.
package toucan

import (
	"context"
	"encoding/json"
	"io"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/EternisAI/toucan-to-messages/pkg/langdetect"
)

// progressInterval is how many converted rows pass between progress logs.
const progressInterval = 1000

// Options control row filtering.
type Options struct {
	// MaxToolCalls rejects conversations with more tool calls than this;
	// nil disables the filter.
	MaxToolCalls *int
	// LangConfidence is the minimum confidence for English detection.
	LangConfidence float64
	// NoLangFilter disables English filtering entirely.
	NoLangFilter bool
}

// Stats counts row outcomes for the run summary.
type Stats struct {
	Processed         int
	Converted         int
	FilteredLang      int
	FilteredToolCalls int
	Errors            int
}

// Pipeline drains a row source, filters rows, and writes converted
// requests as JSONL.
type Pipeline struct {
	logger   *log.Logger
	source   RowSource
	detector langdetect.Detector
	conv     *Converter
	opts     Options
}

func NewPipeline(logger *log.Logger, source RowSource, detector langdetect.Detector, conv *Converter, opts Options) *Pipeline {
	return &Pipeline{
		logger:   logger,
		source:   source,
		detector: detector,
		conv:     conv,
		opts:     opts,
	}
}

// Run converts every row of the source and writes one JSON object per
// line to out. Row-level failures are counted and logged; source or
// output failures end the run early with the stats so far.
func (p *Pipeline) Run(ctx context.Context, out io.Writer) (Stats, error) {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := p.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrRowScan) {
			stats.Processed++
			stats.Errors++
			p.logger.Warn("Failed to read row", "error", err)
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Processed++

		if p.opts.MaxToolCalls != nil && CountToolCalls(row.Messages) > *p.opts.MaxToolCalls {
			stats.FilteredToolCalls++
			continue
		}
		if !p.opts.NoLangFilter && !p.acceptLanguage(row.Messages) {
			stats.FilteredLang++
			continue
		}

		req, err := p.conv.ConvertRow(row.Messages, row.Tools)
		if err != nil {
			stats.Errors++
			p.logger.Warn("Failed to convert row", "row", stats.Processed, "error", err)
			continue
		}
		if err := enc.Encode(req); err != nil {
			return stats, errors.Wrap(err, "failed to write output")
		}
		stats.Converted++

		if stats.Converted%progressInterval == 0 {
			p.logger.Info("Converted rows", "count", stats.Converted)
		}
	}
	return stats, nil
}

// acceptLanguage checks the first user turn of the conversation. Rows
// whose messages column cannot be parsed are rejected.
func (p *Pipeline) acceptLanguage(messagesJSON string) bool {
	turns, err := ParseTurns(messagesJSON)
	if err != nil {
		return false
	}
	return langdetect.IsEnglish(p.detector, FirstUserText(turns), p.opts.LangConfidence)
}

// Sample converts the next row of the source and pretty-prints it to out,
// skipping every filter.
func (p *Pipeline) Sample(out io.Writer) error {
	row, err := p.source.Next()
	if err != nil {
		return errors.Wrap(err, "failed to read sample row")
	}
	req, err := p.conv.ConvertRow(row.Messages, row.Tools)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(req)
}
