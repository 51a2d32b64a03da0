// Package helpers contains small JSONL utilities shared by the converter
// and the lint tool.
package helpers

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// maxLineSize bounds a single JSONL line. Converted conversations with
// long tool transcripts can run to megabytes.
const maxLineSize = 10 * 1024 * 1024

// DecodeJSONL reads r line by line and decodes each non-blank line into T,
// calling fn with the 1-based line number and the decode result. A decode
// failure is passed to fn rather than ending the stream; fn returning a
// non-nil error stops iteration.
func DecodeJSONL[T any](r io.Reader, fn func(line int, item T, err error) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var item T
		err := json.Unmarshal([]byte(line), &item)
		if cbErr := fn(lineNum, item, err); cbErr != nil {
			return cbErr
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read input")
	}
	return nil
}

// ReadJSONL loads every record of a JSONL file, failing on the first
// malformed line.
func ReadJSONL[T any](filePath string) ([]T, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() {
		_ = file.Close()
	}()

	var results []T
	err = DecodeJSONL(file, func(line int, item T, decodeErr error) error {
		if decodeErr != nil {
			return errors.Wrapf(decodeErr, "failed to unmarshal line %d", line)
		}
		results = append(results, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
