// Package batch converts every matching tabl document in a directory to JSON.
//
// Documents are converted in parallel and independently: a document that
// fails to convert is recorded in the [Report] and logged, and the rest of
// the batch carries on.
package batch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ConradIrwin/tabl-go"
)

// DefaultPattern matches the files directly inside the input directory.
const DefaultPattern = "*"

// Options control a batch conversion.
type Options struct {
	// Pattern is a doublestar pattern matched against paths relative to the
	// input directory. Use "**/*.tabl" to recurse.
	Pattern string
	// Workers bounds the number of documents converted at once.
	Workers int
	// Stream selects the line-buffered lexer instead of reading whole files.
	Stream bool
	// OutputDir receives one .json file per document, mirroring the input
	// layout. It is ignored when Echo is set.
	OutputDir string
	// Echo, when set, receives every converted document in input order
	// instead of OutputDir.
	Echo io.Writer
	// Logger receives a line per document. Use zerolog.Nop() to discard them.
	Logger zerolog.Logger
}

// ConvertFile converts the document at path.
func ConvertFile(path string, stream bool) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if stream {
		return tabl.Convert(f)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return tabl.ConvertString(string(data))
}

// OutputPath returns where the JSON for the document at rel (relative to the
// input directory) is written inside outputDir.
func OutputPath(outputDir, rel string) string {
	return filepath.Join(outputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".json")
}

// Match lists the regular files in dir that match pattern, relative to dir
// and in lexical order.
func Match(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %q", pattern)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	fsys := os.DirFS(dir)
	matches := []string{}
	err = doublestar.GlobWalk(fsys, pattern, func(path string, d fs.DirEntry) error {
		if d.Type().IsRegular() {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	return matches, nil
}

// Run converts the documents in inputDir that match opts.Pattern.
//
// The returned error is only set if the batch itself could not run (an
// invalid pattern, an unreadable directory, or a cancelled context);
// failures of individual documents are in the report.
func Run(ctx context.Context, inputDir string, opts Options) (*Report, error) {
	matches, err := Match(inputDir, opts.Pattern)
	if err != nil {
		return nil, err
	}
	if opts.Echo == nil && opts.OutputDir == "" {
		return nil, fmt.Errorf("no output directory")
	}

	results := make([]Result, len(matches))
	outputs := make([]string, len(matches))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	for i, rel := range matches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i], outputs[i] = convertOne(inputDir, rel, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Results: results}
	for i, result := range results {
		if result.Error != "" {
			report.Failed++
			continue
		}
		report.Converted++
		if opts.Echo != nil {
			if _, err := fmt.Fprintln(opts.Echo, outputs[i]); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

func convertOne(inputDir, rel string, opts Options) (Result, string) {
	start := time.Now()
	result := Result{Input: rel}
	logger := opts.Logger.With().Str("file", rel).Logger()

	output, err := ConvertFile(filepath.Join(inputDir, filepath.FromSlash(rel)), opts.Stream)
	if err == nil && opts.Echo == nil {
		result.Output = OutputPath(opts.OutputDir, filepath.FromSlash(rel))
		err = writeOutput(result.Output, output)
	}
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err.Error()
		logger.Error().Err(err).Msg("failed")
		return result, ""
	}
	logger.Info().Dur("duration", result.Duration).Msg("processed")
	return result, output
}

func writeOutput(path, output string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(output), 0o644)
}
