package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/ConradIrwin/tabl-go"
	"github.com/ConradIrwin/tabl-go/batch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func newLogger(c config, stderr io.Writer) zerolog.Logger {
	// Directory mode logs from several workers at once.
	out := zerolog.SyncWriter(stderr)
	if c.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	level := zerolog.InfoLevel
	if c.SilenceProgress {
		level = zerolog.WarnLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c, err := loadConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger := newLogger(c, stderr)

	if c.InputDirectory != "" {
		return runDirectory(ctx, c, stdout, logger)
	}

	convert := func() bool {
		return convertFile(c, stdin, stdout, logger)
	}
	ok := convert()
	if !c.Watch {
		if !ok {
			return 1
		}
		return 0
	}

	if err := watch(ctx, c.InputFile, logger, func() { convert() }); err != nil {
		logger.Error().Err(err).Msg("watch failed")
		return 1
	}
	return 0
}

// readInput converts the document named by -i, where "-" is stdin.
func readInput(c config, stdin io.Reader) (string, error) {
	stream := c.Lexer == "stream"
	if c.InputFile != "-" {
		return batch.ConvertFile(c.InputFile, stream)
	}
	if stream {
		return tabl.Convert(stdin)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return tabl.ConvertString(string(data))
}

func convertFile(c config, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) bool {
	logger = logger.With().Str("file", c.InputFile).Logger()
	start := time.Now()

	output, err := readInput(c, stdin)
	if err != nil {
		logger.Error().Err(err).Msg("failed")
		return false
	}

	if c.Output != "" && !c.Echo {
		if err := os.WriteFile(c.Output, []byte(output), 0o644); err != nil {
			logger.Error().Err(err).Msg("failed")
			return false
		}
	} else {
		fmt.Fprintln(stdout, output)
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("processed")
	return true
}

func runDirectory(ctx context.Context, c config, stdout io.Writer, logger zerolog.Logger) int {
	opts := batch.Options{
		Pattern:   c.Pattern,
		Workers:   c.Workers,
		Stream:    c.Lexer == "stream",
		OutputDir: c.OutputDirectory,
		Logger:    logger,
	}
	if c.Echo {
		opts.Echo = stdout
	}

	report, err := batch.Run(ctx, c.InputDirectory, opts)
	if err != nil {
		logger.Error().Err(err).Str("directory", c.InputDirectory).Msg("batch failed")
		return 1
	}

	if c.Report != "" {
		if err := report.WriteFile(c.Report); err != nil {
			logger.Error().Err(err).Msg("could not write report")
			return 1
		}
	}

	logger.Info().Int("converted", report.Converted).Int("failed", report.Failed).Msg("done")
	if report.Failed > 0 {
		return 1
	}
	return 0
}
