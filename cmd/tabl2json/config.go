package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/ConradIrwin/tabl-go"
)

// config holds every setting of a run. It can be read from a tabl document
// such as:
//
//	tabl2json = {
//	  pattern = "**/*.tabl"
//	  workers = 4
//	  lexer = eager
//	  output_directory = out
//	}
type config struct {
	InputFile       string `tabl:"input_file"`
	InputDirectory  string `tabl:"input_directory"`
	Output          string `tabl:"output"`
	OutputDirectory string `tabl:"output_directory"`
	Echo            bool   `tabl:"echo"`
	SilenceProgress bool   `tabl:"silence_progress"`
	Pattern         string `tabl:"pattern"`
	Workers         int    `tabl:"workers"`
	Lexer           string `tabl:"lexer"`
	Report          string `tabl:"report"`
	Watch           bool   `tabl:"watch"`
	LogFormat       string `tabl:"log_format"`
}

func defaultConfig() config {
	return config{
		Pattern:   "*",
		Workers:   runtime.NumCPU(),
		Lexer:     "stream",
		LogFormat: "console",
	}
}

func (c *config) validate() error {
	if c.InputFile == "" && c.InputDirectory == "" {
		return fmt.Errorf("one of -i or -id is required")
	}
	if c.InputFile != "" && c.InputDirectory != "" {
		return fmt.Errorf("-i and -id cannot be used together")
	}
	if c.Lexer != "stream" && c.Lexer != "eager" {
		return fmt.Errorf("invalid lexer %q, expected stream or eager", c.Lexer)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log format %q, expected console or json", c.LogFormat)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Watch && (c.InputFile == "" || c.InputFile == "-") {
		return fmt.Errorf("-watch requires -i with a file")
	}
	if c.InputDirectory != "" && !c.Echo && c.OutputDirectory == "" {
		return fmt.Errorf("-id requires -od or -e")
	}
	return nil
}

func newFlagSet(c *config, configFile *string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("tabl2json", flag.ContinueOnError)
	fs.SetOutput(output)

	stringFlag := func(p *string, short, long, usage string) {
		fs.StringVar(p, short, *p, usage)
		fs.StringVar(p, long, *p, "alias for -"+short)
	}
	boolFlag := func(p *bool, short, long, usage string) {
		fs.BoolVar(p, short, *p, usage)
		fs.BoolVar(p, long, *p, "alias for -"+short)
	}

	stringFlag(&c.InputFile, "i", "input-file", "tabl document to convert, or - for stdin")
	stringFlag(&c.InputDirectory, "id", "input-directory", "directory of tabl documents to convert")
	stringFlag(&c.Output, "o", "output", "file to write the JSON to (default stdout)")
	stringFlag(&c.OutputDirectory, "od", "output-directory", "directory to write one JSON file per document to")
	boolFlag(&c.Echo, "e", "echo", "print JSON to stdout")
	boolFlag(&c.SilenceProgress, "s", "silence-progress", "do not log each processed document")

	fs.StringVar(configFile, "config", "", "tabl document with default settings")
	fs.StringVar(&c.Pattern, "pattern", c.Pattern, "doublestar pattern selecting documents inside -id")
	fs.IntVar(&c.Workers, "workers", c.Workers, "documents converted at once with -id")
	fs.StringVar(&c.Lexer, "lexer", c.Lexer, "stream (line by line) or eager (whole file)")
	fs.StringVar(&c.Report, "report", c.Report, "write a JSON report of a -id run to this file")
	fs.BoolVar(&c.Watch, "watch", c.Watch, "convert -i again whenever it changes")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "console or json")

	return fs
}

// loadConfig parses args. Settings from the -config document apply unless
// the same setting was given as a flag.
func loadConfig(args []string, output io.Writer) (config, error) {
	c := defaultConfig()
	configFile := ""
	fs := newFlagSet(&c, &configFile, output)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if configFile == "" {
		return c, c.validate()
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return c, err
	}
	fromFile := defaultConfig()
	if err := tabl.Unmarshal(data, &fromFile); err != nil {
		return c, fmt.Errorf("%s:%w", configFile, err)
	}

	// Replay the flags over the file's settings.
	fs = newFlagSet(&fromFile, &configFile, io.Discard)
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	return fromFile, fromFile.validate()
}
