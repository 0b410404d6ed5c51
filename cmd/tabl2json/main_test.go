package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return runWithStdin(t, "", args...)
}

func runWithStdin(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSingleFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.tabl")
	writeFile(t, input, "x = { a = 1 b = 2 }\n")

	code, stdout, _ := runCLI(t, "-i", input, "-e", "-s")
	assert.Equal(t, 0, code)
	assert.Equal(t, "{\n    \"a\": 1,\n    \"b\": 2\n}\n", stdout)

	output := filepath.Join(dir, "out.json")
	code, stdout, stderr := runCLI(t, "--input-file", input, "--output", output, "-lexer", "eager", "-log-format", "json")
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `"message":"processed"`)

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": 1,\n    \"b\": 2\n}", string(written))
}

func TestStdin(t *testing.T) {
	for _, lexer := range []string{"eager", "stream"} {
		code, stdout, stderr := runWithStdin(t, "x = {\n  1 2\n}\n", "-i", "-", "-s", "-lexer", lexer)
		assert.Equal(t, 0, code, stderr)
		assert.Equal(t, "[\n    1,\n    2\n]\n", stdout)
	}
}

func TestSingleFileFailure(t *testing.T) {
	input := filepath.Join(t.TempDir(), "bad.tabl")
	writeFile(t, input, "x = { 1 a = 2 }")

	code, stdout, stderr := runCLI(t, "-i", input, "-log-format", "json")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `1: unexpected token \"=\"`)
}

func TestDirectory(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(in, "a.tabl"), "a = 1")
	writeFile(t, filepath.Join(in, "b.tabl"), "b = {")
	writeFile(t, filepath.Join(in, "nested", "c.tabl"), "c = { 1 }")
	report := filepath.Join(t.TempDir(), "report.json")

	code, _, stderr := runCLI(t, "-id", in, "-od", out, "-pattern", "**/*.tabl", "-workers", "2", "-report", report, "-log-format", "json")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `"converted":2`)

	a, err := os.ReadFile(filepath.Join(out, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(a))

	c, err := os.ReadFile(filepath.Join(out, "nested", "c.json"))
	require.NoError(t, err)
	assert.Equal(t, "[\n    1\n]", string(c))

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"failed": 1`)
}

func TestMissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	code, _, stderr := runCLI(t, "-id", missing, "-e", "-log-format", "json")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `"message":"batch failed"`)
}

func TestConfigFile(t *testing.T) {
	in := t.TempDir()
	writeFile(t, filepath.Join(in, "a.tabl"), "a = hello")
	writeFile(t, filepath.Join(in, "skip.txt"), "not = { tabl")

	configPath := filepath.Join(t.TempDir(), "tabl2json.tabl")
	writeFile(t, configPath, `
tabl2json = {
  input_directory = "`+in+`"
  pattern = "*.tabl"
  echo = true
  silence_progress = true
  workers = 1
  lexer = eager
}
`)

	code, stdout, stderr := runCLI(t, "-config", configPath)
	assert.Equal(t, 0, code, stderr)
	assert.Equal(t, "\"hello\"\n", stdout)

	c, err := loadConfig([]string{"-config", configPath, "-workers", "3", "-lexer", "stream"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, "stream", c.Lexer)
	assert.Equal(t, "*.tabl", c.Pattern)
	assert.True(t, c.Echo)
}

func TestInvalidArguments(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"-i", "a", "-id", "b"},
		{"-id", "b"},
		{"-i", "a", "-lexer", "fast"},
		{"-i", "a", "-log-format", "xml"},
		{"-i", "a", "-workers", "0"},
		{"-id", "b", "-e", "-watch"},
		{"-i", "-", "-watch"},
		{"-nope"},
	} {
		code, _, stderr := runCLI(t, args...)
		assert.Equal(t, 2, code, "%v", args)
		assert.NotEmpty(t, stderr)
	}

	code, _, _ := runCLI(t, "-h")
	assert.Equal(t, 0, code)
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.tabl")
	writeFile(t, path, "x = 1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	converted := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, zerolog.Nop(), func() { converted <- struct{}{} })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "x = 2")

	select {
	case <-converted:
	case <-time.After(5 * time.Second):
		t.Fatal("no conversion after write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
