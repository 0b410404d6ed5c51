package batch

import (
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// A Result describes the conversion of one document.
type Result struct {
	Input    string        `json:"input"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// A Report summarizes a batch. Results are in the same order as the inputs.
type Report struct {
	Converted int      `json:"converted"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// Failures returns the results of the documents that could not be converted.
func (r *Report) Failures() []Result {
	failures := []Result{}
	for _, result := range r.Results {
		if result.Error != "" {
			failures = append(failures, result)
		}
	}
	return failures
}

// WriteJSON writes the report to w as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteFile writes the report to the file at path, replacing it if it exists.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
