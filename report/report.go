// Package report writes one line per benchmarked fixture as the run
// progresses.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/weiihann/rulebench/harness"
)

// labelWidth pads labels so timings line up for typical fixture names.
const labelWidth = 32

// Text writes human-readable report lines.
type Text struct {
	w io.Writer
}

// NewText creates a Text reporter writing to w.
func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

// Report implements harness.Reporter.
func (t *Text) Report(rec harness.Record) error {
	elapsed := "-"
	if rec.Ran() {
		elapsed = formatDuration(rec.Elapsed)
	}

	_, err := fmt.Fprintf(t.w, "%-*s %10s  %s\n",
		labelWidth, rec.Label, elapsed, rec.Status())

	return err
}

// Line is the JSON form of one report line.
type Line struct {
	RunID     string `json:"run_id,omitempty"`
	Fixture   string `json:"fixture"`
	ElapsedNs int64  `json:"elapsed_ns"`
	Elapsed   string `json:"elapsed"`
	Status    string `json:"status"`
	ExitCode  int    `json:"exit_code"`
	Signal    string `json:"signal,omitempty"`
	Error     string `json:"error,omitempty"`
}

// JSON writes one JSON object per line.
type JSON struct {
	enc   *json.Encoder
	runID string
}

// NewJSON creates a JSON reporter writing to w. Every line carries runID.
func NewJSON(w io.Writer, runID string) *JSON {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return &JSON{enc: enc, runID: runID}
}

// Report implements harness.Reporter.
func (j *JSON) Report(rec harness.Record) error {
	line := Line{
		RunID:     j.runID,
		Fixture:   rec.Label,
		ElapsedNs: rec.Elapsed.Nanoseconds(),
		Elapsed:   formatDuration(rec.Elapsed),
		Status:    rec.Status(),
		ExitCode:  rec.Exit.Code,
		Signal:    rec.Exit.Signal,
	}

	if rec.Err != nil {
		line.Error = rec.Err.Error()
	}

	return j.enc.Encode(line)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}
