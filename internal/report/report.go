// Package report formats per-job timing and size statistics.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Stats records what one job did and how long each stage took.
type Stats struct {
	JobID     string
	Output    string
	Scenes    int
	Frames    int
	Workers   int
	Codec     string
	Render    time.Duration
	Encode    time.Duration
	Cleanup   time.Duration
	Total     time.Duration
	SizeBytes int64
}

// EffectiveFPS is frames produced per second of wall time.
func (s Stats) EffectiveFPS() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Total.Seconds()
}

// Table renders the stats as a two column table.
func (s Stats) Table() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("PERFORMANCE REPORT")
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Job", s.JobID},
		{"Output", s.Output},
		{"Scenes", s.Scenes},
		{"Frames", humanize.Comma(int64(s.Frames))},
		{"Workers", s.Workers},
		{"Codec", s.Codec},
		{"Rendering", seconds(s.Render)},
		{"Encoding", seconds(s.Encode)},
		{"Cleanup", seconds(s.Cleanup)},
		{"Total", seconds(s.Total)},
		{"Effective FPS", fmt.Sprintf("%.2f", s.EffectiveFPS())},
		{"Size", humanize.Bytes(uint64(max(s.SizeBytes, 0)))},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// BenchmarkLine is the single-line form appended to the benchmark log.
func (s Stats) BenchmarkLine(now time.Time) string {
	return fmt.Sprintf("[%s] Job: %s | Output: %s | Scenes: %d | Frames: %d | Workers: %d | Total: %.2fs | Render: %.2fs | Encode: %.2fs | FPS: %.2f | Size: %s\n",
		now.Format("2006-01-02 15:04:05"),
		s.JobID,
		filepath.Base(s.Output),
		s.Scenes,
		s.Frames,
		s.Workers,
		s.Total.Seconds(),
		s.Render.Seconds(),
		s.Encode.Seconds(),
		s.EffectiveFPS(),
		humanize.Bytes(uint64(max(s.SizeBytes, 0))),
	)
}

// AppendBenchmark appends the stats line to the log at path.
func AppendBenchmark(path string, s Stats, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(s.BenchmarkLine(now)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
