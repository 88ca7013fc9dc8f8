package batch

import (
	"context"
	"io"
	"os"
	"runtime"

	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/domain/types"
)

// Config holds configuration for a batch run.
type Config struct {
	Dir     string    // Directory scanned for *.csv daily reports
	Output  string    // Optional results CSV path
	Workers int       // Concurrent report readers
	Verbose bool      // Log every rated report
	Out     io.Writer // Ranking table destination; defaults to stdout
}

func (c *Config) withDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
}

// Rater rates one daily report and serves the resulting standings.
type Rater interface {
	AnalyzeReport(ctx context.Context, r io.Reader, fallbackName string) (service.Analysis, error)
	TopN(ctx context.Context, n int) ([]types.Entry, error)
}

// Failure records a report that could not be rated.
type Failure struct {
	Path string
	Err  error
}

// Rated is one ranked report.
type Rated struct {
	types.Entry
	WeakCategory string
	Path         string
}

// Report is the outcome of a batch run.
type Report struct {
	Rankings []Rated
	Summary  types.Summary
	Failures []Failure
}
