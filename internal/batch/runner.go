package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/domain/records"
	"github.com/okian/edurate/internal/domain/types"
	"github.com/okian/edurate/pkg/logger"
)

// Run rates every *.csv report in cfg.Dir, prints the rankings and summary,
// and writes the results CSV when cfg.Output is set. Individual report
// failures are collected in the report; Run fails only when nothing could
// be rated.
func Run(ctx context.Context, cfg Config, rater Rater) (Report, error) {
	cfg.withDefaults()
	log := logger.Get().Named("batch")
	start := time.Now()

	paths, err := FindReports(cfg.Dir)
	if err != nil {
		return Report{}, err
	}
	log.Info(ctx, "rating reports",
		logger.String("dir", cfg.Dir),
		logger.Int("reports", len(paths)),
		logger.Int("workers", cfg.Workers))

	weak, failures := rateAll(ctx, cfg, rater, paths, log)
	if len(failures) == len(paths) {
		return Report{Failures: failures}, fmt.Errorf("%w: %d reports", ErrAllFailed, len(paths))
	}

	entries, err := rater.TopN(ctx, len(weak))
	if err != nil {
		return Report{Failures: failures}, fmt.Errorf("read standings: %w", err)
	}

	rep := Report{Failures: failures, Summary: types.Summarize(entries)}
	for _, e := range entries {
		w := weak[e.StudentID]
		rep.Rankings = append(rep.Rankings, Rated{Entry: e, WeakCategory: w.category, Path: w.path})
	}

	if err := PrintReport(cfg.Out, rep); err != nil {
		return rep, fmt.Errorf("print report: %w", err)
	}
	if cfg.Output != "" {
		if err := WriteResultsFile(cfg.Output, rep.Rankings); err != nil {
			return rep, err
		}
		log.Info(ctx, "results saved", logger.String("file", cfg.Output))
	}

	log.Info(ctx, "batch finished",
		logger.Int("rated", len(rep.Rankings)),
		logger.Int("failed", len(rep.Failures)),
		logger.Duration("took", time.Since(start)))
	return rep, nil
}

// FindReports lists the *.csv files directly under dir in name order.
func FindReports(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, ErrNoDirectory
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read report directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoReports, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

type weakness struct {
	category string
	path     string
}

// rateAll fans the reports out to cfg.Workers goroutines. Results are keyed
// by student; a later report for the same student replaces the earlier one.
func rateAll(ctx context.Context, cfg Config, rater Rater, paths []string, log logger.Logger) (map[string]weakness, []Failure) {
	type outcome struct {
		index    int
		analysis service.Analysis
		err      error
	}

	jobs := make(chan int, cfg.Workers)
	results := make(chan outcome, len(paths))
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				a, err := rateFile(ctx, rater, paths[idx])
				results <- outcome{index: idx, analysis: a, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range paths {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	close(results)

	ordered := make([]outcome, 0, len(paths))
	for o := range results {
		ordered = append(ordered, o)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })

	weak := make(map[string]weakness, len(ordered))
	var failures []Failure
	seen := make(map[int]bool, len(ordered))
	for _, o := range ordered {
		seen[o.index] = true
		path := paths[o.index]
		if o.err != nil {
			failures = append(failures, Failure{Path: path, Err: o.err})
			log.Warn(ctx, "report skipped", logger.String("file", path), logger.Error(o.err))
			continue
		}
		weak[o.analysis.Result.StudentID] = weakness{category: o.analysis.Recommendation.WeakCategory, path: path}
		if cfg.Verbose {
			log.Info(ctx, "report rated",
				logger.String("file", path),
				logger.String("student", o.analysis.Result.StudentID),
				logger.Float64("rating", o.analysis.Result.OverallRating))
		}
	}
	for i, path := range paths {
		if !seen[i] {
			failures = append(failures, Failure{Path: path, Err: ctx.Err()})
		}
	}
	return weak, failures
}

func rateFile(ctx context.Context, rater Rater, path string) (service.Analysis, error) {
	f, err := os.Open(path)
	if err != nil {
		return service.Analysis{}, fmt.Errorf("open report: %w", err)
	}
	defer func() { _ = f.Close() }()
	return rater.AnalyzeReport(ctx, f, records.StudentNameFromPath(path))
}
