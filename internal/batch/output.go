package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
)

const directoryPermission = 0o750

var resultsHeader = []string{"rank", "student_id", "overall_rating", "tier", "weak_category", "file"}

// PrintReport writes the ranking table, the class summary and any skipped
// reports to w.
func PrintReport(w io.Writer, rep Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSTUDENT\tRATING\tTIER\tWEAKEST")
	for _, r := range rep.Rankings {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", r.Rank, r.StudentID, r.Rating, r.Tier, r.WeakCategory)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := rep.Summary
	if _, err := fmt.Fprintf(w, "\nstudents: %d  average: %.2f  highest: %.2f  lowest: %.2f\n",
		s.Count, s.Average, s.Highest, s.Lowest); err != nil {
		return err
	}
	for _, f := range rep.Failures {
		if _, err := fmt.Fprintf(w, "skipped %s: %v\n", filepath.Base(f.Path), f.Err); err != nil {
			return err
		}
	}
	return nil
}

// WriteResults writes one CSV row per ranked student.
func WriteResults(w io.Writer, rankings []Rated) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return err
	}
	for _, r := range rankings {
		row := []string{
			strconv.Itoa(r.Rank),
			r.StudentID,
			strconv.FormatFloat(r.Rating, 'f', 2, 64),
			r.Tier,
			r.WeakCategory,
			filepath.Base(r.Path),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsFile writes the results CSV to path, creating its directory.
func WriteResultsFile(path string, rankings []Rated) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create results directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	if err := WriteResults(f, rankings); err != nil {
		_ = f.Close()
		return fmt.Errorf("write results: %w", err)
	}
	return f.Close()
}
