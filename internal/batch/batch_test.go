package batch_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/batch"
	"github.com/okian/edurate/internal/domain/records"
	"github.com/okian/edurate/internal/domain/types"
	"github.com/okian/edurate/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

const header = "attendance,HW_issue,CW_issue,daily_exam1_mark,daily_exam2_mark\n"

func writeReports(dir string, files map[string]string) {
	for name, body := range files {
		So(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600), ShouldBeNil)
	}
}

func startedService() *service.Service {
	svc := service.New(service.WithPredictionSeed(1))
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestFindReports(t *testing.T) {
	Convey("Given a report directory", t, func() {
		dir := t.TempDir()
		writeReports(dir, map[string]string{
			"zed.csv":   header,
			"amy.CSV":   header,
			"notes.txt": "ignored",
		})
		So(os.Mkdir(filepath.Join(dir, "nested.csv"), 0o750), ShouldBeNil)

		Convey("Then only csv files are listed in name order", func() {
			paths, err := batch.FindReports(dir)
			So(err, ShouldBeNil)
			So(paths, ShouldResemble, []string{filepath.Join(dir, "amy.CSV"), filepath.Join(dir, "zed.csv")})
		})

		Convey("Then an empty directory argument is rejected", func() {
			_, err := batch.FindReports(" ")
			So(errors.Is(err, batch.ErrNoDirectory), ShouldBeTrue)
		})

		Convey("Then a directory without reports is rejected", func() {
			_, err := batch.FindReports(t.TempDir())
			So(errors.Is(err, batch.ErrNoReports), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given daily reports for three students and one broken file", t, func() {
		dir := t.TempDir()
		writeReports(dir, map[string]string{
			"alice.csv":  header + "Present,False,False,10,10\nPresent,False,False,9,10\n",
			"bob.csv":    header + "Absent,True,True,3,4\nPresent,True,False,4,3\n",
			"carol.csv":  header + "Present,False,True,7,7\nPresent,False,False,8,6\n",
			"broken.csv": "attendance\nPresent\n",
		})
		svc := startedService()
		defer svc.Stop()

		var out bytes.Buffer
		results := filepath.Join(t.TempDir(), "out", "ranking.csv")
		rep, err := batch.Run(context.Background(), batch.Config{
			Dir:     dir,
			Output:  results,
			Workers: 2,
			Out:     &out,
		}, svc)

		Convey("Then the readable reports are ranked", func() {
			So(err, ShouldBeNil)
			So(rep.Rankings, ShouldHaveLength, 3)
			So(rep.Rankings[0].StudentID, ShouldEqual, "alice")
			So(rep.Rankings[0].Rank, ShouldEqual, 1)
			So(rep.Rankings[2].StudentID, ShouldEqual, "bob")
			So(rep.Rankings[0].Path, ShouldEqual, filepath.Join(dir, "alice.csv"))
			So(rep.Rankings[2].WeakCategory, ShouldNotBeEmpty)
		})

		Convey("Then the broken report is reported as skipped", func() {
			So(rep.Failures, ShouldHaveLength, 1)
			So(rep.Failures[0].Path, ShouldEqual, filepath.Join(dir, "broken.csv"))
			So(errors.Is(rep.Failures[0].Err, records.ErrMissingColumns), ShouldBeTrue)
		})

		Convey("Then the summary covers the ranked students", func() {
			So(rep.Summary.Count, ShouldEqual, 3)
			So(rep.Summary.Highest, ShouldEqual, rep.Rankings[0].Rating)
			So(rep.Summary.Lowest, ShouldEqual, rep.Rankings[2].Rating)
			So(rep.Summary.Average, ShouldBeBetween, rep.Summary.Lowest, rep.Summary.Highest)
		})

		Convey("Then the table and summary are printed", func() {
			text := out.String()
			So(text, ShouldContainSubstring, "RANK")
			So(text, ShouldContainSubstring, "alice")
			So(text, ShouldContainSubstring, "students: 3")
			So(text, ShouldContainSubstring, "skipped broken.csv")
		})

		Convey("Then the results file holds one row per student", func() {
			f, err := os.Open(results)
			So(err, ShouldBeNil)
			defer func() { _ = f.Close() }()
			rows, err := csv.NewReader(f).ReadAll()
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 4)
			So(rows[0], ShouldResemble, []string{"rank", "student_id", "overall_rating", "tier", "weak_category", "file"})
			So(rows[1][1], ShouldEqual, "alice")
			So(rows[1][5], ShouldEqual, "alice.csv")
		})
	})

	Convey("Given only broken reports", t, func() {
		dir := t.TempDir()
		writeReports(dir, map[string]string{"x.csv": "nope\n1\n"})
		svc := startedService()
		defer svc.Stop()

		Convey("Then the run fails", func() {
			rep, err := batch.Run(context.Background(), batch.Config{Dir: dir, Out: io.Discard}, svc)
			So(errors.Is(err, batch.ErrAllFailed), ShouldBeTrue)
			So(rep.Failures, ShouldHaveLength, 1)
		})
	})

	Convey("Given a rater whose standings fail", t, func() {
		dir := t.TempDir()
		writeReports(dir, map[string]string{"a.csv": header + "Present,False,False,8,8\n"})

		Convey("Then the standings error is returned", func() {
			_, err := batch.Run(context.Background(), batch.Config{Dir: dir, Out: io.Discard}, failingStandings{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "read standings")
		})
	})
}

func TestWriteResults(t *testing.T) {
	Convey("Given ranked students", t, func() {
		rankings := []batch.Rated{
			{Entry: types.Entry{Rank: 1, StudentID: "a", Rating: 81.234, Tier: "EXCELLENT"}, WeakCategory: "Exam", Path: "/r/a.csv"},
		}

		Convey("Then ratings are written with two decimals", func() {
			var buf bytes.Buffer
			So(batch.WriteResults(&buf, rankings), ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 2)
			So(lines[1], ShouldEqual, "1,a,81.23,EXCELLENT,Exam,a.csv")
		})
	})
}

type failingStandings struct{}

func (failingStandings) AnalyzeReport(_ context.Context, _ io.Reader, name string) (service.Analysis, error) {
	var a service.Analysis
	a.Result.StudentID = name
	a.Result.OverallRating = 50
	return a, nil
}

func (failingStandings) TopN(context.Context, int) ([]types.Entry, error) {
	return nil, errors.New("standings offline")
}
