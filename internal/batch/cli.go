package batch

import "os"

// ShowHelp prints usage information for the batch rating tool.
func ShowHelp() {
	os.Stdout.WriteString(`edurate batch rating
====================

Rates every daily report (*.csv) in a directory and prints the class ranking.
Each file holds one student's daily rows; the student is named by the file's
name column, else by the file name.

Usage:
  go run ./cmd/batch-rate -dir reports [options]

Options:
  -dir string
        Directory holding the daily report CSV files (required)
  -output string
        Write the ranking to this CSV file
  -workers int
        Number of concurrent report readers (default CPU cores)
  -verbose
        Log every rated report
  -help
        Show this help message

Configuration (log level, log format, text generation) is read from the
same EDURATE_* environment variables and EDURATE_CONFIG file as the server.

Examples:
  go run ./cmd/batch-rate -dir ./reports
  go run ./cmd/batch-rate -dir ./reports -output out/ranking.csv -verbose
`)
}
