package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"geostream/internal/external"
	"geostream/internal/types"
)

// Adapter identity reported in every run summary.
const (
	AdapterName    = "terra.geostreams"
	AdapterVersion = "2.0"
)

// Run result codes. Zero is success; negative values are failures.
const (
	CodeSuccess     = 0
	CodeNoCSVFound  = -1
	CodeFileErrors  = -2
	CodeFileMissing = -1000
)

// FileProcessor is the per-file dependency of the geospatial run loop.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) FileOutcome
}

var _ FileProcessor = (*RowProcessor)(nil)

// CheckContinue is the shared precondition for both pipelines: the input
// list must contain at least one CSV file. No I/O is performed.
func CheckContinue(paths []string) (int, string) {
	for _, path := range paths {
		if isCSV(path) {
			return CodeSuccess, ""
		}
	}
	return CodeNoCSVFound, "unable to find a CSV file in the list of files"
}

// isCSV matches the .csv extension case-insensitively.
func isCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// Runner executes one ingestion run over an input file list, sequentially
// and single-threaded, accumulating the per-run counters and shaping the
// final RunResult.
type Runner struct {
	Processor FileProcessor           // geospatial path
	Traits    external.TraitsUploader // bulk-upload path
	Log       *slog.Logger

	// Now is the clock; defaults to time.Now. Injectable for tests.
	Now func() time.Time
}

// runStats accumulates counters across all files of one run. Mutated
// monotonically; there is exactly one logical worker per run.
type runStats struct {
	filesReceived  int
	csvFiles       int
	linesLoaded    int
	filesProcessed []string
	fileErrors     int
}

// RunGeostreams executes the row-wise geospatial pipeline over the input
// file list. Files are processed strictly in list order; a file-local
// failure is logged and counted, and processing moves to the next file.
func (r *Runner) RunGeostreams(ctx context.Context, paths []string) types.RunResult {
	start := r.now()
	ctx, runID := r.begin(ctx, "geostreams", paths)

	if code, msg := CheckContinue(paths); code != CodeSuccess {
		r.Log.InfoContext(ctx, "no CSV files were found in the list of files to process", "run_id", runID)
		return types.RunResult{Code: code, Error: msg}
	}

	var stats runStats
	for _, path := range paths {
		stats.filesReceived++
		if !isCSV(path) {
			continue
		}
		stats.csvFiles++

		if _, err := os.Stat(path); err != nil {
			// A missing target file aborts the run with no partial result.
			msg := fmt.Sprintf("unable to access csv file '%s'", path)
			r.Log.ErrorContext(ctx, msg, "run_id", runID, "error", err)
			return types.RunResult{Code: CodeFileMissing, Error: msg}
		}

		outcome := r.Processor.ProcessFile(ctx, path)
		stats.linesLoaded += outcome.LinesLoaded
		if outcome.Read {
			stats.filesProcessed = append(stats.filesProcessed, path)
		}
		if outcome.Err != nil {
			stats.fileErrors++
			r.Log.ErrorContext(ctx, "error processing file",
				"run_id", runID,
				"file", path,
				"error", outcome.Err,
			)
		}
	}

	return r.finalize(ctx, runID, start, stats)
}

// RunBulkUpload executes the bulk-upload pipeline: each CSV file's raw
// content is posted wholesale to the trait database. Empty files are
// recognized as CSV but never uploaded.
func (r *Runner) RunBulkUpload(ctx context.Context, paths []string) types.RunResult {
	start := r.now()
	ctx, runID := r.begin(ctx, "bulk-upload", paths)

	if code, msg := CheckContinue(paths); code != CodeSuccess {
		r.Log.InfoContext(ctx, "no CSV files were found in the list of files to process", "run_id", runID)
		return types.RunResult{Code: code, Error: msg}
	}

	var stats runStats
	for _, path := range paths {
		stats.filesReceived++
		if !isCSV(path) {
			continue
		}
		stats.csvFiles++

		content, err := os.ReadFile(path)
		if err != nil {
			msg := fmt.Sprintf("unable to access csv file '%s'", path)
			r.Log.ErrorContext(ctx, msg, "run_id", runID, "error", err)
			return types.RunResult{Code: CodeFileMissing, Error: msg}
		}

		if len(content) == 0 {
			continue
		}

		stats.filesProcessed = append(stats.filesProcessed, path)
		stats.linesLoaded += countDataLines(content)

		if _, err := r.Traits.UploadTraits(ctx, content, "csv"); err != nil {
			stats.fileErrors++
			r.Log.ErrorContext(ctx, "error submitting file",
				"run_id", runID,
				"file", path,
				"error", err,
			)
		}
	}

	return r.finalize(ctx, runID, start, stats)
}

// begin assigns the run correlation id and logs the run start.
func (r *Runner) begin(ctx context.Context, pipeline string, paths []string) (context.Context, string) {
	runID := uuid.NewString()
	ctx = types.WithRunID(ctx, runID)
	r.Log.InfoContext(ctx, "starting ingestion run",
		"run_id", runID,
		"pipeline", pipeline,
		"files", len(paths),
	)
	return ctx, runID
}

// finalize shapes the RunResult from the accumulated stats.
func (r *Runner) finalize(ctx context.Context, runID string, start time.Time, stats runStats) types.RunResult {
	if stats.csvFiles == 0 {
		r.Log.InfoContext(ctx, "no CSV files were found in the list of files to process", "run_id", runID)
	}

	result := types.RunResult{
		Code:    CodeSuccess,
		Adapter: AdapterName,
		Summary: &types.RunSummary{
			Version:          AdapterVersion,
			UTCTimestamp:     r.now().UTC().Format(time.RFC3339),
			ProcessingTime:   r.now().Sub(start).String(),
			NumFilesReceived: strconv.Itoa(stats.filesReceived),
			NumCSVFiles:      strconv.Itoa(stats.csvFiles),
			LinesLoaded:      strconv.Itoa(stats.linesLoaded),
			FilesProcessed:   append([]string{}, stats.filesProcessed...),
		},
	}

	if stats.fileErrors > 0 {
		result.Code = CodeFileErrors
		result.Error = fmt.Sprintf("%d file(s) failed to load", stats.fileErrors)
	}

	r.Log.InfoContext(ctx, "ingestion run finished",
		"run_id", runID,
		"code", result.Code,
		"files_received", stats.filesReceived,
		"csv_files", stats.csvFiles,
		"lines_loaded", stats.linesLoaded,
		"file_errors", stats.fileErrors,
	)
	return result
}

// now returns the injected clock or the wall clock.
func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// countDataLines counts the newline-delimited lines of a file body,
// excluding the header line.
func countDataLines(content []byte) int {
	lines := bytes.Count(content, []byte("\n"))
	if len(content) > 0 && content[len(content)-1] != '\n' {
		lines++
	}
	if lines <= 1 {
		return 0
	}
	return lines - 1
}
