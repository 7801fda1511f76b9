package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"geostream/internal/types"
)

// requiredColumns are the CSV header columns every geospatial input file
// must carry. A file missing any of them is unprocessable.
var requiredColumns = []string{"lon", "lat", "dp_time", "timestamp", "source", "value", "trait"}

// SiteResolver is the resolver dependency of the row processor.
type SiteResolver interface {
	ResolveSites(ctx context.Context, plotName string, lat, lon float64, filterDate string) (map[types.ResourceID]types.MatchedSite, error)
}

// DatapointSubmitter is the submitter dependency of the row processor.
type DatapointSubmitter interface {
	Submit(ctx context.Context, streamPrefix string, matched map[types.ResourceID]types.MatchedSite, startTime, endTime string, metadata map[string]string, override *types.Geometry) error
}

var (
	_ SiteResolver       = (*Resolver)(nil)
	_ DatapointSubmitter = (*Submitter)(nil)
)

// FileOutcome is the typed result of processing one CSV file. A file-local
// failure sets Err; lines counted before the failure stay counted, so the
// aggregator's accounting is exercised deterministically.
type FileOutcome struct {
	Path        string
	LinesLoaded int
	// Read reports that the file's content was read; only read files are
	// listed in files_processed.
	Read bool
	Err  error
}

// RowProcessor drives the resolver and submitter over the rows of one CSV
// file, isolating per-file failures from the rest of the run.
type RowProcessor struct {
	Resolver  SiteResolver
	Submitter DatapointSubmitter

	// PlotName, when set, pins every row to one known plot and skips the
	// coordinate lookup.
	PlotName string

	// DefaultGeometry, when set, overrides the sensor-derived geometry on
	// created streams and datapoints.
	DefaultGeometry *types.Geometry

	Log *slog.Logger
}

// ProcessFile parses path and processes its data rows strictly in file
// order. The first failure ends the file: the error lands in the outcome
// and the remaining rows are skipped. Rows whose coordinate resolves to no
// site are skipped but still counted as loaded lines.
func (p *RowProcessor) ProcessFile(ctx context.Context, path string) FileOutcome {
	outcome := FileOutcome{Path: path}

	f, err := os.Open(path)
	if err != nil {
		outcome.Err = types.NewAppError(types.ErrCodeFileUnreadable, fmt.Sprintf("unable to access csv file '%s'", path), err)
		return outcome
	}
	defer f.Close()

	reader := csv.NewReader(f)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Zero-byte file: nothing to load, not an error.
			return outcome
		}
		outcome.Err = types.NewAppError(types.ErrCodeValidationBadRow, "failed to read csv header", err)
		return outcome
	}
	outcome.Read = true

	index, err := columnIndex(header)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			outcome.Err = types.NewAppError(types.ErrCodeValidationBadRow, "failed to read csv row", err)
			break
		}

		if err := p.processRow(ctx, record, index); err != nil {
			outcome.Err = err
			break
		}
		outcome.LinesLoaded++
	}

	p.Log.DebugContext(ctx, "file processed", "file", path, "lines_loaded", outcome.LinesLoaded)
	return outcome
}

// processRow resolves and submits a single CSV record.
func (p *RowProcessor) processRow(ctx context.Context, record []string, index map[string]int) error {
	lon, err := strconv.ParseFloat(record[index["lon"]], 64)
	if err != nil {
		return types.NewAppError(types.ErrCodeValidationBadRow, "invalid longitude", err)
	}
	lat, err := strconv.ParseFloat(record[index["lat"]], 64)
	if err != nil {
		return types.NewAppError(types.ErrCodeValidationBadRow, "invalid latitude", err)
	}

	dpTime := record[index["dp_time"]]
	filterDate := record[index["timestamp"]]
	trait := record[index["trait"]]

	// The site-lookup convention is latitude-first, so the CSV's (lon, lat)
	// column order is swapped here. Load-bearing; do not "fix".
	matched, err := p.Resolver.ResolveSites(ctx, p.PlotName, lat, lon, filterDate)
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		// No site for this coordinate. The row is skipped but still counts
		// as a loaded line.
		return nil
	}

	metadata := map[string]string{
		"source": record[index["source"]],
		"value":  record[index["value"]],
	}
	return p.Submitter.Submit(ctx, trait, matched, dpTime, dpTime, metadata, p.DefaultGeometry)
}

// columnIndex maps the required columns to their header positions,
// reporting every missing column at once.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, types.NewAppError(
			types.ErrCodeValidationMissingColumn,
			fmt.Sprintf("csv header is missing required columns: %s", strings.Join(missing, ", ")),
			nil,
		)
	}
	return index, nil
}
