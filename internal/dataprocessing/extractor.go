package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/UdayIND/MC3-Summit/internal/config"
	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// SourceFinder lists the files of a per-year source
type SourceFinder interface {
	FindFilesByPattern(dir, pattern string) ([]files.FileInfo, error)
}

// Extractor turns one IndicatorSpec into a year/value table. It never returns
// an error: a source that can't be read degrades to an empty table and the
// result says why.
type Extractor struct {
	dataDir string
	finder  SourceFinder
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewExtractor creates an extractor reading sources relative to dataDir
func NewExtractor(dataDir string, finder SourceFinder, logger *slog.Logger) *Extractor {
	if finder == nil {
		finder = files.NewDiscovery(dataDir)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		dataDir: dataDir,
		finder:  finder,
		logger:  logger.With(slog.String("component", "extractor")),
		tracer:  otel.Tracer("mc3data/dataprocessing"),
	}
}

// Extract runs the extraction for one source
func (e *Extractor) Extract(ctx context.Context, spec config.IndicatorSpec) domain.ExtractionResult {
	ctx, span := e.tracer.Start(ctx, "extract."+spec.Name,
		trace.WithAttributes(attribute.String("indicator", spec.Name)))
	defer span.End()

	var result domain.ExtractionResult
	if spec.IsPerYear() {
		result = e.extractPerYear(ctx, spec)
	} else {
		result = e.extractSingleFile(ctx, spec)
	}

	result.Table.SortByYear()
	if result.Status == "" {
		if result.Table.IsEmpty() {
			result.Status = domain.ExtractionStatusNoRows
		} else {
			result.Status = domain.ExtractionStatusOK
		}
	}

	span.SetAttributes(
		attribute.String("status", string(result.Status)),
		attribute.Int("records", len(result.Table.Records)),
		attribute.Int("rows_dropped", result.RowsDropped),
	)

	attrs := []any{
		slog.String("indicator", spec.Name),
		slog.String("status", string(result.Status)),
		slog.Int("records", len(result.Table.Records)),
		slog.Int("files_scanned", result.FilesScanned),
		slog.Int("rows_dropped", result.RowsDropped),
		slog.Int("duplicates_dropped", result.DuplicatesDropped),
	}
	if result.Reason != "" {
		attrs = append(attrs, slog.String("reason", result.Reason))
	}
	if result.OK() {
		e.logger.InfoContext(ctx, "indicator extracted", attrs...)
	} else {
		e.logger.WarnContext(ctx, "indicator degraded to empty", attrs...)
	}

	return result
}

// extractPerYear reads one file per survey year. The year comes from the
// file name; the value from a fixed column of the first row whose filter
// column contains the filter value.
func (e *Extractor) extractPerYear(ctx context.Context, spec config.IndicatorSpec) domain.ExtractionResult {
	result := domain.ExtractionResult{Table: newIndicatorTable(spec)}

	found, err := e.finder.FindFilesByPattern(spec.Dir, spec.Pattern)
	if err != nil {
		return unavailable(result, fmt.Sprintf("source directory unreadable: %v", err))
	}
	if len(found) == 0 {
		return unavailable(result, fmt.Sprintf("no files matching %q in %s", spec.Pattern, spec.Dir))
	}

	filterCol := NormalizeColumnName(spec.FilterColumn)
	valueCol := NormalizeColumnName(spec.ValueColumn)
	seen := make(map[int]bool)
	dated, loaded := 0, 0

	for _, fi := range found {
		result.FilesScanned++
		log := e.logger.With(slog.String("indicator", spec.Name), slog.String("file", fi.Name))

		year, ok := ExtractYear(fi.Name)
		if !ok {
			log.DebugContext(ctx, "skipping file without a year in its name")
			continue
		}
		dated++

		table := LoadOrEmpty(fi.Path, log)
		if len(table.Columns) == 0 {
			continue
		}
		loaded++

		fIdx, vIdx := table.ColumnIndex(filterCol), table.ColumnIndex(valueCol)
		if fIdx < 0 || vIdx < 0 {
			log.WarnContext(ctx, "file lacks the filter or value column",
				slog.String("filter_column", filterCol),
				slog.String("value_column", valueCol))
			continue
		}

		raw, matched := firstMatch(table, fIdx, vIdx, spec.FilterValue)
		if !matched {
			log.DebugContext(ctx, "no row matches filter", slog.String("filter_value", spec.FilterValue))
			continue
		}

		value, ok := coerceValue(raw, spec)
		if !ok {
			result.RowsDropped++
			log.DebugContext(ctx, "value missing or not numeric", slog.String("raw", raw))
			continue
		}

		if seen[year] {
			result.DuplicatesDropped++
			log.WarnContext(ctx, "duplicate year dropped", slog.Int("year", year))
			continue
		}
		seen[year] = true
		result.Table.Records = append(result.Table.Records, domain.IndicatorRecord{Year: year, Value: value})
	}

	if dated == 0 {
		return unavailable(result, "no file name carries a year")
	}
	if loaded == 0 {
		return unavailable(result, "no source file could be read")
	}
	if result.Table.IsEmpty() {
		result.Status = domain.ExtractionStatusNoRows
		result.Reason = "no file yielded a value"
	}
	return result
}

// extractSingleFile reads a multi-year series whose year and value columns
// are found by keyword
func (e *Extractor) extractSingleFile(ctx context.Context, spec config.IndicatorSpec) domain.ExtractionResult {
	result := domain.ExtractionResult{Table: newIndicatorTable(spec), FilesScanned: 1}

	path := spec.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.dataDir, path)
	}

	table, err := Load(path)
	if err != nil {
		return unavailable(result, err.Error())
	}
	if len(table.Columns) == 0 {
		return unavailable(result, "source has no header row")
	}

	yearCol, ok := SelectColumn(table, spec.YearKeywords)
	if !ok {
		return unavailable(result, fmt.Sprintf("no column matches %s", strings.Join(spec.YearKeywords, "|")))
	}
	valueCol, ok := SelectColumn(table, spec.ValueKeywords, yearCol)
	if !ok {
		return unavailable(result, fmt.Sprintf("no column matches %s", strings.Join(spec.ValueKeywords, "|")))
	}

	e.logger.DebugContext(ctx, "columns resolved",
		slog.String("indicator", spec.Name),
		slog.String("year_column", yearCol),
		slog.String("value_column", valueCol))

	yIdx, vIdx := table.ColumnIndex(yearCol), table.ColumnIndex(valueCol)
	seen := make(map[int]bool)

	for _, row := range table.Rows {
		year, ok := ParseYear(row[yIdx])
		if !ok {
			result.RowsDropped++
			continue
		}
		value, ok := ParseNumber(row[vIdx], spec.StripPercent)
		if !ok {
			result.RowsDropped++
			continue
		}
		if seen[year] {
			result.DuplicatesDropped++
			e.logger.WarnContext(ctx, "duplicate year dropped",
				slog.String("indicator", spec.Name), slog.Int("year", year))
			continue
		}
		seen[year] = true
		result.Table.Records = append(result.Table.Records, domain.IndicatorRecord{Year: year, Value: value})
	}

	if result.Table.IsEmpty() {
		result.Status = domain.ExtractionStatusNoRows
		result.Reason = fmt.Sprintf("%d rows, none with a numeric %s and %s", len(table.Rows), yearCol, valueCol)
	}
	return result
}

func newIndicatorTable(spec config.IndicatorSpec) domain.IndicatorTable {
	return domain.IndicatorTable{Name: spec.Name, Field: spec.Field}
}

func unavailable(result domain.ExtractionResult, reason string) domain.ExtractionResult {
	result.Table.Records = nil
	result.Status = domain.ExtractionStatusUnavailable
	result.Reason = reason
	return result
}

// firstMatch returns the value cell of the first row whose filter cell
// contains needle (case-sensitive)
func firstMatch(t *Table, filterIdx, valueIdx int, needle string) (string, bool) {
	for _, row := range t.Rows {
		if strings.Contains(row[filterIdx], needle) {
			return row[valueIdx], true
		}
	}
	return "", false
}

func coerceValue(raw string, spec config.IndicatorSpec) (float64, bool) {
	if spec.ValueKind == config.ValueKindInteger {
		v, ok := ParseInteger(raw)
		return float64(v), ok
	}
	return ParseNumber(raw, spec.StripPercent)
}

