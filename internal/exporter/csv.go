package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CSVWriter writes CSV files into one output directory. The directory is a
// value of the writer, so separate runs can target separate locations.
type CSVWriter struct {
	outputDir string
	bomPrefix bool
	logger    *slog.Logger
}

// NewCSVWriter creates a writer for outputDir. bomPrefix adds a UTF-8 BOM to
// every file for Excel.
func NewCSVWriter(outputDir string, bomPrefix bool, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		outputDir: outputDir,
		bomPrefix: bomPrefix,
		logger:    logger.With(slog.String("component", "csv_writer")),
	}
}

// OutputDir returns the directory files are written to
func (w *CSVWriter) OutputDir() string {
	return w.outputDir
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options and returns the
// full path written
func (w *CSVWriter) WriteCSV(fileName string, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(fileName)

	w.logger.Info("Writing CSV file",
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", fileName, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", fileName, err)
	}

	return fullPath, nil
}

// WriteSimpleCSV replaces a file with a header row and records
func (w *CSVWriter) WriteSimpleCSV(fileName string, headers []string, records [][]string) (string, error) {
	return w.WriteCSV(fileName, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: w.bomPrefix,
	})
}

// resolvePath places relative names inside the output directory
func (w *CSVWriter) resolvePath(fileName string) string {
	if filepath.IsAbs(fileName) {
		return fileName
	}
	return filepath.Join(w.outputDir, fileName)
}
