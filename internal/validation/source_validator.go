package validation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/UdayIND/MC3-Summit/internal/config"
	"github.com/UdayIND/MC3-Summit/internal/files"
)

// SourceState is the preflight outcome of one catalog source
type SourceState string

const (
	SourceFound       SourceState = "found"
	SourceMissing     SourceState = "missing"
	SourceUnsupported SourceState = "unsupported"
	SourceEmpty       SourceState = "empty"
)

// SourceCheck reports whether one indicator's source is present
type SourceCheck struct {
	Indicator string      `json:"indicator"`
	Path      string      `json:"path"`
	State     SourceState `json:"state"`
	Files     int         `json:"files"`
	Detail    string      `json:"detail,omitempty"`
}

// OK reports whether the source can be read
func (c SourceCheck) OK() bool {
	return c.State == SourceFound
}

// Report is the outcome of a preflight: one check per catalog source and
// the tabular files in the data directory that no source reads
type Report struct {
	Checks       []SourceCheck `json:"checks"`
	Unrecognized []string      `json:"unrecognized,omitempty"`
}

// SourceValidator checks a data directory against a source catalog before
// a run. A missing source never fails a run; the checks only tell the
// operator which indicators will come out empty.
type SourceValidator struct {
	dataDir   string
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewSourceValidator creates a validator rooted at dataDir
func NewSourceValidator(dataDir string, logger *slog.Logger) *SourceValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SourceValidator{
		dataDir:   dataDir,
		discovery: files.NewDiscovery(dataDir),
		logger:    logger.With(slog.String("component", "source_validator")),
	}
}

// ValidateDataDirectory checks that the data directory exists and is a directory
func (v *SourceValidator) ValidateDataDirectory() error {
	info, err := os.Stat(v.dataDir)
	if os.IsNotExist(err) {
		v.logger.Error("Data directory does not exist", slog.String("directory", v.dataDir))
		return fmt.Errorf("data directory %s does not exist", v.dataDir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat data directory %s: %w", v.dataDir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Data path is not a directory", slog.String("path", v.dataDir))
		return fmt.Errorf("%s is not a directory", v.dataDir)
	}
	return nil
}

// CheckCatalog checks every indicator source of catalog, in catalog order
func (v *SourceValidator) CheckCatalog(catalog *config.Catalog) []SourceCheck {
	checks := make([]SourceCheck, 0, len(catalog.Indicators))
	for _, spec := range catalog.Indicators {
		var check SourceCheck
		if spec.IsPerYear() {
			check = v.checkPerYear(spec)
		} else {
			check = v.checkFile(spec)
		}

		level := slog.LevelDebug
		if !check.OK() {
			level = slog.LevelWarn
		}
		v.logger.Log(context.Background(), level, "Source checked",
			slog.String("indicator", check.Indicator),
			slog.String("state", string(check.State)),
			slog.Int("files", check.Files))

		checks = append(checks, check)
	}
	return checks
}

func (v *SourceValidator) checkFile(spec config.IndicatorSpec) SourceCheck {
	check := SourceCheck{Indicator: spec.Name, Path: filepath.Join(v.dataDir, spec.File)}

	info, err := v.discovery.Stat(spec.File)
	switch {
	case err != nil:
		check.State, check.Detail = SourceMissing, "file not found"
	case !files.IsTabular(info.Name):
		check.State, check.Detail = SourceUnsupported, "unsupported file type "+strings.ToLower(filepath.Ext(info.Name))
	case strings.HasPrefix(info.Name, "~$"):
		check.State, check.Detail = SourceUnsupported, "spreadsheet lock file"
	case info.Size == 0:
		check.State, check.Detail = SourceEmpty, "file is empty"
	default:
		check.State, check.Files = SourceFound, 1
	}
	return check
}

func (v *SourceValidator) checkPerYear(spec config.IndicatorSpec) SourceCheck {
	check := SourceCheck{Indicator: spec.Name, Path: filepath.Join(v.dataDir, spec.Dir, spec.Pattern)}

	matches, err := v.discovery.FindFilesByPattern(spec.Dir, spec.Pattern)
	switch {
	case err != nil:
		check.State, check.Detail = SourceMissing, "directory not found"
	case len(matches) == 0:
		check.State, check.Detail = SourceEmpty, "no files match "+spec.Pattern
	default:
		check.State, check.Files = SourceFound, len(matches)
	}
	return check
}

// Unrecognized lists the CSV and Excel files directly inside the data
// directory that no catalog source reads, typically a source saved under a
// different name. Per-year source directories are not scanned since survey
// downloads ship metadata files next to the data.
func (v *SourceValidator) Unrecognized(catalog *config.Catalog) ([]string, error) {
	found, err := v.discovery.FindTabularFiles(".")
	if err != nil {
		return nil, err
	}

	var out []string
	for _, fi := range found {
		if strings.HasPrefix(fi.Name, "~$") || readsFile(catalog, fi.Name) {
			continue
		}
		v.logger.Debug("Unrecognized source file", slog.String("file", fi.Name))
		out = append(out, fi.Name)
	}
	return out, nil
}

// readsFile reports whether a source of catalog reads name from the top of
// the data directory
func readsFile(catalog *config.Catalog, name string) bool {
	for _, spec := range catalog.Indicators {
		if spec.IsPerYear() {
			if filepath.Clean(spec.Dir) != "." {
				continue
			}
			if ok, _ := filepath.Match(spec.Pattern, name); ok {
				return true
			}
			continue
		}
		if filepath.Clean(spec.File) == name {
			return true
		}
	}
	return false
}

// Missing returns the checks that are not OK
func Missing(checks []SourceCheck) []SourceCheck {
	var out []SourceCheck
	for _, c := range checks {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}
