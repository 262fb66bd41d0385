package operations

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/UdayIND/MC3-Summit/internal/files"
	"github.com/UdayIND/MC3-Summit/pkg/contracts/domain"
)

// RunManifest is the record of one pipeline run: what each stage did, how
// each indicator fared and which files were produced.
type RunManifest struct {
	mu sync.RWMutex

	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`
	DataDir   string    `json:"data_dir"`
	OutputDir string    `json:"output_dir"`

	Stages     []StageExecution  `json:"stages"`
	Indicators []IndicatorStatus `json:"indicators"`
	Themes     []ThemeSummary    `json:"themes"`
	Files      []string          `json:"files"`

	Status      RunStatus `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID   string                 `json:"stage_id"`
	StageName string                 `json:"stage_name"`
	StartTime time.Time              `json:"start_time"`
	EndTime   time.Time              `json:"end_time,omitempty"`
	Duration  string                 `json:"duration,omitempty"`
	Status    StepStatus             `json:"status"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// IndicatorStatus is the manifest entry of one extraction
type IndicatorStatus struct {
	Name              string                  `json:"name"`
	Field             string                  `json:"field"`
	Status            domain.ExtractionStatus `json:"status"`
	Reason            string                  `json:"reason,omitempty"`
	Records           int                     `json:"records"`
	FirstYear         int                     `json:"first_year,omitempty"`
	LastYear          int                     `json:"last_year,omitempty"`
	FilesScanned      int                     `json:"files_scanned"`
	RowsDropped       int                     `json:"rows_dropped"`
	DuplicatesDropped int                     `json:"duplicates_dropped"`
}

// ThemeSummary is the manifest entry of one assembled theme
type ThemeSummary struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	Years  int      `json:"years"`
}

// NewRunManifest creates a manifest for a run that is about to start
func NewRunManifest(runID, dataDir, outputDir string) *RunManifest {
	now := time.Now()
	return &RunManifest{
		ID:          runID,
		StartTime:   now,
		DataDir:     dataDir,
		OutputDir:   outputDir,
		Stages:      []StageExecution{},
		Indicators:  []IndicatorStatus{},
		Themes:      []ThemeSummary{},
		Files:       []string{},
		Status:      RunStatusPending,
		LastUpdated: now,
	}
}

// RecordStageStart records the start of a stage execution
func (m *RunManifest) RecordStageStart(stageID, stageName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Status = RunStatusRunning
	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		StartTime: time.Now(),
		Status:    StepStatusRunning,
	})
	m.LastUpdated = time.Now()
}

// RecordStageCompletion records the completion of a stage
func (m *RunManifest) RecordStageCompletion(stageID string, metadata map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.stage(stageID); s != nil {
		s.EndTime = time.Now()
		s.Duration = s.EndTime.Sub(s.StartTime).String()
		s.Status = StepStatusCompleted
		s.Metadata = metadata
	}
	m.LastUpdated = time.Now()
}

// RecordStageFailure records a stage failure and fails the run
func (m *RunManifest) RecordStageFailure(stageID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s := m.stage(stageID); s != nil {
		s.EndTime = time.Now()
		s.Duration = s.EndTime.Sub(s.StartTime).String()
		s.Status = StepStatusFailed
		s.Error = err.Error()
	}
	m.Status = RunStatusFailed
	m.Error = fmt.Sprintf("stage %s failed: %v", stageID, err)
	m.EndTime = time.Now()
	m.LastUpdated = m.EndTime
}

// stage returns the latest execution of stageID. Caller holds the lock.
func (m *RunManifest) stage(stageID string) *StageExecution {
	for i := len(m.Stages) - 1; i >= 0; i-- {
		if m.Stages[i].StageID == stageID {
			return &m.Stages[i]
		}
	}
	return nil
}

// IsStageCompleted checks if a stage has been completed
func (m *RunManifest) IsStageCompleted(stageID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.Stages {
		if s.StageID == stageID && s.Status == StepStatusCompleted {
			return true
		}
	}
	return false
}

// AddIndicator records the outcome of one extraction
func (m *RunManifest) AddIndicator(result domain.ExtractionResult) {
	entry := IndicatorStatus{
		Name:              result.Table.Name,
		Field:             result.Table.Field,
		Status:            result.Status,
		Reason:            result.Reason,
		Records:           len(result.Table.Records),
		FilesScanned:      result.FilesScanned,
		RowsDropped:       result.RowsDropped,
		DuplicatesDropped: result.DuplicatesDropped,
	}
	if n := len(result.Table.Records); n > 0 {
		entry.FirstYear = result.Table.Records[0].Year
		entry.LastYear = result.Table.Records[n-1].Year
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Indicators = append(m.Indicators, entry)
	m.LastUpdated = time.Now()
}

// AddTheme records an assembled theme
func (m *RunManifest) AddTheme(theme domain.ThemeTable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Themes = append(m.Themes, ThemeSummary{
		Name:   theme.Name,
		Fields: append([]string{}, theme.Fields...),
		Years:  len(theme.Rows),
	})
	m.LastUpdated = time.Now()
}

// AddFile records a file written to the output directory
func (m *RunManifest) AddFile(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files = append(m.Files, name)
	m.LastUpdated = time.Now()
}

// Complete marks the run as completed
func (m *RunManifest) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Status = RunStatusCompleted
	m.EndTime = time.Now()
	m.LastUpdated = m.EndTime
}

// Degraded returns the indicators that produced no records
func (m *RunManifest) Degraded() []IndicatorStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []IndicatorStatus
	for _, ind := range m.Indicators {
		if ind.Status != domain.ExtractionStatusOK {
			out = append(out, ind)
		}
	}
	return out
}

// MarshalJSON serializes the manifest under its read lock
func (m *RunManifest) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type plain RunManifest
	return json.Marshal((*plain)(m))
}

// Save writes the manifest as indented JSON through the file manager
func (m *RunManifest) Save(fm *files.Manager, name string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := fm.WriteFile(name, data); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest previously written with Save
func LoadManifest(fm *files.Manager, name string) (*RunManifest, error) {
	data, err := fm.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// Clone creates a deep copy of the manifest
func (m *RunManifest) Clone() *RunManifest {
	data, _ := json.Marshal(m)
	var clone RunManifest
	json.Unmarshal(data, &clone)
	return &clone
}
