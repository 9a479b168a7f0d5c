// Package storage persists run results as per-run directories holding
// metadata.json and series.csv. The engine itself never touches the
// filesystem; this is a collaborator of the CLI.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nholford/ebsim/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Scheme    string             `json:"scheme"`
	Timestamp time.Time          `json:"timestamp"`
	Step      float64            `json:"step"`
	Layers    int                `json:"layers"`
	Points    int                `json:"points"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Save writes a run into its own directory and returns the run ID.
func (s *Store) Save(model, scheme string, step float64, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     model,
		Scheme:    scheme,
		Timestamp: time.Now(),
		Step:      step,
		Layers:    result.Layers,
		Points:    len(result.Outputs),
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeSeriesCSV(filepath.Join(runDir, "series.csv"), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeSeriesCSV(path string, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	names := result.SeriesNames()
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}

	named := result.Named()
	times := result.Times()
	for i := range times {
		row := make([]string, 0, len(names)+1)
		row = append(row, strconv.FormatFloat(times[i], 'f', 6, 64))
		for _, name := range names {
			row = append(row, strconv.FormatFloat(named[name][i], 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads a run's series.csv back as times plus named columns.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "series.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, map[string][]float64{}, nil
	}

	header := records[0]
	times := make([]float64, 0, len(records)-1)
	named := make(map[string][]float64, len(header)-1)
	for _, name := range header[1:] {
		named[name] = make([]float64, 0, len(records)-1)
	}

	for _, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
		for j, name := range header[1:] {
			v, _ := strconv.ParseFloat(rec[j+1], 64)
			named[name] = append(named[name], v)
		}
	}
	return times, named, nil
}
