package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/nholford/ebsim/internal/sim"
)

// ExportData is the JSON export shape for a run.
type ExportData struct {
	Model   string               `json:"model"`
	Scheme  string               `json:"scheme"`
	Step    float64              `json:"step"`
	Layers  int                  `json:"layers"`
	Times   []float64            `json:"times"`
	Series  map[string][]float64 `json:"series"`
	Metrics map[string]float64   `json:"metrics,omitempty"`
}

// WriteExport writes already-assembled export data as indented JSON.
func WriteExport(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSON writes a run as indented JSON.
func ExportJSON(w io.Writer, model, scheme string, step float64, result *sim.Result) error {
	return WriteExport(w, ExportData{
		Model:   model,
		Scheme:  scheme,
		Step:    step,
		Layers:  result.Layers,
		Times:   result.Times(),
		Series:  result.Named(),
		Metrics: result.Metrics,
	})
}

// ExportJSONFile writes the JSON export to a file.
func ExportJSONFile(path, model, scheme string, step float64, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, model, scheme, step, result)
}
