package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/nholford/ebsim/internal/ebm"
	"github.com/nholford/ebsim/internal/forcing"
	"github.com/nholford/ebsim/internal/sim"
)

func sampleResult(t *testing.T) *sim.Result {
	t.Helper()
	p, err := ebm.NewTwoLayer(-1.0, 7.3, 106, 0.7, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	s, err := forcing.NewSeries([]forcing.Point{{Time: 0, Value: 4}, {Time: 20, Value: 4}})
	if err != nil {
		t.Fatal(err)
	}
	res, err := sim.Run(context.Background(), p, s, sim.Options{Step: 1})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestSaveListLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	res := sampleResult(t)
	runID, err := store.Save("two-layer", "analytical", 1.0, res)
	if err != nil {
		t.Fatal(err)
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("List() = %+v, want one run %q", runs, runID)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Model != "two-layer" || meta.Scheme != "analytical" || meta.Step != 1.0 {
		t.Errorf("metadata round trip: %+v", meta)
	}
	if meta.Layers != 2 || meta.Points != len(res.Outputs) {
		t.Errorf("shape metadata: layers %d points %d, want 2 and %d", meta.Layers, meta.Points, len(res.Outputs))
	}
}

func TestLoadSeries(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	res := sampleResult(t)
	runID, err := store.Save("two-layer", "analytical", 1.0, res)
	if err != nil {
		t.Fatal(err)
	}

	times, named, err := store.LoadSeries(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != len(res.Outputs) {
		t.Fatalf("loaded %d rows, want %d", len(times), len(res.Outputs))
	}

	want := res.Named()
	for _, name := range res.SeriesNames() {
		col, ok := named[name]
		if !ok {
			t.Errorf("column %q missing from loaded series", name)
			continue
		}
		// CSV carries 6 decimal places.
		for i := range col {
			if math.Abs(col[i]-want[name][i]) > 1e-6 {
				t.Errorf("%s[%d] = %g, want %g", name, i, col[i], want[name][i])
				break
			}
		}
	}
}

func TestListEmptyStore(t *testing.T) {
	store := New(t.TempDir() + "/never-created")
	runs, err := store.List()
	if err != nil {
		t.Fatalf("listing a missing store dir: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestExportJSON(t *testing.T) {
	res := sampleResult(t)

	var buf bytes.Buffer
	if err := ExportJSON(&buf, "two-layer", "analytical", 1.0, res); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if data.Model != "two-layer" || data.Scheme != "analytical" || data.Step != 1.0 {
		t.Errorf("export header: %+v", data)
	}
	if len(data.Times) != len(res.Outputs) {
		t.Errorf("exported %d times, want %d", len(data.Times), len(res.Outputs))
	}
	for _, name := range res.SeriesNames() {
		if _, ok := data.Series[name]; !ok {
			t.Errorf("series %q missing from export", name)
		}
	}
}
