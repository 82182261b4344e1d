package storage

import (
	"math"
	"testing"

	"github.com/san-kum/quadbench/internal/comparison"
)

func sampleTrajectory() *comparison.Trajectory {
	return &comparison.Trajectory{
		Names: []string{"tracking", "dd-mpc"},
		Slots: []int{0, 2},
		ControlInputs: [][][]float64{
			{{7.35, 0.1, -0.1}, {7.4, 0.0, 0.0}},
			{{7.0, 0.5, 0.5}, {7.1, 0.4, 0.4}},
		},
		SystemOutputs: [][][]float64{
			{{0, 0, 1.0}, {0, 0, 1.1}},
			{{0, 0, 0.9}, {0, 0, 1.05}},
		},
		Setpoints: [][]float64{{0, 0, 1.5}, {0, 0, 1.5}},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	traj := sampleTrajectory()
	metrics := map[string]map[string]float64{
		"tracking": {"rmse": 0.42},
	}

	runID, err := store.Save("hover", 7, 0.01, traj, metrics)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load metadata: %v", err)
	}
	if meta.Scenario != "hover" {
		t.Errorf("expected scenario hover, got %s", meta.Scenario)
	}
	if meta.Ticks != 2 {
		t.Errorf("expected 2 ticks, got %d", meta.Ticks)
	}
	if len(meta.Controllers) != 2 {
		t.Fatalf("expected 2 controllers, got %d", len(meta.Controllers))
	}
	if meta.Controllers[1].Slot != 2 {
		t.Errorf("expected slot 2, got %d", meta.Controllers[1].Slot)
	}
	if meta.Metrics["tracking"]["rmse"] != 0.42 {
		t.Errorf("metrics lost on round trip: %v", meta.Metrics)
	}

	got, err := store.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory: %v", err)
	}
	if got.Ticks() != traj.Ticks() {
		t.Fatalf("expected %d ticks, got %d", traj.Ticks(), got.Ticks())
	}
	for w := range traj.Names {
		if got.Names[w] != traj.Names[w] {
			t.Errorf("name %d: expected %s, got %s", w, traj.Names[w], got.Names[w])
		}
		for k := range traj.ControlInputs[w] {
			for j := range traj.ControlInputs[w][k] {
				if math.Abs(got.ControlInputs[w][k][j]-traj.ControlInputs[w][k][j]) > 1e-6 {
					t.Errorf("input mismatch at worker %d tick %d dim %d", w, k, j)
				}
			}
			for j := range traj.SystemOutputs[w][k] {
				if math.Abs(got.SystemOutputs[w][k][j]-traj.SystemOutputs[w][k][j]) > 1e-6 {
					t.Errorf("output mismatch at worker %d tick %d dim %d", w, k, j)
				}
			}
		}
	}
	for k := range traj.Setpoints {
		for j := range traj.Setpoints[k] {
			if math.Abs(got.Setpoints[k][j]-traj.Setpoints[k][j]) > 1e-6 {
				t.Errorf("setpoint mismatch at tick %d dim %d", k, j)
			}
		}
	}
}

func TestListEmptyAndPopulated(t *testing.T) {
	store := New(t.TempDir())

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list on missing dir: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}

	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save("hover", 1, 0.01, sampleTrajectory(), nil); err != nil {
		t.Fatal(err)
	}

	runs, err = store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Scenario != "hover" {
		t.Errorf("expected scenario hover, got %s", runs[0].Scenario)
	}
}

func TestLoadMissingRun(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := store.LoadTrajectory("nope"); err == nil {
		t.Error("expected error for missing trajectory")
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize("dd mpc/ctl"); got != "dd_mpc_ctl" {
		t.Errorf("expected dd_mpc_ctl, got %s", got)
	}
}
