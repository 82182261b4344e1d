// Package storage persists comparison runs to disk: one directory per run
// holding metadata, one CSV per controller, and the setpoint sequence.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/quadbench/internal/comparison"
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

type ControllerMeta struct {
	Name string `json:"name"`
	Slot int    `json:"slot"`
}

type RunMetadata struct {
	ID          string                        `json:"id"`
	Scenario    string                        `json:"scenario"`
	Timestamp   time.Time                     `json:"timestamp"`
	Seed        int64                         `json:"seed"`
	StepDt      float64                       `json:"step_dt"`
	Ticks       int                           `json:"ticks"`
	Controllers []ControllerMeta              `json:"controllers"`
	Metrics     map[string]map[string]float64 `json:"metrics,omitempty"`
}

// Save writes one run directory: metadata.json, setpoints.csv, and a
// per-controller CSV named after the role. Returns the generated run ID.
func (s *Store) Save(scenario string, seed int64, stepDt float64, traj *comparison.Trajectory, metrics map[string]map[string]float64) (string, error) {
	runID := fmt.Sprintf("%s_%d", sanitize(scenario), time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  scenario,
		Timestamp: time.Now(),
		Seed:      seed,
		StepDt:    stepDt,
		Ticks:     traj.Ticks(),
		Metrics:   metrics,
	}
	for w := range traj.Names {
		meta.Controllers = append(meta.Controllers, ControllerMeta{Name: traj.Names[w], Slot: traj.Slots[w]})
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	if err := s.writeSetpoints(filepath.Join(runDir, "setpoints.csv"), traj.Setpoints); err != nil {
		return "", err
	}

	for w := range traj.Names {
		path := filepath.Join(runDir, sanitize(traj.Names[w])+".csv")
		if err := s.writeController(path, traj.ControlInputs[w], traj.SystemOutputs[w]); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *Store) writeSetpoints(path string, setpoints [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"tick", "x", "y", "z"}); err != nil {
		return err
	}
	for k, sp := range setpoints {
		row := []string{strconv.Itoa(k)}
		for _, v := range sp {
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (s *Store) writeController(path string, inputs, outputs [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"tick"}
	if len(inputs) > 0 {
		for i := range inputs[0] {
			header = append(header, fmt.Sprintf("u%d", i))
		}
	}
	header = append(header, "y_x", "y_y", "y_z")
	if err := w.Write(header); err != nil {
		return err
	}

	for k := range inputs {
		row := []string{strconv.Itoa(k)}
		for _, v := range inputs[k] {
			row = append(row, formatFloat(v))
		}
		for _, v := range outputs[k] {
			row = append(row, formatFloat(v))
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

// LoadTrajectory reconstructs a saved run's full trajectory from its CSVs.
func (s *Store) LoadTrajectory(runID string) (*comparison.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	traj := &comparison.Trajectory{}
	for _, c := range meta.Controllers {
		inputs, outputs, err := s.readController(filepath.Join(s.baseDir, runID, sanitize(c.Name)+".csv"))
		if err != nil {
			return nil, fmt.Errorf("storage: controller %q: %w", c.Name, err)
		}
		traj.Names = append(traj.Names, c.Name)
		traj.Slots = append(traj.Slots, c.Slot)
		traj.ControlInputs = append(traj.ControlInputs, inputs)
		traj.SystemOutputs = append(traj.SystemOutputs, outputs)
	}

	setpoints, err := s.readSetpoints(filepath.Join(s.baseDir, runID, "setpoints.csv"))
	if err != nil {
		return nil, err
	}
	traj.Setpoints = setpoints

	return traj, nil
}

func (s *Store) readController(path string) (inputs, outputs [][]float64, err error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, [][]float64{}, nil
	}

	numInputs := len(records[0]) - 4 // tick + u... + 3 output columns
	if numInputs < 0 {
		return nil, nil, fmt.Errorf("malformed header with %d columns", len(records[0]))
	}

	for _, record := range records[1:] {
		vals, err := parseFloats(record[1:])
		if err != nil {
			return nil, nil, err
		}
		inputs = append(inputs, vals[:numInputs])
		outputs = append(outputs, vals[numInputs:])
	}
	return inputs, outputs, nil
}

func (s *Store) readSetpoints(path string) ([][]float64, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, nil
	}

	setpoints := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		vals, err := parseFloats(record[1:])
		if err != nil {
			return nil, err
		}
		setpoints = append(setpoints, vals)
	}
	return setpoints, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	return r.ReadAll()
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
