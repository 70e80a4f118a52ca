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

// SaveArrangement writes arr to path, appending the .efd extension when it
// is missing, and returns the path written.
func (s *Store) SaveArrangement(path string, arr *Arrangement) (string, error) {
	if filepath.Ext(path) != Ext {
		path += Ext
	}

	var b strings.Builder
	if err := Encode(&b, arr); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// OpenArrangement reads an .efd file. Files with any other extension are
// rejected with ErrExtension.
func (s *Store) OpenArrangement(path string) (*Arrangement, error) {
	if ext := filepath.Ext(path); ext != Ext {
		return nil, fmt.Errorf("cannot open %q: %w", ext, ErrExtension)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	arr, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return arr, nil
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Source        string             `json:"source"`
	Timestamp     time.Time          `json:"timestamp"`
	FieldConstant float64            `json:"field_constant"`
	TickMs        int                `json:"tick_ms"`
	Ticks         int                `json:"ticks"`
	Duration      float64            `json:"duration"`
	StopTime      *float64           `json:"stop_time,omitempty"`
	Charges       int                `json:"charges"`
	Halted        string             `json:"halted,omitempty"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Save records a finished run: metadata.json, the starting arrangement in
// arrangement.efd and the sampled positions in trajectory.csv.
func (s *Store) Save(meta RunMetadata, arr *Arrangement, rec *Recorder) (string, error) {
	name := strings.TrimSuffix(filepath.Base(meta.Source), Ext)
	if name == "" || name == "." {
		name = "run"
	}
	runID := fmt.Sprintf("%s_%d", name, time.Now().UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Charges = rec.NumCharges()

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

	if arr != nil {
		if _, err := s.SaveArrangement(filepath.Join(runDir, "arrangement"+Ext), arr); err != nil {
			return "", err
		}
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)

	header := []string{"time"}
	for i := 0; i < rec.NumCharges(); i++ {
		header = append(header, fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for k, t := range rec.Times {
		row := []string{strconv.FormatFloat(t, 'f', 6, 64)}
		for _, p := range rec.Positions[k] {
			row = append(row, strconv.FormatFloat(p.X, 'f', 6, 64), strconv.FormatFloat(p.Y, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
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

// LoadArrangement returns the arrangement a run started from.
func (s *Store) LoadArrangement(runID string) (*Arrangement, error) {
	return s.OpenArrangement(filepath.Join(s.baseDir, runID, "arrangement"+Ext))
}

// Trajectory holds sampled positions per charge: X[i][k] is charge i at
// sample k.
type Trajectory struct {
	Times []float64
	X, Y  [][]float64
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	tr := &Trajectory{}
	if len(records) == 0 {
		return tr, nil
	}

	n := (len(records[0]) - 1) / 2
	tr.X = make([][]float64, n)
	tr.Y = make([][]float64, n)

	for i, record := range records[1:] {
		if len(record) != 2*n+1 {
			return nil, fmt.Errorf("trajectory row %d: expected %d columns, got %d", i+2, 2*n+1, len(record))
		}
		vals := make([]float64, len(record))
		for j, f := range record {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("trajectory row %d: %w", i+2, err)
			}
			vals[j] = v
		}
		tr.Times = append(tr.Times, vals[0])
		for c := 0; c < n; c++ {
			tr.X[c] = append(tr.X[c], vals[1+2*c])
			tr.Y[c] = append(tr.Y[c], vals[2+2*c])
		}
	}

	return tr, nil
}
