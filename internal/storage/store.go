package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/aflc/internal/sim"
	"github.com/san-kum/aflc/internal/vehicle"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var ErrNotFound = errors.New("storage: run not found")

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
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Preset     string             `json:"preset,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Substeps   int                `json:"substeps"`
	Integrator string             `json:"integrator"`
	Target     [4]float64         `json:"target"`
	Steps      int                `json:"steps"`
	Energy     float64            `json:"energy"`
	Stats      vehicle.Stats      `json:"stats"`
	Metrics    map[string]float64 `json:"metrics"`
	Error      string             `json:"error,omitempty"`
}

// Save writes a run directory holding meta and every sample of result.
// ID, Steps, Energy, Stats and Metrics are filled in from result.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	runID, runDir, err := s.newRunDir(meta.Scenario, meta.Timestamp)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Steps = result.StepsTaken
	meta.Energy = result.Energy
	meta.Stats = result.Stats
	meta.Metrics = result.Metrics

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteSamples(csvFile, result.Samples); err != nil {
		return "", err
	}
	return runID, csvFile.Sync()
}

func (s *Store) newRunDir(name string, ts time.Time) (string, string, error) {
	if name == "" {
		name = "run"
	}
	base := fmt.Sprintf("%s_%s", name, ts.Format("20060102T150405"))
	runID := base
	for i := 1; ; i++ {
		dir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return runID, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

// List returns the metadata of every readable run, oldest first.
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

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(s.SamplesPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrNotFound)
		}
		return nil, err
	}
	defer file.Close()
	return ReadSamples(file)
}

// SamplesPath is the CSV file of a run.
func (s *Store) SamplesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, samplesFile)
}

// CopySamples streams the raw CSV of a run to w.
func (s *Store) CopySamples(runID string, w io.Writer) error {
	file, err := os.Open(s.SamplesPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", runID, ErrNotFound)
		}
		return err
	}
	defer file.Close()
	_, err = io.Copy(w, file)
	return err
}

// WriteSamples encodes samples as CSV with a header row.
func WriteSamples(w io.Writer, samples []sim.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header()); err != nil {
		return err
	}
	for _, smp := range samples {
		if err := cw.Write(encodeSample(smp)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSamples decodes CSV written by WriteSamples. Columns are matched by
// header name, so files with extra columns still load.
func ReadSamples(r io.Reader) ([]sim.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []sim.Sample{}, nil
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		index[name] = i
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for line, rec := range records[1:] {
		smp, err := decodeSample(index, rec)
		if err != nil {
			return samples, fmt.Errorf("line %d: %w", line+2, err)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}
