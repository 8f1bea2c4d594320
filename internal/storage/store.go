package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/numkit/internal/ode"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var (
	ErrNotFound     = errors.New("storage: run not found")
	ErrNoTrajectory = errors.New("storage: run has no trajectory")
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one stored computation. Kind is integral, ode or
// root; Method names the engine, stepper or solver used.
type RunMetadata struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Problem   string             `json:"problem"`
	Method    string             `json:"method"`
	Timestamp time.Time          `json:"timestamp"`
	Settings  map[string]float64 `json:"settings,omitempty"`
	Results   map[string]float64 `json:"results,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// NewRunID returns <problem>_<unix seconds>_<8 hex digits>.
func NewRunID(problem string, at time.Time) string {
	return fmt.Sprintf("%s_%d_%s", problem, at.Unix(), uuid.NewString()[:8])
}

// Save writes meta and, when traj is non-nil, its samples. The run ID and
// timestamp are assigned here and returned.
func (s *Store) Save(meta RunMetadata, traj *ode.Trajectory) (string, error) {
	meta.Timestamp = s.now()
	meta.ID = NewRunID(meta.Problem, meta.Timestamp)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if traj != nil {
		if err := writeFile(filepath.Join(runDir, statesFile), func(w io.Writer) error {
			return WriteCSV(w, traj)
		}); err != nil {
			return "", err
		}
	}
	return meta.ID, nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the readable runs, oldest first. Directories without valid
// metadata are skipped.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*ode.Trajectory, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			if _, merr := s.Load(runID); merr != nil {
				return nil, merr
			}
			return nil, fmt.Errorf("%w: %s", ErrNoTrajectory, runID)
		}
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes a header "time,y0,y1,..." followed by one row per sample.
func WriteCSV(w io.Writer, traj *ode.Trajectory) error {
	cw := csv.NewWriter(w)

	dim := 0
	if len(traj.States) > 0 {
		dim = len(traj.States[0])
	}
	header := []string{"time"}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, state := range traj.States {
		row := make([]string, 0, dim+1)
		row = append(row, strconv.FormatFloat(traj.Times[i], 'g', -1, 64))
		for _, v := range state {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) (*ode.Trajectory, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: read states: %w", err)
	}

	traj := &ode.Trajectory{Times: []float64{}, States: [][]float64{}}
	if len(records) < 2 {
		return traj, nil
	}

	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: row %d: %w", i+1, err)
		}
		state := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			if state[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("storage: row %d column %d: %w", i+1, j+1, err)
			}
		}
		traj.Times = append(traj.Times, t)
		traj.States = append(traj.States, state)
	}
	return traj, nil
}
