package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

// ErrUnknownColumn is returned by LoadSeries for a column the run did not record.
var ErrUnknownColumn = errors.New("storage: unknown column")

type Store struct {
	baseDir string
	clock   clockwork.Clock
}

func New(baseDir string) *Store {
	return NewWithClock(baseDir, clockwork.NewRealClock())
}

func NewWithClock(baseDir string, clock clockwork.Clock) *Store {
	return &Store{baseDir: baseDir, clock: clock}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo is what the caller knows about a run besides its result.
type RunInfo struct {
	Name        string
	Dt          float64
	Duration    float64
	Seed        int64
	Controllers []string
	Schedule    []sim.ScheduledCommand
}

type RunMetadata struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Timestamp   time.Time              `json:"timestamp"`
	Seed        int64                  `json:"seed"`
	Dt          float64                `json:"dt"`
	Duration    float64                `json:"duration"`
	Steps       int                    `json:"steps"`
	Samples     int                    `json:"samples"`
	Controllers []string               `json:"controllers,omitempty"`
	Schedule    []sim.ScheduledCommand `json:"schedule,omitempty"`
	Metrics     map[string]float64     `json:"metrics"`
}

// Columns lists the states.csv header: the clock, every sensor and every
// actuator, in publication order.
func Columns() []string {
	cols := []string{string(bioreactor.FieldTime)}
	for _, f := range bioreactor.SensorFields {
		cols = append(cols, string(f))
	}
	for _, r := range (bioreactor.Actuators{}).Readings() {
		cols = append(cols, r.Key)
	}
	return cols
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	now := s.clock.Now()
	name := info.Name
	if name == "" {
		name = "run"
	}

	runID := fmt.Sprintf("%s_%d", name, now.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for i := 2; ; i++ {
		if _, err := os.Stat(runDir); os.IsNotExist(err) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", name, now.Unix(), i)
		runDir = filepath.Join(s.baseDir, runID)
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Name:        name,
		Timestamp:   now,
		Seed:        info.Seed,
		Dt:          info.Dt,
		Duration:    info.Duration,
		Steps:       result.StepsTaken,
		Samples:     len(result.Readouts),
		Controllers: info.Controllers,
		Schedule:    info.Schedule,
		Metrics:     result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
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

func writeStates(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns()); err != nil {
		return err
	}

	for _, r := range result.Readouts {
		row := []string{format(r.T)}
		for _, s := range r.Sensors() {
			row = append(row, format(s.Value))
		}
		a := bioreactor.Actuators{}
		if r.Actuators != nil {
			a = *r.Actuators
		}
		for _, v := range a.Readings() {
			row = append(row, format(v.Value))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// List returns the stored runs, newest first.
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
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Latest returns the ID of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", os.ErrNotExist
	}
	return runs[0].ID, nil
}

// Table is the parsed content of states.csv.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// Column returns the values of one column.
func (t *Table) Column(name string) ([]float64, error) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}

	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out, nil
}

func (s *Store) LoadTable(runID string) (*Table, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return &Table{}, nil
	}

	table := &Table{
		Columns: records[0],
		Rows:    make([][]float64, 0, len(records)-1),
	}

	for _, record := range records[1:] {
		row := make([]float64, len(record))
		for j, field := range record {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: bad value %q in column %d: %w", statesFile, field, j, err)
			}
			row[j] = val
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// LoadSeries returns the time column and one named column of a run.
func (s *Store) LoadSeries(runID, column string) ([]float64, []float64, error) {
	table, err := s.LoadTable(runID)
	if err != nil {
		return nil, nil, err
	}
	values, err := table.Column(column)
	if err != nil {
		return nil, nil, err
	}
	times, err := table.Column(string(bioreactor.FieldTime))
	if err != nil {
		return nil, nil, err
	}
	return times, values, nil
}
