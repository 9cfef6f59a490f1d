// Package storage persists runs on disk, one directory per run.
//
// A cycle run holds metadata.json and trace.csv; a sweep run holds
// metadata.json and sweep.csv.
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
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/jetsim/internal/jet"
	"github.com/san-kum/jetsim/internal/metrics"
	"github.com/san-kum/jetsim/internal/surrogate"
	"github.com/san-kum/jetsim/internal/sweep"
)

// ErrRunNotFound is returned when no run with the given ID exists.
var ErrRunNotFound = errors.New("storage: run not found")

const (
	KindCycle = "cycle"
	KindSweep = "sweep"

	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
	sweepFile    = "sweep.csv"
)

// TraceHeader is the column order of trace.csv.
var TraceHeader = []string{"time", "x", "xdot", "z", "p", "dV", "u_exit", "thrust"}

var sweepHeader = []string{"tau_r", "stroke_ratio", "impulse"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Parameters     *jet.Parameters       `json:"parameters,omitempty"`
	Metrics        *metrics.CycleMetrics `json:"metrics,omitempty"`
	StrokeVelocity float64               `json:"stroke_velocity,omitempty"`
	Reynolds       float64               `json:"reynolds,omitempty"`
	Diagnostics    []jet.Diagnostic      `json:"diagnostics,omitempty"`
	Samples        int                   `json:"samples"`

	Sweep *SweepSummary `json:"sweep,omitempty"`
}

type SweepSummary struct {
	Envelope surrogate.Envelope `json:"envelope"`
	Rows     int                `json:"rows"`
	Cols     int                `json:"cols"`
	Best     sweep.Point        `json:"best"`
}

func newRunID(kind string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s", kind, now.UTC().Format("20060102T150405"), uuid.NewString()[:8])
}

// Save writes a simulated cycle and returns its run ID.
func (s *Store) Save(p jet.Parameters, res *jet.Result) (string, error) {
	now := time.Now()
	meta := RunMetadata{
		ID:             newRunID(KindCycle, now),
		Kind:           KindCycle,
		Timestamp:      now,
		Parameters:     &p,
		Metrics:        &res.Metrics,
		StrokeVelocity: res.StrokeVelocity,
		Reynolds:       res.Reynolds,
		Diagnostics:    res.Diagnostics,
		Samples:        res.Trace.Len(),
	}

	err := s.writeRun(meta, traceFile, func(w io.Writer) error {
		return WriteTraceCSV(w, res.Trace)
	})
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

// SaveSweep writes a sweep table and returns its run ID.
func (s *Store) SaveSweep(table *sweep.Table, env surrogate.Envelope) (string, error) {
	now := time.Now()
	rows, cols := table.Shape()
	best, _ := table.Best()
	meta := RunMetadata{
		ID:        newRunID(KindSweep, now),
		Kind:      KindSweep,
		Timestamp: now,
		Samples:   len(table.Points),
		Sweep:     &SweepSummary{Envelope: env, Rows: rows, Cols: cols, Best: best},
	}

	err := s.writeRun(meta, sweepFile, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(sweepHeader); err != nil {
			return err
		}
		for _, pt := range table.Points {
			if err := cw.Write([]string{formatFloat(pt.TauR), formatFloat(pt.StrokeRatio), formatFloat(pt.Impulse)}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

// writeRun creates the run directory with metadata.json and one data file.
// A failed write removes the directory so no partial run is left behind.
func (s *Store) writeRun(meta RunMetadata, dataFile string, write func(io.Writer) error) (err error) {
	runDir, err := s.createRunDir(meta.ID)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
		}
	}()

	if err := writeJSONFile(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(runDir, dataFile))
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns every readable run, oldest first. Directories without a
// valid metadata.json are skipped.
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
	data, err := os.ReadFile(s.runFile(runID, metadataFile))
	if err != nil {
		return nil, s.wrapNotFound(runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadTrace reads trace.csv back into a trace.
func (s *Store) LoadTrace(runID string) (*jet.Trace, error) {
	f, err := os.Open(s.runFile(runID, traceFile))
	if err != nil {
		return nil, s.wrapNotFound(runID, err)
	}
	defer f.Close()

	cols, err := readColumns(f, len(TraceHeader))
	if err != nil {
		return nil, fmt.Errorf("storage: read %s trace: %w", runID, err)
	}
	return &jet.Trace{
		Time:         cols[0],
		X:            cols[1],
		Xdot:         cols[2],
		Z:            cols[3],
		Pressure:     cols[4],
		Volume:       cols[5],
		ExitVelocity: cols[6],
		Thrust:       cols[7],
	}, nil
}

// LoadSweep reads sweep.csv back into a table. The grids are recovered
// from the tau-outer row order.
func (s *Store) LoadSweep(runID string) (*sweep.Table, error) {
	f, err := os.Open(s.runFile(runID, sweepFile))
	if err != nil {
		return nil, s.wrapNotFound(runID, err)
	}
	defer f.Close()

	cols, err := readColumns(f, len(sweepHeader))
	if err != nil {
		return nil, fmt.Errorf("storage: read %s sweep: %w", runID, err)
	}

	table := &sweep.Table{Points: make([]sweep.Point, len(cols[0]))}
	for i := range cols[0] {
		pt := sweep.Point{TauR: cols[0][i], StrokeRatio: cols[1][i], Impulse: cols[2][i]}
		table.Points[i] = pt
		if i == 0 || pt.TauR != cols[0][i-1] {
			table.TauValues = append(table.TauValues, pt.TauR)
		}
		if len(table.TauValues) == 1 {
			table.StrokeRatios = append(table.StrokeRatios, pt.StrokeRatio)
		}
	}
	return table, nil
}

// WriteTraceCSV writes a header row followed by one row per sample.
func WriteTraceCSV(w io.Writer, tr *jet.Trace) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TraceHeader); err != nil {
		return err
	}

	row := make([]string, len(TraceHeader))
	for i := 0; i < tr.Len(); i++ {
		smp := tr.At(i)
		for j, v := range []float64{smp.Time, smp.X, smp.Xdot, smp.Z, smp.Pressure, smp.Volume, smp.ExitVelocity, smp.Thrust} {
			row[j] = formatFloat(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Store) createRunDir(runID string) (string, error) {
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	return runDir, nil
}

func (s *Store) runFile(runID, name string) string {
	return filepath.Join(s.baseDir, filepath.Base(runID), name)
}

func (s *Store) wrapNotFound(runID string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return err
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// readColumns parses a headed CSV of exactly width numeric columns.
func readColumns(r io.Reader, width int) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = width

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, width)
	if len(records) < 2 {
		for j := range cols {
			cols[j] = []float64{}
		}
		return cols, nil
	}

	n := len(records) - 1
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	for i, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, j, err)
			}
			cols[j][i] = v
		}
	}
	return cols, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
