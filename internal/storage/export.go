package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/jetsim/internal/jet"
	"github.com/san-kum/jetsim/internal/sweep"
)

// ExportData is the JSON document written by ExportJSON.
type ExportData struct {
	RunMetadata
	Trace *jet.Trace   `json:"trace,omitempty"`
	Table *sweep.Table `json:"table,omitempty"`
}

// ExportJSON writes an indented JSON document to w.
func ExportJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile is ExportJSON to a file at path.
func ExportJSONFile(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := ExportJSON(file, data); err != nil {
		return err
	}
	return file.Close()
}

// ExportRun loads a stored run with its trace or sweep table attached.
func (s *Store) ExportRun(runID string) (ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return ExportData{}, err
	}
	data := ExportData{RunMetadata: *meta}

	switch meta.Kind {
	case KindSweep:
		data.Table, err = s.LoadSweep(runID)
	default:
		data.Trace, err = s.LoadTrace(runID)
	}
	if err != nil {
		return ExportData{}, err
	}
	return data, nil
}

const (
	TraceSheet = "Trace"
	SweepSheet = "Sweep"
)

// ExportXLSX writes a workbook with a Trace sheet, a Sweep sheet, or both.
// At least one of tr and table must be non-nil.
func ExportXLSX(path string, tr *jet.Trace, table *sweep.Table) error {
	if tr == nil && table == nil {
		return fmt.Errorf("storage: nothing to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	first := true
	sheet := func(name string) error {
		if first {
			first = false
			return f.SetSheetName("Sheet1", name)
		}
		_, err := f.NewSheet(name)
		return err
	}

	if tr != nil {
		if err := sheet(TraceSheet); err != nil {
			return err
		}
		if err := writeTraceSheet(f, tr); err != nil {
			return err
		}
	}
	if table != nil {
		if err := sheet(SweepSheet); err != nil {
			return err
		}
		if err := writeSweepSheet(f, table); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeTraceSheet(f *excelize.File, tr *jet.Trace) error {
	sw, err := f.NewStreamWriter(TraceSheet)
	if err != nil {
		return err
	}

	header := make([]interface{}, len(TraceHeader))
	for i, h := range TraceHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i := 0; i < tr.Len(); i++ {
		smp := tr.At(i)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, []interface{}{
			smp.Time, smp.X, smp.Xdot, smp.Z, smp.Pressure, smp.Volume, smp.ExitVelocity, smp.Thrust,
		}); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// writeSweepSheet lays the table out as a matrix: one row per tau_R, one
// column per stroke ratio.
func writeSweepSheet(f *excelize.File, table *sweep.Table) error {
	sw, err := f.NewStreamWriter(SweepSheet)
	if err != nil {
		return err
	}

	header := []interface{}{"tau_r \\ S"}
	for _, s := range table.StrokeRatios {
		header = append(header, s)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	rows, _ := table.Shape()
	for i := 0; i < rows; i++ {
		row := []interface{}{table.TauValues[i]}
		for _, pt := range table.Row(i) {
			row = append(row, pt.Impulse)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}
