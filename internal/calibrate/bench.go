package calibrate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BenchmarkHeader is the column order of a benchmark CSV.
var BenchmarkHeader = []string{"stroke_ratio", "tau_r", "impulse"}

// ReadBenchmarkCSV parses rows of stroke_ratio,tau_r,impulse. A first row
// that does not parse as numbers is taken as a header and skipped.
func ReadBenchmarkCSV(r io.Reader) (Benchmark, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(BenchmarkHeader)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Benchmark{}, err
	}

	var b Benchmark
	for i, record := range records {
		vals, err := parseRow(record)
		if err != nil {
			if i == 0 {
				continue
			}
			return Benchmark{}, fmt.Errorf("benchmark row %d: %w", i+1, err)
		}
		b.StrokeRatios = append(b.StrokeRatios, vals[0])
		b.TauValues = append(b.TauValues, vals[1])
		b.Impulses = append(b.Impulses, vals[2])
	}
	if err := b.Validate(); err != nil {
		return Benchmark{}, err
	}
	return b, nil
}

// WriteBenchmarkCSV writes b with a header row.
func WriteBenchmarkCSV(w io.Writer, b Benchmark) error {
	if err := b.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(BenchmarkHeader); err != nil {
		return err
	}
	for i := range b.Impulses {
		row := []string{
			strconv.FormatFloat(b.StrokeRatios[i], 'g', -1, 64),
			strconv.FormatFloat(b.TauValues[i], 'g', -1, 64),
			strconv.FormatFloat(b.Impulses[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseRow(record []string) ([3]float64, error) {
	var vals [3]float64
	for j, field := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return vals, err
		}
		vals[j] = v
	}
	return vals, nil
}
