package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/jetsim/internal/jet"
	"github.com/san-kum/jetsim/internal/sweep"
)

func shortTrace(t *testing.T) *jet.Trace {
	t.Helper()
	p := jet.DefaultParameters()
	p.DurationCycles = 2
	p.Dt = 1e-4
	res, err := jet.SimulateCycle(p)
	if err != nil {
		t.Fatal(err)
	}
	return res.Trace
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatalf("%s is empty", path)
	}
	return data
}

func TestPressureVolumeLoop(t *testing.T) {
	dir := t.TempDir()
	tr := shortTrace(t)

	svg := filepath.Join(dir, "loop.svg")
	if err := PressureVolumeLoop(svg, tr); err != nil {
		t.Fatalf("svg: %v", err)
	}
	if !strings.Contains(string(readFile(t, svg)), "<svg") {
		t.Error("expected svg document")
	}

	png := filepath.Join(dir, "nested", "loop.png")
	if err := PressureVolumeLoop(png, tr); err != nil {
		t.Fatalf("png: %v", err)
	}
	if !bytes.HasPrefix(readFile(t, png), []byte("\x89PNG")) {
		t.Error("expected png signature")
	}
}

func TestTraceChannels(t *testing.T) {
	dir := t.TempDir()
	tr := shortTrace(t)

	path := filepath.Join(dir, "channels.svg")
	if err := TraceChannels(path, tr, []string{"x", "z", "pressure", "thrust"}); err != nil {
		t.Fatal(err)
	}
	readFile(t, path)

	if err := TraceChannels(path, tr, []string{"bogus"}); err == nil {
		t.Error("expected error for unknown channel")
	}
	if err := TraceChannels(path, tr, nil); err == nil {
		t.Error("expected error for no channels")
	}
}

func TestSweepCurves(t *testing.T) {
	dir := t.TempDir()
	table := sweep.Run(sweep.Linspace(1, 8, 15), []float64{0.1, 1, 5}, 1.0, 0.6)

	path := filepath.Join(dir, "sweep.png")
	if err := SweepCurves(path, table); err != nil {
		t.Fatal(err)
	}
	readFile(t, path)

	if err := SweepCurves(path, &sweep.Table{}); err == nil {
		t.Error("expected error for empty table")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.pdf")
	if err := PressureVolumeLoop(path, shortTrace(t)); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
