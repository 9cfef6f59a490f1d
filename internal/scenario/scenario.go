// Package scenario runs scripted sequences of full-fidelity simulations
// and one-parameter scans.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/jetsim/internal/jet"
	"github.com/san-kum/jetsim/internal/sweep"
)

// Scenario defines a scripted simulation sequence. Each step starts from
// the base parameters and applies its own overrides.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single run in a scenario.
type Step struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
	Save   bool               `yaml:"save"`
}

// StepResult pairs a step with the parameters it ran with.
type StepResult struct {
	Index      int
	Step       Step
	Parameters jet.Parameters
	Result     *jet.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	return &sc, nil
}

// Runner executes scenarios. OnStep, if set, is called after each step and
// may stop the run by returning an error.
type Runner struct {
	Logger *slog.Logger
	OnStep func(StepResult) error
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// Run executes all steps in order. Results of completed steps are returned
// together with the first error.
func (r *Runner) Run(ctx context.Context, sc *Scenario, base jet.Parameters) ([]StepResult, error) {
	log := r.logger().With("scenario", sc.Name)
	results := make([]StepResult, 0, len(sc.Steps))

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		p := base
		for k, v := range step.Params {
			if err := p.SetParam(k, v); err != nil {
				return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
			}
		}

		log.Info("running step", "step", i+1, "of", len(sc.Steps), "name", step.Name)
		res, err := jet.SimulateCycle(p)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
		for _, d := range res.Diagnostics {
			log.Warn("parameter clamped", "step", step.Name, "diagnostic", d.String())
		}

		sr := StepResult{Index: i, Step: step, Parameters: p, Result: res}
		results = append(results, sr)
		if r.OnStep != nil {
			if err := r.OnStep(sr); err != nil {
				return results, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
			}
		}
	}

	return results, nil
}

// Scan runs the full simulation across a range of one parameter.
type Scan struct {
	Param    string
	Min, Max float64
	Steps    int
}

// ScanPoint is one scan result next to the surrogate prediction for the
// same stroke ratio and tau_R.
type ScanPoint struct {
	Value     float64
	Result    jet.Result
	Surrogate float64
}

// RunScan evaluates every scan value concurrently. Points are returned in
// scan order.
func RunScan(ctx context.Context, sc Scan, base jet.Parameters) ([]ScanPoint, error) {
	if sc.Steps < 1 {
		return nil, fmt.Errorf("scan needs at least one step, got %d", sc.Steps)
	}
	probe := base
	if err := probe.SetParam(sc.Param, sc.Min); err != nil {
		return nil, err
	}

	values := sweep.Linspace(sc.Min, sc.Max, sc.Steps)
	points := make([]ScanPoint, len(values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, v := range values {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := base
			_ = p.SetParam(sc.Param, v)
			res, err := jet.SimulateCycle(p)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", sc.Param, v, err)
			}
			// Keep the scalars, drop the trace.
			res.Trace = nil
			points[i] = ScanPoint{
				Value:     v,
				Result:    *res,
				Surrogate: p.Envelope.Impulse(p.StrokeRatio, p.TauR),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
