package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/jetsim/internal/calibrate"
	"github.com/san-kum/jetsim/internal/jet"
	"github.com/san-kum/jetsim/internal/surrogate"
	"github.com/san-kum/jetsim/internal/sweep"
)

// ErrInvalid is returned when a loaded or constructed config fails validation.
var ErrInvalid = errors.New("config: invalid configuration")

const (
	DefaultStrokeMin   = 1.0
	DefaultStrokeMax   = 8.0
	DefaultStrokeCount = 40
	DefaultStoreDir    = ".jetsim"
)

var validate = validator.New()

type Config struct {
	Simulation  jet.Parameters    `yaml:"simulation"`
	Sweep       SweepConfig       `yaml:"sweep"`
	Calibration CalibrationConfig `yaml:"calibration"`
	StoreDir    string            `yaml:"store_dir" validate:"required"`
}

// SweepConfig describes the stroke-ratio by tau_R grid and the surrogate
// coefficients evaluated on it.
type SweepConfig struct {
	StrokeMin   float64   `yaml:"stroke_min" validate:"gte=0"`
	StrokeMax   float64   `yaml:"stroke_max" validate:"gtfield=StrokeMin"`
	StrokeCount int       `yaml:"stroke_count" validate:"min=1"`
	TauValues   []float64 `yaml:"tau_values" validate:"min=1,dive,gte=0"`
	Sigma       float64   `yaml:"sigma" validate:"gt=0"`
	KH          float64   `yaml:"k_h" validate:"gte=0"`
	Tau0        float64   `yaml:"tau0" validate:"gte=0"`
	SOpt        float64   `yaml:"s_opt"`
}

type CalibrationConfig struct {
	Tau0           float64          `yaml:"tau0" validate:"gte=0"`
	SOpt           float64          `yaml:"s_opt"`
	InitialSigma   float64          `yaml:"initial_sigma" validate:"gt=0"`
	InitialKH      float64          `yaml:"initial_k_h" validate:"gte=0"`
	MaxIterations  int              `yaml:"max_iterations" validate:"min=1"`
	FTol           float64          `yaml:"ftol" validate:"gte=0"`
	XTol           float64          `yaml:"xtol" validate:"gte=0"`
	GTol           float64          `yaml:"gtol" validate:"gte=0"`
	InitialDamping float64          `yaml:"initial_damping" validate:"gt=0"`
	Bounds         calibrate.Bounds `yaml:"bounds"`
}

func DefaultConfig() *Config {
	opts := calibrate.DefaultOptions()
	return &Config{
		Simulation: jet.DefaultParameters(),
		Sweep: SweepConfig{
			StrokeMin:   DefaultStrokeMin,
			StrokeMax:   DefaultStrokeMax,
			StrokeCount: DefaultStrokeCount,
			TauValues:   sweep.DefaultTauValues(),
			Sigma:       surrogate.DefaultSigma,
			KH:          surrogate.DefaultKH,
			Tau0:        surrogate.DefaultTau0,
			SOpt:        surrogate.DefaultSOpt,
		},
		Calibration: CalibrationConfig{
			Tau0:           surrogate.DefaultTau0,
			SOpt:           opts.SOpt,
			InitialSigma:   calibrate.DefaultInitialGuess[0],
			InitialKH:      calibrate.DefaultInitialGuess[1],
			MaxIterations:  opts.MaxIterations,
			FTol:           opts.FTol,
			XTol:           opts.XTol,
			GTol:           opts.GTol,
			InitialDamping: opts.InitialDamping,
			Bounds:         opts.Bounds,
		},
		StoreDir: DefaultStoreDir,
	}
}

// Load reads a YAML file on top of DefaultConfig, so omitted keys keep
// their defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks struct tags and the cross-field rules the tags cannot
// express. Every failure wraps ErrInvalid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s=%s)", fe.Namespace(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Calibration.Bounds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// StrokeRatios expands the configured range into the sweep grid.
func (s SweepConfig) StrokeRatios() []float64 {
	return sweep.Linspace(s.StrokeMin, s.StrokeMax, s.StrokeCount)
}

func (s SweepConfig) Envelope() surrogate.Envelope {
	return surrogate.Envelope{SOpt: s.SOpt, Sigma: s.Sigma, Tau0: s.Tau0, KH: s.KH}
}

func (c CalibrationConfig) InitialGuess() [2]float64 {
	return [2]float64{c.InitialSigma, c.InitialKH}
}

// Options converts the section into solver options. logger may be nil.
func (c CalibrationConfig) Options(logger *slog.Logger) calibrate.Options {
	return calibrate.Options{
		SOpt:           c.SOpt,
		Bounds:         c.Bounds,
		MaxIterations:  c.MaxIterations,
		FTol:           c.FTol,
		XTol:           c.XTol,
		GTol:           c.GTol,
		InitialDamping: c.InitialDamping,
		Logger:         logger,
	}
}
