// Package automation runs batches of headless experiments: YAML scenarios,
// sweeps of the field constant and randomly perturbed trials.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/config"
	"github.com/san-kum/efield/internal/experiment"
	"github.com/san-kum/efield/internal/field"
	"github.com/san-kum/efield/internal/metrics"
	"github.com/san-kum/efield/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. The arrangement comes from File if set,
// otherwise from Preset.
type ScenarioStep struct {
	Preset        string   `yaml:"preset"`
	File          string   `yaml:"file"`
	FieldConstant float64  `yaml:"field_constant"`
	TickMs        int      `yaml:"tick_ms"`
	Ticks         int      `yaml:"ticks"`
	StopTime      *float64 `yaml:"stop_time"`
	Record        bool     `yaml:"record"`
}

type StepResult struct {
	Step   int
	Source string
	RunID  string
	Result *experiment.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}

	return &scenario, nil
}

func (s ScenarioStep) arrangement(st *storage.Store) (*storage.Arrangement, string, error) {
	if s.File != "" {
		arr, err := st.OpenArrangement(s.File)
		return arr, s.File, err
	}

	cfg := config.GetPreset(s.Preset)
	if cfg == nil {
		return nil, "", fmt.Errorf("unknown preset: %q", s.Preset)
	}
	set, err := cfg.ChargeSet()
	if err != nil {
		return nil, "", err
	}
	return &storage.Arrangement{StopTime: cfg.StopTime, Charges: set}, s.Preset, nil
}

// RunScenario executes all steps in order, recording the steps that ask
// for it through st.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		arr, source, err := step.arrangement(st)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.StopTime != nil {
			arr.StopTime = step.StopTime
		}

		k := step.FieldConstant
		if k == 0 {
			k = field.DefaultConstant
		}
		tickMs := step.TickMs
		if tickMs == 0 {
			tickMs = config.DefaultTickMs
		}

		exp, err := experiment.New(experiment.Config{
			Source:   source,
			TickMs:   tickMs,
			MaxTicks: step.Ticks,
			StopTime: arr.StopTime,
		}, field.NewWithConstant(k, field.DefaultPrecision), arr.Charges)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp.Setup(metrics.Collection{metrics.NewEnergyDrift(k), metrics.NewDisplacement()})

		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		out := StepResult{Step: i + 1, Source: source, Result: res}
		if step.Record {
			meta := storage.RunMetadata{
				Source:        source,
				FieldConstant: k,
				TickMs:        tickMs,
				Ticks:         res.Ticks,
				Duration:      res.Duration,
				StopTime:      arr.StopTime,
				Metrics:       res.Metrics,
			}
			if res.Halted != nil {
				meta.Halted = res.Halted.Error()
			}
			if out.RunID, err = st.Save(meta, arr, res.Recorder); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, out)
	}

	return results, nil
}

// ParameterSweep runs one arrangement across a range of field constants.
type ParameterSweep struct {
	Charges  charge.Set
	KMin     float64
	KMax     float64
	NumSteps int
	TickMs   int
	Ticks    int
}

// SweepResult holds the outcome at one field constant
type SweepResult struct {
	K            float64
	Ticks        int
	Halted       bool
	Displacement float64
	MaxEnergy    float64
	MinEnergy    float64
}

// energyRange tracks the extremes of total energy over a run.
type energyRange struct {
	k        float64
	min, max float64
	seen     bool
}

func (e *energyRange) OnTick(set charge.Set, t float64) {
	v := metrics.Kinetic(set) + metrics.Potential(set, e.k)
	if !e.seen {
		e.min, e.max, e.seen = v, v, true
		return
	}
	e.min, e.max = min(e.min, v), max(e.max, v)
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	step := 0.0
	if sweep.NumSteps > 1 {
		step = (sweep.KMax - sweep.KMin) / float64(sweep.NumSteps-1)
	}

	for i := 0; i < sweep.NumSteps; i++ {
		k := sweep.KMin + float64(i)*step

		exp, err := experiment.New(experiment.Config{TickMs: sweep.TickMs, MaxTicks: sweep.Ticks},
			field.NewWithConstant(k, field.DefaultPrecision), sweep.Charges)
		if err != nil {
			return nil, err
		}
		disp := metrics.NewDisplacement()
		exp.Setup(metrics.Collection{disp})
		energy := &energyRange{k: k}
		exp.GetSimulator().AddObserver(energy)

		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			K:            k,
			Ticks:        result.Ticks,
			Halted:       result.Halted != nil,
			Displacement: disp.Value(),
			MaxEnergy:    energy.max,
			MinEnergy:    energy.min,
		})
	}

	return results, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Charges      charge.Set
	Engine       *field.Engine // nil uses field.New()
	Perturbation float64
	NumTrials    int
	TickMs       int
	Ticks        int
	Width        float64
	Height       float64
	Seed         int64
}

// MonteCarloResult holds the outcome of one perturbed trial
type MonteCarloResult struct {
	TrialID int
	Start   charge.Set
	Final   charge.Set
	Stable  bool // no halt and every charge stayed on the canvas
}

// RunMonteCarlo repeats a run with each movable charge's start position
// shifted by up to ±Perturbation on each axis. Offsets are drawn up front so
// a seed reproduces the same trials; the trials then run concurrently.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial")
	}
	engine := cfg.Engine
	if engine == nil {
		engine = field.New()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	starts := make([]charge.Set, cfg.NumTrials)
	for trial := range starts {
		start := cfg.Charges.Clone()
		for _, c := range start.Movables() {
			p := c.Pos0()
			c.MoveTo(
				p.X+(rng.Float64()-0.5)*2*cfg.Perturbation,
				p.Y+(rng.Float64()-0.5)*2*cfg.Perturbation,
			)
		}
		starts[trial] = start
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	errs := make([]error, cfg.NumTrials)

	var wg sync.WaitGroup
	for trial := range starts {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			exp, err := experiment.New(experiment.Config{TickMs: cfg.TickMs, MaxTicks: cfg.Ticks},
				field.NewWithConstant(engine.K, engine.Precision), starts[idx])
			if err != nil {
				errs[idx] = err
				return
			}
			contained := metrics.NewContainment(cfg.Width, cfg.Height)
			exp.Setup(metrics.Collection{contained})

			result, err := exp.Run(ctx)
			if err != nil {
				errs[idx] = err
				return
			}

			results[idx] = MonteCarloResult{
				TrialID: idx,
				Start:   starts[idx],
				Final:   result.Charges,
				Stable:  result.Halted == nil && contained.Value() == 1,
			}
		}(trial)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// MonteCarloStats computes summary statistics from Monte Carlo results
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
