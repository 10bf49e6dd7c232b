package config

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kavikulu/shadowmine/pkg/pattern"
)

// Config analyzer run configuration.
type Config struct {
	// Inputs lists dataset files, csv or json.
	Inputs []string
	// Detectors selects which detectors run, by result kind.
	Detectors []pattern.Kind
	// Workers bounds concurrent sequence analysis; 0 means one per CPU.
	Workers int
	// StoreDir is the verdict log directory; empty disables persistence.
	StoreDir string
	// Listen is the verdict stream server address; empty disables it.
	Listen string
	// JSON switches report output from styled text to json.
	JSON bool

	Phi       pattern.PhiConfig
	Fibonacci pattern.FibonacciConfig
	Coherence pattern.CoherenceConfig
	Coupling  pattern.CouplingConfig
}

// ConfigTmp mirrors Config for yaml parsing; numeric thresholds arrive
// as strings and are validated through decimal before use.
type ConfigTmp struct {
	Inputs               []string `yaml:"inputs,omitempty"`
	Detectors            []string `yaml:"detectors,omitempty"`
	WorkersStr           string   `yaml:"workers,omitempty"`
	StoreDir             string   `yaml:"store_dir,omitempty"`
	Listen               string   `yaml:"listen,omitempty"`
	JSON                 bool     `yaml:"json,omitempty"`
	PhiToleranceStr      string   `yaml:"phi_tolerance,omitempty"`
	PhiThresholdStr      string   `yaml:"phi_threshold,omitempty"`
	PhiNullModel         string   `yaml:"phi_null_model,omitempty"`
	PhiTrialsStr         string   `yaml:"phi_trials,omitempty"`
	PhiSeedStr           string   `yaml:"phi_seed,omitempty"`
	FibToleranceStr      string   `yaml:"fibonacci_tolerance,omitempty"`
	FibThresholdStr      string   `yaml:"fibonacci_threshold,omitempty"`
	SmoothingPeriodStr   string   `yaml:"smoothing_period,omitempty"`
	CouplingToleranceStr string   `yaml:"coupling_tolerance,omitempty"`
	CouplingThresholdStr string   `yaml:"coupling_threshold,omitempty"`
}

// Get reads configuration from a yaml file when --config is provided,
// otherwise from the remaining command-line flags.
func Get(args []string) (Config, error) {
	fs := flag.NewFlagSet("shadowmine", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	inputs := fs.String("input", "", "comma-separated dataset files, csv or json")
	detectors := fs.String("detectors", "", "comma-separated detectors: phi_ratio,fibonacci,coherence,field_coupling,cross_coupling")
	workers := fs.Int("workers", 0, "concurrent sequence analyzers, 0 means one per CPU")
	storeDir := fs.String("store", "", "directory for the verdict log, empty disables persistence")
	listen := fs.String("listen", "", "address for the verdict stream server, empty disables it")
	jsonOut := fs.Bool("json", false, "print verdicts as json")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *configPath != "" {
		return getYaml(*configPath)
	}

	cfg := defaults()
	if *inputs != "" {
		cfg.Inputs = strings.Split(*inputs, ",")
	}
	if *detectors != "" {
		kinds, err := parseDetectors(strings.Split(*detectors, ","))
		if err != nil {
			return Config{}, fmt.Errorf("invalid --detectors provided, --detectors=%s: %w", *detectors, err)
		}
		cfg.Detectors = kinds
	}
	if *workers < 0 {
		return Config{}, fmt.Errorf("invalid --workers provided, --workers=%d", *workers)
	}
	cfg.Workers = *workers
	cfg.StoreDir = *storeDir
	cfg.Listen = *listen
	cfg.JSON = *jsonOut

	return cfg, nil
}

func defaults() Config {
	return Config{
		Detectors: []pattern.Kind{
			pattern.KindPhiRatio,
			pattern.KindFibonacci,
			pattern.KindCoherence,
			pattern.KindFieldCoupling,
		},
		Phi:       pattern.DefaultPhiConfig(),
		Fibonacci: pattern.DefaultFibonacciConfig(),
		Coherence: pattern.DefaultCoherenceConfig(),
		Coupling:  pattern.DefaultCouplingConfig(),
	}
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp ConfigTmp
	dec := yaml.NewDecoder(bytes.NewReader(f))
	// unknown keys are config mistakes, not extensions
	dec.KnownFields(true)
	if err := dec.Decode(&tmp); err != nil {
		return Config{}, fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}

	cfg := defaults()
	cfg.Inputs = tmp.Inputs
	cfg.StoreDir = tmp.StoreDir
	cfg.Listen = tmp.Listen
	cfg.JSON = tmp.JSON

	if len(tmp.Detectors) > 0 {
		kinds, err := parseDetectors(tmp.Detectors)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'detectors' param in yaml config: %w", err)
		}
		cfg.Detectors = kinds
	}

	if err := setInt(&cfg.Workers, "workers", tmp.WorkersStr); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 0 {
		return Config{}, fmt.Errorf("incorrect 'workers' param in yaml config: must not be negative, got %d", cfg.Workers)
	}

	if err := setFloat(&cfg.Phi.Tolerance, "phi_tolerance", tmp.PhiToleranceStr); err != nil {
		return Config{}, err
	}
	if err := setFloat(&cfg.Phi.EnrichmentThreshold, "phi_threshold", tmp.PhiThresholdStr); err != nil {
		return Config{}, err
	}
	if tmp.PhiNullModel != "" {
		cfg.Phi.NullModel = pattern.NullModel(tmp.PhiNullModel)
	}
	if err := setInt(&cfg.Phi.Trials, "phi_trials", tmp.PhiTrialsStr); err != nil {
		return Config{}, err
	}
	if err := setInt64(&cfg.Phi.Seed, "phi_seed", tmp.PhiSeedStr); err != nil {
		return Config{}, err
	}

	if err := setFloat(&cfg.Fibonacci.Tolerance, "fibonacci_tolerance", tmp.FibToleranceStr); err != nil {
		return Config{}, err
	}
	if err := setFloat(&cfg.Fibonacci.SignificanceThreshold, "fibonacci_threshold", tmp.FibThresholdStr); err != nil {
		return Config{}, err
	}

	if err := setInt(&cfg.Coherence.SmoothingPeriod, "smoothing_period", tmp.SmoothingPeriodStr); err != nil {
		return Config{}, err
	}

	if err := setFloat(&cfg.Coupling.Tolerance, "coupling_tolerance", tmp.CouplingToleranceStr); err != nil {
		return Config{}, err
	}
	if err := setFloat(&cfg.Coupling.SignificanceThreshold, "coupling_threshold", tmp.CouplingThresholdStr); err != nil {
		return Config{}, err
	}

	// the coherence scorer embeds the phi and fibonacci detectors
	cfg.Coherence.Phi = cfg.Phi
	cfg.Coherence.Fibonacci = cfg.Fibonacci

	return cfg, nil
}

func parseDetectors(names []string) ([]pattern.Kind, error) {
	kinds := make([]pattern.Kind, 0, len(names))
	for _, name := range names {
		kind := pattern.Kind(strings.TrimSpace(name))
		switch kind {
		case pattern.KindPhiRatio, pattern.KindFibonacci, pattern.KindCoherence,
			pattern.KindFieldCoupling, pattern.KindCrossCoupling:
			kinds = append(kinds, kind)
		default:
			return nil, fmt.Errorf("unknown detector %q", name)
		}
	}
	return kinds, nil
}

func setFloat(dst *float64, key, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("incorrect '%s' param in yaml config (must be a decimal), error: %w", key, err)
	}
	*dst, _ = d.Float64()
	return nil
}

func setInt(dst *int, key, raw string) error {
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("incorrect '%s' param in yaml config (must be an integer), error: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key, raw string) error {
	if raw == "" {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("incorrect '%s' param in yaml config (must be an integer), error: %w", key, err)
	}
	*dst = n
	return nil
}
