package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kavikulu/shadowmine/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		inputsStr     string
		detectorNames []string
		workersStr    string
		storeDir      string
		listen        string
		outputFormat  string
		confirm       bool
	)

	// defaults
	workersStr = "0"
	outputFormat = "text"
	phiToleranceStr := "0.05"
	phiThresholdStr := "2.0"
	fibToleranceStr := "0.15"
	fibThresholdStr := "0.6"
	smoothingPeriodStr := "5"
	couplingToleranceStr := "0.1"
	couplingThresholdStr := "0.5"

	// step 1: welcome
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("SHADOWMINE CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's wire up your sequence analysis run.\n"))

	// datasets
	fmt.Println(stepStyle.Render("STEP 1: DATASETS"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dataset sources").
				Description("Comma-separated csv/json files or http(s) URLs").
				Value(&inputsStr).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("at least one dataset is required")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// detectors
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SHADOWMINE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: DETECTORS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Detectors to run").
				Description("Cross-coupling needs at least two sequences in the dataset").
				Options(
					huh.NewOption("Phi-ratio enrichment", "phi_ratio").Selected(true),
					huh.NewOption("Fibonacci likeness", "fibonacci").Selected(true),
					huh.NewOption("Geometric coherence", "coherence").Selected(true),
					huh.NewOption("Field coupling", "field_coupling").Selected(true),
					huh.NewOption("Cross-coupling", "cross_coupling"),
				).
				Validate(func(selected []string) error {
					if len(selected) == 0 {
						return fmt.Errorf("select at least one detector")
					}
					return nil
				}).
				Value(&detectorNames),
		),
	).Run()
	if err != nil {
		return err
	}

	// thresholds
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SHADOWMINE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: THRESHOLDS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Phi ratio tolerance").
				Description("Relative deviation accepted around phi (e.g. 0.05)").
				Value(&phiToleranceStr).
				Validate(validateTolerance),
			huh.NewInput().
				Title("Phi enrichment threshold").
				Description("Observed over expected matches, must exceed 1 (e.g. 2.0)").
				Value(&phiThresholdStr).
				Validate(validateEnrichment),
			huh.NewInput().
				Title("Fibonacci tolerance").
				Description("Relative deviation accepted per term (e.g. 0.15)").
				Value(&fibToleranceStr).
				Validate(validateTolerance),
			huh.NewInput().
				Title("Fibonacci significance threshold").
				Description("Matched fraction needed for significance (e.g. 0.6)").
				Value(&fibThresholdStr).
				Validate(validateTolerance),
			huh.NewInput().
				Title("Coherence smoothing period").
				Description("Moving average window, min 2 (e.g. 5)").
				Value(&smoothingPeriodStr).
				Validate(validateSmoothing),
			huh.NewInput().
				Title("Coupling tolerance").
				Description("Relative deviation accepted around phi spacing (e.g. 0.1)").
				Value(&couplingToleranceStr).
				Validate(validateTolerance),
			huh.NewInput().
				Title("Coupling significance threshold").
				Description("Phi-spaced fraction needed for significance (e.g. 0.5)").
				Value(&couplingThresholdStr).
				Validate(validateTolerance),
		),
	).Run()
	if err != nil {
		return err
	}

	// output
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SHADOWMINE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: OUTPUT"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Workers").
				Description("Concurrent sequence analyzers, 0 means one per CPU").
				Value(&workersStr).
				Validate(validateWorkers),
			huh.NewInput().
				Title("Verdict log directory").
				Description("Empty disables persistence (e.g. ./wal/verdicts)").
				Value(&storeDir),
			huh.NewInput().
				Title("Stream server address").
				Description("Empty disables the dashboard (e.g. :8080)").
				Value(&listen),
			huh.NewSelect[string]().
				Title("Report format").
				Options(
					huh.NewOption("Styled text", "text"),
					huh.NewOption("JSON", "json"),
				).
				Value(&outputFormat),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("SHADOWMINE CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	// show summary
	summary := fmt.Sprintf(
		"Datasets: %s\nDetectors: %s\nWorkers: %s\nStore: %s\nListen: %s\nFormat: %s\n",
		inputsStr, strings.Join(detectorNames, ", "), workersStr,
		orDisabled(storeDir), orDisabled(listen), outputFormat,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save it").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	// generate config
	inputs := strings.Split(inputsStr, ",")
	for i := range inputs {
		inputs[i] = strings.TrimSpace(inputs[i])
	}

	cfgTmp := config.ConfigTmp{
		Inputs:               inputs,
		Detectors:            detectorNames,
		WorkersStr:           workersStr,
		StoreDir:             storeDir,
		Listen:               listen,
		JSON:                 outputFormat == "json",
		PhiToleranceStr:      phiToleranceStr,
		PhiThresholdStr:      phiThresholdStr,
		FibToleranceStr:      fibToleranceStr,
		FibThresholdStr:      fibThresholdStr,
		SmoothingPeriodStr:   smoothingPeriodStr,
		CouplingToleranceStr: couplingToleranceStr,
		CouplingThresholdStr: couplingThresholdStr,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	// write to config.gen.yaml
	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nRun: shadowmine analyze --config %s", filename, filename)))
	return nil
}

func validateTolerance(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThanOrEqual(decimal.Zero) || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("must be between 0 and 1")
	}
	return nil
}

func validateEnrichment(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.LessThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("must exceed 1")
	}
	return nil
}

func validateSmoothing(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n < 2 {
		return fmt.Errorf("must be at least 2")
	}
	return nil
}

func validateWorkers(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

func orDisabled(s string) string {
	if s == "" {
		return "(disabled)"
	}
	return s
}
