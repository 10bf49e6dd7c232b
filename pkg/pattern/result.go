package pattern

// Kind identifies which detector produced a Result.
type Kind string

const (
	KindPhiRatio      Kind = "phi_ratio"
	KindFibonacci     Kind = "fibonacci"
	KindCoherence     Kind = "coherence"
	KindFieldCoupling Kind = "field_coupling"
	KindCrossCoupling Kind = "cross_coupling"
)

// Title returns a human-readable name for the detector kind.
func (k Kind) Title() string {
	switch k {
	case KindPhiRatio:
		return "Phi-ratio enrichment"
	case KindFibonacci:
		return "Fibonacci likeness"
	case KindCoherence:
		return "Geometric coherence"
	case KindFieldCoupling:
		return "Field-coupling signature"
	case KindCrossCoupling:
		return "Cross-coupling"
	default:
		return string(k)
	}
}

// Interpretation is the ordinal band a score falls into.
type Interpretation string

const (
	InterpretationLow      Interpretation = "LOW"
	InterpretationModerate Interpretation = "MODERATE"
	InterpretationHigh     Interpretation = "HIGH"
)

// Component is a named sub-score or supporting scalar of a Result.
// Weight is zero for components that do not enter a weighted blend.
type Component struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight,omitempty"`
	Value  float64 `json:"value"`
}

// Stats carries the evidence behind a Result.
type Stats struct {
	// SampleSize is the number of points analyzed.
	SampleSize int `json:"sample_size"`
	// Observed counts the matches the detector found.
	Observed int `json:"observed"`
	// Expected is the match count predicted by the null model, where
	// the detector has one.
	Expected float64 `json:"expected,omitempty"`
	// Tolerance and Threshold echo the configuration the verdict used.
	Tolerance float64 `json:"tolerance,omitempty"`
	Threshold float64 `json:"threshold"`
	// Components lists named sub-scores and supporting scalars.
	Components []Component `json:"components,omitempty"`
}

// Result is an immutable detection verdict. Consumers read it as-is;
// detectors never return a partial Result alongside an error.
type Result struct {
	Kind           Kind           `json:"kind"`
	Score          float64        `json:"score"`
	Significant    bool           `json:"significant"`
	Interpretation Interpretation `json:"interpretation"`
	Stats          Stats          `json:"stats"`
}
