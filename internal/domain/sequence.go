package domain

// NamedSequence labeled numeric sequence submitted for analysis.
type NamedSequence struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}
