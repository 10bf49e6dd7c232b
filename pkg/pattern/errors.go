package pattern

import "fmt"

// InsufficientDataError reports a sequence too short for the requested
// analysis.
type InsufficientDataError struct {
	Op     string
	Needed int
	Got    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: need at least %d points, got %d", e.Op, e.Needed, e.Got)
}

// DegenerateInputError reports input whose derived quantities are all
// undefined, so no verdict can be formed.
type DegenerateInputError struct {
	Op     string
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("%s: degenerate input: %s", e.Op, e.Reason)
}

// InvalidConfigurationError reports a configuration field outside its
// valid range or an unrecognized option.
type InvalidConfigurationError struct {
	Op     string
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %s %s", e.Op, e.Field, e.Reason)
}
