package validate

import (
	"go.uber.org/multierr"

	"github.com/erraggy/dtoapi/constraint"
)

// Violations are the failed checks of one Validate call, in property
// declaration order.
type Violations []constraint.Violation

// Err combines the violations into one error, or returns nil when there
// are none. Individual violations are recoverable with multierr.Errors.
func (vs Violations) Err() error {
	var err error
	for _, v := range vs {
		err = multierr.Append(err, v)
	}
	return err
}

// At returns the violations reported at path.
func (vs Violations) At(path string) Violations {
	var out Violations
	for _, v := range vs {
		if v.Path == path {
			out = append(out, v)
		}
	}
	return out
}

// Paths returns the path of every violation, in order.
func (vs Violations) Paths() []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Path
	}
	return out
}
