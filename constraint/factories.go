package constraint

import (
	"fmt"
	"math"
	"reflect"
)

// Factory builds an ad hoc rule from its declared arguments. args is nil
// when the declaration carries none.
type Factory func(args map[string]any) (Rule, error)

var builtinFactories = map[string]Factory{
	"notBlank": func(map[string]any) (Rule, error) { return NotBlank{}, nil },
	"notNull":  func(map[string]any) (Rule, error) { return NotNull{}, nil },
	"unique":   func(map[string]any) (Rule, error) { return Unique{}, nil },
	"length": func(args map[string]any) (Rule, error) {
		lo, hi, err := bounds(args)
		if err != nil {
			return nil, err
		}
		return Length{Min: lo, Max: hi}, nil
	},
	"count": func(args map[string]any) (Rule, error) {
		lo, hi, err := bounds(args)
		if err != nil {
			return nil, err
		}
		return Count{Min: lo, Max: hi}, nil
	},
	"pattern": func(args map[string]any) (Rule, error) {
		expr, ok := args["pattern"].(string)
		if !ok {
			return nil, fmt.Errorf("constraint: pattern requires a string %q argument", "pattern")
		}
		p, err := NewPattern(expr)
		if err != nil {
			return nil, err
		}
		return p, nil
	},
	"format": func(args map[string]any) (Rule, error) {
		name, ok := args["format"].(string)
		if !ok || !SupportsFormat(name) {
			return nil, fmt.Errorf("constraint: unsupported format %v", args["format"])
		}
		return Format{Name: name}, nil
	},
	"choice": func(args map[string]any) (Rule, error) {
		choices, ok := args["choices"].([]any)
		if !ok || len(choices) == 0 {
			return nil, fmt.Errorf("constraint: choice requires a non-empty %q list", "choices")
		}
		return Choice{Choices: choices}, nil
	},
	"range": func(args map[string]any) (Rule, error) {
		lo, okLo := floatArg(args, "min")
		hi, okHi := floatArg(args, "max")
		if !okLo && !okHi {
			return nil, fmt.Errorf("constraint: range requires %q or %q", "min", "max")
		}
		return RuleFunc{Name: "range", Fn: func(value any) []Violation {
			if okLo {
				if v := (Compare{Op: KindGreaterOrEq, Limit: lo}).Check(value); v != nil {
					return v
				}
			}
			if okHi {
				return Compare{Op: KindLessOrEq, Limit: hi}.Check(value)
			}
			return nil
		}}, nil
	},
}

func bounds(args map[string]any) (lo, hi *int, err error) {
	if f, ok := floatArg(args, "min"); ok {
		n := int(f)
		lo = &n
	}
	if f, ok := floatArg(args, "max"); ok {
		n := int(f)
		hi = &n
	}
	if lo == nil && hi == nil {
		return nil, nil, fmt.Errorf("constraint: requires %q or %q", "min", "max")
	}
	return lo, hi, nil
}

func floatArg(args map[string]any, key string) (float64, bool) {
	raw, ok := args[key]
	if !ok {
		return 0, false
	}
	f, ok := numeric(reflect.ValueOf(raw))
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
