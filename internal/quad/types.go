package quad

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Boundary is one axis of an integration domain.
type Boundary struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper"`
}

// Width returns Upper - Lower.
func (b Boundary) Width() float64 {
	return b.Upper - b.Lower
}

// Func is a scalar integrand. A non-nil error aborts the integration and is
// returned to the caller unchanged.
type Func func(x float64) (float64, error)

// Pure adapts an infallible function to a Func.
func Pure(f func(float64) float64) Func {
	return func(x float64) (float64, error) {
		return f(x), nil
	}
}

// Rule selects the Gauss-Legendre pair used by the adaptive engine. Rule n
// applies an n-point rule and estimates its error against an n/2-point rule.
type Rule int

const (
	Rule15 Rule = iota + 1
	Rule21
	Rule31
	Rule41
	Rule51
	Rule61
)

var rulePoints = [...]int{0, 15, 21, 31, 41, 51, 61}

// Points returns the number of nodes of the higher-order rule.
func (r Rule) Points() int {
	if !r.Valid() {
		return 0
	}
	return rulePoints[r]
}

func (r Rule) Valid() bool {
	return r >= Rule15 && r <= Rule61
}

func (r Rule) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Rule(%d)", int(r))
	}
	return fmt.Sprintf("gl%d", r.Points())
}

func (r Rule) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: unknown rule %d", ErrInvalidParams, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText accepts the point count of the higher-order rule, with or
// without a "gl" prefix.
func (r *Rule) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(string(text))), "gl")
	n, err := strconv.Atoi(s)
	if err == nil {
		for i, points := range rulePoints {
			if i > 0 && points == n {
				*r = Rule(i)
				return nil
			}
		}
	}
	return fmt.Errorf("%w: unknown rule %q", ErrInvalidParams, text)
}

// Params configures a single engine.
type Params struct {
	AbsTol  float64 `yaml:"abs_tol" json:"abs_tol"`
	RelTol  float64 `yaml:"rel_tol" json:"rel_tol"`
	MaxEval int     `yaml:"max_eval" json:"max_eval"`
	Limit   int     `yaml:"limit" json:"limit"`
	Rule    Rule    `yaml:"rule" json:"rule"`
}

func DefaultParams() Params {
	return Params{
		AbsTol:  1e-8,
		RelTol:  1e-3,
		MaxEval: 1000,
		Limit:   100,
		Rule:    Rule41,
	}
}

// Validate reports whether p can be applied to an engine without changing it.
func (p Params) Validate() error {
	switch {
	case math.IsNaN(p.AbsTol) || math.IsNaN(p.RelTol):
		return fmt.Errorf("%w: NaN tolerance", ErrInvalidParams)
	case p.AbsTol < 0 || p.RelTol < 0:
		return fmt.Errorf("%w: negative tolerance (abs=%g, rel=%g)", ErrInvalidParams, p.AbsTol, p.RelTol)
	case p.AbsTol == 0 && p.RelTol == 0:
		return fmt.Errorf("%w: absolute and relative tolerance are both zero", ErrInvalidParams)
	case p.MaxEval < 1:
		return fmt.Errorf("%w: max_eval must be positive, got %d", ErrInvalidParams, p.MaxEval)
	case p.Limit < 1:
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidParams, p.Limit)
	case !p.Rule.Valid():
		return fmt.Errorf("%w: unknown rule %d", ErrInvalidParams, int(p.Rule))
	}
	return nil
}

func (p Params) tolerance(value float64) float64 {
	return math.Max(p.AbsTol, p.RelTol*math.Abs(value))
}

// Result describes the most recent call to Integrate.
type Result struct {
	Value     float64
	AbsErr    float64
	Evals     int
	Intervals int
}

// Engine integrates scalar functions over one interval.
type Engine interface {
	SetParams(p Params) error
	Params() Params
	Integrate(f Func, b Boundary) (float64, error)
	Last() Result
}

// orient validates b and returns it in ascending order together with the
// sign to apply to the result.
func orient(b Boundary) (lower, upper, sign float64, err error) {
	if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || math.IsInf(b.Lower, 0) || math.IsInf(b.Upper, 0) {
		return 0, 0, 0, fmt.Errorf("%w: [%g, %g]", ErrInvalidInterval, b.Lower, b.Upper)
	}
	if b.Lower > b.Upper {
		return b.Upper, b.Lower, -1, nil
	}
	return b.Lower, b.Upper, 1, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
