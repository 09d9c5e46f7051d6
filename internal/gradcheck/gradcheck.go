// Package gradcheck verifies tape gradients against finite differences.
//
// The analytic gradient comes from a single backward pass; the numeric one
// from gonum's central-difference estimator evaluated on the same tape, which
// is cleared before every evaluation so the check also exercises tape reuse.
package gradcheck

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/born-ml/tapegrad/internal/autodiff"
)

// ErrMismatch is wrapped by every MismatchError.
var ErrMismatch = errors.New("gradcheck: analytic and numeric gradients differ")

// ErrInvalidOutput is returned when f does not produce a live Value.
var ErrInvalidOutput = errors.New("gradcheck: expression produced no value")

// MismatchError reports the first coordinate whose gradients disagree.
type MismatchError struct {
	Index    int
	Analytic float64
	Numeric  float64
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("gradcheck: d/dx[%d]: analytic %g, numeric %g", e.Index, e.Analytic, e.Numeric)
}

// Unwrap returns ErrMismatch.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Func builds a scalar expression of xs on t and returns its output.
type Func func(t *autodiff.Tape, xs []autodiff.Value) autodiff.Value

// Config controls the finite-difference step and the comparison tolerances.
type Config struct {
	Step   float64 // Finite-difference step.
	AbsTol float64 // Absolute tolerance.
	RelTol float64 // Relative tolerance.
}

// DefaultConfig returns settings suited to float32 tapes.
func DefaultConfig() Config {
	return Config{
		Step:   1e-2,
		AbsTol: 1e-3,
		RelTol: 1e-2,
	}
}

// Result holds both gradients.
type Result struct {
	Analytic []float64
	Numeric  []float64
	MaxDiff  float64 // Largest absolute difference over all coordinates.
}

// Check compares the gradient of f at x computed by the tape with a central
// finite-difference estimate. It returns the result together with a
// *MismatchError if any coordinate disagrees.
func Check(f Func, x []float64, cfg Config) (*Result, error) {
	tape := autodiff.NewTape()
	defer tape.Destroy()

	analytic, err := Analytic(tape, f, x)
	if err != nil {
		return nil, err
	}

	var evalErr error
	eval := func(at []float64) float64 {
		tape.Clear()
		out := f(tape, leaves(tape, at, false))
		if !out.IsValid() && evalErr == nil {
			evalErr = outputError(tape)
		}
		return float64(out.Data())
	}

	numeric := fd.Gradient(nil, eval, x, &fd.Settings{
		Formula: fd.Central,
		Step:    cfg.Step,
	})
	if evalErr != nil {
		return nil, evalErr
	}

	res := &Result{Analytic: analytic, Numeric: numeric}
	var mismatch *MismatchError
	for i := range analytic {
		res.MaxDiff = math.Max(res.MaxDiff, math.Abs(analytic[i]-numeric[i]))
		if mismatch == nil && !scalar.EqualWithinAbsOrRel(analytic[i], numeric[i], cfg.AbsTol, cfg.RelTol) {
			mismatch = &MismatchError{Index: i, Analytic: analytic[i], Numeric: numeric[i]}
		}
	}
	if mismatch != nil {
		return res, mismatch
	}
	return res, nil
}

// Analytic clears t, builds f at x with every input requiring gradients and
// returns d(output)/dx from one backward pass.
func Analytic(t *autodiff.Tape, f Func, x []float64) ([]float64, error) {
	t.Clear()
	xs := leaves(t, x, true)
	out := f(t, xs)
	if !out.IsValid() {
		return nil, outputError(t)
	}
	out.Backward()

	grad := make([]float64, len(xs))
	for i, v := range xs {
		grad[i] = float64(v.Grad())
	}
	return grad, nil
}

func leaves(t *autodiff.Tape, x []float64, requiresGrad bool) []autodiff.Value {
	xs := make([]autodiff.Value, len(x))
	for i, v := range x {
		xs[i] = t.NewValue(float32(v), fmt.Sprintf("x%d", i), requiresGrad)
	}
	return xs
}

func outputError(t *autodiff.Tape) error {
	if err := t.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	return ErrInvalidOutput
}
