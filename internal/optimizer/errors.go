package optimizer

import (
	"errors"
	"fmt"

	"github.com/banshee-data/tilestitch/internal/model"
)

var (
	// ErrInsufficientData means a tile had fewer matches than its model needs
	// even after the fallback policy ran. It aborts the optimisation.
	ErrInsufficientData = errors.New("optimizer: insufficient data")
	// ErrIllConditioned means a fit was attempted on degenerate geometry that
	// the fallback policy did not catch. It aborts the optimisation.
	ErrIllConditioned = errors.New("optimizer: ill-conditioned data")
	// ErrInterrupted means the context was cancelled during relaxation.
	ErrInterrupted = errors.New("optimizer: interrupted")
	// ErrInvalidInput reports malformed problems: unknown tiles, bad
	// dimensions, negative weights, missing geometry.
	ErrInvalidInput = errors.New("optimizer: invalid input")
)

// classifyFitError maps model fit failures onto the optimizer taxonomy.
func classifyFitError(err error) error {
	switch {
	case errors.Is(err, model.ErrNotEnoughData):
		return fmt.Errorf("%w: %w", ErrInsufficientData, err)
	case errors.Is(err, model.ErrIllDefined):
		return fmt.Errorf("%w: %w", ErrIllConditioned, err)
	default:
		return err
	}
}

func invalidf(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, v...))
}
