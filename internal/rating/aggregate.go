// Package rating maintains the single running rating stored on each user.
package rating

import (
	"fmt"
	"math"

	"github.com/workbridge/workbridge/internal/shared"
)

// Bounds of a submitted rating.
const (
	Min = 0.0
	Max = 5.0
)

// Aggregate folds a new rating into the stored one. An unrated user (current
// zero) takes the new value; otherwise the two are averaged. The result is
// not rounded.
func Aggregate(newRating, current float64) (float64, error) {
	if !finite(newRating) || !finite(current) {
		return 0, fmt.Errorf("%w: rating must be a finite number", shared.ErrInvalidInput)
	}
	if current == 0 {
		return newRating, nil
	}
	return (newRating + current) / 2, nil
}

// Validate checks a submitted rating against [Min, Max].
func Validate(v float64) error {
	if !finite(v) || v < Min || v > Max {
		return fmt.Errorf("%w: rating must be between %g and %g", shared.ErrInvalidInput, Min, Max)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
