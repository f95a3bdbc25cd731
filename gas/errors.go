package gas

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeQuantity is returned when a mutation would leave a species below zero moles.
	ErrNegativeQuantity = errors.New("negative mole quantity")

	// ErrInvalidVolume is returned for non-positive volumes where a positive one is required.
	ErrInvalidVolume = errors.New("invalid volume")

	// ErrSpeciesMismatch is returned when mixtures built on different registries interact.
	ErrSpeciesMismatch = errors.New("species registry mismatch")
)

// NegativeQuantityError describes a rejected mole adjustment.
// It matches ErrNegativeQuantity with errors.Is.
type NegativeQuantityError struct {
	Species Species
	Name    string
	Current float64
	Delta   float64
}

func (e *NegativeQuantityError) Error() string {
	return fmt.Sprintf("adjusting %s by %g from %g: %v", e.Name, e.Delta, e.Current, ErrNegativeQuantity)
}

// Is reports whether target is ErrNegativeQuantity.
func (e *NegativeQuantityError) Is(target error) bool {
	return target == ErrNegativeQuantity
}
