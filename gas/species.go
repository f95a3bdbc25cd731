// Package gas models breathable gas as per-species mole quantities.
//
// A Mixture is a bounded parcel of gas (an environment region, a lung cavity,
// or the dissolved-gas capacity of a bloodstream). Species are small integer
// keys into a Registry so nothing in this package knows which gas is which.
package gas

import (
	"fmt"
	"strings"
)

// MaxSpecies is the largest number of species a Registry can hold.
// Species sets are tracked as uint64 bitmasks elsewhere.
const MaxSpecies = 64

// Species identifies a kind of gas within a Registry.
type Species uint8

// Registry maps species names to stable indices.
// It is built once at startup and is read-only afterwards.
type Registry struct {
	names []string
	index map[string]Species
}

// NewRegistry creates a registry from an ordered list of species names.
// Names are case-insensitive and must be unique.
func NewRegistry(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("registry needs at least one species")
	}
	if len(names) > MaxSpecies {
		return nil, fmt.Errorf("registry supports at most %d species, got %d", MaxSpecies, len(names))
	}

	r := &Registry{
		names: make([]string, 0, len(names)),
		index: make(map[string]Species, len(names)),
	}
	for _, name := range names {
		key := normalizeName(name)
		if key == "" {
			return nil, fmt.Errorf("empty species name")
		}
		if _, dup := r.index[key]; dup {
			return nil, fmt.Errorf("duplicate species %q", name)
		}
		r.index[key] = Species(len(r.names))
		r.names = append(r.names, key)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(names ...string) *Registry {
	r, err := NewRegistry(names...)
	if err != nil {
		panic(fmt.Sprintf("gas: %v", err))
	}
	return r
}

// Lookup returns the species registered under name.
func (r *Registry) Lookup(name string) (Species, bool) {
	s, ok := r.index[normalizeName(name)]
	return s, ok
}

// Name returns the display name of a species.
func (r *Registry) Name(s Species) string {
	if int(s) < len(r.names) {
		return r.names[s]
	}
	return fmt.Sprintf("species(%d)", s)
}

// Len returns the number of registered species.
func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns species names in index order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Equal reports whether o lists the same species in the same order.
func (r *Registry) Equal(o *Registry) bool {
	if r == o {
		return true
	}
	if r == nil || o == nil || len(r.names) != len(o.names) {
		return false
	}
	for i, n := range r.names {
		if o.names[i] != n {
			return false
		}
	}
	return true
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
