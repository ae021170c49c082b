package ability

import (
	"errors"
	"fmt"
)

// Registry indexes top-level ability definitions by id.
type Registry map[string]*Definition

// NewRegistry validates defs and indexes them. Every top-level definition
// needs an id.
func NewRegistry(defs []Definition) (Registry, error) {
	r := make(Registry, len(defs))
	var errs []error
	for i := range defs {
		d := defs[i]
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("abilities[%d]: id is required", i))
			continue
		}
		if _, dup := r[d.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate ability id %s", d.ID))
			continue
		}
		if err := Validate(d); err != nil {
			errs = append(errs, err)
			continue
		}
		r[d.ID] = &d
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// Ability returns the definition for id, if any.
func (r Registry) Ability(id string) (*Definition, bool) {
	if id == "" {
		return nil, false
	}
	d, ok := r[id]
	return d, ok
}
