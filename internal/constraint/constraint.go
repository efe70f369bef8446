// Package constraint holds the model constraints, one unit per file.
// Every unit implements model.Constraint; DefaultSet returns them in
// build order (land capacity and linking first, then events and
// occupancy, then the labor/resource machinery, then bounds).
package constraint

import "github.com/talgya/cropplan/internal/model"

// Base provides the shared disable switch. A disabled unit applies as
// a no-op, which is how diagnostics probes isolate infeasibility.
type Base struct {
	Disabled bool
}

// DefaultSet returns every constraint unit in build order.
func DefaultSet() []model.Constraint {
	return []model.Constraint{
		&LandCapacity{},
		&LinkAreaUse{},
		&Events{},
		&Occupancy{},
		&HoldArea{},
		&Labor{},
		&Roles{},
		&Resources{},
		&FixedAreas{},
		&AreaBounds{},
	}
}

// Without returns a copy of set with the named unit removed. Unknown
// names leave the set unchanged.
func Without(set []model.Constraint, name string) []model.Constraint {
	out := make([]model.Constraint, 0, len(set))
	for _, c := range set {
		if c.Name() == name {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Names returns the unit names of the set, in order.
func Names(set []model.Constraint) []string {
	out := make([]string, len(set))
	for i, c := range set {
		out[i] = c.Name()
	}
	return out
}
