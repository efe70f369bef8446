// Package objective holds the stage objectives of the lexicographic
// planner. Each objective emits one integer linear expression over a
// built model context plus the divisor that converts the solver's
// integer optimum back to reporting units.
package objective

import (
	"github.com/talgya/cropplan/internal/model"
)

// ProfitScale is the integer sub-unit used for money coefficients:
// prices are rounded to 1/ProfitScale of the currency unit.
const ProfitScale = 100

// DefaultOrder is the stage order used when the request does not
// override it.
var DefaultOrder = []string{"profit", "dispersion"}

// ByName returns the objective for a stage name.
func ByName(name string) (model.Objective, bool) {
	switch name {
	case "profit":
		return Profit{}, true
	case "labor":
		return Labor{}, true
	case "idle":
		return Idle{}, true
	case "dispersion":
		return Dispersion{}, true
	case "peak":
		return Peak{}, true
	case "diversity":
		return Diversity{}, true
	}
	return nil, false
}
