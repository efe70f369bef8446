// Package solve is a bounded-integer linear solver: variables with
// finite [lo,hi] domains, linear constraints lb ≤ Σ aᵢxᵢ ≤ ub, and a
// single linear objective. The search is a depth-first branch and
// bound with bounds-consistency propagation, incumbent pruning and a
// soft wall-clock deadline.
//
// It is deliberately not a general CP/LP framework: it solves exactly
// the model family the planning engine emits (small integer domains,
// sparse rows, one objective per solve).
package solve

import "math"

// Var is a handle into a Model's variable table.
type Var int

// Sense is the optimization direction.
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

func (s Sense) String() string {
	if s == Maximize {
		return "max"
	}
	return "min"
}

// Status is the terminal state of a solve.
type Status int

const (
	Unknown Status = iota
	Optimal
	Feasible
	Infeasible
	ModelInvalid
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Feasible:
		return "FEASIBLE"
	case Infeasible:
		return "INFEASIBLE"
	case ModelInvalid:
		return "MODEL_INVALID"
	default:
		return "UNKNOWN"
	}
}

// Ok reports whether the status carries a usable assignment.
func (s Status) Ok() bool { return s == Optimal || s == Feasible }

// Bound sentinels for one-sided rows. Kept well away from the int64
// edges so activity arithmetic cannot overflow.
const (
	NoLower int64 = math.MinInt64 / 4
	NoUpper int64 = math.MaxInt64 / 4
)

// LinExpr is a linear expression Σ coefᵢ·varᵢ + Const.
type LinExpr struct {
	Vars  []Var
	Coefs []int64
	Const int64
}

// AddTerm appends coef·v to the expression. Zero coefficients are dropped.
func (e *LinExpr) AddTerm(v Var, coef int64) {
	if coef == 0 {
		return
	}
	e.Vars = append(e.Vars, v)
	e.Coefs = append(e.Coefs, coef)
}

// Add folds another expression into this one.
func (e *LinExpr) Add(o LinExpr) {
	e.Vars = append(e.Vars, o.Vars...)
	e.Coefs = append(e.Coefs, o.Coefs...)
	e.Const += o.Const
}

// Empty reports whether the expression has no variable terms.
func (e *LinExpr) Empty() bool { return len(e.Vars) == 0 }

type row struct {
	vars  []int
	coefs []int64
	lb    int64
	ub    int64
}

// Model is one integer-programming instance. Models are single-use:
// build, solve, discard.
type Model struct {
	lo, hi  []int64
	names   []string
	rows    []row
	obj     LinExpr
	sense   Sense
	hasObj  bool
	invalid bool
}

// NewModel returns an empty model.
func NewModel() *Model { return &Model{} }

// NewVar creates an integer variable with inclusive domain [lo, hi].
func (m *Model) NewVar(lo, hi int64, name string) Var {
	if lo > hi {
		m.invalid = true
	}
	m.lo = append(m.lo, lo)
	m.hi = append(m.hi, hi)
	m.names = append(m.names, name)
	return Var(len(m.lo) - 1)
}

// NewBool creates a 0/1 variable.
func (m *Model) NewBool(name string) Var { return m.NewVar(0, 1, name) }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.lo) }

// NumRows returns the number of constraint rows.
func (m *Model) NumRows() int { return len(m.rows) }

// Name returns a variable's debug name.
func (m *Model) Name(v Var) string { return m.names[v] }

// AddRange adds lb ≤ e ≤ ub. The expression's constant is folded into
// the bounds and duplicate variable terms are coalesced.
func (m *Model) AddRange(e LinExpr, lb, ub int64) {
	if lb > NoLower {
		lb -= e.Const
	}
	if ub < NoUpper {
		ub -= e.Const
	}

	merged := make(map[Var]int64, len(e.Vars))
	for i, v := range e.Vars {
		merged[v] += e.Coefs[i]
	}
	r := row{lb: lb, ub: ub}
	for _, v := range e.Vars {
		c, ok := merged[v]
		if !ok {
			continue
		}
		delete(merged, v)
		if c == 0 {
			continue
		}
		r.vars = append(r.vars, int(v))
		r.coefs = append(r.coefs, c)
	}
	if len(r.vars) == 0 {
		// Constant row: either trivially true or the model is broken.
		if (r.lb > NoLower && r.lb > 0) || (r.ub < NoUpper && r.ub < 0) {
			m.invalid = true
		}
		return
	}
	m.rows = append(m.rows, r)
}

// AddLe adds e ≤ ub.
func (m *Model) AddLe(e LinExpr, ub int64) { m.AddRange(e, NoLower, ub) }

// AddGe adds e ≥ lb.
func (m *Model) AddGe(e LinExpr, lb int64) { m.AddRange(e, lb, NoUpper) }

// AddEq adds e = val.
func (m *Model) AddEq(e LinExpr, val int64) { m.AddRange(e, val, val) }

// FixVar pins a variable to a value.
func (m *Model) FixVar(v Var, val int64) {
	var e LinExpr
	e.AddTerm(v, 1)
	m.AddEq(e, val)
}

// SetObjective installs the objective. At most one per model; the
// last call wins.
func (m *Model) SetObjective(e LinExpr, sense Sense) {
	m.obj = e
	m.sense = sense
	m.hasObj = true
}
