package solve

import "time"

// Options tunes one solve.
type Options struct {
	// Deadline is a soft wall-clock cutoff; zero means unbounded.
	// Checked sparsely (every few thousand node events) so the
	// overhead stays negligible.
	Deadline time.Time

	// Hints seed the value ordering: hinted values are branched first,
	// which warm-starts solves that resemble a previous solution.
	Hints map[Var]int64

	// Workers is recorded in Stats for parity with the service knob;
	// the search itself is single-threaded.
	Workers int
}

// Stats summarizes one solve.
type Stats struct {
	Nodes        int64
	Propagations int64
	Duration     time.Duration
	Vars         int
	Rows         int
	Workers      int
}

// Result is the outcome of Model.Solve.
type Result struct {
	Status    Status
	Objective int64
	Values    []int64
	Stats     Stats
}

// enumerationCap bounds value enumeration at a node; wider domains are
// split in halves instead.
const enumerationCap = 16

type engine struct {
	m  *Model
	lo []int64
	hi []int64

	hints    []int64
	hasHint  []bool
	prefHigh []bool

	useDeadline bool
	deadline    time.Time
	steps       int
	timedOut    bool

	found   bool
	best    []int64
	bestObj int64

	nodes int64
	props int64
}

// Solve runs the branch and bound and returns the best assignment
// found, with Optimal when the search space was exhausted.
func (m *Model) Solve(opts Options) Result {
	start := time.Now()
	res := Result{Stats: Stats{Vars: m.NumVars(), Rows: m.NumRows(), Workers: opts.Workers}}

	if m.invalid {
		res.Status = ModelInvalid
		res.Stats.Duration = time.Since(start)
		return res
	}

	e := &engine{
		m:  m,
		lo: append([]int64(nil), m.lo...),
		hi: append([]int64(nil), m.hi...),
	}
	if !opts.Deadline.IsZero() {
		e.useDeadline = true
		e.deadline = opts.Deadline
	}

	n := m.NumVars()
	e.hints = make([]int64, n)
	e.hasHint = make([]bool, n)
	for v, val := range opts.Hints {
		if int(v) < n {
			e.hints[v] = val
			e.hasHint[v] = true
		}
	}
	e.prefHigh = make([]bool, n)
	if m.hasObj {
		for i, v := range m.obj.Vars {
			up := m.obj.Coefs[i] > 0
			if m.sense == Minimize {
				up = !up
			}
			e.prefHigh[v] = up
		}
	}

	e.search()

	res.Stats.Nodes = e.nodes
	res.Stats.Propagations = e.props
	res.Stats.Duration = time.Since(start)

	switch {
	case e.found && !e.timedOut:
		res.Status = Optimal
	case e.found:
		res.Status = Feasible
	case e.timedOut:
		res.Status = Unknown
	default:
		res.Status = Infeasible
	}
	if e.found {
		res.Values = e.best
		res.Objective = e.objValue(e.best)
	}
	return res
}

func (e *engine) objValue(vals []int64) int64 {
	if !e.m.hasObj {
		return 0
	}
	total := e.m.obj.Const
	for i, v := range e.m.obj.Vars {
		total += e.m.obj.Coefs[i] * vals[v]
	}
	return total
}

// deadlineCheck performs a rare deadline test (every 2048 node events).
func (e *engine) deadlineCheck() bool {
	e.steps++
	if !e.useDeadline || (e.steps&2047) != 0 {
		return e.timedOut
	}
	if time.Now().After(e.deadline) {
		e.timedOut = true
	}
	return e.timedOut
}

// propagate runs bounds-consistency to a fixpoint over all rows.
// Returns false on a domain wipeout or violated row.
func (e *engine) propagate() bool {
	for changed := true; changed; {
		changed = false
		e.props++
		for ri := range e.m.rows {
			r := &e.m.rows[ri]

			var minAct, maxAct int64
			for i, vi := range r.vars {
				c := r.coefs[i]
				if c > 0 {
					minAct += c * e.lo[vi]
					maxAct += c * e.hi[vi]
				} else {
					minAct += c * e.hi[vi]
					maxAct += c * e.lo[vi]
				}
			}
			if (r.ub < NoUpper && minAct > r.ub) || (r.lb > NoLower && maxAct < r.lb) {
				return false
			}

			for i, vi := range r.vars {
				c := r.coefs[i]
				var ctrMin, ctrMax int64
				if c > 0 {
					ctrMin = c * e.lo[vi]
					ctrMax = c * e.hi[vi]
				} else {
					ctrMin = c * e.hi[vi]
					ctrMax = c * e.lo[vi]
				}
				restMin := minAct - ctrMin
				restMax := maxAct - ctrMax

				if r.ub < NoUpper {
					// c*x ≤ ub − restMin
					lim := r.ub - restMin
					if c > 0 {
						if nb := floorDiv(lim, c); nb < e.hi[vi] {
							e.hi[vi] = nb
							changed = true
						}
					} else {
						if nb := ceilDiv(lim, c); nb > e.lo[vi] {
							e.lo[vi] = nb
							changed = true
						}
					}
				}
				if r.lb > NoLower {
					// c*x ≥ lb − restMax
					lim := r.lb - restMax
					if c > 0 {
						if nb := ceilDiv(lim, c); nb > e.lo[vi] {
							e.lo[vi] = nb
							changed = true
						}
					} else {
						if nb := floorDiv(lim, c); nb < e.hi[vi] {
							e.hi[vi] = nb
							changed = true
						}
					}
				}
				if e.lo[vi] > e.hi[vi] {
					return false
				}
			}
		}
	}
	return true
}

// objBounds returns the objective's attainable [min,max] under the
// current domains.
func (e *engine) objBounds() (int64, int64) {
	minV, maxV := e.m.obj.Const, e.m.obj.Const
	for i, v := range e.m.obj.Vars {
		c := e.m.obj.Coefs[i]
		if c > 0 {
			minV += c * e.lo[v]
			maxV += c * e.hi[v]
		} else {
			minV += c * e.hi[v]
			maxV += c * e.lo[v]
		}
	}
	return minV, maxV
}

// prunable reports whether the current subtree cannot beat the
// incumbent.
func (e *engine) prunable() bool {
	if !e.found || !e.m.hasObj {
		return false
	}
	minV, maxV := e.objBounds()
	if e.m.sense == Maximize {
		return maxV <= e.bestObj
	}
	return minV >= e.bestObj
}

// pickVar selects the unfixed variable with the smallest domain,
// lowest index on ties; -1 when all variables are fixed.
func (e *engine) pickVar() int {
	best := -1
	var bestSpan int64
	for v := range e.lo {
		span := e.hi[v] - e.lo[v]
		if span == 0 {
			continue
		}
		if best == -1 || span < bestSpan {
			best, bestSpan = v, span
		}
	}
	return best
}

func (e *engine) search() {
	e.nodes++
	if e.deadlineCheck() {
		return
	}
	if !e.propagate() {
		return
	}
	if e.prunable() {
		return
	}

	v := e.pickVar()
	if v == -1 {
		e.record()
		return
	}

	lo, hi := e.lo[v], e.hi[v]
	if hi-lo+1 > enumerationCap {
		e.branchSplit(v, lo, hi)
		return
	}
	e.branchEnum(v, lo, hi)
}

// record stores the fully fixed assignment as the new incumbent when
// it improves on the previous one.
func (e *engine) record() {
	val := e.objValue(e.lo)
	if e.found {
		if e.m.sense == Maximize && val <= e.bestObj {
			return
		}
		if e.m.sense == Minimize && val >= e.bestObj {
			return
		}
	}
	e.found = true
	e.bestObj = val
	e.best = append([]int64(nil), e.lo...)
}

// branchEnum tries each value of a small domain, hinted value first,
// then from the objective-preferred end.
func (e *engine) branchEnum(v int, lo, hi int64) {
	var order []int64
	if e.hasHint[v] && e.hints[v] >= lo && e.hints[v] <= hi {
		order = append(order, e.hints[v])
	}
	if e.prefHigh[v] {
		for val := hi; val >= lo; val-- {
			if len(order) > 0 && val == order[0] {
				continue
			}
			order = append(order, val)
		}
	} else {
		for val := lo; val <= hi; val++ {
			if len(order) > 0 && val == order[0] {
				continue
			}
			order = append(order, val)
		}
	}

	for _, val := range order {
		if e.timedOut {
			return
		}
		saveLo := append([]int64(nil), e.lo...)
		saveHi := append([]int64(nil), e.hi...)
		e.lo[v], e.hi[v] = val, val
		e.search()
		e.lo, e.hi = saveLo, saveHi
	}
}

// branchSplit halves a wide domain, exploring the hinted or preferred
// half first.
func (e *engine) branchSplit(v int, lo, hi int64) {
	mid := lo + (hi-lo)/2
	lowFirst := !e.prefHigh[v]
	if e.hasHint[v] && e.hints[v] >= lo && e.hints[v] <= hi {
		lowFirst = e.hints[v] <= mid
	}

	halves := [2][2]int64{{lo, mid}, {mid + 1, hi}}
	if !lowFirst {
		halves[0], halves[1] = halves[1], halves[0]
	}
	for _, h := range halves {
		if e.timedOut {
			return
		}
		saveLo := append([]int64(nil), e.lo...)
		saveHi := append([]int64(nil), e.hi...)
		e.lo[v], e.hi[v] = h[0], h[1]
		e.search()
		e.lo, e.hi = saveLo, saveHi
	}
}

// floorDiv is integer division rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ceilDiv is integer division rounding toward positive infinity.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}
