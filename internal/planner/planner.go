// Package planner runs the multi-stage lexicographic optimization:
// build a model per stage, optimize one objective, lock its value
// within tolerance, and carry the locks into the next stage. The final
// stage's solution is extracted into the wire-level result.
package planner

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/talgya/cropplan/internal/constraint"
	"github.com/talgya/cropplan/internal/model"
	"github.com/talgya/cropplan/internal/objective"
	"github.com/talgya/cropplan/internal/plan"
	"github.com/talgya/cropplan/internal/solve"
)

// ErrCanceled aborts a run from the progress callback.
var ErrCanceled = errors.New("optimization canceled")

// Progress reports fractional completion with a phase label. A non-nil
// return aborts the run; cooperative cancellation flows through here.
type Progress func(fraction float64, phase string) error

// DefaultTolerance locks a stage's objective exactly when the request
// does not override it: later stages may only refine, never give back.
const DefaultTolerance = 0.0

// Config tunes one run.
type Config struct {
	Deadline time.Time // soft wall-clock cutoff, zero = unbounded
	Workers  int
	Progress Progress
}

// stageLock remembers a completed stage's objective for re-imposition
// in later stages.
type stageLock struct {
	obj   model.Objective
	sense solve.Sense
	value int64
	tol   float64
}

// Run executes the lexicographic stages over a normalized plan and
// returns the wire-level result. Infeasibility and deadline overruns
// are in-band statuses; only internal failures surface as errors.
func Run(p *plan.Plan, cfg Config) (*plan.OptimizationResult, error) {
	stages, tols, err := resolveStages(p)
	if err != nil {
		return nil, err
	}
	report := cfg.Progress
	if report == nil {
		report = func(float64, string) error { return nil }
	}

	cons := constraint.DefaultSet()
	var (
		locks    []stageLock
		lastVals *model.Values
		lastCtx  *model.Context
		warnings []string
		stats    = map[string]any{"stages": []map[string]any{}}
		objVal   *float64
	)

	for k, obj := range stages {
		if err := report(0.9*float64(k)/float64(len(stages)), "stage:"+obj.Name()); err != nil {
			return nil, err
		}

		ctx, res, err := runStage(p, cons, obj, locks, lastVals, cfg)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", obj.Name(), err)
		}
		appendStageStats(stats, obj.Name(), res)

		switch {
		case res.Status.Ok():
			lastVals = ctx.Extract(res.Values)
			lastCtx = ctx
			if k == 0 {
				// The reported objective is the primary stage's optimum;
				// later stages only refine within its tolerance lock.
				v := float64(res.Objective) / obj.Scale()
				objVal = &v
			}
			locks = append(locks, stageLock{
				obj:   obj,
				sense: senseOf(obj),
				value: res.Objective,
				tol:   tols[obj.Name()],
			})

		case res.Status == solve.Infeasible && k == 0:
			return infeasibleResult(p, cons, cfg, stats), nil

		case res.Status == solve.Infeasible:
			warnings = append(warnings,
				fmt.Sprintf("stage %q infeasible under earlier locks; kept the %q solution", obj.Name(), stages[k-1].Name()))
			return finishRun(p, lastCtx, lastVals, objVal, warnings, stats, report)

		case res.Status == solve.Unknown && k == 0:
			return &plan.OptimizationResult{
				Status:   plan.ResultTimeout,
				Solution: map[string]any{},
				Stats:    stats,
				Warnings: []string{"deadline reached before a first feasible solution"},
			}, nil

		case res.Status == solve.Unknown:
			warnings = append(warnings,
				fmt.Sprintf("stage %q hit the deadline; kept the %q solution", obj.Name(), stages[k-1].Name()))
			return finishRun(p, lastCtx, lastVals, objVal, warnings, stats, report)

		default:
			return nil, fmt.Errorf("stage %s: solver reported %s", obj.Name(), res.Status)
		}
	}

	return finishRun(p, lastCtx, lastVals, objVal, warnings, stats, report)
}

// runStage builds a fresh model for one objective, re-imposes earlier
// locks, warm-starts from the previous solution and solves.
func runStage(p *plan.Plan, cons []model.Constraint, obj model.Objective,
	locks []stageLock, prev *model.Values, cfg Config) (*model.Context, solve.Result, error) {

	ctx, err := model.Build(p, cons)
	if err != nil {
		return nil, solve.Result{}, err
	}

	expr, sense, err := obj.Build(ctx)
	if err != nil {
		return nil, solve.Result{}, err
	}
	ctx.Model.SetObjective(expr, sense)

	for _, l := range locks {
		le, ls, err := l.obj.Build(ctx)
		if err != nil {
			return nil, solve.Result{}, err
		}
		slack := toleranceSlack(l.value, l.tol)
		if ls == solve.Maximize {
			ctx.Model.AddGe(le, l.value-slack)
		} else {
			ctx.Model.AddLe(le, l.value+slack)
		}
	}

	res := ctx.Model.Solve(solve.Options{
		Deadline: cfg.Deadline,
		Hints:    ctx.HintsFrom(prev),
		Workers:  cfg.Workers,
	})
	return ctx, res, nil
}

// toleranceSlack is the absolute slack allowed around a locked value.
func toleranceSlack(value int64, tol float64) int64 {
	if tol <= 0 {
		return 0
	}
	return int64(math.Ceil(math.Abs(float64(value)) * tol))
}

func senseOf(obj model.Objective) solve.Sense {
	// Sense is fixed per objective; building against a throwaway
	// context is cheap enough for the lock bookkeeping.
	ctx := model.NewContext(&plan.Plan{Horizon: plan.Horizon{NumDays: 1}})
	_, sense, _ := obj.Build(ctx)
	return sense
}

// resolveStages maps the request's stage configuration to objective
// implementations, falling back to the default order.
func resolveStages(p *plan.Plan) ([]model.Objective, map[string]float64, error) {
	order := objective.DefaultOrder
	tols := make(map[string]float64)
	if p.Stages != nil {
		if len(p.Stages.Order) > 0 {
			order = p.Stages.Order
		}
		for name, tol := range p.Stages.Tolerance {
			tols[name] = tol
		}
	}
	objs := make([]model.Objective, 0, len(order))
	for _, name := range order {
		obj, ok := objective.ByName(name)
		if !ok {
			return nil, nil, fmt.Errorf("unknown stage %q", name)
		}
		objs = append(objs, obj)
		if _, ok := tols[name]; !ok {
			tols[name] = DefaultTolerance
		}
	}
	return objs, tols, nil
}

// finishRun extracts the kept solution into the wire result.
func finishRun(p *plan.Plan, ctx *model.Context, vals *model.Values, objVal *float64,
	warnings []string, stats map[string]any, report Progress) (*plan.OptimizationResult, error) {

	if vals == nil {
		return nil, errors.New("no solution to extract")
	}
	if err := report(0.95, "post:timeline_build"); err != nil {
		return nil, err
	}
	sol := extractSolution(p, ctx, vals)
	tl := buildTimeline(p, ctx, vals)
	if err := report(1.0, "done"); err != nil {
		return nil, err
	}
	if warnings == nil {
		warnings = []string{}
	}
	return &plan.OptimizationResult{
		Status:         plan.ResultOK,
		ObjectiveValue: objVal,
		Solution:       sol,
		Stats:          stats,
		Warnings:       warnings,
		Timeline:       tl,
	}, nil
}

// infeasibleResult probes which constraint units break feasibility and
// reports them as hints alongside the in-band infeasible status.
func infeasibleResult(p *plan.Plan, cons []model.Constraint, cfg Config, stats map[string]any) *plan.OptimizationResult {
	hints := probeConstraints(p, cons, cfg)
	stats["constraint_hints"] = hints
	return &plan.OptimizationResult{
		Status:   plan.ResultInfeasible,
		Solution: map[string]any{},
		Stats:    stats,
		Warnings: []string{"no feasible assignment satisfies the plan"},
	}
}

// probeConstraints diagnoses an infeasible plan. Structural defects are
// named directly; beyond those it re-solves feasibility with one unit
// removed at a time — units whose removal restores feasibility are the
// likely culprits. Probes reuse the caller's deadline.
func probeConstraints(p *plan.Plan, cons []model.Constraint, cfg Config) []string {
	hints := missingRoleHints(p)
	for _, name := range constraint.Names(cons) {
		if !cfg.Deadline.IsZero() && time.Now().After(cfg.Deadline) {
			break
		}
		ctx, err := model.Build(p, constraint.Without(cons, name))
		if err != nil {
			continue
		}
		res := ctx.Model.Solve(solve.Options{Deadline: cfg.Deadline})
		if res.Status.Ok() {
			hints = append(hints, name)
		}
	}
	return hints
}

// missingRoleHints names required roles carried by no worker; such
// events can never fire, which dooms any plan that forces them.
func missingRoleHints(p *plan.Plan) []string {
	var hints []string
	for ei := range p.Events {
		ev := &p.Events[ei]
		for _, role := range ev.RequiredRoles {
			carried := false
			for wi := range p.Workers {
				if p.Workers[wi].HasRole(role) {
					carried = true
					break
				}
			}
			if !carried {
				hints = append(hints, fmt.Sprintf("event %q requires role %q carried by no worker", ev.ID, role))
			}
		}
	}
	return hints
}

func appendStageStats(stats map[string]any, name string, res solve.Result) {
	list := stats["stages"].([]map[string]any)
	stats["stages"] = append(list, map[string]any{
		"name":        name,
		"status":      res.Status.String(),
		"objective":   res.Objective,
		"nodes":       res.Stats.Nodes,
		"vars":        res.Stats.Vars,
		"rows":        res.Stats.Rows,
		"duration_ms": res.Stats.Duration.Milliseconds(),
	})
}
