package solver

import (
	"context"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/yuga-labs/yuga-planner-api/internal/models"
	"github.com/yuga-labs/yuga-planner-api/internal/timeslot"
)

// Options tune the local search.
type Options struct {
	// MoveLimit bounds the number of local search moves; 0 runs until the
	// context is cancelled or the job is terminated.
	MoveLimit int
	// InitialTemp and CoolingRate drive simulated annealing on the soft
	// score. Hard score always dominates lexicographically.
	InitialTemp float64
	CoolingRate float64
	Seed        int64
}

// Progress summarises a finished solve.
type Progress struct {
	Moves        int64
	Improvements int64
	Best         models.Score
}

// ImprovementFunc receives a deep-copied snapshot each time the search finds
// a new lexicographic best.
type ImprovementFunc func(best *models.Schedule)

// Solver runs greedy construction followed by annealed local search. One
// Solver instance may be shared across jobs; all mutable state lives in the
// schedule and in per-call locals.
type Solver struct {
	opts   Options
	logger *zap.Logger
}

// New builds a solver with the provided options.
func New(opts Options, logger *zap.Logger) *Solver {
	if opts.InitialTemp <= 0 {
		opts.InitialTemp = 2.0
	}
	if opts.CoolingRate <= 0 || opts.CoolingRate >= 1 {
		opts.CoolingRate = 0.9995
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{opts: opts, logger: logger}
}

// Solve mutates sched in place, reporting improving snapshots through report.
// Termination is cooperative: the search checks ctx and the terminated flag
// between moves and exits cleanly, leaving sched at the best state found.
// Pinned tasks are never move candidates.
func (s *Solver) Solve(ctx context.Context, sched *models.Schedule, terminated func() bool, report ImprovementFunc) Progress {
	rng := rand.New(rand.NewSource(s.opts.Seed))

	movable := movableIndexes(sched)
	s.construct(sched, movable)

	best := ScoreSchedule(sched)
	bestState := snapshotState(sched, movable)
	if report != nil {
		report(sched.Clone())
	}

	progress := Progress{Improvements: 1, Best: best}
	if len(movable) == 0 {
		return progress
	}

	current := best
	temp := s.opts.InitialTemp

	for {
		if ctx.Err() != nil || (terminated != nil && terminated()) {
			break
		}
		if s.opts.MoveLimit > 0 && progress.Moves >= int64(s.opts.MoveLimit) {
			break
		}
		progress.Moves++

		undo := s.randomMove(sched, movable, rng)
		candidate := ScoreSchedule(sched)

		if s.accept(current, candidate, temp, rng) {
			current = candidate
			if candidate.Better(best) {
				best = candidate
				bestState = snapshotState(sched, movable)
				progress.Improvements++
				progress.Best = best
				if report != nil {
					report(sched.Clone())
				}
			}
		} else {
			undo()
		}

		temp *= s.opts.CoolingRate
	}

	restoreState(sched, movable, bestState)
	ScoreSchedule(sched)
	progress.Best = best
	return progress
}

// accept implements lexicographic acceptance: a move may never worsen the
// hard score; hard improvements are always taken; among hard-equal moves a
// soft regression passes a Metropolis test at the current temperature.
func (s *Solver) accept(current, candidate models.Score, temp float64, rng *rand.Rand) bool {
	if candidate.Hard > current.Hard {
		return true
	}
	if candidate.Hard < current.Hard {
		return false
	}
	if candidate.Soft >= current.Soft {
		return true
	}
	if temp <= 0 {
		return false
	}
	return rng.Float64() < math.Exp((candidate.Soft-current.Soft)/temp)
}

// construct greedily places every unpinned task at the first (employee,
// start slot) pair with no hard violations against already-placed tasks,
// falling back to the least-bad pair when none is clean.
func (s *Solver) construct(sched *models.Schedule, movable []int) {
	placed := make([]bool, len(sched.Tasks))
	for i := range sched.Tasks {
		if sched.Tasks[i].Pinned {
			placed[i] = true
		}
	}

	for _, ti := range movable {
		task := &sched.Tasks[ti]
		maxStart := sched.Info.TotalSlots - task.DurationSlots
		if maxStart < 0 {
			maxStart = 0
		}

		bestEmp, bestStart := task.EmployeeIdx, task.StartSlot
		bestPenalty := math.Inf(1)

	scan:
		for emp := 0; emp < len(sched.Employees); emp++ {
			for start := 0; start <= maxStart; start++ {
				task.EmployeeIdx = emp
				task.StartSlot = start
				penalty := placementPenalty(sched, ti, placed)
				if penalty < bestPenalty {
					bestPenalty = penalty
					bestEmp, bestStart = emp, start
					if penalty == 0 {
						break scan
					}
				}
			}
		}

		task.EmployeeIdx = bestEmp
		task.StartSlot = bestStart
		placed[ti] = true
	}
}

// placementPenalty totals the hard violations task ti introduces against the
// placed subset of tasks.
func placementPenalty(sched *models.Schedule, ti int, placed []bool) float64 {
	task := &sched.Tasks[ti]
	var penalty float64

	if emp := sched.EmployeeFor(task); emp != nil {
		if !emp.HasSkill(task.RequiredSkill) {
			penalty++
		}
		date := timeslot.ToTime(task.StartSlot, sched.Info.BaseDate)
		if emp.UnavailableDates.Has(date) {
			penalty++
		}
	}
	if task.StartSlot < 0 {
		penalty++
	}
	if task.EndSlot() > sched.Info.TotalSlots {
		penalty++
	}
	if timeslot.SpansLunch(task.StartSlot, task.DurationSlots) {
		penalty++
	}
	if timeslot.IsWeekendSlot(task.StartSlot) {
		penalty++
	}

	for j := range sched.Tasks {
		if j == ti || !placed[j] {
			continue
		}
		other := &sched.Tasks[j]
		if task.Assigned() && other.Assigned() && task.EmployeeIdx == other.EmployeeIdx {
			penalty += float64(slotOverlap(task, other))
		}
		if task.ProjectID != "" && task.ProjectID == other.ProjectID && task.Assigned() && other.Assigned() {
			if task.SequenceNumber < other.SequenceNumber {
				if overhang := task.EndSlot() - other.StartSlot; overhang > 0 {
					penalty += float64(overhang)
				}
			} else if task.SequenceNumber > other.SequenceNumber {
				if overhang := other.EndSlot() - task.StartSlot; overhang > 0 {
					penalty += float64(overhang)
				}
			}
		}
	}
	return penalty
}

// randomMove applies one of three move kinds to the working copy and returns
// a closure undoing it. Only unpinned tasks are candidates by construction.
func (s *Solver) randomMove(sched *models.Schedule, movable []int, rng *rand.Rand) func() {
	ti := movable[rng.Intn(len(movable))]
	task := &sched.Tasks[ti]

	switch rng.Intn(3) {
	case 0: // reassign employee
		prev := task.EmployeeIdx
		task.EmployeeIdx = rng.Intn(len(sched.Employees))
		return func() { task.EmployeeIdx = prev }
	case 1: // shift start slot
		prev := task.StartSlot
		task.StartSlot = randomStart(sched, task, rng)
		return func() { task.StartSlot = prev }
	default: // swap two tasks' (employee, start) pairs
		tj := movable[rng.Intn(len(movable))]
		if tj == ti {
			prev := task.StartSlot
			task.StartSlot = randomStart(sched, task, rng)
			return func() { task.StartSlot = prev }
		}
		other := &sched.Tasks[tj]
		prevEmp, prevStart := task.EmployeeIdx, task.StartSlot
		otherEmp, otherStart := other.EmployeeIdx, other.StartSlot
		task.EmployeeIdx, task.StartSlot = otherEmp, otherStart
		other.EmployeeIdx, other.StartSlot = prevEmp, prevStart
		return func() {
			task.EmployeeIdx, task.StartSlot = prevEmp, prevStart
			other.EmployeeIdx, other.StartSlot = otherEmp, otherStart
		}
	}
}

func randomStart(sched *models.Schedule, task *models.Task, rng *rand.Rand) int {
	maxStart := sched.Info.TotalSlots - task.DurationSlots
	if maxStart <= 0 {
		return 0
	}
	return rng.Intn(maxStart + 1)
}

// movableIndexes lists unpinned tasks in a flat arena so moves reference
// tasks by index.
func movableIndexes(sched *models.Schedule) []int {
	var out []int
	for i := range sched.Tasks {
		if !sched.Tasks[i].Pinned {
			out = append(out, i)
		}
	}
	return out
}

type taskState struct {
	employeeIdx int
	startSlot   int
}

func snapshotState(sched *models.Schedule, movable []int) []taskState {
	out := make([]taskState, len(movable))
	for i, ti := range movable {
		out[i] = taskState{sched.Tasks[ti].EmployeeIdx, sched.Tasks[ti].StartSlot}
	}
	return out
}

func restoreState(sched *models.Schedule, movable []int, state []taskState) {
	for i, ti := range movable {
		sched.Tasks[ti].EmployeeIdx = state[i].employeeIdx
		sched.Tasks[ti].StartSlot = state[i].startSlot
	}
}
