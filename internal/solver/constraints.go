// Package solver contains the constraint scorer, the optimization engine and
// the infeasibility analyzer for employee task schedules.
package solver

import (
	"math"

	"github.com/yuga-labs/yuga-planner-api/internal/models"
	"github.com/yuga-labs/yuga-planner-api/internal/timeslot"
)

// ScoreSchedule computes the (hard, soft) score of the schedule's current
// state with a full recompute. Hard penalties push Hard below zero; soft
// penalties and rewards accumulate in Soft. The result is also written back
// to sched.Score.
func ScoreSchedule(sched *models.Schedule) models.Score {
	hard := requiredSkillPenalty(sched) +
		overlappingTasksPenalty(sched) +
		taskWithinSchedulePenalty(sched) +
		taskFitsInSchedulePenalty(sched) +
		unavailableEmployeePenalty(sched) +
		lunchBreakPenalty(sched) +
		weekendPenalty(sched) +
		sequenceOrderPenalty(sched)

	soft := desiredDayReward(sched) -
		undesiredDayPenalty(sched) -
		workloadUnfairness(sched)

	score := models.Score{Hard: -hard, Soft: soft}
	sched.Score = &score
	return score
}

// slotOverlap is the number of slots two tasks occupy in common.
func slotOverlap(a, b *models.Task) int {
	start := a.StartSlot
	if b.StartSlot > start {
		start = b.StartSlot
	}
	end := a.EndSlot()
	if b.EndSlot() < end {
		end = b.EndSlot()
	}
	if end < start {
		return 0
	}
	return end - start
}

// requiredSkillPenalty penalizes assigned tasks whose employee lacks the
// required skill. Tasks without a skill demand (calendar entries carry none)
// can be held by anyone.
func requiredSkillPenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		task := &sched.Tasks[i]
		if task.RequiredSkill == "" {
			continue
		}
		emp := sched.EmployeeFor(task)
		if emp == nil {
			continue
		}
		if !emp.HasSkill(task.RequiredSkill) {
			penalty++
		}
	}
	return penalty
}

// overlappingTasksPenalty penalizes every unordered pair of tasks assigned to
// the same employee by the exact number of overlapping slots.
func overlappingTasksPenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		a := &sched.Tasks[i]
		if !a.Assigned() {
			continue
		}
		for j := i + 1; j < len(sched.Tasks); j++ {
			b := &sched.Tasks[j]
			if !b.Assigned() || a.EmployeeIdx != b.EmployeeIdx {
				continue
			}
			penalty += float64(slotOverlap(a, b))
		}
	}
	return penalty
}

func taskWithinSchedulePenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		if sched.Tasks[i].StartSlot < 0 {
			penalty++
		}
	}
	return penalty
}

func taskFitsInSchedulePenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		if sched.Tasks[i].EndSlot() > sched.Info.TotalSlots {
			penalty++
		}
	}
	return penalty
}

// unavailableEmployeePenalty penalizes tasks scheduled on a date their
// employee declared unavailable.
func unavailableEmployeePenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		task := &sched.Tasks[i]
		emp := sched.EmployeeFor(task)
		if emp == nil {
			continue
		}
		date := timeslot.ToTime(task.StartSlot, sched.Info.BaseDate)
		if emp.UnavailableDates.Has(date) {
			penalty++
		}
	}
	return penalty
}

// lunchBreakPenalty penalizes tasks spanning the lunch slots. Time-shape
// constraints apply even to unassigned tasks.
func lunchBreakPenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		task := &sched.Tasks[i]
		if timeslot.SpansLunch(task.StartSlot, task.DurationSlots) {
			penalty++
		}
	}
	return penalty
}

func weekendPenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		if timeslot.IsWeekendSlot(sched.Tasks[i].StartSlot) {
			penalty++
		}
	}
	return penalty
}

// sequenceOrderPenalty enforces project ordering: a task with a lower
// sequence number must finish before a higher-sequence task starts. The
// penalty is proportional to the overlap in slots.
func sequenceOrderPenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		t1 := &sched.Tasks[i]
		if t1.ProjectID == "" || !t1.Assigned() {
			continue
		}
		for j := range sched.Tasks {
			if i == j {
				continue
			}
			t2 := &sched.Tasks[j]
			if t2.ProjectID != t1.ProjectID || !t2.Assigned() {
				continue
			}
			if t1.SequenceNumber >= t2.SequenceNumber {
				continue
			}
			if overhang := t1.EndSlot() - t2.StartSlot; overhang > 0 {
				penalty += float64(overhang)
			}
		}
	}
	return penalty
}

func undesiredDayPenalty(sched *models.Schedule) float64 {
	var penalty float64
	for i := range sched.Tasks {
		task := &sched.Tasks[i]
		emp := sched.EmployeeFor(task)
		if emp == nil {
			continue
		}
		date := timeslot.ToTime(task.StartSlot, sched.Info.BaseDate)
		if emp.UndesiredDates.Has(date) {
			penalty++
		}
	}
	return penalty
}

func desiredDayReward(sched *models.Schedule) float64 {
	var reward float64
	for i := range sched.Tasks {
		task := &sched.Tasks[i]
		emp := sched.EmployeeFor(task)
		if emp == nil {
			continue
		}
		date := timeslot.ToTime(task.StartSlot, sched.Info.BaseDate)
		if emp.DesiredDates.Has(date) {
			reward++
		}
	}
	return reward
}

// workloadUnfairness measures how unevenly tasks spread across employees as
// the population standard deviation of per-employee task counts. Employees
// with zero tasks count toward the distribution.
func workloadUnfairness(sched *models.Schedule) float64 {
	if len(sched.Employees) == 0 {
		return 0
	}
	counts := make([]int, len(sched.Employees))
	for i := range sched.Tasks {
		task := &sched.Tasks[i]
		if task.Assigned() && task.EmployeeIdx < len(counts) {
			counts[task.EmployeeIdx]++
		}
	}
	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / float64(len(counts))
	var variance float64
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= float64(len(counts))
	return math.Sqrt(variance)
}
