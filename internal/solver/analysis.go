package solver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuga-labs/yuga-planner-api/internal/models"
)

// Diagnosis explains why a schedule is infeasible and what could fix it.
type Diagnosis struct {
	Feasible        bool     `json:"feasible"`
	ViolationCount  int      `json:"violationCount"`
	MissingSkills   []string `json:"missingSkills,omitempty"`
	UnassignedTasks int      `json:"unassignedTasks"`
	Violations      []string `json:"violations"`
	Suggestions     []string `json:"suggestions"`
}

// Summary renders the human-readable violation report.
func (d Diagnosis) Summary() string {
	if d.Feasible {
		return "No constraint violations detected."
	}
	return strings.Join(d.Violations, "\n")
}

// remediation suggestions shown for every infeasible schedule.
var suggestions = []string{
	"Add more employees with required skills",
	"Increase the scheduling time window (more days)",
	"Reduce task requirements or durations",
	"Check employee availability constraints",
	"Review project sequencing requirements",
}

// Analyze inspects a scored schedule and, when the hard score is negative,
// produces a structured violation summary with remediation suggestions.
func Analyze(sched *models.Schedule) Diagnosis {
	if sched.Score == nil || sched.Score.Feasible() {
		return Diagnosis{Feasible: true}
	}

	d := Diagnosis{
		ViolationCount: int(-sched.Score.Hard),
		Suggestions:    append([]string(nil), suggestions...),
	}

	if missing := missingSkills(sched); len(missing) > 0 {
		d.MissingSkills = missing
		d.Violations = append(d.Violations, fmt.Sprintf(
			"Missing skills: no employee in the pool has: %s", strings.Join(missing, ", ")))
	}

	if taskSlots, availableSlots := capacity(sched); taskSlots > availableSlots {
		d.Violations = append(d.Violations, fmt.Sprintf(
			"Insufficient time: tasks require %.1f hours total, but only %.1f hours are available across all employees",
			float64(taskSlots)/2, float64(availableSlots)/2))
	}

	if d.UnassignedTasks = unassignedCount(sched); d.UnassignedTasks > 0 {
		d.Violations = append(d.Violations, fmt.Sprintf(
			"Unassigned tasks: %d task(s) could not be assigned to any employee", d.UnassignedTasks))
	}

	for _, project := range sequenceViolations(sched) {
		d.Violations = append(d.Violations, fmt.Sprintf(
			"Sequence violation: task order in project %q is not respected", project))
	}

	if len(d.Violations) == 0 {
		d.Violations = append(d.Violations, "Unknown constraint violations detected.")
	}
	return d
}

// missingSkills lists required skills no employee in the pool covers.
func missingSkills(sched *models.Schedule) []string {
	available := make(map[string]struct{})
	for i := range sched.Employees {
		for _, skill := range sched.Employees[i].Skills {
			available[skill] = struct{}{}
		}
	}

	missing := make(map[string]struct{})
	for i := range sched.Tasks {
		skill := sched.Tasks[i].RequiredSkill
		if _, ok := available[skill]; !ok && skill != "" {
			missing[skill] = struct{}{}
		}
	}

	out := make([]string, 0, len(missing))
	for skill := range missing {
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

func capacity(sched *models.Schedule) (taskSlots, availableSlots int) {
	for i := range sched.Tasks {
		taskSlots += sched.Tasks[i].DurationSlots
	}
	availableSlots = len(sched.Employees) * sched.Info.TotalSlots
	return taskSlots, availableSlots
}

func unassignedCount(sched *models.Schedule) int {
	count := 0
	for i := range sched.Tasks {
		if !sched.Tasks[i].Assigned() {
			count++
		}
	}
	return count
}

// sequenceViolations returns project ids containing an assigned task pair
// whose placement contradicts the sequence numbers.
func sequenceViolations(sched *models.Schedule) []string {
	byProject := make(map[string][]*models.Task)
	for i := range sched.Tasks {
		task := &sched.Tasks[i]
		if task.ProjectID == "" {
			continue
		}
		byProject[task.ProjectID] = append(byProject[task.ProjectID], task)
	}

	var violated []string
	for project, tasks := range byProject {
		if len(tasks) < 2 {
			continue
		}
		sort.Slice(tasks, func(i, j int) bool {
			return tasks[i].SequenceNumber < tasks[j].SequenceNumber
		})
		for i := 0; i < len(tasks)-1; i++ {
			current, next := tasks[i], tasks[i+1]
			if !current.Assigned() || !next.Assigned() {
				continue
			}
			if next.StartSlot < current.EndSlot() {
				violated = append(violated, project)
				break
			}
		}
	}
	sort.Strings(violated)
	return violated
}
