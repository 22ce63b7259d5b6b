package models

import (
	"sort"
	"time"
)

// UnassignedEmployee marks a task without an employee in flat task views.
const UnassignedEmployee = "Unassigned"

// DateSet is a set of calendar dates keyed by ISO-8601 date strings.
type DateSet map[string]struct{}

// NewDateSet builds a set from time values, keeping only the date part.
func NewDateSet(dates ...time.Time) DateSet {
	set := make(DateSet, len(dates))
	for _, d := range dates {
		set.Add(d)
	}
	return set
}

// Add inserts the date part of t.
func (s DateSet) Add(t time.Time) {
	s[t.Format("2006-01-02")] = struct{}{}
}

// Has reports whether the date part of t is in the set.
func (s DateSet) Has(t time.Time) bool {
	if s == nil {
		return false
	}
	_, ok := s[t.Format("2006-01-02")]
	return ok
}

// Sorted returns the dates in ascending ISO order.
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s DateSet) Clone() DateSet {
	if s == nil {
		return nil
	}
	out := make(DateSet, len(s))
	for d := range s {
		out[d] = struct{}{}
	}
	return out
}

// Employee is an immutable problem fact during a solve. Name is its identity.
type Employee struct {
	Name             string   `json:"name"`
	Skills           []string `json:"skills"`
	UnavailableDates DateSet  `json:"unavailableDates,omitempty"`
	UndesiredDates   DateSet  `json:"undesiredDates,omitempty"`
	DesiredDates     DateSet  `json:"desiredDates,omitempty"`
}

// HasSkill reports whether the employee carries the given skill.
func (e *Employee) HasSkill(skill string) bool {
	for _, s := range e.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the employee.
func (e Employee) Clone() Employee {
	out := e
	out.Skills = append([]string(nil), e.Skills...)
	out.UnavailableDates = e.UnavailableDates.Clone()
	out.UndesiredDates = e.UndesiredDates.Clone()
	out.DesiredDates = e.DesiredDates.Clone()
	return out
}

// NoEmployee is the EmployeeIdx value of an unassigned task.
const NoEmployee = -1

// Task is the planning entity. StartSlot and EmployeeIdx are the decision
// variables; both are frozen when Pinned is true.
type Task struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	RequiredSkill  string `json:"requiredSkill"`
	DurationSlots  int    `json:"durationSlots"`
	ProjectID      string `json:"projectId"`
	SequenceNumber int    `json:"sequenceNumber"`
	Pinned         bool   `json:"pinned"`

	StartSlot int `json:"startSlot"`
	// EmployeeIdx indexes Schedule.Employees; NoEmployee means unassigned.
	EmployeeIdx int `json:"employeeIdx"`
}

// EndSlot is the exclusive end of the task's slot interval.
func (t *Task) EndSlot() int {
	return t.StartSlot + t.DurationSlots
}

// Assigned reports whether the task has an employee.
func (t *Task) Assigned() bool {
	return t.EmployeeIdx != NoEmployee
}

// ScheduleInfo carries horizon metadata.
type ScheduleInfo struct {
	TotalSlots   int       `json:"totalSlots"`
	BaseDate     time.Time `json:"baseDate"`
	BaseTimezone string    `json:"baseTimezone,omitempty"`
}

// Score is a lexicographically ordered (hard, soft) pair. Any schedule with
// Hard < 0 is infeasible regardless of Soft.
type Score struct {
	Hard float64 `json:"hard"`
	Soft float64 `json:"soft"`
}

// Feasible reports whether no hard constraint is violated.
func (s Score) Feasible() bool {
	return s.Hard >= 0
}

// Better reports whether s is a strict lexicographic improvement over o.
func (s Score) Better(o Score) bool {
	if s.Hard != o.Hard {
		return s.Hard > o.Hard
	}
	return s.Soft > o.Soft
}

// Schedule is the problem and solution state: employees and horizon are
// problem facts, tasks carry the decision variables, Score is set by the
// scorer after each evaluation.
type Schedule struct {
	Employees []Employee   `json:"employees"`
	Tasks     []Task       `json:"tasks"`
	Info      ScheduleInfo `json:"scheduleInfo"`
	Score     *Score       `json:"score,omitempty"`
}

// EmployeeFor resolves the employee assigned to the task, nil when unassigned.
func (s *Schedule) EmployeeFor(t *Task) *Employee {
	if !t.Assigned() || t.EmployeeIdx < 0 || t.EmployeeIdx >= len(s.Employees) {
		return nil
	}
	return &s.Employees[t.EmployeeIdx]
}

// Clone produces a fully independent deep copy. Reported solutions are
// snapshots, so the solver clones before handing a schedule to the registry.
func (s *Schedule) Clone() *Schedule {
	out := &Schedule{
		Employees: make([]Employee, len(s.Employees)),
		Tasks:     append([]Task(nil), s.Tasks...),
		Info:      s.Info,
	}
	for i := range s.Employees {
		out.Employees[i] = s.Employees[i].Clone()
	}
	if s.Score != nil {
		score := *s.Score
		out.Score = &score
	}
	return out
}
