package service

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/yuga-labs/yuga-planner-api/internal/dto"
	"github.com/yuga-labs/yuga-planner-api/internal/models"
	"github.com/yuga-labs/yuga-planner-api/internal/timeslot"
	appErrors "github.com/yuga-labs/yuga-planner-api/pkg/errors"
)

const (
	// ProjectExisting groups pinned tasks derived from calendar entries.
	ProjectExisting = "EXISTING"
	// ProjectDefault groups decomposition tasks when the caller names none.
	ProjectDefault = "PROJECT"
)

var firstNames = []string{"Amy", "Beth", "Carl", "Dan", "Elsa", "Flo", "Gus", "Hugo", "Ivy", "Jay"}
var lastNames = []string{"Cole", "Fox", "Green", "Jones", "King", "Li", "Poe", "Rye", "Smith", "Watt"}

type countDistribution struct {
	count  int
	weight float64
}

// optionalSkillDistribution weights how many optional skills a generated
// employee carries on top of the guaranteed required one.
var optionalSkillDistribution = []countDistribution{
	{count: 1, weight: 0.5},
	{count: 2, weight: 0.3},
	{count: 3, weight: 0.2},
}

// buildProblem merges calendar-pinned tasks and decomposition tasks into one
// unsolved schedule with a generated (or caller-supplied) employee pool.
// The same request, reference time and seed always produce the same schedule.
func (s *ScheduleService) buildProblem(req dto.SolveScheduleRequest, now time.Time) (*models.Schedule, error) {
	rng := rand.New(rand.NewSource(s.seed))

	pinned, earliestStart, err := parseCalendarEntries(req.CalendarEntries)
	if err != nil {
		return nil, err
	}

	baseDate := earliestMondayOnOrAfter(now)
	if !earliestStart.IsZero() && earliestStart.Before(baseDate) {
		baseDate = mondayOnOrBefore(earliestStart)
	}
	baseDate = midnightUTC(baseDate)

	tasks := make([]models.Task, 0, len(pinned)+len(req.Tasks))
	for i, entry := range pinned {
		task := entry.task
		task.ID = strconv.Itoa(i)
		task.StartSlot = timeslot.FromTime(entry.start, baseDate)
		tasks = append(tasks, task)
	}

	projectID := req.ProjectID
	if projectID == "" {
		projectID = ProjectDefault
	}
	for i, item := range req.Tasks {
		tasks = append(tasks, models.Task{
			ID:             strconv.Itoa(len(pinned) + i),
			Description:    item.Description,
			RequiredSkill:  item.Skill,
			DurationSlots:  item.DurationSlots,
			ProjectID:      projectID,
			SequenceNumber: i,
			StartSlot:      0,
			EmployeeIdx:    models.NoEmployee,
		})
	}

	needed := requiredSkills(tasks)

	var employees []models.Employee
	if len(req.Employees) > 0 {
		employees, err = employeesFromSpecs(req.Employees)
		if err != nil {
			return nil, err
		}
	} else {
		count := req.EmployeeCount
		if count <= 0 {
			count = s.problem.EmployeeCount
		}
		if count == 1 {
			if names := distinctPinnedEmployees(pinned); len(names) > 1 {
				return nil, appErrors.Clone(appErrors.ErrNoEmployeeForSkill, fmt.Sprintf(
					"single-employee mode requested but calendar entries name %d employees", len(names)))
			}
		}
		employees = s.generateEmployees(count, needed, rng)
	}

	days := req.DaysInSchedule
	if days <= 0 {
		days = s.problem.DaysInSchedule
	}
	totalSlots := days * timeslot.SlotsPerDay

	for i := range tasks {
		if tasks[i].Pinned && tasks[i].EndSlot() > totalSlots {
			return nil, appErrors.Clone(appErrors.ErrSizing, fmt.Sprintf(
				"pinned task %q ends at slot %d but the horizon holds %d slots (%d days); increase daysInSchedule",
				tasks[i].Description, tasks[i].EndSlot(), totalSlots, days))
		}
	}

	if len(req.Employees) == 0 {
		s.generateAvailability(employees, days, baseDate, rng)
	}

	assignEmployees(tasks, employees, pinned)

	sched := &models.Schedule{
		Employees: employees,
		Tasks:     tasks,
		Info: models.ScheduleInfo{
			TotalSlots:   totalSlots,
			BaseDate:     baseDate,
			BaseTimezone: "UTC",
		},
	}
	return sched, nil
}

type pinnedEntry struct {
	task  models.Task
	start time.Time
	owner string
}

func parseCalendarEntries(entries []dto.CalendarEntryRequest) ([]pinnedEntry, time.Time, error) {
	out := make([]pinnedEntry, 0, len(entries))
	var earliest time.Time
	for i, entry := range entries {
		start, err := time.Parse(time.RFC3339, entry.StartISO)
		if err != nil {
			return nil, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				fmt.Sprintf("calendar entry %d has an invalid start time", i))
		}
		end, err := time.Parse(time.RFC3339, entry.EndISO)
		if err != nil {
			return nil, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
				fmt.Sprintf("calendar entry %d has an invalid end time", i))
		}
		if !end.After(start) {
			return nil, time.Time{}, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("calendar entry %d ends before it starts", i))
		}

		minutes := end.Sub(start).Minutes()
		duration := int(math.Round(minutes / timeslot.SlotMinutes))
		if duration < 1 {
			duration = 1
		}

		out = append(out, pinnedEntry{
			task: models.Task{
				Description:    entry.Summary,
				RequiredSkill:  "",
				DurationSlots:  duration,
				ProjectID:      ProjectExisting,
				SequenceNumber: i,
				Pinned:         true,
				EmployeeIdx:    models.NoEmployee,
			},
			start: start,
			owner: entry.Employee,
		})
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	return out, earliest, nil
}

func employeesFromSpecs(specs []dto.EmployeeSpec) ([]models.Employee, error) {
	out := make([]models.Employee, 0, len(specs))
	for _, spec := range specs {
		emp := models.Employee{
			Name:             spec.Name,
			Skills:           append([]string(nil), spec.Skills...),
			UnavailableDates: models.DateSet{},
			UndesiredDates:   models.DateSet{},
			DesiredDates:     models.DateSet{},
		}
		for _, group := range []struct {
			dates []string
			set   models.DateSet
		}{
			{spec.UnavailableDates, emp.UnavailableDates},
			{spec.UndesiredDates, emp.UndesiredDates},
			{spec.DesiredDates, emp.DesiredDates},
		} {
			for _, raw := range group.dates {
				d, err := time.Parse("2006-01-02", raw)
				if err != nil {
					return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
						fmt.Sprintf("employee %q has an invalid date %q", spec.Name, raw))
				}
				group.set.Add(d)
			}
		}
		out = append(out, emp)
	}
	return out, nil
}

// generateEmployees builds a pool covering every needed skill. Single-
// employee mode grants the full skill superset so the one employee can take
// any task; multi-employee mode hands each employee one required skill plus
// a weighted count of optional skills, then spreads the needed skills over
// the pool to guarantee coverage.
func (s *ScheduleService) generateEmployees(count int, needed []string, rng *rand.Rand) []models.Employee {
	names := make([]string, 0, len(firstNames)*len(lastNames))
	for _, first := range firstNames {
		for _, last := range lastNames {
			names = append(names, first+" "+last)
		}
	}
	rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	newEmployee := func(name string, skills []string) models.Employee {
		return models.Employee{
			Name:             name,
			Skills:           skills,
			UnavailableDates: models.DateSet{},
			UndesiredDates:   models.DateSet{},
			DesiredDates:     models.DateSet{},
		}
	}

	if count == 1 {
		superset := dedupe(append(append(append([]string{}, s.problem.RequiredSkills...), s.problem.OptionalSkills...), needed...))
		return []models.Employee{newEmployee(names[0], superset)}
	}

	employees := make([]models.Employee, 0, count)
	for i := 0; i < count; i++ {
		var skills []string
		if len(s.problem.RequiredSkills) > 0 {
			skills = append(skills, s.problem.RequiredSkills[rng.Intn(len(s.problem.RequiredSkills))])
		}
		optionals := weightedCount(optionalSkillDistribution, rng)
		if optionals > len(s.problem.OptionalSkills) {
			optionals = len(s.problem.OptionalSkills)
		}
		for _, idx := range rng.Perm(len(s.problem.OptionalSkills))[:optionals] {
			skills = append(skills, s.problem.OptionalSkills[idx])
		}
		employees = append(employees, newEmployee(names[i%len(names)], dedupe(skills)))
	}

	// Spread every needed skill over the pool so coverage is guaranteed.
	for i, skill := range needed {
		emp := &employees[i%len(employees)]
		if poolCovers(employees, skill) {
			continue
		}
		emp.Skills = append(emp.Skills, skill)
	}
	return employees
}

// generateAvailability assigns disjoint unavailable/undesired/desired date
// sets proportional to the horizon length (21, 12 and 12 days per 365).
func (s *ScheduleService) generateAvailability(employees []models.Employee, days int, baseDate time.Time, rng *rand.Rand) {
	maxUnavailable := int(math.Round(21.0 / 365.0 * float64(days)))
	if maxUnavailable < 1 {
		maxUnavailable = 1
	}
	maxUndesired := int(math.Round(12.0 / 365.0 * float64(days)))
	maxDesired := maxUndesired

	allDates := make([]time.Time, days)
	for i := range allDates {
		allDates[i] = baseDate.AddDate(0, 0, i)
	}

	for i := range employees {
		emp := &employees[i]
		remaining := append([]time.Time(nil), allDates...)
		rng.Shuffle(len(remaining), func(a, b int) { remaining[a], remaining[b] = remaining[b], remaining[a] })

		take := func(n int, set models.DateSet) {
			if n > len(remaining) {
				n = len(remaining)
			}
			for _, d := range remaining[:n] {
				set.Add(d)
			}
			remaining = remaining[n:]
		}

		take(1+rng.Intn(maxUnavailable), emp.UnavailableDates)
		if maxUndesired > 0 {
			take(rng.Intn(maxUndesired+1), emp.UndesiredDates)
		}
		if maxDesired > 0 {
			take(rng.Intn(maxDesired+1), emp.DesiredDates)
		}
	}
}

// assignEmployees seeds the initial assignment: pinned tasks bind to their
// named owner (or the sole employee), unpinned tasks take the first employee
// holding the skill, falling back to the first employee. The optimizer
// overwrites the unpinned seeds.
func assignEmployees(tasks []models.Task, employees []models.Employee, pinned []pinnedEntry) {
	if len(employees) == 0 {
		return
	}
	for i := range tasks {
		task := &tasks[i]
		if task.Pinned {
			owner := pinned[i].owner
			task.EmployeeIdx = 0
			if owner != "" {
				for e := range employees {
					if employees[e].Name == owner {
						task.EmployeeIdx = e
						break
					}
				}
			}
			continue
		}
		task.EmployeeIdx = 0
		for e := range employees {
			if employees[e].HasSkill(task.RequiredSkill) {
				task.EmployeeIdx = e
				break
			}
		}
	}
}

func requiredSkills(tasks []models.Task) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range tasks {
		skill := tasks[i].RequiredSkill
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		out = append(out, skill)
	}
	return out
}

func poolCovers(employees []models.Employee, skill string) bool {
	for i := range employees {
		if employees[i].HasSkill(skill) {
			return true
		}
	}
	return false
}

func distinctPinnedEmployees(pinned []pinnedEntry) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range pinned {
		if entry.owner == "" {
			continue
		}
		if _, ok := seen[entry.owner]; ok {
			continue
		}
		seen[entry.owner] = struct{}{}
		out = append(out, entry.owner)
	}
	return out
}

func weightedCount(dist []countDistribution, rng *rand.Rand) int {
	var total float64
	for _, d := range dist {
		total += d.weight
	}
	target := rng.Float64() * total
	for _, d := range dist {
		target -= d.weight
		if target <= 0 {
			return d.count
		}
	}
	return dist[len(dist)-1].count
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func earliestMondayOnOrAfter(t time.Time) time.Time {
	days := (8 - int(t.Weekday())) % 7
	return t.AddDate(0, 0, days)
}

func mondayOnOrBefore(t time.Time) time.Time {
	days := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -days)
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
