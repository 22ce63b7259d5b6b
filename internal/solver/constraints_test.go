package solver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuga-labs/yuga-planner-api/internal/models"
	"github.com/yuga-labs/yuga-planner-api/internal/timeslot"
)

var monday = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func newTestSchedule(tasks []models.Task, employees ...models.Employee) *models.Schedule {
	if len(employees) == 0 {
		employees = []models.Employee{testEmployee("Amy Cole", "Go")}
	}
	return &models.Schedule{
		Employees: employees,
		Tasks:     tasks,
		Info: models.ScheduleInfo{
			TotalSlots:   14 * timeslot.SlotsPerDay,
			BaseDate:     monday,
			BaseTimezone: "UTC",
		},
	}
}

func testEmployee(name string, skills ...string) models.Employee {
	return models.Employee{
		Name:             name,
		Skills:           skills,
		UnavailableDates: models.DateSet{},
		UndesiredDates:   models.DateSet{},
		DesiredDates:     models.DateSet{},
	}
}

func TestRequiredSkillPenalty(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", RequiredSkill: "Go", DurationSlots: 2, StartSlot: 0, EmployeeIdx: 0},
		{ID: "1", RequiredSkill: "Rust", DurationSlots: 2, StartSlot: 4, EmployeeIdx: 0},
		{ID: "2", RequiredSkill: "Rust", DurationSlots: 2, StartSlot: 6, EmployeeIdx: models.NoEmployee},
	})
	// Matching skill is free, mismatch costs one, unassigned is exempt.
	assert.Equal(t, 1.0, requiredSkillPenalty(sched))
}

func TestRequiredSkillPenaltyIgnoresSkillFreeTasks(t *testing.T) {
	// Calendar-pinned tasks carry no skill demand; any holder is valid.
	sched := newTestSchedule([]models.Task{
		{ID: "0", Description: "standup", DurationSlots: 1, StartSlot: 0, EmployeeIdx: 0, Pinned: true},
	})
	assert.Equal(t, 0.0, requiredSkillPenalty(sched))
}

func TestOverlappingTasksPenaltyCountsSlots(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", DurationSlots: 4, StartSlot: 0, EmployeeIdx: 0},
		{ID: "1", DurationSlots: 4, StartSlot: 2, EmployeeIdx: 0},
	})
	// Slots 2 and 3 are shared.
	assert.Equal(t, 2.0, overlappingTasksPenalty(sched))

	// Different employees never conflict.
	sched.Employees = append(sched.Employees, testEmployee("Beth Fox", "Go"))
	sched.Tasks[1].EmployeeIdx = 1
	assert.Equal(t, 0.0, overlappingTasksPenalty(sched))
}

func TestOverlappingTasksPenaltyAdjacentTasksFree(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", DurationSlots: 2, StartSlot: 0, EmployeeIdx: 0},
		{ID: "1", DurationSlots: 2, StartSlot: 2, EmployeeIdx: 0},
	})
	assert.Equal(t, 0.0, overlappingTasksPenalty(sched))
}

func TestBoundsPenalties(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", DurationSlots: 2, StartSlot: -1, EmployeeIdx: 0},
		{ID: "1", DurationSlots: 2, StartSlot: 14*timeslot.SlotsPerDay - 1, EmployeeIdx: 0},
	})
	assert.Equal(t, 1.0, taskWithinSchedulePenalty(sched))
	assert.Equal(t, 1.0, taskFitsInSchedulePenalty(sched))
}

func TestUnavailableEmployeePenalty(t *testing.T) {
	emp := testEmployee("Amy Cole", "Go")
	emp.UnavailableDates.Add(monday)
	sched := newTestSchedule([]models.Task{
		{ID: "0", RequiredSkill: "Go", DurationSlots: 2, StartSlot: 0, EmployeeIdx: 0},
	}, emp)
	assert.Equal(t, 1.0, unavailableEmployeePenalty(sched))

	// Next day is fine.
	sched.Tasks[0].StartSlot = timeslot.SlotsPerDay
	assert.Equal(t, 0.0, unavailableEmployeePenalty(sched))
}

func TestLunchBreakPenaltyAppliesToUnassigned(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", DurationSlots: 2, StartSlot: 8, EmployeeIdx: models.NoEmployee},
	})
	assert.Equal(t, 1.0, lunchBreakPenalty(sched))
}

func TestWeekendPenalty(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", DurationSlots: 2, StartSlot: 5 * timeslot.SlotsPerDay, EmployeeIdx: 0},
		{ID: "1", DurationSlots: 2, StartSlot: 7 * timeslot.SlotsPerDay, EmployeeIdx: 0},
	})
	assert.Equal(t, 1.0, weekendPenalty(sched))
}

func TestSequenceOrderPenaltyProportionalToOverhang(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", ProjectID: "P", SequenceNumber: 1, DurationSlots: 4, StartSlot: 0, EmployeeIdx: 0},
		{ID: "1", ProjectID: "P", SequenceNumber: 2, DurationSlots: 3, StartSlot: 2, EmployeeIdx: 0},
	})
	// Task 0 ends at slot 4, task 1 starts at 2: two slots of overhang.
	assert.Equal(t, 2.0, sequenceOrderPenalty(sched))

	// Starting at the predecessor's end is legal.
	sched.Tasks[1].StartSlot = 4
	assert.Equal(t, 0.0, sequenceOrderPenalty(sched))

	// Ordering only binds within a project.
	sched.Tasks[1].StartSlot = 2
	sched.Tasks[1].ProjectID = "Q"
	assert.Equal(t, 0.0, sequenceOrderPenalty(sched))
}

func TestDesiredAndUndesiredDays(t *testing.T) {
	emp := testEmployee("Amy Cole", "Go")
	emp.DesiredDates.Add(monday)
	emp.UndesiredDates.Add(monday.AddDate(0, 0, 1))
	sched := newTestSchedule([]models.Task{
		{ID: "0", RequiredSkill: "Go", DurationSlots: 2, StartSlot: 0, EmployeeIdx: 0},
		{ID: "1", RequiredSkill: "Go", DurationSlots: 2, StartSlot: timeslot.SlotsPerDay + 2, EmployeeIdx: 0},
	}, emp)
	assert.Equal(t, 1.0, desiredDayReward(sched))
	assert.Equal(t, 1.0, undesiredDayPenalty(sched))
}

func TestWorkloadUnfairnessPrefersBalance(t *testing.T) {
	makeSched := func(assign []int) *models.Schedule {
		tasks := make([]models.Task, len(assign))
		for i, emp := range assign {
			tasks[i] = models.Task{DurationSlots: 1, StartSlot: i * 2, EmployeeIdx: emp}
		}
		return newTestSchedule(tasks, testEmployee("A", "Go"), testEmployee("B", "Go"))
	}

	balanced := workloadUnfairness(makeSched([]int{0, 0, 1, 1}))
	uneven := workloadUnfairness(makeSched([]int{0, 0, 0, 1}))
	allOnOne := workloadUnfairness(makeSched([]int{0, 0, 0, 0}))

	assert.Equal(t, 0.0, balanced)
	assert.Less(t, uneven, allOnOne)
	assert.Greater(t, uneven, balanced)
}

func TestScoreScheduleWritesBack(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", RequiredSkill: "Go", DurationSlots: 2, StartSlot: 0, EmployeeIdx: 0},
	})
	score := ScoreSchedule(sched)
	require.NotNil(t, sched.Score)
	assert.Equal(t, score, *sched.Score)
	assert.True(t, score.Feasible())
}

func TestScoreScheduleInfeasibleOnHardViolation(t *testing.T) {
	sched := newTestSchedule([]models.Task{
		{ID: "0", RequiredSkill: "Rust", DurationSlots: 2, StartSlot: 0, EmployeeIdx: 0},
	})
	score := ScoreSchedule(sched)
	assert.Equal(t, -1.0, score.Hard)
	assert.False(t, score.Feasible())
}
