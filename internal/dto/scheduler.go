package dto

import (
	"time"

	"github.com/yuga-labs/yuga-planner-api/internal/solver"
)

// CalendarEntryRequest is an existing calendar commitment, already validated
// against working hours by the caller. It becomes a pinned task.
type CalendarEntryRequest struct {
	Summary  string `json:"summary" validate:"required"`
	StartISO string `json:"startIso" validate:"required"`
	EndISO   string `json:"endIso" validate:"required"`
	Employee string `json:"employee"`
}

// TaskItemRequest is one decomposition-derived unit of work. Duration is in
// 30-minute slots.
type TaskItemRequest struct {
	Description   string `json:"description" validate:"required"`
	DurationSlots int    `json:"durationSlots" validate:"required,min=1"`
	Skill         string `json:"skill" validate:"required"`
}

// EmployeeSpec lets callers supply an explicit employee pool instead of the
// generated one. Dates are ISO-8601 (YYYY-MM-DD).
type EmployeeSpec struct {
	Name             string   `json:"name" validate:"required"`
	Skills           []string `json:"skills" validate:"required,min=1"`
	UnavailableDates []string `json:"unavailableDates" validate:"omitempty,dive,datetime=2006-01-02"`
	UndesiredDates   []string `json:"undesiredDates" validate:"omitempty,dive,datetime=2006-01-02"`
	DesiredDates     []string `json:"desiredDates" validate:"omitempty,dive,datetime=2006-01-02"`
}

// SolveScheduleRequest submits a scheduling problem.
type SolveScheduleRequest struct {
	CalendarEntries []CalendarEntryRequest `json:"calendarEntries" validate:"omitempty,dive"`
	Tasks           []TaskItemRequest      `json:"tasks" validate:"omitempty,dive"`
	Employees       []EmployeeSpec         `json:"employees" validate:"omitempty,dive"`
	EmployeeCount   int                    `json:"employeeCount" validate:"omitempty,min=1"`
	DaysInSchedule  int                    `json:"daysInSchedule" validate:"omitempty,min=1"`
	ProjectID       string                 `json:"projectId"`
}

// SubmitJobResponse acknowledges an accepted solve.
type SubmitJobResponse struct {
	JobID string `json:"jobId"`
}

// ScoreView reports the lexicographic (hard, soft) pair.
type ScoreView struct {
	Hard     float64 `json:"hard"`
	Soft     float64 `json:"soft"`
	Feasible bool    `json:"feasible"`
}

// TaskAssignmentView is one row of the flat solution table.
type TaskAssignmentView struct {
	ProjectID      string    `json:"projectId"`
	SequenceNumber int       `json:"sequenceNumber"`
	Employee       string    `json:"employee"`
	Description    string    `json:"description"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	DurationHours  float64   `json:"durationHours"`
	RequiredSkill  string    `json:"requiredSkill"`
	Pinned         bool      `json:"pinned"`
	Unavailable    bool      `json:"unavailable"`
	Undesired      bool      `json:"undesired"`
	Desired        bool      `json:"desired"`
}

// EmployeeView summarises one employee of the solved pool.
type EmployeeView struct {
	Name             string   `json:"name"`
	Skills           []string `json:"skills"`
	UnavailableDates []string `json:"unavailableDates"`
	UndesiredDates   []string `json:"undesiredDates"`
	DesiredDates     []string `json:"desiredDates"`
}

// ExportLinkResponse carries a signed, expiring download link for an
// archived export file.
type ExportLinkResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PollJobResponse is the non-blocking poll result for a job.
type PollJobResponse struct {
	JobID     string               `json:"jobId"`
	Status    string               `json:"status"`
	Score     *ScoreView           `json:"score,omitempty"`
	Tasks     []TaskAssignmentView `json:"tasks,omitempty"`
	Employees []EmployeeView       `json:"employees,omitempty"`
	Diagnosis *solver.Diagnosis    `json:"diagnosis,omitempty"`
	Message   string               `json:"message"`
}
