package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// JobStatus tracks a solver job through its lifecycle.
type JobStatus string

const (
	JobStatusSubmitted  JobStatus = "SUBMITTED"
	JobStatusRunning    JobStatus = "RUNNING"
	JobStatusImproved   JobStatus = "IMPROVED"
	JobStatusTerminated JobStatus = "TERMINATED"
)

// SolverRun is the persisted record of a finished solve.
type SolverRun struct {
	ID           string         `db:"id" json:"id"`
	JobID        string         `db:"job_id" json:"jobId"`
	Feasible     bool           `db:"feasible" json:"feasible"`
	HardScore    float64        `db:"hard_score" json:"hardScore"`
	SoftScore    float64        `db:"soft_score" json:"softScore"`
	Moves        int64          `db:"moves" json:"moves"`
	Improvements int64          `db:"improvements" json:"improvements"`
	Assignments  types.JSONText `db:"assignments" json:"assignments"`
	StartedAt    time.Time      `db:"started_at" json:"startedAt"`
	FinishedAt   time.Time      `db:"finished_at" json:"finishedAt"`
}
