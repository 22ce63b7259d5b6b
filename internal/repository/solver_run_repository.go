package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yuga-labs/yuga-planner-api/internal/models"
)

// SolverRunRepository persists finished solver runs for later inspection.
type SolverRunRepository struct {
	db *sqlx.DB
}

// NewSolverRunRepository constructs the repository.
func NewSolverRunRepository(db *sqlx.DB) *SolverRunRepository {
	return &SolverRunRepository{db: db}
}

// Insert stores one finished run. ID is assigned when empty.
func (r *SolverRunRepository) Insert(ctx context.Context, run *models.SolverRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if len(run.Assignments) == 0 {
		run.Assignments = []byte("[]")
	}

	const query = `INSERT INTO solver_runs (id, job_id, feasible, hard_score, soft_score, moves, improvements, assignments, started_at, finished_at)
		VALUES (:id, :job_id, :feasible, :hard_score, :soft_score, :moves, :improvements, :assignments, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("insert solver run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *SolverRunRepository) List(ctx context.Context, limit int) ([]models.SolverRun, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, job_id, feasible, hard_score, soft_score, moves, improvements, assignments, started_at, finished_at
		FROM solver_runs ORDER BY finished_at DESC LIMIT $1`
	runs := []models.SolverRun{}
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list solver runs: %w", err)
	}
	return runs, nil
}

// GetByJobID returns the persisted run for a job.
func (r *SolverRunRepository) GetByJobID(ctx context.Context, jobID string) (*models.SolverRun, error) {
	const query = `SELECT id, job_id, feasible, hard_score, soft_score, moves, improvements, assignments, started_at, finished_at
		FROM solver_runs WHERE job_id = $1 ORDER BY finished_at DESC LIMIT 1`
	var run models.SolverRun
	if err := r.db.GetContext(ctx, &run, query, jobID); err != nil {
		return nil, err
	}
	return &run, nil
}
