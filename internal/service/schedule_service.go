package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yuga-labs/yuga-planner-api/internal/dto"
	"github.com/yuga-labs/yuga-planner-api/internal/models"
	"github.com/yuga-labs/yuga-planner-api/internal/repository"
	"github.com/yuga-labs/yuga-planner-api/internal/solver"
	"github.com/yuga-labs/yuga-planner-api/internal/timeslot"
	"github.com/yuga-labs/yuga-planner-api/pkg/config"
	appErrors "github.com/yuga-labs/yuga-planner-api/pkg/errors"
	"github.com/yuga-labs/yuga-planner-api/pkg/export"
	"github.com/yuga-labs/yuga-planner-api/pkg/jobs"
	"github.com/yuga-labs/yuga-planner-api/pkg/storage"
)

// SolverRunStore persists finished runs. Nil-safe: the service runs without
// persistence when no database is configured.
type SolverRunStore interface {
	Insert(ctx context.Context, run *models.SolverRun) error
	List(ctx context.Context, limit int) ([]models.SolverRun, error)
	GetByJobID(ctx context.Context, jobID string) (*models.SolverRun, error)
}

var _ SolverRunStore = (*repository.SolverRunRepository)(nil)

// ScheduleService orchestrates the solve lifecycle: problem construction,
// async job dispatch, registry bookkeeping, polling, export and history.
type ScheduleService struct {
	logger   *zap.Logger
	validate *validator.Validate

	store  *SolutionStore
	queue  *jobs.Queue
	solver *solver.Solver

	runs    SolverRunStore
	redis   *redis.Client
	metrics *MetricsService

	csv *export.CSVExporter
	pdf *export.PDFExporter

	files     *storage.ExportArchive
	signer    *storage.TokenSigner
	linkTTL   time.Duration
	sweepStop chan struct{}

	seed    int64
	problem config.ProblemConfig
}

type solveJobPayload struct {
	jobID string
	sched *models.Schedule
}

// NewScheduleService wires the service and its internal worker queue. runs,
// redisClient and files may be nil when those backends are disabled.
func NewScheduleService(
	cfg *config.Config,
	logger *zap.Logger,
	store *SolutionStore,
	runs SolverRunStore,
	redisClient *redis.Client,
	metrics *MetricsService,
	files *storage.ExportArchive,
) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}

	var signer *storage.TokenSigner
	if files != nil && cfg.JWT.Secret != "" {
		signer = storage.NewTokenSigner(cfg.JWT.Secret, cfg.Export.LinkTTL)
	}
	linkTTL := cfg.Export.LinkTTL
	if linkTTL <= 0 {
		linkTTL = 24 * time.Hour
	}

	s := &ScheduleService{
		logger:   logger,
		validate: validator.New(),
		store:    store,
		solver: solver.New(solver.Options{
			MoveLimit:   cfg.Solver.MoveLimit,
			InitialTemp: cfg.Solver.InitialTemp,
			CoolingRate: cfg.Solver.CoolingRate,
			Seed:        cfg.Solver.RandomSeed,
		}, logger),
		runs:    runs,
		redis:   redisClient,
		metrics: metrics,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		files:   files,
		signer:  signer,
		linkTTL: linkTTL,
		seed:    cfg.Solver.RandomSeed,
		problem: cfg.Problem,
	}

	s.queue = jobs.NewQueue("solver", s.handleSolveJob, jobs.QueueConfig{
		Workers: cfg.Solver.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the worker pool and, when archiving is configured, a
// periodic sweep that deletes export files older than the link TTL.
func (s *ScheduleService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	if s.files != nil && s.sweepStop == nil {
		s.sweepStop = make(chan struct{})
		go s.sweepLoop(s.sweepStop)
	}
}

// Stop flags all jobs for termination and drains the worker pool.
func (s *ScheduleService) Stop() {
	s.store.TerminateAll()
	if s.sweepStop != nil {
		close(s.sweepStop)
		s.sweepStop = nil
	}
	s.queue.Stop()
}

func (s *ScheduleService) sweepLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.linkTTL)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.sweepArchive()
		}
	}
}

func (s *ScheduleService) sweepArchive() {
	removed, err := s.files.Sweep(s.linkTTL)
	if err != nil {
		s.logger.Sugar().Warnw("archive sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Sugar().Infow("archive sweep removed expired exports", "files", removed)
	}
}

// Submit validates the request, builds the problem and enqueues a solve.
// The returned job ID is immediately pollable.
func (s *ScheduleService) Submit(ctx context.Context, req dto.SolveScheduleRequest) (*dto.SubmitJobResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve request")
	}
	if len(req.Tasks) == 0 && len(req.CalendarEntries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one task or calendar entry is required")
	}

	sched, err := s.buildProblem(req, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	s.store.Create(jobID)

	if err := s.queue.Enqueue(jobs.Job{
		ID:      jobID,
		Type:    "solve",
		Payload: solveJobPayload{jobID: jobID, sched: sched},
	}); err != nil {
		s.store.Delete(jobID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "solver queue unavailable")
	}

	s.metrics.JobSubmitted()
	s.logger.Sugar().Infow("solve job submitted",
		"job_id", jobID,
		"tasks", len(sched.Tasks),
		"employees", len(sched.Employees),
		"total_slots", sched.Info.TotalSlots,
	)
	return &dto.SubmitJobResponse{JobID: jobID}, nil
}

func (s *ScheduleService) handleSolveJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(solveJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	jobID := payload.jobID
	s.store.MarkRunning(jobID)
	started := time.Now().UTC()

	progress := s.solver.Solve(ctx, payload.sched,
		func() bool { return s.store.Terminated(jobID) },
		func(best *models.Schedule) { s.store.Report(jobID, best) },
	)
	s.store.Complete(jobID)
	finished := time.Now().UTC()

	s.metrics.SolveProgress(progress.Moves, progress.Improvements)
	s.metrics.JobCompleted(progress.Best.Feasible(), progress.Best.Hard, progress.Best.Soft, finished.Sub(started))

	s.logger.Sugar().Infow("solve job finished",
		"job_id", jobID,
		"hard", progress.Best.Hard,
		"soft", progress.Best.Soft,
		"feasible", progress.Best.Feasible(),
		"moves", progress.Moves,
		"improvements", progress.Improvements,
		"duration", finished.Sub(started),
	)

	s.persistRun(ctx, jobID, payload.sched, progress, started, finished)
	s.cacheSnapshot(ctx, jobID, payload.sched)
	return nil
}

func (s *ScheduleService) persistRun(ctx context.Context, jobID string, sched *models.Schedule, progress solver.Progress, started, finished time.Time) {
	if s.runs == nil {
		return
	}
	assignments, err := json.Marshal(taskViews(sched))
	if err != nil {
		s.logger.Sugar().Warnw("marshal assignments failed", "job_id", jobID, "error", err)
		assignments = []byte("[]")
	}
	run := &models.SolverRun{
		JobID:        jobID,
		Feasible:     progress.Best.Feasible(),
		HardScore:    progress.Best.Hard,
		SoftScore:    progress.Best.Soft,
		Moves:        progress.Moves,
		Improvements: progress.Improvements,
		Assignments:  assignments,
		StartedAt:    started,
		FinishedAt:   finished,
	}
	if err := s.runs.Insert(ctx, run); err != nil {
		s.logger.Sugar().Warnw("persist solver run failed", "job_id", jobID, "error", err)
	}
}

func (s *ScheduleService) cacheSnapshot(ctx context.Context, jobID string, sched *models.Schedule) {
	if s.redis == nil {
		return
	}
	snapshot, err := json.Marshal(s.snapshotResponse(jobID, models.JobStatusTerminated, sched))
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, "solver:job:"+jobID, snapshot, 24*time.Hour).Err(); err != nil {
		s.logger.Sugar().Warnw("cache snapshot failed", "job_id", jobID, "error", err)
	}
}

// Poll returns the current state of a job without blocking. Before the first
// improvement the response carries only the status.
func (s *ScheduleService) Poll(ctx context.Context, jobID string) (*dto.PollJobResponse, error) {
	snapshot, ok := s.store.Get(jobID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("job %s not found", jobID))
	}
	resp := s.snapshotResponse(jobID, snapshot.Status, snapshot.Schedule)
	return &resp, nil
}

func (s *ScheduleService) snapshotResponse(jobID string, status models.JobStatus, sched *models.Schedule) dto.PollJobResponse {
	resp := dto.PollJobResponse{
		JobID:  jobID,
		Status: string(status),
	}
	if sched == nil {
		resp.Message = "no solution reported yet"
		return resp
	}

	if sched.Score != nil {
		resp.Score = &dto.ScoreView{
			Hard:     sched.Score.Hard,
			Soft:     sched.Score.Soft,
			Feasible: sched.Score.Feasible(),
		}
	}
	resp.Tasks = taskViews(sched)
	resp.Employees = employeeViews(sched)

	if resp.Score != nil && !resp.Score.Feasible {
		diagnosis := solver.Analyze(sched)
		resp.Diagnosis = &diagnosis
		resp.Message = diagnosis.Summary()
	} else if status == models.JobStatusTerminated {
		resp.Message = "solving finished"
	} else {
		resp.Message = "solving in progress"
	}
	return resp
}

// Terminate requests cooperative termination of one job.
func (s *ScheduleService) Terminate(jobID string) error {
	if !s.store.Terminate(jobID) {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("job %s not found", jobID))
	}
	s.logger.Sugar().Infow("termination requested", "job_id", jobID)
	return nil
}

// TerminateAll flags every registered job for termination.
func (s *ScheduleService) TerminateAll() {
	s.store.TerminateAll()
	s.logger.Info("termination requested for all jobs")
}

// Export renders the job's latest schedule as CSV or PDF bytes.
func (s *ScheduleService) Export(ctx context.Context, jobID, format string) ([]byte, string, error) {
	snapshot, ok := s.store.Get(jobID)
	if !ok {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("job %s not found", jobID))
	}
	if snapshot.Schedule == nil {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "job has no solution to export yet")
	}

	data := exportDataset(snapshot.Schedule)
	var out []byte
	var contentType string
	switch format {
	case "csv", "":
		format = "csv"
		rendered, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed")
		}
		out, contentType = rendered, "text/csv"
	case "pdf":
		rendered, err := s.pdf.Render(data, "Schedule "+jobID)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed")
		}
		out, contentType = rendered, "application/pdf"
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	s.archiveExport(jobID, format, out)
	return out, contentType, nil
}

func exportPath(jobID, format string) string {
	return fmt.Sprintf("%s/schedule.%s", jobID, format)
}

func (s *ScheduleService) archiveExport(jobID, format string, data []byte) {
	if s.files == nil {
		return
	}
	if err := s.files.Save(exportPath(jobID, format), data); err != nil {
		s.logger.Sugar().Warnw("archive export failed", "job_id", jobID, "format", format, "error", err)
	}
}

// ExportLink renders and archives the export, then returns a signed download
// token for it. Requires an export directory and a signing secret.
func (s *ScheduleService) ExportLink(ctx context.Context, jobID, format string) (*dto.ExportLinkResponse, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "export archiving is not configured")
	}
	if _, _, err := s.Export(ctx, jobID, format); err != nil {
		return nil, err
	}
	if format == "" {
		format = "csv"
	}

	token, expiresAt, err := s.signer.Sign(jobID, exportPath(jobID, format))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign download link failed")
	}
	return &dto.ExportLinkResponse{
		Token:     token,
		URL:       "/exports/" + token,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

// DownloadExport validates a signed token and returns the archived file.
func (s *ScheduleService) DownloadExport(token string) ([]byte, string, error) {
	if s.files == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrPreconditionFailed, "export archiving is not configured")
	}
	_, relPath, _, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}

	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read export file failed")
	}

	contentType := "text/csv"
	if strings.HasSuffix(relPath, ".pdf") {
		contentType = "application/pdf"
	}
	return data, contentType, nil
}

// ListRuns returns persisted solver history, newest first.
func (s *ScheduleService) ListRuns(ctx context.Context, limit int) ([]models.SolverRun, error) {
	if s.runs == nil {
		return nil, appErrors.ErrPersistenceDisabled
	}
	runs, err := s.runs.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list solver runs failed")
	}
	return runs, nil
}

// GetRun returns the persisted run for one job.
func (s *ScheduleService) GetRun(ctx context.Context, jobID string) (*models.SolverRun, error) {
	if s.runs == nil {
		return nil, appErrors.ErrPersistenceDisabled
	}
	run, err := s.runs.GetByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no persisted run for job %s", jobID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load solver run failed")
	}
	return run, nil
}

func taskViews(sched *models.Schedule) []dto.TaskAssignmentView {
	views := make([]dto.TaskAssignmentView, 0, len(sched.Tasks))
	for i := range sched.Tasks {
		task := &sched.Tasks[i]
		start := timeslot.ToTime(task.StartSlot, sched.Info.BaseDate)
		end := timeslot.ToTime(task.EndSlot(), sched.Info.BaseDate)

		view := dto.TaskAssignmentView{
			ProjectID:      task.ProjectID,
			SequenceNumber: task.SequenceNumber,
			Employee:       models.UnassignedEmployee,
			Description:    task.Description,
			Start:          start,
			End:            end,
			DurationHours:  float64(task.DurationSlots) * timeslot.SlotMinutes / 60.0,
			RequiredSkill:  task.RequiredSkill,
			Pinned:         task.Pinned,
		}
		if emp := sched.EmployeeFor(task); emp != nil {
			view.Employee = emp.Name
			for d := 0; d < task.DurationSlots; d++ {
				day := timeslot.ToTime(task.StartSlot+d, sched.Info.BaseDate)
				if emp.UnavailableDates.Has(day) {
					view.Unavailable = true
				}
				if emp.UndesiredDates.Has(day) {
					view.Undesired = true
				}
				if emp.DesiredDates.Has(day) {
					view.Desired = true
				}
			}
		}
		views = append(views, view)
	}
	sort.SliceStable(views, func(a, b int) bool {
		if !views[a].Start.Equal(views[b].Start) {
			return views[a].Start.Before(views[b].Start)
		}
		return views[a].Employee < views[b].Employee
	})
	return views
}

func employeeViews(sched *models.Schedule) []dto.EmployeeView {
	views := make([]dto.EmployeeView, 0, len(sched.Employees))
	for i := range sched.Employees {
		emp := &sched.Employees[i]
		views = append(views, dto.EmployeeView{
			Name:             emp.Name,
			Skills:           emp.Skills,
			UnavailableDates: emp.UnavailableDates.Sorted(),
			UndesiredDates:   emp.UndesiredDates.Sorted(),
			DesiredDates:     emp.DesiredDates.Sorted(),
		})
	}
	sort.Slice(views, func(a, b int) bool { return views[a].Name < views[b].Name })
	return views
}

func exportDataset(sched *models.Schedule) export.Dataset {
	views := taskViews(sched)
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.ProjectID,
			fmt.Sprintf("%d", v.SequenceNumber),
			v.Description,
			v.Employee,
			v.Start.Format("2006-01-02 15:04"),
			v.End.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.1f", v.DurationHours),
			v.RequiredSkill,
			fmt.Sprintf("%t", v.Pinned),
		})
	}
	return export.Dataset{
		Columns: []string{"Project", "Seq", "Task", "Employee", "Start", "End", "Hours", "Skill", "Pinned"},
		Rows:    rows,
	}
}
