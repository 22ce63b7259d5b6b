package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yuga-labs/yuga-planner-api/internal/dto"
	"github.com/yuga-labs/yuga-planner-api/internal/models"
	"github.com/yuga-labs/yuga-planner-api/internal/service"
	appErrors "github.com/yuga-labs/yuga-planner-api/pkg/errors"
	"github.com/yuga-labs/yuga-planner-api/pkg/response"
)

type scheduleSolver interface {
	Submit(ctx context.Context, req dto.SolveScheduleRequest) (*dto.SubmitJobResponse, error)
	Poll(ctx context.Context, jobID string) (*dto.PollJobResponse, error)
	Terminate(jobID string) error
	TerminateAll()
	Export(ctx context.Context, jobID, format string) ([]byte, string, error)
	ExportLink(ctx context.Context, jobID, format string) (*dto.ExportLinkResponse, error)
	DownloadExport(token string) ([]byte, string, error)
	ListRuns(ctx context.Context, limit int) ([]models.SolverRun, error)
	GetRun(ctx context.Context, jobID string) (*models.SolverRun, error)
}

// ScheduleHandler exposes the solver job endpoints.
type ScheduleHandler struct {
	service scheduleSolver
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Submit godoc
// @Summary Submit a scheduling problem for asynchronous solving
// @Description Builds the problem from calendar entries and decomposition tasks, then starts a background solver job. Poll the returned job ID for results.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SolveScheduleRequest true "Solve request"
// @Success 202 {object} response.Envelope
// @Router /schedule-jobs [post]
func (h *ScheduleHandler) Submit(c *gin.Context) {
	var req dto.SolveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid solve payload"))
		return
	}
	resp, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, resp)
}

// Poll godoc
// @Summary Poll a solver job for its latest solution
// @Tags Scheduler
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /schedule-jobs/{id} [get]
func (h *ScheduleHandler) Poll(c *gin.Context) {
	resp, err := h.service.Poll(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp)
}

// Terminate godoc
// @Summary Request termination of one solver job
// @Description Termination is cooperative; the job keeps its best solution found so far.
// @Tags Scheduler
// @Produce json
// @Param id path string true "Job ID"
// @Success 204
// @Router /schedule-jobs/{id} [delete]
func (h *ScheduleHandler) Terminate(c *gin.Context) {
	if err := h.service.Terminate(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TerminateAll godoc
// @Summary Request termination of every known solver job
// @Tags Scheduler
// @Produce json
// @Success 204
// @Router /schedule-jobs [delete]
func (h *ScheduleHandler) TerminateAll(c *gin.Context) {
	h.service.TerminateAll()
	response.NoContent(c)
}

// Export godoc
// @Summary Export a job's latest schedule as CSV or PDF
// @Tags Scheduler
// @Produce octet-stream
// @Param id path string true "Job ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /schedule-jobs/{id}/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	jobID := c.Param("id")
	format := c.DefaultQuery("format", "csv")
	data, contentType, err := h.service.Export(c.Request.Context(), jobID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=schedule-%s.%s", jobID, ext))
	c.Data(http.StatusOK, contentType, data)
}

// ExportLink godoc
// @Summary Create a signed download link for a job's schedule export
// @Description Requires export archiving and a signing secret to be configured.
// @Tags Scheduler
// @Produce json
// @Param id path string true "Job ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {object} response.Envelope
// @Router /schedule-jobs/{id}/export-link [get]
func (h *ScheduleHandler) ExportLink(c *gin.Context) {
	link, err := h.service.ExportLink(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// Download godoc
// @Summary Download an archived export by signed token
// @Description The token itself authorizes the download; no bearer token is needed.
// @Tags Scheduler
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/{token} [get]
func (h *ScheduleHandler) Download(c *gin.Context) {
	data, contentType, err := h.service.DownloadExport(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=schedule.%s", ext))
	c.Data(http.StatusOK, contentType, data)
}

// ListRuns godoc
// @Summary List persisted solver runs
// @Description Requires persistence to be enabled; responds 503 otherwise.
// @Tags Scheduler
// @Produce json
// @Param limit query int false "Maximum runs to return" default(50)
// @Success 200 {object} response.Envelope
// @Router /solver-runs [get]
func (h *ScheduleHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs)
}

// GetRun godoc
// @Summary Get the persisted solver run for one job
// @Tags Scheduler
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /solver-runs/{id} [get]
func (h *ScheduleHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run)
}
