package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuga-labs/yuga-planner-api/internal/dto"
	"github.com/yuga-labs/yuga-planner-api/internal/models"
	appErrors "github.com/yuga-labs/yuga-planner-api/pkg/errors"
	"github.com/yuga-labs/yuga-planner-api/pkg/response"
)

type stubScheduler struct {
	submitResp *dto.SubmitJobResponse
	submitErr  error
	pollResp   *dto.PollJobResponse
	pollErr    error
	termErr    error
	exportData []byte
	exportType string
	exportErr  error
	linkResp   *dto.ExportLinkResponse
	linkErr    error
	runs       []models.SolverRun
	runsErr    error
	run        *models.SolverRun
	runErr     error

	terminatedAll bool
	lastJobID     string
}

func (s *stubScheduler) Submit(ctx context.Context, req dto.SolveScheduleRequest) (*dto.SubmitJobResponse, error) {
	return s.submitResp, s.submitErr
}

func (s *stubScheduler) Poll(ctx context.Context, jobID string) (*dto.PollJobResponse, error) {
	s.lastJobID = jobID
	return s.pollResp, s.pollErr
}

func (s *stubScheduler) Terminate(jobID string) error {
	s.lastJobID = jobID
	return s.termErr
}

func (s *stubScheduler) TerminateAll() {
	s.terminatedAll = true
}

func (s *stubScheduler) Export(ctx context.Context, jobID, format string) ([]byte, string, error) {
	s.lastJobID = jobID
	return s.exportData, s.exportType, s.exportErr
}

func (s *stubScheduler) ExportLink(ctx context.Context, jobID, format string) (*dto.ExportLinkResponse, error) {
	s.lastJobID = jobID
	return s.linkResp, s.linkErr
}

func (s *stubScheduler) DownloadExport(token string) ([]byte, string, error) {
	return s.exportData, s.exportType, s.exportErr
}

func (s *stubScheduler) ListRuns(ctx context.Context, limit int) ([]models.SolverRun, error) {
	return s.runs, s.runsErr
}

func (s *stubScheduler) GetRun(ctx context.Context, jobID string) (*models.SolverRun, error) {
	s.lastJobID = jobID
	return s.run, s.runErr
}

func newHandlerRouter(stub *stubScheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &ScheduleHandler{service: stub}
	r := gin.New()
	r.POST("/schedule-jobs", h.Submit)
	r.DELETE("/schedule-jobs", h.TerminateAll)
	r.GET("/schedule-jobs/:id", h.Poll)
	r.DELETE("/schedule-jobs/:id", h.Terminate)
	r.GET("/schedule-jobs/:id/export", h.Export)
	r.GET("/schedule-jobs/:id/export-link", h.ExportLink)
	r.GET("/exports/:token", h.Download)
	r.GET("/solver-runs", h.ListRuns)
	r.GET("/solver-runs/:id", h.GetRun)
	return r
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return env
}

func TestSubmitAccepted(t *testing.T) {
	stub := &stubScheduler{submitResp: &dto.SubmitJobResponse{JobID: "job-1"}}
	router := newHandlerRouter(stub)

	payload := `{"tasks":[{"description":"x","durationSlots":2,"skill":"Go"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/schedule-jobs", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	env := decodeEnvelope(t, w.Body)
	require.Nil(t, env.Error)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestSubmitRejectsMalformedJSON(t *testing.T) {
	router := newHandlerRouter(&stubScheduler{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/schedule-jobs", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w.Body)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestSubmitPropagatesServiceError(t *testing.T) {
	stub := &stubScheduler{submitErr: appErrors.ErrSizing}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/schedule-jobs", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decodeEnvelope(t, w.Body)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SIZING_ERROR", env.Error.Code)
}

func TestPollReturnsSolution(t *testing.T) {
	stub := &stubScheduler{pollResp: &dto.PollJobResponse{
		JobID:  "job-1",
		Status: string(models.JobStatusImproved),
		Score:  &dto.ScoreView{Hard: 0, Soft: -1, Feasible: true},
	}}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schedule-jobs/job-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "job-1", stub.lastJobID)
	assert.Contains(t, w.Body.String(), "IMPROVED")
}

func TestPollUnknownJob(t *testing.T) {
	stub := &stubScheduler{pollErr: appErrors.ErrNotFound}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schedule-jobs/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTerminateJob(t *testing.T) {
	stub := &stubScheduler{}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/schedule-jobs/job-1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "job-1", stub.lastJobID)
}

func TestTerminateAllJobs(t *testing.T) {
	stub := &stubScheduler{}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/schedule-jobs", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, stub.terminatedAll)
}

func TestExportCSV(t *testing.T) {
	stub := &stubScheduler{exportData: []byte("a,b\n"), exportType: "text/csv"}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schedule-jobs/job-1/export?format=csv", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule-job-1.csv")
	assert.Equal(t, "a,b\n", w.Body.String())
}

func TestExportPDFDisposition(t *testing.T) {
	stub := &stubScheduler{exportData: []byte("%PDF"), exportType: "application/pdf"}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schedule-jobs/job-1/export?format=pdf", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule-job-1.pdf")
}

func TestExportLink(t *testing.T) {
	stub := &stubScheduler{linkResp: &dto.ExportLinkResponse{Token: "tok", URL: "/exports/tok"}}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schedule-jobs/job-1/export-link?format=pdf", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "job-1", stub.lastJobID)
	assert.Contains(t, w.Body.String(), "/exports/tok")
}

func TestExportLinkNotConfigured(t *testing.T) {
	stub := &stubScheduler{linkErr: appErrors.ErrPreconditionFailed}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schedule-jobs/job-1/export-link", nil))

	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestDownloadBySignedToken(t *testing.T) {
	stub := &stubScheduler{exportData: []byte("a,b\n"), exportType: "text/csv"}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/some-token", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule.csv")
	assert.Equal(t, "a,b\n", w.Body.String())
}

func TestDownloadInvalidToken(t *testing.T) {
	stub := &stubScheduler{exportErr: appErrors.ErrUnauthorized}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exports/bad", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListRuns(t *testing.T) {
	stub := &stubScheduler{runs: []models.SolverRun{{ID: "r1", JobID: "job-1", Feasible: true}}}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/solver-runs?limit=5", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestListRunsPersistenceDisabled(t *testing.T) {
	stub := &stubScheduler{runsErr: appErrors.ErrPersistenceDisabled}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/solver-runs", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetRun(t *testing.T) {
	stub := &stubScheduler{run: &models.SolverRun{ID: "r1", JobID: "job-1", Feasible: true}}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/solver-runs/job-1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "job-1", stub.lastJobID)
	assert.Contains(t, w.Body.String(), "job-1")
}

func TestGetRunNotFound(t *testing.T) {
	stub := &stubScheduler{runErr: appErrors.ErrNotFound}
	router := newHandlerRouter(stub)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/solver-runs/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
