package deployments

import (
	"errors"

	"go_dcd/internal/chain"
	"go_dcd/internal/httpx"
	"go_dcd/internal/store"

	"github.com/gin-gonic/gin"
)

// CreateRequest represents a deployment submission
type CreateRequest struct {
	Endpoint  string `json:"endpoint" binding:"required,max=4096"`
	Username  string `json:"username" binding:"required,max=4096"`
	Password  string `json:"password" binding:"required"`
	Project   string `json:"project" binding:"required"`
	Memo      string `json:"memo"`
	EmailAddr string `json:"emailAddr" binding:"omitempty,email"`
}

// CreateResponse carries the job id assigned to the submission
type CreateResponse struct {
	JobID string `json:"jobId"`
}

// StatusRequest represents a status query
type StatusRequest struct {
	JobID string `form:"jobId" binding:"required"`
}

// Handler handles deployments API
type Handler struct {
	orch *chain.Orchestrator
}

// NewHandler creates a new deployments handler
func NewHandler(orch *chain.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// Create handles POST /api/v1/deployments/create. It enqueues the job chain
// and returns immediately with the assigned job id.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	jobID, err := h.orch.Submit(c.Request.Context(), chain.SubmitParams{
		Endpoint:  req.Endpoint,
		Username:  req.Username,
		Password:  req.Password,
		Project:   req.Project,
		Memo:      req.Memo,
		ClientIP:  c.ClientIP(),
		EmailAddr: req.EmailAddr,
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to submit deployment", err))
		return
	}

	httpx.OK(c, CreateResponse{JobID: jobID})
}

// Status handles GET /api/v1/deployments/status. It returns the read-only
// projection of the record for polling UIs.
func (h *Handler) Status(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("jobId is required"))
		return
	}

	view, err := h.orch.GetStatus(req.JobID)
	if errors.Is(err, store.ErrNotFound) {
		httpx.FailErr(c, httpx.ErrNotFound("deployment not found"))
		return
	}
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to query deployment", err))
		return
	}

	httpx.OK(c, view)
}
