package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/procurement-workflow/internal/application/service"
	"github.com/garyjia/procurement-workflow/internal/domain/entity"
	"github.com/garyjia/procurement-workflow/internal/domain/workflow"
)

// actorHeader carries the authenticated user id resolved by the upstream gateway
const actorHeader = "X-User-ID"

// Handlers contains all HTTP request handlers
type Handlers struct {
	requestService service.RequestService
	auditService   service.AuditService
	userService    service.UserService
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	requestService service.RequestService,
	auditService service.AuditService,
	userService service.UserService,
	logger Logger,
) *Handlers {
	return &Handlers{
		requestService: requestService,
		auditService:   auditService,
		userService:    userService,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateRequestBody is the payload for creating a draft request
type CreateRequestBody struct {
	Item            string  `json:"item" binding:"required"`
	Description     string  `json:"description"`
	Quantity        float64 `json:"quantity" binding:"required"`
	Unit            string  `json:"unit" binding:"required"`
	Category        string  `json:"category"`
	DeliveryAddress string  `json:"delivery_address"`
	Reason          string  `json:"reason"`
}

// ActionBody is the payload for workflow actions
type ActionBody struct {
	Notes  string `json:"notes"`
	Reason string `json:"reason"`
}

// CreateUserBody is the payload for registering a user
type CreateUserBody struct {
	Username     string `json:"username" binding:"required"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	SupervisorID *int64 `json:"supervisor_id"`
	IsAdmin      bool   `json:"is_admin"`
	CanPurchase  bool   `json:"can_purchase"`
}

// SetSupervisorBody is the payload for rewiring a supervisor edge
type SetSupervisorBody struct {
	SupervisorID *int64 `json:"supervisor_id"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), actor, service.CreateRequestInput{
		Item:            body.Item,
		Description:     body.Description,
		Quantity:        body.Quantity,
		Unit:            body.Unit,
		Category:        body.Category,
		DeliveryAddress: body.DeliveryAddress,
		Reason:          body.Reason,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: request})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	request, err := h.requestService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	requests, err := h.requestService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// PendingApprovals handles GET /api/requests/pending-approvals
func (h *Handlers) PendingApprovals(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	requests, err := h.requestService.PendingApprovals(c.Request.Context(), actor)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetHistory handles GET /api/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	records, err := h.auditService.HistoryFor(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// SubmitRequest handles POST /api/requests/:id/submit
func (h *Handlers) SubmitRequest(c *gin.Context) {
	h.workflowAction(c, func(id int64, actor *entity.User, body ActionBody) (*entity.Request, error) {
		return h.requestService.Submit(c.Request.Context(), id, actor, body.Notes)
	})
}

// ApproveRequest handles POST /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	h.workflowAction(c, func(id int64, actor *entity.User, body ActionBody) (*entity.Request, error) {
		return h.requestService.Approve(c.Request.Context(), id, actor, body.Notes)
	})
}

// RejectRequest handles POST /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	h.workflowAction(c, func(id int64, actor *entity.User, body ActionBody) (*entity.Request, error) {
		return h.requestService.Reject(c.Request.Context(), id, actor, body.Notes)
	})
}

// RequestRevision handles POST /api/requests/:id/request-revision
func (h *Handlers) RequestRevision(c *gin.Context) {
	h.workflowAction(c, func(id int64, actor *entity.User, body ActionBody) (*entity.Request, error) {
		return h.requestService.RequestRevision(c.Request.Context(), id, actor, body.Notes, body.Reason)
	})
}

// MarkPurchased handles POST /api/requests/:id/mark-purchased
func (h *Handlers) MarkPurchased(c *gin.Context) {
	h.workflowAction(c, func(id int64, actor *entity.User, body ActionBody) (*entity.Request, error) {
		return h.requestService.MarkPurchased(c.Request.Context(), id, actor, body.Notes)
	})
}

// MarkDelivered handles POST /api/requests/:id/mark-delivered
func (h *Handlers) MarkDelivered(c *gin.Context) {
	h.workflowAction(c, func(id int64, actor *entity.User, body ActionBody) (*entity.Request, error) {
		return h.requestService.MarkDelivered(c.Request.Context(), id, actor, body.Notes)
	})
}

// MarkCompleted handles POST /api/requests/:id/mark-completed
func (h *Handlers) MarkCompleted(c *gin.Context) {
	h.workflowAction(c, func(id int64, actor *entity.User, body ActionBody) (*entity.Request, error) {
		return h.requestService.MarkCompleted(c.Request.Context(), id, actor, body.Notes)
	})
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *gin.Context) {
	var body CreateUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	user := &entity.User{
		Username:     body.Username,
		FirstName:    body.FirstName,
		LastName:     body.LastName,
		SupervisorID: body.SupervisorID,
		Active:       true,
		IsAdmin:      body.IsAdmin,
		CanPurchase:  body.CanPurchase,
		CreatedAt:    time.Now(),
	}

	if err := h.userService.Create(c.Request.Context(), user); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: user})
}

// GetApprovalChain handles GET /api/users/:id/approval-chain
func (h *Handlers) GetApprovalChain(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	chain, err := h.userService.ApprovalChain(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: chain})
}

// SetSupervisor handles PUT /api/users/:id/supervisor
func (h *Handlers) SetSupervisor(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var body SetSupervisorBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	if err := h.userService.SetSupervisor(c.Request.Context(), id, body.SupervisorID); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// workflowAction factors the shared shape of the transition endpoints
func (h *Handlers) workflowAction(c *gin.Context, fn func(id int64, actor *entity.User, body ActionBody) (*entity.Request, error)) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var body ActionBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
			return
		}
	}

	request, err := fn(id, actor, body)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: request})
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handlers) actor(c *gin.Context) (*entity.User, bool) {
	raw := c.GetHeader(actorHeader)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "missing " + actorHeader + " header"})
		return nil, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid " + actorHeader + " header"})
		return nil, false
	}

	actor, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "unknown actor"})
			return nil, false
		}
		h.fail(c, err)
		return nil, false
	}
	return actor, true
}

// fail maps engine error classes to HTTP status codes: bad request for
// invalid transitions, forbidden for wrong actors, conflict for races and
// hierarchy cycles.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, workflow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrNotNextApprover),
		errors.Is(err, workflow.ErrNotCreator),
		errors.Is(err, workflow.ErrCannotPurchase),
		errors.Is(err, workflow.ErrAlreadyFullyApproved):
		status = http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrInvalidState):
		status = http.StatusBadRequest
	case errors.Is(err, workflow.ErrCircularHierarchy),
		errors.Is(err, workflow.ErrConcurrencyConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}

	c.JSON(status, Response{Success: false, Error: err.Error()})
}
