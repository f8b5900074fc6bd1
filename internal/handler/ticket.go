package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/settlewise/case-service/internal/errs"
	"github.com/settlewise/case-service/internal/kafka"
	"github.com/settlewise/case-service/internal/lifecycle"
	"github.com/settlewise/case-service/internal/middleware"
	"github.com/settlewise/case-service/internal/service"
)

type TicketHandler struct {
	svc      *service.TicketService
	producer *kafka.Producer
}

func NewTicketHandler(svc *service.TicketService, producer *kafka.Producer) *TicketHandler {
	return &TicketHandler{svc: svc, producer: producer}
}

type createTicketRequest struct {
	LenderName string  `json:"lender_name"`
	LoanType   string  `json:"loan_type" binding:"required"`
	LoanAmount float64 `json:"loan_amount"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	t, err := h.svc.Create(c.Request.Context(), actor, service.CreateTicketInput{
		LenderName: req.LenderName,
		LoanType:   req.LoanType,
		LoanAmount: req.LoanAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.producer.ProduceAsync("case.created", t)
	c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) Get(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	t, err := h.svc.GetByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) List(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	filter := make(map[string]interface{})
	if v := c.Query("stage"); v != "" {
		filter["stage = ?"] = v
	}
	if v := c.Query("status"); v != "" {
		filter["status = ?"] = v
	}
	if v := c.Query("user_id"); v != "" {
		filter["user_id = ?"] = v
	}
	if v := c.Query("loan_type"); v != "" {
		filter["loan_type = ?"] = v
	}

	limit := 0
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	items, total, err := h.svc.List(c.Request.Context(), actor, filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   total,
	})
}

// patchTicketRequest carries exactly one lifecycle mutation. Version is
// optional: when present the update is rejected as a conflict if the
// ticket changed since the caller read it.
type patchTicketRequest struct {
	Stage          *string  `json:"stage,omitempty"`
	Status         *string  `json:"status,omitempty"`
	OverallPercent *int     `json:"overall_percent,omitempty"`
	SettledAmount  *float64 `json:"settled_amount,omitempty"`
	Action         *string  `json:"action,omitempty"`
	Version        *int64   `json:"version,omitempty"`
}

// decodeCommand turns the request into one lifecycle command. More or
// fewer than one mutation field is a validation error: the API refuses
// open partial-update bags.
func decodeCommand(req patchTicketRequest) (lifecycle.Command, error) {
	var cmds []lifecycle.Command
	if req.Stage != nil {
		stage, err := lifecycle.ParseStage(*req.Stage)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, lifecycle.ChangeStage{Stage: stage})
	}
	if req.Status != nil {
		status, err := lifecycle.ParseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, lifecycle.ChangeStatus{Status: status})
	}
	if req.OverallPercent != nil {
		cmds = append(cmds, lifecycle.SetProgress{Percent: *req.OverallPercent})
	}
	if req.SettledAmount != nil {
		cmds = append(cmds, lifecycle.SetSettlement{Amount: *req.SettledAmount})
	}
	if req.Action != nil {
		switch *req.Action {
		case "resolve":
			cmds = append(cmds, lifecycle.ResolveCase{})
		case "reject":
			cmds = append(cmds, lifecycle.RejectCase{})
		default:
			return nil, errs.Validation("unknown action %q", *req.Action)
		}
	}
	if len(cmds) != 1 {
		return nil, errs.Validation("request must contain exactly one of stage, status, overall_percent, settled_amount, action")
	}
	return cmds[0], nil
}

func (h *TicketHandler) Patch(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	var req patchTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	cmd, err := decodeCommand(req)
	if err != nil {
		respondError(c, err)
		return
	}
	t, err := h.svc.ApplyCommand(c.Request.Context(), actor, c.Param("id"), cmd, req.Version)
	if err != nil {
		respondError(c, err)
		return
	}
	h.producer.ProduceAsync("case.updated", t)
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Events(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	events, err := h.svc.ListEvents(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
