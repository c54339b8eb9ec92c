package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tower-eval/backend/internal/service"
	"tower-eval/backend/pkg/response"
)

// AssignmentHandler 评估人分配模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// ListMyAssignments 评估人查看自己当前分配的技术员
// GET /api/v1/assignments/my
func (h *AssignmentHandler) ListMyAssignments(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	view, err := h.assignmentSvc.ListAssignments(c.Request.Context(), userID)
	if err != nil {
		h.writeAssignmentError(c, err)
		return
	}
	response.OK(c, view)
}

// ListAssignments 管理员/主管查看指定评估人的分配
// GET /api/v1/assignments/:id
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	view, err := h.assignmentSvc.ListAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeAssignmentError(c, err)
		return
	}
	response.OK(c, view)
}

// SyncEvaluator 重算单个评估人的分配缓存（管理员）
// POST /api/v1/assignments/:id/sync
func (h *AssignmentHandler) SyncEvaluator(c *gin.Context) {
	outcome, err := h.assignmentSvc.SyncEvaluator(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrAssignmentUserNotFound) {
			response.NotFound(c, 26001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}
	if outcome.Outcome == service.SyncOutcomeSkipped {
		response.BadRequest(c, 26002, "该用户不是评估人")
		return
	}
	response.OK(c, outcome)
}

// SyncAll 全量重算全部用户的分配缓存（管理员）
// POST /api/v1/assignments/sync
func (h *AssignmentHandler) SyncAll(c *gin.Context) {
	report, err := h.assignmentSvc.SyncAll(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, report)
}

func (h *AssignmentHandler) writeAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentUserNotFound):
		response.NotFound(c, 26001, "用户不存在")
	case errors.Is(err, service.ErrAssignmentNotEvaluator):
		response.BadRequest(c, 26002, "该用户不是评估人")
	default:
		response.InternalError(c)
	}
}
