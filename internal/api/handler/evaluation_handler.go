package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/model"
	"tower-eval/backend/internal/service"
	"tower-eval/backend/pkg/response"
)

// EvaluationHandler 评估模块 HTTP 处理器（矩阵 / 提交 / 导出 / 日历订阅）
type EvaluationHandler struct {
	matrixSvc     service.MatrixService
	submissionSvc service.SubmissionService
	exportSvc     service.ExportService
	calendarSvc   service.CalendarService
}

// NewEvaluationHandler 创建 EvaluationHandler
func NewEvaluationHandler(
	matrixSvc service.MatrixService,
	submissionSvc service.SubmissionService,
	exportSvc service.ExportService,
	calendarSvc service.CalendarService,
) *EvaluationHandler {
	return &EvaluationHandler{
		matrixSvc:     matrixSvc,
		submissionSvc: submissionSvc,
		exportSvc:     exportSvc,
		calendarSvc:   calendarSvc,
	}
}

// resolveEvaluatorID 确定矩阵的目标评估人：
// 评估人只能查看自己；管理员/主管可通过 evaluator_id 查询任意评估人
func resolveEvaluatorID(c *gin.Context) (string, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return "", false
	}

	target := c.Query("evaluator_id")
	if target == "" || target == userID {
		return userID, true
	}
	if role != model.RoleAdmin && role != model.RoleSupervisor {
		response.Forbidden(c, 10003, "无权限访问")
		return "", false
	}
	return target, true
}

// GetMatrix 构建评估矩阵
// GET /api/v1/evaluations/matrix?tower_id=xxx[&evaluator_id=yyy]
func (h *EvaluationHandler) GetMatrix(c *gin.Context) {
	evaluatorID, ok := resolveEvaluatorID(c)
	if !ok {
		return
	}
	towerID := c.Query("tower_id")
	if towerID == "" {
		response.BadRequest(c, 10001, "缺少 tower_id 参数")
		return
	}

	matrix, err := h.matrixSvc.BuildMatrix(c.Request.Context(), evaluatorID, towerID)
	if err != nil {
		h.writeMatrixError(c, err)
		return
	}
	response.OK(c, matrix)
}

// Submit 批量提交评估
// POST /api/v1/evaluations
func (h *EvaluationHandler) Submit(c *gin.Context) {
	evaluatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.BulkSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.submissionSvc.Submit(c.Request.Context(), evaluatorID, &req)
	if err != nil {
		var incomplete *service.IncompleteSubmissionError
		switch {
		case errors.Is(err, service.ErrSubmissionFormNotFound):
			response.NotFound(c, 24001, "表单不存在")
		case errors.Is(err, service.ErrSubmissionFormNotActive):
			response.Conflict(c, 24002, "表单当前未开放提交")
		case errors.Is(err, service.ErrSubmissionOutsideWindow):
			response.Conflict(c, 24003, "当前不在该表单的评估窗口内")
		case errors.Is(err, service.ErrSubmissionDuplicate):
			response.Conflict(c, 24004, "本周期已提交过该表单的评估")
		case errors.As(err, &incomplete):
			response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 24005, "评估提交不完整", incomplete.Detail)
		case errors.Is(err, service.ErrSubmissionInvalidRef):
			response.BadRequest(c, 24006, err.Error())
		case errors.Is(err, service.ErrSubmissionInvalidValue):
			response.BadRequest(c, 24007, err.Error())
		case errors.Is(err, service.ErrSubmissionEvaluatorScope):
			response.Forbidden(c, 24008, "该用户不是评估人，不能提交评估")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, result)
}

// ExportMatrix 导出评估矩阵为 Excel
// GET /api/v1/evaluations/matrix/export?tower_id=xxx[&evaluator_id=yyy]
func (h *EvaluationHandler) ExportMatrix(c *gin.Context) {
	evaluatorID, ok := resolveEvaluatorID(c)
	if !ok {
		return
	}
	towerID := c.Query("tower_id")
	if towerID == "" {
		response.BadRequest(c, 10001, "缺少 tower_id 参数")
		return
	}

	buf, filename, err := h.exportSvc.ExportMatrix(c.Request.Context(), evaluatorID, towerID)
	if err != nil {
		if errors.Is(err, service.ErrExportEmptyMatrix) {
			response.NotFound(c, 27001, "当前矩阵为空，无可导出内容")
			return
		}
		h.writeMatrixError(c, err)
		return
	}

	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(filename)))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// WindowCalendar 评估窗口日历订阅（ICS）
// GET /api/v1/evaluations/calendar.ics
func (h *EvaluationHandler) WindowCalendar(c *gin.Context) {
	feed, err := h.calendarSvc.WindowFeed(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

// writeMatrixError 矩阵类错误的统一映射
func (h *EvaluationHandler) writeMatrixError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMatrixEvaluatorNotFound):
		response.NotFound(c, 25001, "评估人不存在")
	case errors.Is(err, service.ErrMatrixTowerNotFound):
		response.NotFound(c, 25002, "塔组不存在")
	case errors.Is(err, service.ErrMatrixTowerNotVisible):
		response.Forbidden(c, 25003, "该塔组不在评估人辖区内")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/evaluation_handler.go
