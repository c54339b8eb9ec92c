package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/service"
	"tower-eval/backend/pkg/response"
)

// TowerHandler 塔组模块 HTTP 处理器
type TowerHandler struct {
	towerSvc service.TowerService
}

// NewTowerHandler 创建 TowerHandler
func NewTowerHandler(towerSvc service.TowerService) *TowerHandler {
	return &TowerHandler{towerSvc: towerSvc}
}

// CreateTower 创建塔组（管理员）
// POST /api/v1/towers
func (h *TowerHandler) CreateTower(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tower, err := h.towerSvc.CreateTower(c.Request.Context(), &req, operatorID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Created(c, tower)
}

// ListTowers 塔组列表
// GET /api/v1/towers
func (h *TowerHandler) ListTowers(c *gin.Context) {
	towers, err := h.towerSvc.ListTowers(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, towers)
}

// GetTower 查询单个塔组
// GET /api/v1/towers/:id
func (h *TowerHandler) GetTower(c *gin.Context) {
	tower, err := h.towerSvc.GetTower(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTowerNotFound) {
			response.NotFound(c, 21001, "塔组不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, tower)
}

// UpdateTower 更新塔组（管理员）
// PUT /api/v1/towers/:id
func (h *TowerHandler) UpdateTower(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tower, err := h.towerSvc.UpdateTower(c.Request.Context(), c.Param("id"), &req, operatorID)
	if err != nil {
		if errors.Is(err, service.ErrTowerNotFound) {
			response.NotFound(c, 21001, "塔组不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, tower)
}

// DeleteTower 删除塔组（管理员，软删除）
// DELETE /api/v1/towers/:id
func (h *TowerHandler) DeleteTower(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.towerSvc.DeleteTower(c.Request.Context(), c.Param("id"), operatorID); err != nil {
		switch {
		case errors.Is(err, service.ErrTowerNotFound):
			response.NotFound(c, 21001, "塔组不存在")
		case errors.Is(err, service.ErrTowerHasTechnicians):
			response.Conflict(c, 21002, "塔组下仍有技术员，不能删除")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, nil)
}
