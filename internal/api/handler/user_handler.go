package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/service"
	"tower-eval/backend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// CreateUser 创建用户（管理员）
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.CreateUser(c.Request.Context(), &req, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserEmailTaken):
			response.Conflict(c, 20002, "该邮箱已被注册")
		case errors.Is(err, service.ErrUserTowerNotFound):
			response.BadRequest(c, 20003, "所辖塔组不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.Created(c, user)
}

// ListUsers 用户列表（管理员/主管）
// GET /api/v1/users?role=client
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, users)
}

// GetUser 查询单个用户
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, user)
}

// UpdateUser 更新用户（管理员）
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.UpdateUser(c.Request.Context(), c.Param("id"), &req, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 20001, "用户不存在")
		case errors.Is(err, service.ErrUserEmailTaken):
			response.Conflict(c, 20002, "该邮箱已被注册")
		case errors.Is(err, service.ErrUserTowerNotFound):
			response.BadRequest(c, 20003, "所辖塔组不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户（管理员，软删除）
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.DeleteUser(c.Request.Context(), c.Param("id"), operatorID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 20001, "用户不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/user_handler.go
