package router

import (
	"context"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/config"
	"github.com/maxfrank76/5s-system/internal/api/handler"
	"github.com/maxfrank76/5s-system/internal/api/middleware"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/pkg/jwt"
	"github.com/maxfrank76/5s-system/pkg/redis"
)

// 角色组合（admin 由 RoleAuth 统一放行）
var (
	inspectors = []string{model.RoleAuditor, model.RoleManager}
	overseers  = []string{model.RoleManager, model.RoleAuditor, model.RoleQualityDirector, model.RoleProductionDirector}
	planners   = []string{model.RoleManager, model.RoleQualityDirector}
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", healthHandler(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, cfg.RateLimit.LoginPerMinute, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/profile", h.Auth.UpdateProfile)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户管理（仅 admin）
			users := authorized.Group("/users", middleware.RoleAuth(model.RoleAdmin))
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.POST("/import", h.User.ImportUsers)
				users.GET("/:id", h.User.GetUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
				users.PUT("/:id/role", h.User.AssignRole)
				users.POST("/:id/reset-password", h.User.ResetPassword)
			}

			// 部门模块
			departments := authorized.Group("/departments")
			{
				departments.GET("", h.Department.ListDepartments)
				departments.GET("/tree", h.Department.GetTree)
				departments.GET("/:id", h.Department.GetDepartment)
				departments.GET("/:id/members", middleware.RoleAuth(overseers...), h.Department.GetMembers)
				departments.POST("", middleware.RoleAuth(model.RoleAdmin), h.Department.CreateDepartment)
				departments.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Department.UpdateDepartment)
				departments.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Department.DeleteDepartment)
			}

			// 检查清单模块（维护由质量总监负责）
			checklists := authorized.Group("/checklists")
			{
				checklists.GET("", h.Checklist.ListChecklists)
				checklists.GET("/:id", h.Checklist.GetChecklist)
				checklists.POST("", middleware.RoleAuth(model.RoleQualityDirector), h.Checklist.CreateChecklist)
				checklists.PUT("/:id", middleware.RoleAuth(model.RoleQualityDirector), h.Checklist.UpdateChecklist)
				checklists.DELETE("/:id", middleware.RoleAuth(model.RoleQualityDirector), h.Checklist.DeleteChecklist)
				checklists.POST("/:id/groups", middleware.RoleAuth(model.RoleQualityDirector), h.Checklist.AddGroup)
			}
			authorized.POST("/checklist-groups/:id/criteria", middleware.RoleAuth(model.RoleQualityDirector), h.Checklist.AddCriterion)
			authorized.DELETE("/criteria/:id", middleware.RoleAuth(model.RoleQualityDirector), h.Checklist.DeleteCriterion)

			// 自查模块
			selfChecks := authorized.Group("/self-checks")
			{
				selfChecks.GET("", middleware.RoleAuth(overseers...), h.SelfCheck.ListSelfChecks)
				selfChecks.GET("/checklist", h.SelfCheck.GetChecklist)
				selfChecks.GET("/history", h.SelfCheck.History)
				selfChecks.GET("/active", h.SelfCheck.Active)
				selfChecks.POST("/start", h.SelfCheck.Start)
				selfChecks.GET("/:id", h.SelfCheck.GetSelfCheck)
				selfChecks.POST("/:id/submit", h.SelfCheck.Submit)
				selfChecks.DELETE("/:id", h.SelfCheck.Cancel)
			}

			// 审核模块（列表与详情按数据范围在 Service 层裁剪）
			audits := authorized.Group("/audits")
			{
				audits.GET("", h.Audit.ListAudits)
				audits.GET("/:id", h.Audit.GetAudit)
				audits.POST("", middleware.RoleAuth(inspectors...), h.Audit.CreateAudit)
				audits.PUT("/:id/answers", middleware.RoleAuth(inspectors...), h.Audit.SaveAnswers)
				audits.POST("/:id/complete", middleware.RoleAuth(inspectors...), h.Audit.CompleteAudit)
				audits.DELETE("/:id", middleware.RoleAuth(inspectors...), h.Audit.DeleteAudit)
				audits.POST("/:id/remarks", middleware.RoleAuth(inspectors...), h.Remark.CreateRemark)
			}
			authorized.POST("/audit-answers/:id/photos", middleware.RoleAuth(inspectors...), h.Photo.UploadForAnswer)

			// 问题模块（状态流转权限在 Service 层判断）
			remarks := authorized.Group("/remarks")
			{
				remarks.GET("", h.Remark.ListRemarks)
				remarks.GET("/:id", h.Remark.GetRemark)
				remarks.PUT("/:id/assign", middleware.RoleAuth(inspectors...), h.Remark.Assign)
				remarks.PUT("/:id/resolve", h.Remark.Resolve)
				remarks.PUT("/:id/close", h.Remark.Close)
				remarks.PUT("/:id/reopen", h.Remark.Reopen)
				remarks.POST("/:id/photos", h.Photo.UploadForRemark)
			}

			// 照片
			authorized.GET("/photos/:id", h.Photo.GetPhoto)
			authorized.DELETE("/photos/:id", h.Photo.DeletePhoto)

			// 审核计划模块
			schedules := authorized.Group("/audit-schedules")
			{
				schedules.GET("", h.AuditSchedule.ListSchedules)
				schedules.GET("/calendar.ics", h.AuditSchedule.Calendar)
				schedules.GET("/:id", h.AuditSchedule.GetSchedule)
				schedules.POST("", middleware.RoleAuth(planners...), h.AuditSchedule.CreateSchedule)
				schedules.PUT("/:id", middleware.RoleAuth(planners...), h.AuditSchedule.UpdateSchedule)
				schedules.POST("/:id/cancel", middleware.RoleAuth(planners...), h.AuditSchedule.CancelSchedule)
			}

			// 仪表盘
			dashboard := authorized.Group("/dashboard")
			{
				dashboard.GET("/stats", h.Dashboard.Stats)
				dashboard.GET("/departments", h.Dashboard.Departments)
				dashboard.GET("/recent", h.Dashboard.Recent)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/department-stats", middleware.RoleAuth(overseers...), h.Export.ExportDepartmentStats)
				export.GET("/audits/:id", h.Export.ExportAudit)
			}

			// 系统配置
			authorized.GET("/system-config", h.SystemConfig.GetConfig)
			authorized.PUT("/system-config", middleware.RoleAuth(model.RoleAdmin), h.SystemConfig.UpdateConfig)
		}
	}

	return r
}

// healthHandler 检查数据库与 Redis 连通性；Redis 未配置时视为降级而非故障
func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"] = "unavailable"
			status["database"] = "down"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			if err := rdb.Ping(ctx); err != nil {
				status["redis"] = "down"
			} else {
				status["redis"] = "ok"
			}
		}

		c.JSON(code, status)
	}
}
