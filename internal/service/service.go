package service

import (
	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/config"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/jwt"
	"github.com/maxfrank76/5s-system/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	User          UserService
	Department    DepartmentService
	Checklist     ChecklistService
	SelfCheck     SelfCheckService
	Audit         AuditService
	Remark        RemarkService
	Photo         PhotoService
	AuditSchedule AuditScheduleService
	Dashboard     DashboardService
	Export        ExportService
	SystemConfig  SystemConfigService
	Seed          SeedService
}

// NewService 创建 Service 聚合；rdb 为 nil 时黑名单与仪表盘缓存降级为不可用
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	baseURL := cfg.Server.BaseURL
	return &Service{
		Auth:          NewAuthService(repo, jwtMgr, rdb, logger),
		User:          NewUserService(repo, logger),
		Department:    NewDepartmentService(repo, logger),
		Checklist:     NewChecklistService(repo, logger),
		SelfCheck:     NewSelfCheckService(repo, rdb, logger),
		Audit:         NewAuditService(repo, rdb, baseURL, logger),
		Remark:        NewRemarkService(repo, rdb, baseURL, logger),
		Photo:         NewPhotoService(repo, cfg.Upload, baseURL, logger),
		AuditSchedule: NewAuditScheduleService(repo, baseURL, logger),
		Dashboard:     NewDashboardService(repo, rdb, cfg.Dashboard.CacheTTL, baseURL, logger),
		Export:        NewExportService(repo, logger),
		SystemConfig:  NewSystemConfigService(repo, logger),
		Seed:          NewSeedService(repo, logger),
	}
}
