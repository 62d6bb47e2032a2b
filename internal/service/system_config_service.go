package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
)

// SystemConfigService 系统配置业务接口
type SystemConfigService interface {
	Get(ctx context.Context) (*dto.SystemConfigResponse, error)
	Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error)
}

type systemConfigService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSystemConfigService 创建 SystemConfigService 实例
func NewSystemConfigService(repo *repository.Repository, logger *zap.Logger) SystemConfigService {
	return &systemConfigService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *systemConfigService) Get(ctx context.Context) (*dto.SystemConfigResponse, error) {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}
	return toSystemConfigResponse(cfg), nil
}

// ────────────────────── Update ──────────────────────

func (s *systemConfigService) Update(ctx context.Context, req *dto.UpdateSystemConfigRequest, callerID string) (*dto.SystemConfigResponse, error) {
	cfg, err := s.repo.SystemConfig.Get(ctx)
	if err != nil {
		s.logger.Error("查询系统配置失败", zap.Error(err))
		return nil, err
	}

	if req.RemarkDueDays != nil {
		cfg.RemarkDueDays = *req.RemarkDueDays
	}
	if req.SelfCheckPassPercent != nil {
		cfg.SelfCheckPassPercent = *req.SelfCheckPassPercent
	}
	if req.AuditPassPercent != nil {
		cfg.AuditPassPercent = *req.AuditPassPercent
	}
	cfg.UpdatedBy = &callerID

	if err := s.repo.SystemConfig.Update(ctx, cfg); err != nil {
		s.logger.Error("更新系统配置失败", zap.Error(err))
		return nil, err
	}
	cfg.UpdatedAt = time.Now()

	return toSystemConfigResponse(cfg), nil
}

func toSystemConfigResponse(cfg *model.SystemConfig) *dto.SystemConfigResponse {
	return &dto.SystemConfigResponse{
		RemarkDueDays:        cfg.RemarkDueDays,
		SelfCheckPassPercent: cfg.SelfCheckPassPercent,
		AuditPassPercent:     cfg.AuditPassPercent,
		UpdatedAt:            formatTime(cfg.UpdatedAt),
	}
}

// loadSystemConfig 读取系统配置，失败时回退默认值（不阻断业务流程）
func loadSystemConfig(ctx context.Context, repo *repository.Repository, logger *zap.Logger) *model.SystemConfig {
	cfg, err := repo.SystemConfig.Get(ctx)
	if err != nil {
		logger.Warn("读取系统配置失败，使用默认值", zap.Error(err))
		return model.DefaultSystemConfig()
	}
	return cfg
}
