package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
)

// ── 通用业务错误 ──

var (
	ErrNoPermission = errors.New("无权操作")
	ErrInvalidDate  = errors.New("日期格式错误，应为 YYYY-MM-DD")
)

// Caller 当前请求的调用者身份（来自 JWT）
type Caller struct {
	UserID       string
	Role         string
	DepartmentID string
}

// Is 是否具备指定角色之一（admin 视为全部具备）
func (c Caller) Is(roles ...string) bool {
	return model.HasRole(c.Role, roles...)
}

// IsAdmin 是否为管理员
func (c Caller) IsAdmin() bool { return c.Role == model.RoleAdmin }

// seesEverything auditor、总监与 admin 可见全部部门
func (c Caller) seesEverything() bool {
	return c.Is(model.RoleAuditor, model.RoleQualityDirector, model.RoleProductionDirector)
}

// dataScope 调用者的数据可见范围
//
//	All=true          不限制
//	DepartmentIDs     manager 可见本部门及全部下级部门
//	UserID            worker（或未分配部门的 manager）仅可见本人数据
type dataScope struct {
	All           bool
	DepartmentIDs []string
	UserID        string
}

// resolveScope 根据角色与部门树计算可见范围
func resolveScope(ctx context.Context, repo *repository.Repository, caller Caller) (*dataScope, error) {
	if caller.seesEverything() {
		return &dataScope{All: true}, nil
	}
	if caller.Role == model.RoleManager && caller.DepartmentID != "" {
		ids, err := repo.Department.SubtreeIDs(ctx, caller.DepartmentID)
		if err != nil {
			return nil, err
		}
		return &dataScope{DepartmentIDs: ids}, nil
	}
	return &dataScope{UserID: caller.UserID}, nil
}

// allowsDepartment 部门是否落在可见范围内（worker 范围不按部门放行）
func (s *dataScope) allowsDepartment(departmentID string) bool {
	if s.All {
		return true
	}
	for _, id := range s.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}

// narrow 在可见范围内应用显式的部门筛选，返回最终部门 ID 列表
// 返回 ok=false 表示筛选条件超出可见范围
func (s *dataScope) narrow(departmentID string) (ids []string, ok bool) {
	if departmentID == "" {
		return s.DepartmentIDs, true
	}
	if !s.allowsDepartment(departmentID) {
		return nil, false
	}
	return []string{departmentID}, true
}

// ── 时间格式 ──

const (
	timeLayout = "2006-01-02T15:04:05Z07:00"
	dateLayout = "2006-01-02"
)

func formatTime(t time.Time) string { return t.Format(timeLayout) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Local().Format(dateLayout)
	return &s
}

// parseDate 解析 YYYY-MM-DD（本地时区零点）
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// notFound 将 gorm.ErrRecordNotFound 转换为业务错误，其他错误记录日志后原样返回
func notFound(logger *zap.Logger, err error, target error, msg string, fields ...zap.Field) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
	return err
}
