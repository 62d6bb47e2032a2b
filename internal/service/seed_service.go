package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
)

// SeedResult 本次实际新建的记录数（已存在的跳过）
type SeedResult struct {
	Departments int
	Users       int
	Checklists  int
}

// SeedService 演示数据初始化，可重复执行
type SeedService interface {
	Seed(ctx context.Context) (*SeedResult, error)
}

type seedService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSeedService 创建 SeedService 实例
func NewSeedService(repo *repository.Repository, logger *zap.Logger) SeedService {
	return &seedService{repo: repo, logger: logger}
}

type seedDepartment struct {
	name     string
	deptType string
}

type seedUser struct {
	username  string
	firstName string
	lastName  string
	position  string
	role      string
	deptType  string // 为空表示不归属部门
}

var seedDepartments = []seedDepartment{
	{"生产车间", model.DepartmentTypeProduction},
	{"质量部", model.DepartmentTypeQuality},
	{"仓库", model.DepartmentTypeWarehouse},
}

var seedUsers = []seedUser{
	{"worker1", "伟", "张", "操作工", model.RoleWorker, model.DepartmentTypeProduction},
	{"worker2", "芳", "李", "仓管员", model.RoleWorker, model.DepartmentTypeWarehouse},
	{"auditor1", "强", "王", "5S 审核员", model.RoleAuditor, model.DepartmentTypeQuality},
	{"manager1", "敏", "刘", "车间主任", model.RoleManager, model.DepartmentTypeProduction},
	{"admin", "静", "陈", "精益生产专员", model.RoleAdmin, ""},
	{"quality_dir", "磊", "杨", "质量总监", model.RoleQualityDirector, model.DepartmentTypeQuality},
	{"production_dir", "军", "赵", "生产总监", model.RoleProductionDirector, model.DepartmentTypeProduction},
}

// 5S 每组四条准则
var seedGroups = []struct {
	name     string
	criteria [4]string
}{
	{"整理 (Sort)", [4]string{
		"工作区内无与当前工作无关的物品",
		"不需要的物品已贴红牌并按规定处理",
		"工具与物料数量与实际需求相符",
		"通道与地面无杂物堆放",
	}},
	{"整顿 (Set in order)", [4]string{
		"物品定置定位并有明确标识",
		"工具取用与归还路径清晰",
		"区域划线完整清晰",
		"消防与安全设施无遮挡",
	}},
	{"清扫 (Shine)", [4]string{
		"地面、墙面与设备表面清洁",
		"设备无漏油、漏水、漏气",
		"清扫工具齐全并定点存放",
		"污染源已识别并有对策",
	}},
	{"清洁 (Standardize)", [4]string{
		"5S 标准已张贴且为最新版本",
		"责任区与责任人明确",
		"点检表按时填写",
		"现场状态与标准一致",
	}},
	{"素养 (Sustain)", [4]string{
		"员工熟悉并遵守 5S 规定",
		"上次发现的问题已按期整改",
		"定期开展 5S 自查",
		"员工主动参与改善活动",
	}},
}

func (s *seedService) Seed(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		deptIDs, err := s.seedDepartments(ctx, txRepo, result)
		if err != nil {
			return err
		}
		if err := s.seedUsers(ctx, txRepo, deptIDs, result); err != nil {
			return err
		}
		return s.seedChecklists(ctx, txRepo, result)
	})
	if err != nil {
		s.logger.Error("初始化演示数据失败", zap.Error(err))
		return nil, err
	}
	s.logger.Info("演示数据初始化完成",
		zap.Int("departments", result.Departments),
		zap.Int("users", result.Users),
		zap.Int("checklists", result.Checklists),
	)
	return result, nil
}

// seedDepartments 返回 部门类型 → 部门 ID
func (s *seedService) seedDepartments(ctx context.Context, repo *repository.Repository, result *SeedResult) (map[string]string, error) {
	ids := make(map[string]string, len(seedDepartments))
	for _, d := range seedDepartments {
		existing, err := repo.Department.GetByName(ctx, d.name)
		if err == nil {
			ids[d.deptType] = existing.DepartmentID
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		dept := &model.Department{Name: d.name, DepartmentType: d.deptType, IsActive: true}
		if err := repo.Department.Create(ctx, dept); err != nil {
			return nil, fmt.Errorf("创建部门 %s 失败: %w", d.name, err)
		}
		ids[d.deptType] = dept.DepartmentID
		result.Departments++
	}
	return ids, nil
}

func (s *seedService) seedUsers(ctx context.Context, repo *repository.Repository, deptIDs map[string]string, result *SeedResult) error {
	for _, u := range seedUsers {
		if _, err := repo.User.GetByUsername(ctx, u.username); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.username+"123"), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := &model.User{
			Username:     u.username,
			Email:        u.username + "@5s.local",
			PasswordHash: string(hash),
			FirstName:    u.firstName,
			LastName:     u.lastName,
			Position:     u.position,
			Role:         u.role,
			IsActive:     true,
		}
		if id, ok := deptIDs[u.deptType]; ok {
			user.DepartmentID = &id
		}
		if err := repo.User.Create(ctx, user); err != nil {
			return fmt.Errorf("创建用户 %s 失败: %w", u.username, err)
		}
		result.Users++
	}
	return nil
}

// seedChecklists 每种部门类型各一份自查清单与审核清单
func (s *seedService) seedChecklists(ctx context.Context, repo *repository.Repository, result *SeedResult) error {
	for _, d := range seedDepartments {
		for _, clType := range []string{model.ChecklistTypeSelfCheck, model.ChecklistTypeAudit} {
			existing, err := repo.Checklist.List(ctx, repository.ChecklistFilter{
				ChecklistType:  clType,
				DepartmentType: d.deptType,
			})
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				continue
			}
			if err := repo.Checklist.Create(ctx, buildSeedChecklist(clType, d)); err != nil {
				return fmt.Errorf("创建检查清单失败: %w", err)
			}
			result.Checklists++
		}
	}
	return nil
}

func buildSeedChecklist(clType string, d seedDepartment) *model.Checklist {
	kind := "自查"
	if clType == model.ChecklistTypeAudit {
		kind = "审核"
	}
	cl := &model.Checklist{
		Name:           fmt.Sprintf("%s 5S %s清单", d.name, kind),
		ChecklistType:  clType,
		DepartmentType: d.deptType,
		IsActive:       true,
	}
	for gi, g := range seedGroups {
		group := model.CriteriaGroup{Name: g.name, OrderIndex: gi + 1}
		for ci, desc := range g.criteria {
			group.Criteria = append(group.Criteria, model.Criterion{Description: desc, OrderIndex: ci + 1})
		}
		cl.Groups = append(cl.Groups, group)
	}
	return cl
}
