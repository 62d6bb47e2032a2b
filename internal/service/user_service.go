package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/sanitize"
)

// ── 用户模块业务错误 ──

var (
	ErrUsernameExists     = errors.New("用户名已存在")
	ErrUserSelfRoleChange = errors.New("不能修改自己的角色")
	ErrUserSelfDelete     = errors.New("不能删除自己")
	ErrInvalidRole        = errors.New("未知角色")
)

// UserService 用户管理业务接口（管理员）
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	// Delete 停用账号（保留历史数据）
	Delete(ctx context.Context, id string, callerID string) error
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) error
	ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row            int
	Username       string
	Email          string
	FirstName      string
	LastName       string
	Position       string
	Role           string
	DepartmentName string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error) {
	if err := s.checkUnique(ctx, req.Username, req.Email, ""); err != nil {
		return nil, err
	}
	if req.DepartmentID != nil {
		if err := s.ensureDepartment(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    sanitize.Text(req.FirstName),
		LastName:     sanitize.Text(req.LastName),
		Position:     sanitize.Text(req.Position),
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
	}
	user.CreatedBy = &callerID
	user.UpdatedBy = &callerID

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	// 重新加载以获取关联数据（部门等）
	created, err := s.repo.User.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(created), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrUserNotFound, "查询用户失败", zap.String("id", id))
	}
	return toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
		Keyword:      req.Keyword,
		IsActive:     req.IsActive,
	}

	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrUserNotFound, "查询用户失败", zap.String("id", id))
	}

	if req.Email != nil && *req.Email != user.Email {
		if err := s.checkUnique(ctx, "", *req.Email, id); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = sanitize.Text(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = sanitize.Text(*req.LastName)
	}
	if req.Position != nil {
		user.Position = sanitize.Text(*req.Position)
	}
	if req.DepartmentID != nil {
		if err := s.ensureDepartment(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
		user.DepartmentID = req.DepartmentID
		user.Department = nil
	}
	if req.IsActive != nil {
		if !*req.IsActive && id == callerID {
			return nil, ErrUserSelfDelete
		}
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(updated), nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}
	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		return notFound(s.logger, err, ErrUserNotFound, "查询用户失败", zap.String("id", id))
	}

	if err := s.repo.User.UpdateFields(ctx, id, map[string]interface{}{
		"is_active":  false,
		"updated_by": callerID,
	}); err != nil {
		s.logger.Error("停用用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── AssignRole ──────────────────────

func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) error {
	if id == callerID {
		return ErrUserSelfRoleChange
	}
	if !model.IsValidRole(req.Role) {
		return ErrInvalidRole
	}
	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		return notFound(s.logger, err, ErrUserNotFound, "查询用户失败", zap.String("id", id))
	}

	if err := s.repo.User.UpdateFields(ctx, id, map[string]interface{}{
		"role":       req.Role,
		"updated_by": callerID,
	}); err != nil {
		s.logger.Error("分配角色失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, callerID string) (*dto.ResetPasswordResponse, error) {
	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		return nil, notFound(s.logger, err, ErrUserNotFound, "查询用户失败", zap.String("id", id))
	}

	// 生成 8 位随机密码（保证包含字母和数字）
	tempPassword, err := generateTempPassword(8)
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	if err := s.repo.User.UpdateFields(ctx, id, map[string]interface{}{
		"password_hash": string(hash),
		"updated_by":    callerID,
	}); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（username/email）")
)

// importColumns 表头列名（支持中文别名）
var importColumns = map[string][]string{
	"username":   {"username", "用户名"},
	"email":      {"email", "邮箱"},
	"first_name": {"first_name", "名"},
	"last_name":  {"last_name", "姓"},
	"position":   {"position", "职位"},
	"role":       {"role", "角色"},
	"department": {"department", "部门"},
}

// ParseImportFile 解析导入 Excel 文件，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["username"] < 0 || colIndex["email"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, col string) string {
		idx := colIndex[col]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:            i + 1,
			Username:       cell(row, "username"),
			Email:          cell(row, "email"),
			FirstName:      cell(row, "first_name"),
			LastName:       cell(row, "last_name"),
			Position:       cell(row, "position"),
			Role:           strings.ToLower(cell(row, "role")),
			DepartmentName: cell(row, "department"),
		}

		// 跳过全空行
		if item.Username == "" && item.Email == "" && item.DepartmentName == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := make(map[string]int, len(importColumns))
	for col := range importColumns {
		idx[col] = -1
	}
	for i, h := range header {
		lower := strings.ToLower(strings.TrimSpace(h))
		for col, aliases := range importColumns {
			for _, a := range aliases {
				if lower == a {
					idx[col] = i
				}
			}
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

// ImportUsers 两阶段导入：先逐行校验，再在事务中批量写入；初始密码为 username+"123"
func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow, callerID string) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	deptMap, err := s.buildDepartmentMap(ctx)
	if err != nil {
		s.logger.Error("加载部门列表失败", zap.Error(err))
		return nil, err
	}

	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	var users []*model.User
	seenUsername := make(map[string]bool)
	seenEmail := make(map[string]bool)
	for _, row := range rows {
		if row.Username == "" || row.Email == "" {
			fail(row.Row, "用户名或邮箱为空")
			continue
		}
		if !strings.Contains(row.Email, "@") {
			fail(row.Row, fmt.Sprintf("邮箱格式错误: %s", row.Email))
			continue
		}
		role := row.Role
		if role == "" {
			role = model.RoleWorker
		}
		if !model.IsValidRole(role) {
			fail(row.Row, fmt.Sprintf("未知角色: %s", row.Role))
			continue
		}

		var deptID *string
		if row.DepartmentName != "" {
			dept, ok := deptMap[row.DepartmentName]
			if !ok {
				fail(row.Row, fmt.Sprintf("部门不存在: %s", row.DepartmentName))
				continue
			}
			deptID = &dept.DepartmentID
		}

		if seenUsername[row.Username] {
			fail(row.Row, fmt.Sprintf("文件内用户名重复: %s", row.Username))
			continue
		}
		if seenEmail[row.Email] {
			fail(row.Row, fmt.Sprintf("文件内邮箱重复: %s", row.Email))
			continue
		}
		if err := s.checkUnique(ctx, row.Username, row.Email, ""); err != nil {
			if errors.Is(err, ErrUsernameExists) || errors.Is(err, ErrEmailExists) {
				fail(row.Row, fmt.Sprintf("%s: %s / %s", err.Error(), row.Username, row.Email))
				continue
			}
			return nil, err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(row.Username+"123"), bcrypt.DefaultCost)
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}

		seenUsername[row.Username] = true
		seenEmail[row.Email] = true
		user := &model.User{
			Username:     row.Username,
			Email:        row.Email,
			PasswordHash: string(hash),
			FirstName:    sanitize.Text(row.FirstName),
			LastName:     sanitize.Text(row.LastName),
			Position:     sanitize.Text(row.Position),
			Role:         role,
			DepartmentID: deptID,
			IsActive:     true,
		}
		user.CreatedBy = &callerID
		users = append(users, user)
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户，任一失败全部回滚
	if len(users) > 0 {
		err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
			for _, u := range users {
				if err := txRepo.User.Create(ctx, u); err != nil {
					return fmt.Errorf("用户 %s 写入数据库失败，已回滚全部导入: %w", u.Username, err)
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("导入用户写入失败，事务回滚", zap.Error(err))
			return nil, err
		}
		resp.Success = len(users)
	}

	return resp, nil
}

// ── 内部辅助方法 ──

// checkUnique 校验用户名 / 邮箱唯一；excludeID 为当前用户（更新时）
func (s *userService) checkUnique(ctx context.Context, username, email, excludeID string) error {
	if username != "" {
		existing, err := s.repo.User.GetByUsername(ctx, username)
		if err == nil && existing.UserID != excludeID {
			return ErrUsernameExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if email != "" {
		existing, err := s.repo.User.GetByEmail(ctx, email)
		if err == nil && existing.UserID != excludeID {
			return ErrEmailExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	return nil
}

func (s *userService) ensureDepartment(ctx context.Context, id string) error {
	if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
		return notFound(s.logger, err, ErrDepartmentNotFound, "查询部门失败", zap.String("id", id))
	}
	return nil
}

// buildDepartmentMap 构建部门名称 -> 部门实体映射
func (s *userService) buildDepartmentMap(ctx context.Context) (map[string]*model.Department, error) {
	departments, err := s.repo.Department.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]*model.Department, len(departments))
	for i := range departments {
		m[departments[i].Name] = &departments[i]
	}
	return m, nil
}

// generateTempPassword 生成指定长度的临时密码（保证包含字母和数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}
	result := make([]byte, length)

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}
	return string(result), nil
}
