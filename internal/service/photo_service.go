package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/config"
	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
)

// ── 照片模块业务错误 ──

var (
	ErrPhotoNotFound      = errors.New("照片不存在")
	ErrPhotoTooLarge      = errors.New("文件大小超出限制")
	ErrPhotoExtNotAllowed = errors.New("不支持的文件类型")
	ErrPhotoFileMissing   = errors.New("照片文件已丢失")
	ErrAnswerNotFound     = errors.New("审核评分不存在")
)

// PhotoFile 供 Handler 直接回写文件
type PhotoFile struct {
	Path        string
	Filename    string
	ContentType string
}

// PhotoService 照片业务接口
type PhotoService interface {
	UploadForRemark(ctx context.Context, remarkID string, file *multipart.FileHeader, caller Caller) (*dto.PhotoResponse, error)
	UploadForAnswer(ctx context.Context, answerID string, file *multipart.FileHeader, caller Caller) (*dto.PhotoResponse, error)
	// Open 上传人、问题创建人/被指派人、审核员或数据范围覆盖该部门的用户可查看
	Open(ctx context.Context, id string, caller Caller) (*PhotoFile, error)
	// Delete 仅上传人或 admin，同时删除磁盘文件
	Delete(ctx context.Context, id string, caller Caller) error
}

type photoService struct {
	repo    *repository.Repository
	cfg     config.UploadConfig
	baseURL string
	logger  *zap.Logger
}

// NewPhotoService 创建 PhotoService 实例
func NewPhotoService(repo *repository.Repository, cfg config.UploadConfig, baseURL string, logger *zap.Logger) PhotoService {
	return &photoService{repo: repo, cfg: cfg, baseURL: baseURL, logger: logger}
}

// ────────────────────── Upload ──────────────────────

func (s *photoService) UploadForRemark(ctx context.Context, remarkID string, file *multipart.FileHeader, caller Caller) (*dto.PhotoResponse, error) {
	remark, err := s.repo.Remark.GetByID(ctx, remarkID)
	if err != nil {
		return nil, notFound(s.logger, err, ErrRemarkNotFound, "查询问题失败", zap.String("id", remarkID))
	}
	allowed := remark.CreatedByID == caller.UserID ||
		(remark.AssignedToID != nil && *remark.AssignedToID == caller.UserID)
	if !allowed {
		scope, err := resolveScope(ctx, s.repo, caller)
		if err != nil {
			s.logger.Error("计算数据范围失败", zap.Error(err))
			return nil, err
		}
		if !scope.allowsDepartment(remark.DepartmentID) {
			return nil, ErrNoPermission
		}
	}

	photo := &model.Photo{RemarkID: &remark.RemarkID}
	return s.store(ctx, photo, file, caller)
}

func (s *photoService) UploadForAnswer(ctx context.Context, answerID string, file *multipart.FileHeader, caller Caller) (*dto.PhotoResponse, error) {
	answer, err := s.repo.Audit.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, notFound(s.logger, err, ErrAnswerNotFound, "查询审核评分失败", zap.String("id", answerID))
	}
	audit, err := s.repo.Audit.GetByID(ctx, answer.AuditID)
	if err != nil {
		return nil, notFound(s.logger, err, ErrAuditNotFound, "查询审核失败", zap.String("id", answer.AuditID))
	}
	if audit.AuditorID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrNoPermission
	}

	photo := &model.Photo{AnswerID: &answer.AnswerID}
	return s.store(ctx, photo, file, caller)
}

// store 校验并写入磁盘，随后落库；落库失败时清理文件
func (s *photoService) store(ctx context.Context, photo *model.Photo, file *multipart.FileHeader, caller Caller) (*dto.PhotoResponse, error) {
	if file.Size > s.cfg.MaxSizeBytes() {
		return nil, ErrPhotoTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !s.extAllowed(ext) {
		return nil, ErrPhotoExtNotAllowed
	}

	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		s.logger.Error("创建上传目录失败", zap.String("dir", s.cfg.Dir), zap.Error(err))
		return nil, err
	}
	path := filepath.Join(s.cfg.Dir, uuid.NewString()+ext)
	written, err := saveUploadedFile(file, path)
	if err != nil {
		s.logger.Error("保存照片失败", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	photo.Filename = filepath.Base(file.Filename)
	photo.FilePath = path
	photo.FileSize = written
	photo.ContentType = file.Header.Get("Content-Type")
	photo.UploadedBy = caller.UserID
	photo.CreatedBy = &caller.UserID
	photo.UpdatedBy = &caller.UserID

	if err := s.repo.Photo.Create(ctx, photo); err != nil {
		s.logger.Error("保存照片记录失败", zap.Error(err))
		_ = os.Remove(path)
		return nil, err
	}
	return toPhotoResponse(photo, s.baseURL), nil
}

func (s *photoService) extAllowed(ext string) bool {
	for _, e := range s.cfg.AllowedExts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func saveUploadedFile(file *multipart.FileHeader, dst string) (int64, error) {
	src, err := file.Open()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("写入文件失败: %w", err)
	}
	return n, nil
}

// ────────────────────── Open / Delete ──────────────────────

func (s *photoService) Open(ctx context.Context, id string, caller Caller) (*PhotoFile, error) {
	photo, err := s.repo.Photo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrPhotoNotFound, "查询照片失败", zap.String("id", id))
	}
	if err := s.checkView(ctx, photo, caller); err != nil {
		return nil, err
	}
	if _, err := os.Stat(photo.FilePath); err != nil {
		s.logger.Warn("照片文件不可读", zap.String("path", photo.FilePath), zap.Error(err))
		return nil, ErrPhotoFileMissing
	}
	return &PhotoFile{
		Path:        photo.FilePath,
		Filename:    photo.Filename,
		ContentType: photo.ContentType,
	}, nil
}

// checkView 按照片归属的问题或审核判断可见性
func (s *photoService) checkView(ctx context.Context, photo *model.Photo, caller Caller) error {
	if photo.UploadedBy == caller.UserID {
		return nil
	}

	var departmentID string
	switch {
	case photo.RemarkID != nil:
		remark, err := s.repo.Remark.GetByID(ctx, *photo.RemarkID)
		if err != nil {
			return notFound(s.logger, err, ErrPhotoNotFound, "查询照片所属问题失败", zap.String("remark_id", *photo.RemarkID))
		}
		if remark.CreatedByID == caller.UserID ||
			(remark.AssignedToID != nil && *remark.AssignedToID == caller.UserID) {
			return nil
		}
		departmentID = remark.DepartmentID
	case photo.AnswerID != nil:
		answer, err := s.repo.Audit.GetAnswer(ctx, *photo.AnswerID)
		if err != nil {
			return notFound(s.logger, err, ErrPhotoNotFound, "查询照片所属评分失败", zap.String("answer_id", *photo.AnswerID))
		}
		audit, err := s.repo.Audit.GetByID(ctx, answer.AuditID)
		if err != nil {
			return notFound(s.logger, err, ErrPhotoNotFound, "查询照片所属审核失败", zap.String("audit_id", answer.AuditID))
		}
		if audit.AuditorID == caller.UserID {
			return nil
		}
		departmentID = audit.DepartmentID
	default:
		return ErrNoPermission
	}

	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return err
	}
	if !scope.allowsDepartment(departmentID) {
		return ErrNoPermission
	}
	return nil
}

func (s *photoService) Delete(ctx context.Context, id string, caller Caller) error {
	photo, err := s.repo.Photo.GetByID(ctx, id)
	if err != nil {
		return notFound(s.logger, err, ErrPhotoNotFound, "查询照片失败", zap.String("id", id))
	}
	if photo.UploadedBy != caller.UserID && !caller.IsAdmin() {
		return ErrNoPermission
	}

	if err := s.repo.Photo.Delete(ctx, id); err != nil {
		s.logger.Error("删除照片记录失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := os.Remove(photo.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("删除照片文件失败", zap.String("path", photo.FilePath), zap.Error(err))
	}
	return nil
}
