package handler

import (
	"errors"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/pkg/response"
)

// PhotoHandler 照片模块 HTTP 处理器
type PhotoHandler struct {
	photoSvc service.PhotoService
}

// NewPhotoHandler 创建 PhotoHandler
func NewPhotoHandler(photoSvc service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photoSvc: photoSvc}
}

// UploadForRemark 上传问题照片
// POST /api/v1/remarks/:id/photos  (multipart/form-data, field="file")
func (h *PhotoHandler) UploadForRemark(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 18000, "请选择要上传的文件")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	photo, err := h.photoSvc.UploadForRemark(c.Request.Context(), c.Param("id"), file, caller)
	if err != nil {
		h.handlePhotoError(c, err)
		return
	}

	response.Created(c, photo)
}

// UploadForAnswer 上传审核评分照片
// POST /api/v1/audit-answers/:id/photos  (multipart/form-data, field="file")
func (h *PhotoHandler) UploadForAnswer(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 18000, "请选择要上传的文件")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	photo, err := h.photoSvc.UploadForAnswer(c.Request.Context(), c.Param("id"), file, caller)
	if err != nil {
		h.handlePhotoError(c, err)
		return
	}

	response.Created(c, photo)
}

// GetPhoto 输出照片文件
// GET /api/v1/photos/:id
func (h *PhotoHandler) GetPhoto(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	file, err := h.photoSvc.Open(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handlePhotoError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename*=UTF-8''"+url.PathEscape(file.Filename))
	if file.ContentType != "" {
		c.Header("Content-Type", file.ContentType)
	}
	c.File(file.Path)
}

// DeletePhoto 删除照片（上传人或 admin）
// DELETE /api/v1/photos/:id
func (h *PhotoHandler) DeletePhoto(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.photoSvc.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		h.handlePhotoError(c, err)
		return
	}

	response.OK(c, nil)
}

// handlePhotoError 统一处理照片模块业务错误
func (h *PhotoHandler) handlePhotoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPhotoNotFound):
		response.NotFound(c, 18001, "照片不存在")
	case errors.Is(err, service.ErrPhotoTooLarge):
		response.BadRequest(c, 18002, "文件大小超出限制")
	case errors.Is(err, service.ErrPhotoExtNotAllowed):
		response.BadRequest(c, 18003, "不支持的文件类型")
	case errors.Is(err, service.ErrPhotoFileMissing):
		response.NotFound(c, 18004, "照片文件已丢失")
	case errors.Is(err, service.ErrRemarkNotFound):
		response.NotFound(c, 18005, "问题不存在")
	case errors.Is(err, service.ErrAnswerNotFound):
		response.NotFound(c, 18006, "审核评分不存在")
	case errors.Is(err, service.ErrAuditNotFound):
		response.NotFound(c, 18007, "审核不存在")
	case errors.Is(err, service.ErrNoPermission), errors.Is(err, service.ErrDepartmentOutsideScope):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
