package handler

import (
	"time"

	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// FileHandler 文件处理器, 对象存储走MinIO
type FileHandler struct {
	svc *service.FileService
}

func NewFileHandler(svc *service.FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

// Upload 上传文件
// POST /api/v1/files
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	category := c.PostForm("category")
	if category == "" {
		category = "misc"
	}

	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "读取上传文件失败: "+err.Error())
		return
	}
	defer src.Close()

	record, err := h.svc.Upload(c.Request.Context(), GetActor(c), category,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), fileHeader.Size, src)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, record)
}

// Download 获取文件下载链接
// GET /api/v1/files/:id/url
func (h *FileHandler) Download(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	url, err := h.svc.PresignedURL(c.Request.Context(), GetActor(c), id, 15*time.Minute)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"url": url})
}

// List 当前用户上传文件列表
// GET /api/v1/files
func (h *FileHandler) List(c *gin.Context) {
	items, err := h.svc.ListByUploader(c.Request.Context(), GetUserID(c), c.Query("category"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// Delete 删除文件
// DELETE /api/v1/files/:id
func (h *FileHandler) Delete(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), GetActor(c), id); err != nil {
		Fail(c, err)
		return
	}
	Success(c, gin.H{"message": "deleted"})
}
