package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/post-batch/internal/apperr"
	"github.com/d60-Lab/post-batch/internal/model"
	"github.com/d60-Lab/post-batch/pkg/response"
)

// MaxPostNumber 上游一次最多提供的条数
const MaxPostNumber = 100

const (
	defaultPage = 0
	defaultSize = 10
	maxPageSize = 100
)

// BatchInsertResponse 批量写入成功响应
type BatchInsertResponse struct {
	Success       bool   `json:"success" example:"true"`
	Message       string `json:"message" example:"Successfully inserted 10 posts"`
	PostsInserted int    `json:"postsInserted" example:"10"`
}

// PageResponse 分页响应
type PageResponse struct {
	Success       bool         `json:"success" example:"true"`
	Content       []model.Post `json:"content"`
	CurrentPage   int          `json:"currentPage" example:"0"`
	TotalPages    int          `json:"totalPages" example:"10"`
	TotalElements int64        `json:"totalElements" example:"100"`
	PageSize      int          `json:"pageSize" example:"10"`
	HasNext       bool         `json:"hasNext" example:"true"`
	HasPrevious   bool         `json:"hasPrevious" example:"false"`
	IsFirst       bool         `json:"isFirst" example:"true"`
	IsLast        bool         `json:"isLast" example:"false"`
}

// PostResponse 单条查询响应
type PostResponse struct {
	Success bool       `json:"success" example:"true"`
	Content model.Post `json:"content"`
}

// ErrorResponse 失败响应；校验失败时没有 error 字段
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"postNumber must be a positive integer"`
	Error   string `json:"error,omitempty" example:"UpstreamFetchError"`
}

// HealthResponse 存活检查响应
type HealthResponse struct {
	Status  string `json:"status" example:"UP"`
	Message string `json:"message" example:"Posts API is running"`
}

// BatchInsertRequest 请求体，解析时逐字段校验，此类型用于文档
type BatchInsertRequest struct {
	PostNumber int `json:"postNumber" example:"10"`
}

// parsePostNumber 依次校验：字段存在、正整数、不超过上限
func parsePostNumber(c *gin.Context) (int, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return 0, apperr.Validation("Malformed request body")
	}
	raw, ok := body["postNumber"]
	if !ok {
		return 0, apperr.Validation("Missing required field: postNumber")
	}
	var n *int
	if err := json.Unmarshal(raw, &n); err != nil || n == nil || *n <= 0 {
		return 0, apperr.Validation("postNumber must be a positive integer")
	}
	if *n > MaxPostNumber {
		return 0, apperr.Validation(fmt.Sprintf("postNumber cannot exceed %d (API limit)", MaxPostNumber))
	}
	return *n, nil
}

// BatchInsert 拉取上游帖子并入库
// @Summary 批量拉取并写入帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Param request body BatchInsertRequest true "拉取条数（1-100）"
// @Success 200 {object} BatchInsertResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/batch_insert [post]
func (h *Handler) BatchInsert(c *gin.Context) {
	postNumber, err := parsePostNumber(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if _, err := h.postService.BatchInsert(c.Request.Context(), postNumber); err != nil {
		handleServiceError(c, "Error inserting posts", err)
		return
	}
	response.OK(c, BatchInsertResponse{
		Success:       true,
		Message:       fmt.Sprintf("Successfully inserted %d posts", postNumber),
		PostsInserted: postNumber,
	})
}

// FetchRecords 分页查询帖子
// @Summary 分页查询帖子
// @Tags 帖子
// @Produce json
// @Param page query int false "页码（从 0 开始）" default(0)
// @Param size query int false "每页数量（1-100）" default(10)
// @Success 200 {object} PageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/fetch_record [get]
func (h *Handler) FetchRecords(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	if err != nil {
		response.BadRequest(c, "Page number must be an integer")
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultSize)))
	if err != nil {
		response.BadRequest(c, "Size must be between 1 and 100")
		return
	}
	if page < 0 {
		response.BadRequest(c, "Page number cannot be negative")
		return
	}
	if size <= 0 || size > maxPageSize {
		response.BadRequest(c, "Size must be between 1 and 100")
		return
	}

	p, err := h.postService.FetchRecords(c.Request.Context(), page, size)
	if err != nil {
		handleServiceError(c, "Error fetching records", err)
		return
	}
	response.OK(c, PageResponse{
		Success:       true,
		Content:       p.Content,
		CurrentPage:   p.Number,
		TotalPages:    p.TotalPages,
		TotalElements: p.TotalElements,
		PageSize:      p.Size,
		HasNext:       p.HasNext(),
		HasPrevious:   p.HasPrevious(),
		IsFirst:       p.IsFirst(),
		IsLast:        p.IsLast(),
	})
}

// GetPost 按 id 查询
// @Summary 按 id 查询帖子
// @Tags 帖子
// @Produce json
// @Param id path int true "帖子 ID"
// @Success 200 {object} PostResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.BadRequest(c, "Post id must be a positive integer")
		return
	}
	post, err := h.postService.GetPost(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, "Error fetching post", err)
		return
	}
	response.OK(c, PostResponse{Success: true, Content: *post})
}

// Health 存活检查，不依赖存储与上游
// @Summary 存活检查
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *Handler) Health(c *gin.Context) {
	response.OK(c, HealthResponse{Status: "UP", Message: "Posts API is running"})
}
