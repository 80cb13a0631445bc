package handler

import (
	"github.com/d60-Lab/post-batch/internal/service"
)

// Handler 聚合各业务 handler 依赖
type Handler struct {
	postService service.BatchService
}

func NewHandler(postService service.BatchService) *Handler {
	return &Handler{postService: postService}
}
