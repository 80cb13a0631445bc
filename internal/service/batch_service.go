package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/post-batch/internal/model"
	"github.com/d60-Lab/post-batch/internal/repository"
	"github.com/d60-Lab/post-batch/internal/upstream"
	"github.com/d60-Lab/post-batch/pkg/logger"
)

// BatchService 拉取上游帖子入库、分页读取
type BatchService interface {
	// BatchInsert 拉取 postNumber 条并整体写入，返回实际写入条数。
	// 上游不足 postNumber 条时按实际条数写入，不视为错误
	BatchInsert(ctx context.Context, postNumber int) (int, error)
	FetchRecords(ctx context.Context, page, size int) (*model.Page, error)
	GetPost(ctx context.Context, id int) (*model.Post, error)
}

type batchService struct {
	postRepo repository.PostRepository
	fetcher  upstream.Client
}

func NewBatchService(postRepo repository.PostRepository, fetcher upstream.Client) BatchService {
	return &batchService{postRepo: postRepo, fetcher: fetcher}
}

func (s *batchService) BatchInsert(ctx context.Context, postNumber int) (int, error) {
	logger.Info("starting batch insert", zap.Int("post_number", postNumber))

	st := time.Now()
	posts, err := s.fetcher.FetchPosts(ctx, postNumber)
	if err != nil {
		return 0, err
	}
	logger.Info("fetched posts from upstream", zap.Int("fetched", len(posts)), zap.Duration("took", time.Since(st)))
	if len(posts) < postNumber {
		logger.Warn("upstream returned fewer posts than requested",
			zap.Int("requested", postNumber), zap.Int("fetched", len(posts)))
	}

	if err := s.postRepo.SaveAll(ctx, posts); err != nil {
		return 0, err
	}
	logger.Info("saved posts", zap.Int("saved", len(posts)))
	return len(posts), nil
}

func (s *batchService) FetchRecords(ctx context.Context, page, size int) (*model.Page, error) {
	logger.Debug("fetching page", zap.Int("page", page), zap.Int("size", size))
	return s.postRepo.FindPaginated(ctx, page, size)
}

func (s *batchService) GetPost(ctx context.Context, id int) (*model.Post, error) {
	return s.postRepo.FindByID(ctx, id)
}
