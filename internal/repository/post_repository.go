package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/post-batch/internal/apperr"
	"github.com/d60-Lab/post-batch/internal/model"
)

// saveBatchSize 单条 INSERT 的最大行数
const saveBatchSize = 100

// PostRepository 帖子仓储。Save/SaveAll 均为按主键 insert-or-replace
type PostRepository interface {
	// Save 写入一条，id 已存在时覆盖
	Save(ctx context.Context, post *model.Post) error

	// SaveAll 在一个事务内写入全部，失败时整体回滚
	SaveAll(ctx context.Context, posts []model.Post) error

	// FindByID 不存在时返回 apperr NotFound
	FindByID(ctx context.Context, id int) (*model.Post, error)

	// Count 总条数
	Count(ctx context.Context) (int64, error)

	// FindPaginated 按 id 升序分页，pageIndex 从 0 开始
	FindPaginated(ctx context.Context, pageIndex, pageSize int) (*model.Page, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

// Migrate 建表
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Post{}); err != nil {
		return fmt.Errorf("failed to migrate posts table: %w", err)
	}
	return nil
}

// 冲突时除主键外全部覆盖
var upsertByID = clause.OnConflict{
	Columns:   []clause.Column{{Name: "id"}},
	UpdateAll: true,
}

func (r *postRepository) Save(ctx context.Context, post *model.Post) error {
	if post == nil {
		return apperr.Validation("post must not be nil")
	}
	if post.ID <= 0 {
		return apperr.Validation(fmt.Sprintf("post id must be positive, got %d", post.ID))
	}
	p := *post
	p.Normalize()
	if err := r.db.WithContext(ctx).Clauses(upsertByID).Create(&p).Error; err != nil {
		return apperr.Storage("repository.Save", err)
	}
	return nil
}

func (r *postRepository) SaveAll(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}
	rows, err := prepare(posts)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(upsertByID).CreateInBatches(&rows, saveBatchSize).Error
	})
	if err != nil {
		return apperr.Storage("repository.SaveAll", err)
	}
	return nil
}

// prepare 校验 id、截断 body，并按 id 去重（后出现的覆盖先出现的，保持首次出现的位置）
func prepare(posts []model.Post) ([]model.Post, error) {
	index := make(map[int]int, len(posts))
	rows := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if p.ID <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("post id must be positive, got %d", p.ID))
		}
		p.Normalize()
		if i, ok := index[p.ID]; ok {
			rows[i] = p
			continue
		}
		index[p.ID] = len(rows)
		rows = append(rows, p)
	}
	return rows, nil
}

func (r *postRepository) FindByID(ctx context.Context, id int) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Post", id)
	}
	if err != nil {
		return nil, apperr.Storage("repository.FindByID", err)
	}
	return &post, nil
}

func (r *postRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Post{}).Count(&count).Error; err != nil {
		return 0, apperr.Storage("repository.Count", err)
	}
	return count, nil
}

func (r *postRepository) FindPaginated(ctx context.Context, pageIndex, pageSize int) (*model.Page, error) {
	if pageIndex < 0 {
		return nil, apperr.Validation("page index must not be negative")
	}
	if pageSize < 1 {
		return nil, apperr.Validation("page size must be positive")
	}

	var (
		total int64
		posts []model.Post
	)
	// count 与分页查询放在同一事务
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Post{}).Count(&total).Error; err != nil {
			return err
		}
		// 超出末页直接返回空页，同时避免 offset 溢出
		if int64(pageIndex) >= (total+int64(pageSize)-1)/int64(pageSize) {
			return nil
		}
		return tx.Order("id ASC").Offset(pageIndex * pageSize).Limit(pageSize).Find(&posts).Error
	})
	if err != nil {
		return nil, apperr.Storage("repository.FindPaginated", err)
	}
	return model.NewPage(posts, pageIndex, pageSize, total), nil
}
