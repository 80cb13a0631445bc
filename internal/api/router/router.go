package router

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/post-batch/config"
	_ "github.com/d60-Lab/post-batch/docs"
	"github.com/d60-Lab/post-batch/internal/api/handler"
	"github.com/d60-Lab/post-batch/internal/api/middleware"
)

// Options 路由可选组件
type Options struct {
	Limiter       middleware.Limiter // nil 表示不限流
	SentryEnabled bool
}

// New 注册中间件与路由
func New(cfg *config.Config, h *handler.Handler, opts Options) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	if opts.SentryEnabled {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	api := r.Group("/api")
	// health 不经过限流
	api.GET("/health", h.Health)

	biz := api.Group("")
	if opts.Limiter != nil {
		biz.Use(middleware.RateLimit(opts.Limiter))
	}
	biz.POST("/batch_insert", h.BatchInsert)
	biz.GET("/fetch_record", h.FetchRecords)
	biz.GET("/posts/:id", h.GetPost)

	if cfg.Swagger.Enabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}
