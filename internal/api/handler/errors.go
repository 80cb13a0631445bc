package handler

import (
	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/post-batch/internal/api/middleware"
	"github.com/d60-Lab/post-batch/internal/apperr"
	"github.com/d60-Lab/post-batch/pkg/logger"
	"github.com/d60-Lab/post-batch/pkg/response"
)

// handleServiceError 按错误类别输出响应；prefix 为 500 时 message 的前缀
func handleServiceError(c *gin.Context, prefix string, err error) {
	status := apperr.HTTPStatus(err)
	kind := string(apperr.KindOf(err))

	if status < 500 {
		response.Error(c, status, err.Error(), kind)
		return
	}

	_ = c.Error(err)
	logger.Error(prefix,
		zap.Error(err),
		zap.String("kind", kind),
		zap.String("request_id", middleware.GetRequestID(c)),
	)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("error_kind", kind)
			scope.SetTag("request_id", middleware.GetRequestID(c))
			hub.CaptureException(err)
		})
	}
	response.Error(c, status, prefix+": "+err.Error(), kind)
}
