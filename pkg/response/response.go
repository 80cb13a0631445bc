package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK 200，body 原样输出
func OK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// BadRequest 400 {"success":false,"message":...}
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// Error 失败响应，kind 为错误类别名
func Error(c *gin.Context, status int, message, kind string) {
	c.JSON(status, gin.H{"success": false, "message": message, "error": kind})
}

// AbortError 与 Error 相同，但中止后续 handler（中间件使用）
func AbortError(c *gin.Context, status int, message, kind string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message, "error": kind})
}
