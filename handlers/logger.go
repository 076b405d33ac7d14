package handlers

import (
	"servease/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger pulls a request-scoped logger out of the Gin context, falling
// back to the process logger.
func getLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get("logger"); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}
