package middleware

import (
	"time"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/gin-gonic/gin"
)

// OperationAudit 操作审计中间件, 只记录写操作
func OperationAudit(svc *service.OperationLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		log := &entity.OperationLog{
			Role:       c.GetString("role"),
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Query:      c.Request.URL.RawQuery,
			StatusCode: c.Writer.Status(),
			ClientIP:   c.ClientIP(),
			LatencyMS:  time.Since(start).Milliseconds(),
		}
		if userID, exists := c.Get("user_id"); exists {
			if id, ok := userID.(int64); ok {
				log.OperatorID = &id
			}
		}
		svc.Record(c.Request.Context(), log)
	}
}
