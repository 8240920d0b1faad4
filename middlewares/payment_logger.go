package middlewares

import (
	"time"

	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
)

// PaymentLoggerMiddleware logs every payment-touching request with its
// outcome, so charge activity is auditable from the logs alone.
func PaymentLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		logger := utils.InfoLogger
		if status >= 400 {
			logger = utils.ErrorLogger
		}
		logger.Printf("PAYMENT %s %s -> %d in %v", c.Request.Method, c.Request.URL.Path, status, time.Since(start))
	}
}
