package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

func Register(rg *gin.Engine, h *Handler) {
	rg.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	rg.GET("/funds", h.ListFunds)
	rg.POST("/funds", h.PostFund)
	rg.DELETE("/funds/:code", h.DeleteFund)
	rg.PUT("/funds/:code/holdings", h.PutHoldings)

	rg.GET("/valuation", h.GetValuation)
	rg.GET("/valuation/:fundCode", h.GetValuation)
	rg.POST("/valuation/estimate", h.PostEstimate)
	rg.GET("/stats", h.GetStats)
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request failed")
			return
		}
		entry.Debug("request completed")
	}
}
