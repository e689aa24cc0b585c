package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-dashboard-api/internal/models"
	"github.com/noah-isme/school-dashboard-api/internal/service"
)

// Metrics records every request against its route pattern. On the shared entity routes the
// :entity segment is replaced by the collection it resolved to, so "/:entity/:id" is reported as
// "/students/:id". Unknown entities keep the placeholder to bound label cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		// unmatched routes share one label
		return "unmatched"
	}
	if !strings.Contains(route, "/:entity") {
		return route
	}
	kind, ok := models.ParseEntityKind(c.Param("entity"))
	if !ok {
		return route
	}
	return strings.Replace(route, "/:entity", "/"+kind.Plural(), 1)
}
