package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/solarerp/backend/internal/infrastructure/telemetry"
)

// Profiling tags the CPU samples of each request with its route, method,
// controller and tenant so pyroscope can break profiles down by endpoint.
// Place it after JWTAuth so the tenant is known.
func Profiling(enabled bool, skipPrefixes ...string) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		for _, p := range skipPrefixes {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				c.Next()
				return
			}
		}

		route := c.FullPath()
		labels := map[string]string{
			telemetry.ProfilingLabelMethod:     c.Request.Method,
			telemetry.ProfilingLabelRoute:      route,
			telemetry.ProfilingLabelController: controllerOf(route),
		}
		if claims := GetClaims(c); claims != nil {
			labels[telemetry.ProfilingLabelTenantID] = claims.TenantID
		}

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// controllerOf returns the first resource segment of a route pattern:
// /api/v1/sales/:id/cancel -> sales
func controllerOf(route string) string {
	for _, part := range strings.Split(route, "/") {
		switch {
		case part == "", part == "api", strings.HasPrefix(part, ":"), strings.HasPrefix(part, "*"):
			continue
		case len(part) > 1 && part[0] == 'v' && strings.Trim(part[1:], "0123456789") == "":
			continue
		}
		return part
	}
	return ""
}
