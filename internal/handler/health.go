package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/edutoken/internal/health"
)

// ReadyHandler serves the checker's report: 200 while every probe is
// healthy, 503 once any is degraded.
func ReadyHandler(checker *health.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := checker.Report()
		code := http.StatusOK
		if r.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, r)
	}
}
