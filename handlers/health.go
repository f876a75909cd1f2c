package handlers

import (
	"net/http"

	"appointly/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the last dependency check made by the health monitor.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, utils.Envelope{Success: status.Healthy(), Payload: status})
}
