package handlers

import (
	"strconv"
	"strings"
	"time"

	"appointly/apperror"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// parseTimeParam accepts YYYY-MM-DD or RFC3339. A bare date used as an upper
// bound covers the whole day.
func parseTimeParam(c *gin.Context, name string, upper bool) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		if upper {
			return t.Add(24*time.Hour - time.Millisecond), nil
		}
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperror.Validation("%s must be YYYY-MM-DD or RFC3339", name)
	}
	return t.UTC(), nil
}

func parseIntParam(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation("%s must be an integer", name)
	}
	return n, nil
}
