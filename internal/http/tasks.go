package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/jmehdipour/crmbeat/internal/model"
)

// TaskResults reads task outcomes from the broker's result backend.
type TaskResults interface {
	Result(ctx context.Context, taskID string) (*model.TaskResult, error)
}

// taskResultHandler serves GET /v1/tasks/:id so operators can check what a
// report task did without digging through the log files. Results expire
// with the broker's result TTL, so a 404 can also mean "too old".
func taskResultHandler(results TaskResults) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := strings.TrimSpace(c.Param("id"))
		if id == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "task id required"})
		}

		res, err := results.Result(c.Request().Context(), id)
		if err != nil {
			log.Errorf("task result lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}
		if res == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}

		return c.JSON(http.StatusOK, res)
	}
}
