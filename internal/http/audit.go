package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/jmehdipour/crmbeat/internal/repository"
)

// listPurgesHandler serves GET /v1/audit/purges from the ClickHouse archive.
// Optional query params: batch_id, email, since (RFC3339), limit, offset.
func listPurgesHandler(archive repository.PurgeArchiveRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		q := repository.PurgeQuery{
			BatchID: strings.TrimSpace(c.QueryParam("batch_id")),
			Email:   strings.TrimSpace(c.QueryParam("email")),
			Limit:   limit,
			Offset:  offset,
		}
		if raw := strings.TrimSpace(c.QueryParam("since")); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "since must be RFC3339"})
			}
			q.Since = &t
		}

		rows, err := archive.List(c.Request().Context(), q)
		if err != nil {
			log.Errorf("purge archive list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
