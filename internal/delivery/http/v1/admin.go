package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type getStatsResponse struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

func (h *handlerImpl) HandleGetStats(c *gin.Context) {
	stats, err := h.stats.Summarize(c, ownerID(c))
	if err != nil {
		h.failureEvent(err).Msg("failed to summarize tasks")
		abort(c, fromServiceError(err))
		return
	}

	c.JSON(http.StatusOK, getStatsResponse{
		Total:     stats.Total,
		Completed: stats.Completed,
		Pending:   stats.Pending,
	})
}
