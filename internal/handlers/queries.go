package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aremuc/home-monitor-iot/internal/query"
)

func (h HandlerSet) TagsInWindow(c *gin.Context) {
	result, err := h.queries.TagsInWindow(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		h.writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) PersonDetected(c *gin.Context) {
	result, err := h.queries.PersonDetected(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		h.writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) PopularTags(c *gin.Context) {
	ranking, err := h.queries.PopularTags(c.Request.Context())
	if err != nil {
		h.writeQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

func (h HandlerSet) writeQueryError(c *gin.Context, err error) {
	if errors.Is(err, query.ErrInvalidRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("query failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
