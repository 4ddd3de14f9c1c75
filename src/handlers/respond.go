package handlers

import (
	"errors"
	"net/http"

	"github.com/carebridge/carebridge-server/src/middleware"
	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/carebridge/carebridge-server/src/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// writeServiceError maps a service error to its transport response. The
// tagged error carries the status and a safe message; anything else is a
// 500 with a generic body and the full detail logged server-side only.
func writeServiceError(c *gin.Context, err error) {
	if se, ok := services.AsServiceError(err); ok && se.Kind != services.KindInternal {
		c.JSON(se.Status, gin.H{
			"success": false,
			"message": se.Message,
		})
		return
	}

	log.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(c)).
		Str("path", c.Request.URL.Path).
		Msg("unexpected error")

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "Something went wrong, please try again later.",
	})
}

// writeRepoError maps repository errors from the thin CRUD handlers
func writeRepoError(c *gin.Context, err error, notFoundMessage string) {
	if errors.Is(err, repositories.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": notFoundMessage,
		})
		return
	}
	writeServiceError(c, err)
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
	})
}
