package middleware

import (
	"strconv"

	"github.com/carebridge/carebridge-server/src/repositories"
	"github.com/gin-gonic/gin"
)

// PaginationKey is the context key for parsed pagination parameters
const PaginationKey = "pagination"

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination parses page/limit query parameters, falling back to defaults
// on absent or malformed values
func Pagination() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := strconv.Atoi(c.Query("page"))
		if err != nil || page < 1 {
			page = defaultPage
		}
		limit, err := strconv.Atoi(c.Query("limit"))
		if err != nil || limit < 1 {
			limit = defaultLimit
		}
		if limit > maxLimit {
			limit = maxLimit
		}

		c.Set(PaginationKey, repositories.Page{Number: page, Limit: limit})
		c.Next()
	}
}

// GetPagination retrieves parsed pagination from context, defaulting when
// the middleware did not run
func GetPagination(c *gin.Context) repositories.Page {
	if p, exists := c.Get(PaginationKey); exists {
		return p.(repositories.Page)
	}
	return repositories.Page{Number: defaultPage, Limit: defaultLimit}
}
