// File: internal/common/pagination.go
package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PaginationQuery holds pagination parameters from request query.
type PaginationQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize clamps page and limit into their valid ranges.
func (pq *PaginationQuery) Normalize() {
	if pq.Page <= 0 {
		pq.Page = DefaultPage
	}
	if pq.Limit <= 0 {
		pq.Limit = DefaultLimit
	}
	if pq.Limit > MaxLimit {
		pq.Limit = MaxLimit
	}
}

// Offset calculates the offset for database queries.
func (pq *PaginationQuery) Offset() int {
	pq.Normalize()
	return (pq.Page - 1) * pq.Limit
}

// GetPaginationParams extracts page and limit from the query string.
func GetPaginationParams(c *gin.Context) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	if err != nil || page <= 0 {
		page = DefaultPage
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
