// File: internal/common/model.go
package common

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel defines the fields every stored document carries.
// Tags cover both the GORM and the Firestore backends.
type BaseModel struct {
	ID        string    `json:"id" firestore:"id" gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt" gorm:"column:created_at;not null"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt" gorm:"column:updated_at;not null"`
}

// Touch assigns an ID if missing and refreshes the timestamps.
func (m *BaseModel) Touch(now time.Time) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// Pagination struct for paginated API responses
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPagination creates a pagination object. totalPages is ceil(total/limit)
// and is 0 when there are no items.
func NewPagination(total int64, page, limit int) *Pagination {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if total < 0 {
		total = 0
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Offset is the number of items to skip for the current page.
func (p *Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// PageBounds returns the [start, end) slice bounds of the current page within n items.
func (p *Pagination) PageBounds(n int) (int, int) {
	start := p.Offset()
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}
