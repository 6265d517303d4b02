package review

import (
	"time"

	"realestate_backend/internal/common"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// AllStatuses lists review statuses in the order the dashboard shows them.
var AllStatuses = []string{StatusPending, StatusApproved, StatusRejected}

// Review is a user rating of a property, or of the agency itself when
// PropertyID is empty.
type Review struct {
	common.BaseModel
	UserID     string `json:"userId" firestore:"userId" gorm:"type:varchar(36);not null;index"`
	UserName   string `json:"userName" firestore:"userName" gorm:"type:varchar(200)"`
	PropertyID string `json:"propertyId" firestore:"propertyId" gorm:"type:varchar(36);index"`
	Rating     int    `json:"rating" firestore:"rating" gorm:"not null"`
	Comment    string `json:"comment" firestore:"comment" gorm:"type:text;not null"`
	Status     string `json:"status" firestore:"status" gorm:"type:varchar(20);not null;index"`
}

func (Review) TableName() string {
	return "reviews"
}

// --- DTOs ---

type CreateReviewRequest struct {
	PropertyID string `json:"propertyId" binding:"omitempty,max=64"`
	Rating     int    `json:"rating" binding:"required,min=1,max=5"`
	Comment    string `json:"comment" binding:"required,min=10,max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// ListQuery is bound from the query string of GET /admin/reviews.
type ListQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	PropertyID string `form:"propertyId"`
	common.PaginationQuery
}

func (q ListQuery) Filter() ListFilter {
	q.Normalize()
	return ListFilter{Status: q.Status, PropertyID: q.PropertyID, Page: q.Page, Limit: q.Limit}
}

// ListFilter selects reviews; empty fields do not constrain.
type ListFilter struct {
	UserID     string
	PropertyID string
	Status     string
	Page       int
	Limit      int
}

// RatingSummary aggregates the approved reviews of one property.
type RatingSummary struct {
	Average float64
	Count   int
}

type ReviewResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	PropertyID string    `json:"propertyId,omitempty"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func ToReviewResponse(r *Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		UserName:   r.UserName,
		PropertyID: r.PropertyID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func ToReviewResponses(rs []Review) []ReviewResponse {
	out := make([]ReviewResponse, 0, len(rs))
	for i := range rs {
		out = append(out, ToReviewResponse(&rs[i]))
	}
	return out
}

// summarize averages ratings rounded to one decimal place.
func summarize(rs []Review) RatingSummary {
	if len(rs) == 0 {
		return RatingSummary{}
	}
	sum := 0
	for _, r := range rs {
		sum += r.Rating
	}
	return RatingSummary{Average: roundRating(float64(sum) / float64(len(rs))), Count: len(rs)}
}

func roundRating(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
