package inquiry

import (
	"strings"
	"time"

	"realestate_backend/internal/common"
)

const (
	StatusPending     = "pending"
	StatusResponded   = "responded"
	StatusUserReplied = "user-replied"
	StatusResolved    = "resolved"
	StatusClosed      = "closed"
)

var AllStatuses = []string{StatusPending, StatusResponded, StatusUserReplied, StatusResolved, StatusClosed}

const (
	SenderUser  = "user"
	SenderAdmin = "admin"
)

// Message is one entry of an inquiry's conversation thread.
type Message struct {
	Sender     string    `json:"sender" firestore:"sender"`
	SenderName string    `json:"senderName" firestore:"senderName"`
	Message    string    `json:"message" firestore:"message"`
	Timestamp  time.Time `json:"timestamp" firestore:"timestamp"`
}

// Inquiry is a conversation between a prospect and the agency about one property.
// UserID is empty for anonymous inquiries.
type Inquiry struct {
	common.BaseModel
	PropertyID    string    `json:"propertyId" firestore:"propertyId" gorm:"type:varchar(36);not null;index"`
	PropertyTitle string    `json:"propertyTitle" firestore:"propertyTitle" gorm:"type:varchar(255)"`
	UserID        string    `json:"userId" firestore:"userId" gorm:"type:varchar(36);index"`
	Name          string    `json:"name" firestore:"name" gorm:"type:varchar(100);not null"`
	Email         string    `json:"email" firestore:"email" gorm:"type:varchar(255);not null"`
	Phone         string    `json:"phone" firestore:"phone" gorm:"type:varchar(50)"`
	Subject       string    `json:"subject" firestore:"subject" gorm:"type:varchar(200)"`
	Messages      []Message `json:"messages" firestore:"messages" gorm:"type:text;serializer:json"`
	Status        string    `json:"status" firestore:"status" gorm:"type:varchar(20);not null;index"`
	LastMessageAt time.Time `json:"lastMessageAt" firestore:"lastMessageAt"`

	SearchText string `json:"-" firestore:"searchText" gorm:"type:text"`
}

func (Inquiry) TableName() string {
	return "inquiries"
}

func (i *Inquiry) RefreshSearchFields() {
	i.SearchText = strings.ToLower(strings.Join([]string{i.Name, i.Email, i.Subject, i.PropertyTitle}, " "))
}

// AddMessage appends to the thread and moves the inquiry to status.
func (i *Inquiry) AddMessage(sender, senderName, text, status string, at time.Time) {
	i.Messages = append(i.Messages, Message{
		Sender:     sender,
		SenderName: senderName,
		Message:    text,
		Timestamp:  at,
	})
	i.Status = status
	i.LastMessageAt = at
}

// --- DTOs ---

type CreateInquiryRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
	Name       string `json:"name" binding:"required,min=2,max=100"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"omitempty,max=50"`
	Subject    string `json:"subject" binding:"omitempty,max=200"`
	Message    string `json:"message" binding:"required,min=10,max=2000"`
}

type ReplyRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending responded user-replied resolved closed"`
}

// ListQuery is bound from the query string of GET /inquiries.
type ListQuery struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending responded user-replied resolved closed"`
	PropertyID string `form:"propertyId"`
	Search     string `form:"search"`
	common.PaginationQuery
}

func (q ListQuery) Filter() ListFilter {
	q.Normalize()
	return ListFilter{
		Status:     q.Status,
		PropertyID: strings.TrimSpace(q.PropertyID),
		Search:     strings.TrimSpace(q.Search),
		Page:       q.Page,
		Limit:      q.Limit,
	}
}

type ListFilter struct {
	UserID     string
	Status     string
	PropertyID string
	Search     string
	Page       int
	Limit      int
}

type InquiryResponse struct {
	ID            string    `json:"id"`
	PropertyID    string    `json:"propertyId"`
	PropertyTitle string    `json:"propertyTitle"`
	UserID        string    `json:"userId,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Messages      []Message `json:"messages"`
	Status        string    `json:"status"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func ToInquiryResponse(i *Inquiry) InquiryResponse {
	messages := i.Messages
	if messages == nil {
		messages = []Message{}
	}
	return InquiryResponse{
		ID:            i.ID,
		PropertyID:    i.PropertyID,
		PropertyTitle: i.PropertyTitle,
		UserID:        i.UserID,
		Name:          i.Name,
		Email:         i.Email,
		Phone:         i.Phone,
		Subject:       i.Subject,
		Messages:      messages,
		Status:        i.Status,
		LastMessageAt: i.LastMessageAt,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

func ToInquiryResponses(is []Inquiry) []InquiryResponse {
	out := make([]InquiryResponse, 0, len(is))
	for i := range is {
		out = append(out, ToInquiryResponse(&is[i]))
	}
	return out
}
