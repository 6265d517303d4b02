// Package admin serves the aggregate dashboard of the admin panel.
package admin

import (
	"context"

	"realestate_backend/internal/inquiry"
	"realestate_backend/internal/property"
	"realestate_backend/internal/user"

	"go.uber.org/zap"
)

const recentInquiries = 5

type PropertyStats interface {
	GetStats(ctx context.Context) (*property.Stats, error)
}

type InquiryStats interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context, n int) ([]inquiry.InquiryResponse, error)
}

type ReviewStats interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type UserStats interface {
	GetStats(ctx context.Context) (*user.Stats, error)
}

type InquirySummary struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

type ReviewSummary struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// Dashboard is the payload of GET /admin/dashboard.
type Dashboard struct {
	Properties      *property.Stats           `json:"properties"`
	Inquiries       InquirySummary            `json:"inquiries"`
	Reviews         ReviewSummary             `json:"reviews"`
	Users           *user.Stats               `json:"users"`
	RecentInquiries []inquiry.InquiryResponse `json:"recentInquiries"`
}

type Service interface {
	GetDashboard(ctx context.Context) (*Dashboard, error)
}

type ServiceImplementation struct {
	properties PropertyStats
	inquiries  InquiryStats
	reviews    ReviewStats
	users      UserStats
	logger     *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

func NewService(properties PropertyStats, inquiries InquiryStats, reviews ReviewStats, users UserStats, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		properties: properties,
		inquiries:  inquiries,
		reviews:    reviews,
		users:      users,
		logger:     logger.Named("admin_service"),
	}
}

// GetDashboard fails as a whole if any source fails. Each service has
// already logged the cause.
func (s *ServiceImplementation) GetDashboard(ctx context.Context) (*Dashboard, error) {
	var (
		d   Dashboard
		err error
	)
	if d.Properties, err = s.properties.GetStats(ctx); err != nil {
		return nil, err
	}

	inquiryCounts, err := s.inquiries.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	d.Inquiries = InquirySummary{Total: sum(inquiryCounts), ByStatus: inquiryCounts}

	reviewCounts, err := s.reviews.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	d.Reviews = ReviewSummary{Total: sum(reviewCounts), ByStatus: reviewCounts}

	if d.Users, err = s.users.GetStats(ctx); err != nil {
		return nil, err
	}
	if d.RecentInquiries, err = s.inquiries.Recent(ctx, recentInquiries); err != nil {
		return nil, err
	}
	return &d, nil
}

func sum(counts map[string]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}
