package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/user"

	"go.uber.org/zap"
)

// PropertyRater is the part of the property service reviews depend on.
type PropertyRater interface {
	ResolvePropertyID(ctx context.Context, idOrCode string) (string, error)
	ApplyRating(ctx context.Context, id string, average float64, count int) error
}

// AuthorLookup resolves the reviewer so the display name can be stored with the review.
type AuthorLookup interface {
	GetUserByID(ctx context.Context, id string) (*user.User, error)
}

type Service interface {
	CreateReview(ctx context.Context, userID string, req CreateReviewRequest) (*ReviewResponse, error)
	ListApproved(ctx context.Context, page, limit int) ([]ReviewResponse, *common.Pagination, error)
	ListForProperty(ctx context.Context, propertyIDOrCode string, page, limit int) ([]ReviewResponse, *common.Pagination, error)
	ListMine(ctx context.Context, userID string, page, limit int) ([]ReviewResponse, *common.Pagination, error)
	DeleteMine(ctx context.Context, id, userID string) error

	AdminList(ctx context.Context, f ListFilter) ([]ReviewResponse, *common.Pagination, error)
	UpdateStatus(ctx context.Context, id, status string) (*ReviewResponse, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type ServiceImplementation struct {
	repo       Repository
	properties PropertyRater
	authors    AuthorLookup
	logger     *zap.Logger
	now        func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

func NewService(repo Repository, properties PropertyRater, authors AuthorLookup, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:       repo,
		properties: properties,
		authors:    authors,
		logger:     logger.Named("review_service"),
		now:        time.Now,
	}
}

func (s *ServiceImplementation) CreateReview(ctx context.Context, userID string, req CreateReviewRequest) (*ReviewResponse, error) {
	// Length rules apply to the text that gets stored.
	req.Comment = strings.TrimSpace(req.Comment)
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	author, err := s.authors.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var propertyID string
	if code := strings.TrimSpace(req.PropertyID); code != "" {
		if propertyID, err = s.properties.ResolvePropertyID(ctx, code); err != nil {
			return nil, err
		}
	}

	rv := &Review{
		UserID:     userID,
		UserName:   author.FullName(),
		PropertyID: propertyID,
		Rating:     req.Rating,
		Comment:    req.Comment,
		Status:     StatusPending,
	}
	rv.Touch(s.now())
	if err := s.repo.Create(ctx, rv); err != nil {
		s.logger.Error("Failed to create review", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	s.logger.Info("Review submitted", zap.String("reviewID", rv.ID), zap.String("propertyID", propertyID))
	resp := ToReviewResponse(rv)
	return &resp, nil
}

func (s *ServiceImplementation) ListApproved(ctx context.Context, page, limit int) ([]ReviewResponse, *common.Pagination, error) {
	return s.list(ctx, ListFilter{Status: StatusApproved, Page: page, Limit: limit})
}

func (s *ServiceImplementation) ListForProperty(ctx context.Context, propertyIDOrCode string, page, limit int) ([]ReviewResponse, *common.Pagination, error) {
	propertyID, err := s.properties.ResolvePropertyID(ctx, propertyIDOrCode)
	if err != nil {
		return nil, nil, err
	}
	return s.list(ctx, ListFilter{PropertyID: propertyID, Status: StatusApproved, Page: page, Limit: limit})
}

func (s *ServiceImplementation) ListMine(ctx context.Context, userID string, page, limit int) ([]ReviewResponse, *common.Pagination, error) {
	return s.list(ctx, ListFilter{UserID: userID, Page: page, Limit: limit})
}

func (s *ServiceImplementation) AdminList(ctx context.Context, f ListFilter) ([]ReviewResponse, *common.Pagination, error) {
	if f.PropertyID != "" {
		id, err := s.properties.ResolvePropertyID(ctx, f.PropertyID)
		if err != nil {
			return nil, nil, err
		}
		f.PropertyID = id
	}
	return s.list(ctx, f)
}

func (s *ServiceImplementation) list(ctx context.Context, f ListFilter) ([]ReviewResponse, *common.Pagination, error) {
	reviews, total, err := s.repo.List(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list reviews", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return ToReviewResponses(reviews), common.NewPagination(total, f.Page, f.Limit), nil
}

func (s *ServiceImplementation) DeleteMine(ctx context.Context, id, userID string) error {
	rv, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if rv.UserID != userID {
		return common.ErrForbidden.WithDetails("You can only delete your own reviews.")
	}
	return s.remove(ctx, rv)
}

func (s *ServiceImplementation) Delete(ctx context.Context, id string) error {
	rv, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.remove(ctx, rv)
}

func (s *ServiceImplementation) UpdateStatus(ctx context.Context, id, status string) (*ReviewResponse, error) {
	rv, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	rv.Status = status
	rv.Touch(s.now())
	if err := s.repo.Update(ctx, rv); err != nil {
		s.logger.Error("Failed to update review status", zap.Error(err), zap.String("reviewID", id))
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	if err := s.refreshRating(ctx, rv.PropertyID); err != nil {
		return nil, err
	}
	s.logger.Info("Review moderated", zap.String("reviewID", id), zap.String("status", status))
	resp := ToReviewResponse(rv)
	return &resp, nil
}

func (s *ServiceImplementation) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count reviews", zap.Error(err))
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}
	return counts, nil
}

func (s *ServiceImplementation) find(ctx context.Context, id string) (*Review, error) {
	rv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, err
		}
		s.logger.Error("Failed to load review", zap.Error(err), zap.String("reviewID", id))
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return rv, nil
}

func (s *ServiceImplementation) remove(ctx context.Context, rv *Review) error {
	if err := s.repo.Delete(ctx, rv.ID); err != nil {
		if common.IsNotFound(err) {
			return err
		}
		s.logger.Error("Failed to delete review", zap.Error(err), zap.String("reviewID", rv.ID))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if rv.Status == StatusApproved {
		return s.refreshRating(ctx, rv.PropertyID)
	}
	return nil
}

// refreshRating recomputes the property's rating from its approved reviews.
// Site testimonials have no property and are skipped.
func (s *ServiceImplementation) refreshRating(ctx context.Context, propertyID string) error {
	if propertyID == "" {
		return nil
	}
	summary, err := s.repo.RatingSummary(ctx, propertyID)
	if err != nil {
		s.logger.Error("Failed to aggregate property rating", zap.Error(err), zap.String("propertyID", propertyID))
		return fmt.Errorf("failed to aggregate rating: %w", err)
	}
	if err := s.properties.ApplyRating(ctx, propertyID, summary.Average, summary.Count); err != nil {
		// the property may have been deleted since the review was written
		if common.IsNotFound(err) {
			s.logger.Warn("Rated property no longer exists", zap.String("propertyID", propertyID))
			return nil
		}
		s.logger.Error("Failed to apply property rating", zap.Error(err), zap.String("propertyID", propertyID))
		return fmt.Errorf("failed to apply rating: %w", err)
	}
	return nil
}
