package review

import (
	"context"
	"errors"
	"fmt"

	"realestate_backend/internal/common"

	"gorm.io/gorm"
)

// Repository defines persistence for reviews.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	FindByID(ctx context.Context, id string) (*Review, error)
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]Review, int64, error)
	RatingSummary(ctx context.Context, propertyID string) (RatingSummary, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, rv *Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id string) (*Review, error) {
	var rv Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Review not found.")
		}
		return nil, err
	}
	return &rv, nil
}

func (r *gormRepository) Update(ctx context.Context, rv *Review) error {
	return r.db.WithContext(ctx).Save(rv).Error
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Review not found.")
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, f ListFilter) ([]Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&Review{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.PropertyID != "" {
		q = q.Where("property_id = ?", f.PropertyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	page := common.NewPagination(total, f.Page, f.Limit)
	var reviews []Review
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *gormRepository) RatingSummary(ctx context.Context, propertyID string) (RatingSummary, error) {
	var row struct {
		Average float64
		Count   int
	}
	err := r.db.WithContext(ctx).Model(&Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("property_id = ? AND status = ?", propertyID, StatusApproved).
		Scan(&row).Error
	if err != nil {
		return RatingSummary{}, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return RatingSummary{Average: roundRating(row.Average), Count: row.Count}, nil
}

func (r *gormRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Name  string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&Review{}).
		Select("status AS name, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}
	counts := make(map[string]int64, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Name] = row.Count
	}
	return counts, nil
}
