package inquiry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realestate_backend/internal/common"

	"gorm.io/gorm"
)

// Repository defines persistence for inquiries.
type Repository interface {
	Create(ctx context.Context, i *Inquiry) error
	FindByID(ctx context.Context, id string) (*Inquiry, error)
	Update(ctx context.Context, i *Inquiry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]Inquiry, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, i *Inquiry) error {
	i.RefreshSearchFields()
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id string) (*Inquiry, error) {
	var i Inquiry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&i).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Inquiry not found.")
		}
		return nil, err
	}
	return &i, nil
}

func (r *gormRepository) Update(ctx context.Context, i *Inquiry) error {
	i.RefreshSearchFields()
	return r.db.WithContext(ctx).Save(i).Error
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Inquiry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Inquiry not found.")
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, f ListFilter) ([]Inquiry, int64, error) {
	q := r.db.WithContext(ctx).Model(&Inquiry{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PropertyID != "" {
		q = q.Where("property_id = ?", f.PropertyID)
	}
	if f.Search != "" {
		q = q.Where("search_text LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count inquiries: %w", err)
	}

	page := common.NewPagination(total, f.Page, f.Limit)
	var inquiries []Inquiry
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&inquiries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return inquiries, total, nil
}

func (r *gormRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Name  string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&Inquiry{}).
		Select("status AS name, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count inquiries: %w", err)
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
