package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const propertyCounter = "properties"

// Repository defines the interface for property persistence.
type Repository interface {
	// Create assigns the next PropertyIndex and the fields derived from it.
	Create(ctx context.Context, p *Property) error
	FindByID(ctx context.Context, id string) (*Property, error)
	FindByCode(ctx context.Context, code string) (*Property, error)
	FindByIDs(ctx context.Context, ids []string) ([]Property, error)
	Update(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	List(ctx context.Context, f ListFilter) ([]Property, int64, error)
	// ListAfter returns up to limit properties with PropertyIndex > after, in index order.
	ListAfter(ctx context.Context, after int64, limit int) ([]Property, error)
	Stats(ctx context.Context) (*Stats, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, p *Property) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Counter{Name: propertyCounter}).Error; err != nil {
			return fmt.Errorf("failed to init property counter: %w", err)
		}
		if err := tx.Model(&Counter{}).Where("name = ?", propertyCounter).
			UpdateColumn("value", gorm.Expr("value + ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to advance property counter: %w", err)
		}
		var c Counter
		if err := tx.Where("name = ?", propertyCounter).First(&c).Error; err != nil {
			return fmt.Errorf("failed to read property counter: %w", err)
		}

		p.AssignIndex(c.Value)
		p.RefreshSearchFields()
		return tx.Create(p).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return common.ErrConflict.WithDetails("A property with this slug already exists.")
		}
		return err
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id string) (*Property, error) {
	var p Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Property not found.")
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) FindByCode(ctx context.Context, code string) (*Property, error) {
	var p Property
	err := r.db.WithContext(ctx).Where("property_id = ?", strings.ToUpper(code)).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Property not found.")
		}
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []string) ([]Property, error) {
	if len(ids) == 0 {
		return []Property{}, nil
	}
	var ps []Property
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *gormRepository) Update(ctx context.Context, p *Property) error {
	p.RefreshSearchFields()
	// views is only ever changed by IncrementViews.
	res := r.db.WithContext(ctx).Model(p).Select("*").Omit("views").Updates(p)
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error) {
			return common.ErrConflict.WithDetails("Update failed: slug already taken.")
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Property not found.")
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Property{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Property not found.")
	}
	return nil
}

func (r *gormRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&Property{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func (r *gormRepository) List(ctx context.Context, f ListFilter) ([]Property, int64, error) {
	q := r.db.WithContext(ctx).Model(&Property{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.ListingType != "" {
		q = q.Where("listing_type = ?", f.ListingType)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Bedrooms != nil {
		q = q.Where("bedrooms >= ?", *f.Bedrooms)
	}
	if f.Bathrooms != nil {
		q = q.Where("bathrooms >= ?", *f.Bathrooms)
	}
	if f.City != "" {
		q = q.Where("search_city LIKE ?", "%"+strings.ToLower(f.City)+"%")
	}
	if f.Search != "" {
		q = q.Where("search_text LIKE ?", "%"+strings.ToLower(f.Search)+"%")
	}
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties: %w", err)
	}

	page := common.NewPagination(total, f.Page, f.Limit)
	var ps []Property
	err := q.Order(orderClause(f.Sort)).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&ps).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list properties: %w", err)
	}
	return ps, total, nil
}

func (r *gormRepository) ListAfter(ctx context.Context, after int64, limit int) ([]Property, error) {
	var ps []Property
	err := r.db.WithContext(ctx).
		Where("property_index > ?", after).
		Order("property_index ASC").
		Limit(limit).
		Find(&ps).Error
	return ps, err
}

func (r *gormRepository) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: map[string]int64{}, ByType: map[string]int64{}}
	if err := r.db.WithContext(ctx).Model(&Property{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&Property{}).Where("featured = ?", true).
		Count(&stats.Featured).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Name  string
		Count int64
	}
	var byStatus []bucket
	if err := r.db.WithContext(ctx).Model(&Property{}).
		Select("status AS name, COUNT(*) AS count").Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	var byType []bucket
	if err := r.db.WithContext(ctx).Model(&Property{}).
		Select("property_type AS name, COUNT(*) AS count").Group("property_type").
		Scan(&byType).Error; err != nil {
		return nil, err
	}

	for _, s := range AllStatuses {
		stats.ByStatus[s] = 0
	}
	for _, t := range AllTypes {
		stats.ByType[t] = 0
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Name] = b.Count
	}
	for _, b := range byType {
		stats.ByType[b.Name] = b.Count
	}
	return stats, nil
}
