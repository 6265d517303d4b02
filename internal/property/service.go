package property

import (
	"context"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/image"
	"realestate_backend/internal/platform/cache"
	"realestate_backend/internal/platform/messaging"

	"go.uber.org/zap"
)

const cacheNamespace = "properties"

// Service defines the interface for property business logic.
type Service interface {
	ListProperties(ctx context.Context, f ListFilter) ([]PropertyResponse, *common.Pagination, error)
	GetFeatured(ctx context.Context, limit int) ([]PropertyResponse, error)
	// GetPropertyByID accepts a UUID or a PROP- code. countView increments the view counter.
	GetPropertyByID(ctx context.Context, idOrCode string, countView bool) (*PropertyResponse, error)
	CreateProperty(ctx context.Context, req CreatePropertyRequest, createdBy string) (*PropertyResponse, error)
	UpdateProperty(ctx context.Context, idOrCode string, req UpdatePropertyRequest) (*PropertyResponse, error)
	UpdatePropertyStatus(ctx context.Context, idOrCode, status string) (*PropertyResponse, error)
	DeleteProperty(ctx context.Context, idOrCode string) error
	AddImages(ctx context.Context, idOrCode string, files []*multipart.FileHeader) (*PropertyResponse, error)
	RemoveImage(ctx context.Context, idOrCode, publicID string) (*PropertyResponse, error)
	GetStats(ctx context.Context) (*Stats, error)

	ResolvePropertyID(ctx context.Context, idOrCode string) (string, error)
	GetPropertyTitle(ctx context.Context, id string) (string, error)
	GetPropertiesByIDs(ctx context.Context, ids []string) ([]PropertyResponse, error)
	ApplyRating(ctx context.Context, id string, average float64, count int) error
}

type ServiceImplementation struct {
	repo      Repository
	cache     *cache.Tiered
	publisher messaging.Publisher
	indexer   Indexer
	images    image.Store
	logger    *zap.Logger
	now       func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

func NewService(
	repo Repository,
	propertyCache *cache.Tiered,
	publisher messaging.Publisher,
	indexer Indexer,
	images image.Store,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:      repo,
		cache:     propertyCache,
		publisher: publisher,
		indexer:   indexer,
		images:    images,
		logger:    logger.Named("property_service"),
		now:       time.Now,
	}
}

func (s *ServiceImplementation) ListProperties(ctx context.Context, f ListFilter) ([]PropertyResponse, *common.Pagination, error) {
	key := cache.QueryKey("list", listCacheParams(f))
	var cached listPage
	if s.cacheGet(ctx, key, &cached) {
		return cached.Items, cached.Pagination, nil
	}

	if f.Search != "" && s.indexer.Enabled() {
		ids, err := s.indexer.Search(ctx, f.Search)
		if err != nil {
			s.logger.Warn("Search index query failed, falling back to repository search", zap.Error(err), zap.String("search", f.Search))
		} else {
			if ids == nil {
				ids = []string{}
			}
			f.IDs = ids
			f.Search = ""
		}
	}

	ps, total, err := s.repo.List(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list properties", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to list properties: %w", err)
	}

	page := listPage{Items: ToPropertyResponses(ps), Pagination: common.NewPagination(total, f.Page, f.Limit)}
	s.cacheSet(ctx, key, page)
	return page.Items, page.Pagination, nil
}

type listPage struct {
	Items      []PropertyResponse `json:"items"`
	Pagination *common.Pagination `json:"pagination"`
}

func listCacheParams(f ListFilter) map[string]string {
	params := map[string]string{
		"search":       strings.ToLower(f.Search),
		"propertyType": f.PropertyType,
		"listingType":  f.ListingType,
		"status":       f.Status,
		"city":         strings.ToLower(f.City),
		"sort":         f.Sort,
		"page":         strconv.Itoa(f.Page),
		"limit":        strconv.Itoa(f.Limit),
	}
	if f.MinPrice != nil {
		params["minPrice"] = strconv.FormatFloat(*f.MinPrice, 'f', -1, 64)
	}
	if f.MaxPrice != nil {
		params["maxPrice"] = strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64)
	}
	if f.Bedrooms != nil {
		params["bedrooms"] = strconv.Itoa(*f.Bedrooms)
	}
	if f.Bathrooms != nil {
		params["bathrooms"] = strconv.Itoa(*f.Bathrooms)
	}
	if f.Featured != nil {
		params["featured"] = strconv.FormatBool(*f.Featured)
	}
	if f.IDs != nil {
		params["ids"] = strings.Join(f.IDs, ",")
	}
	return params
}

func (s *ServiceImplementation) GetFeatured(ctx context.Context, limit int) ([]PropertyResponse, error) {
	if limit <= 0 {
		limit = 6
	}
	if limit > common.MaxLimit {
		limit = common.MaxLimit
	}
	featured := true
	items, _, err := s.ListProperties(ctx, ListFilter{
		Status:   StatusActive,
		Featured: &featured,
		Sort:     SortNewest,
		Page:     1,
		Limit:    limit,
	})
	return items, err
}

func detailKey(idOrCode string) string {
	return "detail:" + strings.ToUpper(idOrCode)
}

func (s *ServiceImplementation) GetPropertyByID(ctx context.Context, idOrCode string, countView bool) (*PropertyResponse, error) {
	key := detailKey(idOrCode)
	var resp PropertyResponse
	if !s.cacheGet(ctx, key, &resp) {
		p, err := s.find(ctx, idOrCode)
		if err != nil {
			return nil, err
		}
		resp = ToPropertyResponse(p)
		s.cacheSet(ctx, key, resp)
	}

	if countView {
		if err := s.repo.IncrementViews(ctx, resp.ID); err != nil {
			s.logger.Warn("Failed to increment property views", zap.Error(err), zap.String("property_id", resp.ID))
		} else {
			resp.Views++
			if s.cache != nil {
				s.cache.Delete(ctx, cacheNamespace, detailKey(resp.ID), detailKey(resp.PropertyID))
			}
		}
	}
	return &resp, nil
}

func (s *ServiceImplementation) CreateProperty(ctx context.Context, req CreatePropertyRequest, createdBy string) (*PropertyResponse, error) {
	p := &Property{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		Location:     req.Location.toLocation(),
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		Area:         req.Area,
		PropertyType: req.PropertyType,
		ListingType:  req.ListingType,
		Status:       req.Status,
		Images:       nonNil(req.Images),
		Amenities:    nonNil(req.Amenities),
		Features:     nonNil(req.Features),
		Agent:        req.Agent.toAgent(),
		Featured:     req.Featured,
		CreatedBy:    createdBy,
	}
	if p.ListingType == "" {
		p.ListingType = ListingSale
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	p.Touch(s.now())

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create property", zap.Error(err), zap.String("title", p.Title))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.afterWrite(ctx, messaging.ActionCreate, p.ID)
	s.logger.Info("Property created", zap.String("property_id", p.ID), zap.String("code", p.PropertyID))
	resp := ToPropertyResponse(p)
	return &resp, nil
}

func (s *ServiceImplementation) UpdateProperty(ctx context.Context, idOrCode string, req UpdatePropertyRequest) (*PropertyResponse, error) {
	p, err := s.find(ctx, idOrCode)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		p.Title = strings.TrimSpace(*req.Title)
		p.AssignIndex(p.PropertyIndex)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Location != nil {
		p.Location = req.Location.toLocation()
	}
	if req.Bedrooms != nil {
		p.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		p.Bathrooms = *req.Bathrooms
	}
	if req.Area != nil {
		p.Area = *req.Area
	}
	if req.PropertyType != nil {
		p.PropertyType = *req.PropertyType
	}
	if req.ListingType != nil {
		p.ListingType = *req.ListingType
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Images != nil {
		p.Images = nonNil(*req.Images)
	}
	if req.Amenities != nil {
		p.Amenities = nonNil(*req.Amenities)
	}
	if req.Features != nil {
		p.Features = nonNil(*req.Features)
	}
	if req.Agent != nil {
		p.Agent = req.Agent.toAgent()
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}

	return s.save(ctx, p)
}

func (s *ServiceImplementation) UpdatePropertyStatus(ctx context.Context, idOrCode, status string) (*PropertyResponse, error) {
	p, err := s.find(ctx, idOrCode)
	if err != nil {
		return nil, err
	}
	p.Status = status
	return s.save(ctx, p)
}

func (s *ServiceImplementation) DeleteProperty(ctx context.Context, idOrCode string) error {
	p, err := s.find(ctx, idOrCode)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, p.ID); err != nil {
		if common.IsNotFound(err) {
			return err
		}
		s.logger.Error("Failed to delete property", zap.Error(err), zap.String("property_id", p.ID))
		return fmt.Errorf("failed to delete property: %w", err)
	}

	for _, img := range p.Images {
		if err := s.images.Delete(ctx, img.PublicID); err != nil {
			s.logger.Warn("Failed to delete property image", zap.Error(err), zap.String("public_id", img.PublicID))
		}
	}

	s.afterWrite(ctx, messaging.ActionDelete, p.ID)
	s.logger.Info("Property deleted", zap.String("property_id", p.ID))
	return nil
}

func (s *ServiceImplementation) AddImages(ctx context.Context, idOrCode string, files []*multipart.FileHeader) (*PropertyResponse, error) {
	p, err := s.find(ctx, idOrCode)
	if err != nil {
		return nil, err
	}

	folder := "properties/" + p.PropertyID
	added := make([]image.Uploaded, 0, len(files))
	for _, fh := range files {
		u, err := s.images.Upload(ctx, fh, folder)
		if err != nil {
			s.rollbackUploads(ctx, added)
			return nil, err
		}
		added = append(added, *u)
	}

	p.Images = append(p.Images, added...)
	resp, err := s.save(ctx, p)
	if err != nil {
		s.rollbackUploads(ctx, added)
		return nil, err
	}
	return resp, nil
}

func (s *ServiceImplementation) rollbackUploads(ctx context.Context, uploaded []image.Uploaded) {
	for _, u := range uploaded {
		if err := s.images.Delete(ctx, u.PublicID); err != nil {
			s.logger.Warn("Failed to roll back uploaded image", zap.Error(err), zap.String("public_id", u.PublicID))
		}
	}
}

func (s *ServiceImplementation) RemoveImage(ctx context.Context, idOrCode, publicID string) (*PropertyResponse, error) {
	p, err := s.find(ctx, idOrCode)
	if err != nil {
		return nil, err
	}

	kept := make([]image.Uploaded, 0, len(p.Images))
	for _, img := range p.Images {
		if img.PublicID != publicID {
			kept = append(kept, img)
		}
	}
	if len(kept) == len(p.Images) {
		return nil, common.ErrNotFound.WithDetails("Image not found on this property.")
	}
	p.Images = kept

	resp, err := s.save(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.images.Delete(ctx, publicID); err != nil {
		s.logger.Warn("Failed to delete stored image", zap.Error(err), zap.String("public_id", publicID))
	}
	return resp, nil
}

func (s *ServiceImplementation) GetStats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("Failed to compute property stats", zap.Error(err))
		return nil, fmt.Errorf("failed to compute property stats: %w", err)
	}
	return stats, nil
}

func (s *ServiceImplementation) ResolvePropertyID(ctx context.Context, idOrCode string) (string, error) {
	p, err := s.find(ctx, idOrCode)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (s *ServiceImplementation) GetPropertyTitle(ctx context.Context, id string) (string, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Title, nil
}

// GetPropertiesByIDs returns the properties in the order of ids, skipping missing ones.
func (s *ServiceImplementation) GetPropertiesByIDs(ctx context.Context, ids []string) ([]PropertyResponse, error) {
	ps, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load properties by id", zap.Error(err), zap.Int("count", len(ids)))
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}
	byID := make(map[string]*Property, len(ps))
	for i := range ps {
		byID[ps[i].ID] = &ps[i]
	}
	out := make([]PropertyResponse, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, ToPropertyResponse(p))
		}
	}
	return out, nil
}

func (s *ServiceImplementation) ApplyRating(ctx context.Context, id string, average float64, count int) error {
	p, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	p.AverageRating = average
	p.ReviewCount = count
	_, err = s.save(ctx, p)
	return err
}

func (s *ServiceImplementation) find(ctx context.Context, idOrCode string) (*Property, error) {
	var (
		p   *Property
		err error
	)
	if IsCode(idOrCode) {
		p, err = s.repo.FindByCode(ctx, idOrCode)
	} else {
		p, err = s.repo.FindByID(ctx, idOrCode)
	}
	if err != nil {
		if !common.IsNotFound(err) {
			s.logger.Error("Failed to load property", zap.Error(err), zap.String("id", idOrCode))
			return nil, fmt.Errorf("failed to load property: %w", err)
		}
		return nil, err
	}
	return p, nil
}

func (s *ServiceImplementation) save(ctx context.Context, p *Property) (*PropertyResponse, error) {
	p.Touch(s.now())
	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("Failed to update property", zap.Error(err), zap.String("property_id", p.ID))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	s.afterWrite(ctx, messaging.ActionUpdate, p.ID)
	resp := ToPropertyResponse(p)
	return &resp, nil
}

// afterWrite drops cached reads and announces the change to the indexer.
func (s *ServiceImplementation) afterWrite(ctx context.Context, action, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, cacheNamespace)
	}
	if err := s.publisher.Publish(ctx, messaging.Event{Action: action, PropertyID: id}); err != nil {
		s.logger.Warn("Failed to publish property event", zap.Error(err), zap.String("action", action), zap.String("property_id", id))
	}
}

func (s *ServiceImplementation) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.GetJSON(ctx, cacheNamespace, key, dest)
}

func (s *ServiceImplementation) cacheSet(ctx context.Context, key string, v interface{}) {
	if s.cache != nil {
		s.cache.SetJSON(ctx, cacheNamespace, key, v)
	}
}
