package property

import (
	"fmt"
	"strings"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/image"

	"github.com/gosimple/slug"
)

const (
	TypeHouse      = "house"
	TypeApartment  = "apartment"
	TypeCondo      = "condo"
	TypeTownhouse  = "townhouse"
	TypeLand       = "land"
	TypeCommercial = "commercial"
	TypeVilla      = "villa"
)

const (
	ListingSale = "sale"
	ListingRent = "rent"
)

const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusSold     = "sold"
	StatusInactive = "inactive"
)

const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortPopular   = "popular"
)

// AllStatuses and AllTypes list the enum values in display order.
var (
	AllStatuses = []string{StatusActive, StatusPending, StatusSold, StatusInactive}
	AllTypes    = []string{TypeHouse, TypeApartment, TypeCondo, TypeTownhouse, TypeLand, TypeCommercial, TypeVilla}
)

// CodePrefix prefixes the human readable property id.
const CodePrefix = "PROP-"

// Code formats a property index as its human readable id, e.g. PROP-00042.
func Code(index int64) string {
	return fmt.Sprintf("%s%05d", CodePrefix, index)
}

// IsCode reports whether s looks like a human readable property id rather than a UUID.
func IsCode(s string) bool {
	return strings.HasPrefix(strings.ToUpper(s), CodePrefix)
}

type Location struct {
	Address   string  `json:"address" firestore:"address" gorm:"type:varchar(255)"`
	City      string  `json:"city" firestore:"city" gorm:"type:varchar(100);index"`
	State     string  `json:"state" firestore:"state" gorm:"type:varchar(100)"`
	ZipCode   string  `json:"zipCode" firestore:"zipCode" gorm:"type:varchar(20)"`
	Country   string  `json:"country" firestore:"country" gorm:"type:varchar(100)"`
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

type Agent struct {
	Name  string `json:"name" firestore:"name" gorm:"type:varchar(150)"`
	Email string `json:"email" firestore:"email" gorm:"type:varchar(255)"`
	Phone string `json:"phone" firestore:"phone" gorm:"type:varchar(50)"`
	Photo string `json:"photo" firestore:"photo" gorm:"type:text"`
}

// Property is a listed real-estate object.
type Property struct {
	common.BaseModel
	PropertyIndex int64            `json:"propertyIndex" firestore:"propertyIndex" gorm:"not null;uniqueIndex"`
	PropertyID    string           `json:"propertyId" firestore:"propertyId" gorm:"type:varchar(20);not null;uniqueIndex"`
	Slug          string           `json:"slug" firestore:"slug" gorm:"type:varchar(255);not null;uniqueIndex"`
	Title         string           `json:"title" firestore:"title" gorm:"type:varchar(200);not null"`
	Description   string           `json:"description" firestore:"description" gorm:"type:text;not null"`
	Price         float64          `json:"price" firestore:"price" gorm:"not null;index"`
	Location      Location         `json:"location" firestore:"location" gorm:"embedded;embeddedPrefix:location_"`
	Bedrooms      int              `json:"bedrooms" firestore:"bedrooms"`
	Bathrooms     int              `json:"bathrooms" firestore:"bathrooms"`
	Area          float64          `json:"area" firestore:"area"`
	PropertyType  string           `json:"propertyType" firestore:"propertyType" gorm:"type:varchar(20);not null;index"`
	ListingType   string           `json:"listingType" firestore:"listingType" gorm:"type:varchar(10);not null;index"`
	Status        string           `json:"status" firestore:"status" gorm:"type:varchar(20);not null;index"`
	Images        []image.Uploaded `json:"images" firestore:"images" gorm:"type:text;serializer:json"`
	Amenities     []string         `json:"amenities" firestore:"amenities" gorm:"type:text;serializer:json"`
	Features      []string         `json:"features" firestore:"features" gorm:"type:text;serializer:json"`
	Agent         Agent            `json:"agent" firestore:"agent" gorm:"embedded;embeddedPrefix:agent_"`
	Featured      bool             `json:"featured" firestore:"featured" gorm:"not null;index"`
	Views         int64            `json:"views" firestore:"views" gorm:"not null"`
	AverageRating float64          `json:"averageRating" firestore:"averageRating" gorm:"not null"`
	ReviewCount   int              `json:"reviewCount" firestore:"reviewCount" gorm:"not null"`
	CreatedBy     string           `json:"createdBy" firestore:"createdBy" gorm:"type:varchar(36)"`

	// Lower-cased shadow fields used for case-insensitive search.
	SearchTitle string `json:"-" firestore:"searchTitle" gorm:"type:varchar(200);index"`
	SearchCity  string `json:"-" firestore:"searchCity" gorm:"type:varchar(100);index"`
	SearchText  string `json:"-" firestore:"searchText" gorm:"type:text"`
}

func (Property) TableName() string {
	return "properties"
}

// AssignIndex sets the sequence number and everything derived from it.
func (p *Property) AssignIndex(index int64) {
	p.PropertyIndex = index
	p.PropertyID = Code(index)
	p.Slug = fmt.Sprintf("%s-%d", slug.Make(p.Title), index)
}

// RefreshSearchFields recomputes the shadow fields from the current values.
func (p *Property) RefreshSearchFields() {
	p.SearchTitle = strings.ToLower(strings.TrimSpace(p.Title))
	p.SearchCity = strings.ToLower(strings.TrimSpace(p.Location.City))
	parts := []string{
		p.Title,
		p.Description,
		p.PropertyID,
		p.Location.Address,
		p.Location.City,
		p.Location.State,
		p.Location.ZipCode,
		p.Location.Country,
		p.PropertyType,
	}
	p.SearchText = strings.ToLower(strings.Join(parts, " "))
}

// Counter holds named sequences; "properties" backs PropertyIndex.
type Counter struct {
	Name  string `gorm:"type:varchar(50);primaryKey"`
	Value int64  `gorm:"not null"`
}

func (Counter) TableName() string {
	return "counters"
}

// --- DTOs ---

type LocationInput struct {
	Address   string  `json:"address" binding:"omitempty,max=255"`
	City      string  `json:"city" binding:"required,max=100"`
	State     string  `json:"state" binding:"omitempty,max=100"`
	ZipCode   string  `json:"zipCode" binding:"omitempty,max=20"`
	Country   string  `json:"country" binding:"omitempty,max=100"`
	Latitude  float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude float64 `json:"longitude" binding:"omitempty,longitude"`
}

func (l LocationInput) toLocation() Location {
	return Location{
		Address:   strings.TrimSpace(l.Address),
		City:      strings.TrimSpace(l.City),
		State:     strings.TrimSpace(l.State),
		ZipCode:   strings.TrimSpace(l.ZipCode),
		Country:   strings.TrimSpace(l.Country),
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}
}

type AgentInput struct {
	Name  string `json:"name" binding:"omitempty,max=150"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"omitempty,max=50"`
	Photo string `json:"photo" binding:"omitempty,url"`
}

func (a AgentInput) toAgent() Agent {
	return Agent{Name: a.Name, Email: a.Email, Phone: a.Phone, Photo: a.Photo}
}

// CreatePropertyRequest is the body of POST /properties.
type CreatePropertyRequest struct {
	Title        string           `json:"title" binding:"required,min=3,max=200"`
	Description  string           `json:"description" binding:"required,min=10"`
	Price        float64          `json:"price" binding:"required,gt=0"`
	Location     LocationInput    `json:"location"`
	Bedrooms     int              `json:"bedrooms" binding:"gte=0"`
	Bathrooms    int              `json:"bathrooms" binding:"gte=0"`
	Area         float64          `json:"area" binding:"gte=0"`
	PropertyType string           `json:"propertyType" binding:"required,oneof=house apartment condo townhouse land commercial villa"`
	ListingType  string           `json:"listingType" binding:"omitempty,oneof=sale rent"`
	Status       string           `json:"status" binding:"omitempty,oneof=active pending sold inactive"`
	Images       []image.Uploaded `json:"images"`
	Amenities    []string         `json:"amenities"`
	Features     []string         `json:"features"`
	Agent        AgentInput       `json:"agent"`
	Featured     bool             `json:"featured"`
}

// UpdatePropertyRequest is a partial update; nil fields are left untouched.
type UpdatePropertyRequest struct {
	Title        *string           `json:"title" binding:"omitempty,min=3,max=200"`
	Description  *string           `json:"description" binding:"omitempty,min=10"`
	Price        *float64          `json:"price" binding:"omitempty,gt=0"`
	Location     *LocationInput    `json:"location"`
	Bedrooms     *int              `json:"bedrooms" binding:"omitempty,gte=0"`
	Bathrooms    *int              `json:"bathrooms" binding:"omitempty,gte=0"`
	Area         *float64          `json:"area" binding:"omitempty,gte=0"`
	PropertyType *string           `json:"propertyType" binding:"omitempty,oneof=house apartment condo townhouse land commercial villa"`
	ListingType  *string           `json:"listingType" binding:"omitempty,oneof=sale rent"`
	Status       *string           `json:"status" binding:"omitempty,oneof=active pending sold inactive"`
	Images       *[]image.Uploaded `json:"images"`
	Amenities    *[]string         `json:"amenities"`
	Features     *[]string         `json:"features"`
	Agent        *AgentInput       `json:"agent"`
	Featured     *bool             `json:"featured"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active pending sold inactive"`
}

type RemoveImageRequest struct {
	PublicID string `json:"publicId" form:"publicId" binding:"required"`
}

// ListQuery is bound from the query string of GET /properties.
type ListQuery struct {
	Search       string   `form:"search"`
	PropertyType string   `form:"propertyType" binding:"omitempty,oneof=house apartment condo townhouse land commercial villa"`
	ListingType  string   `form:"listingType" binding:"omitempty,oneof=sale rent"`
	Status       string   `form:"status" binding:"omitempty,oneof=active pending sold inactive all"`
	City         string   `form:"city"`
	MinPrice     *float64 `form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice     *float64 `form:"maxPrice" binding:"omitempty,gte=0"`
	Bedrooms     *int     `form:"bedrooms" binding:"omitempty,gte=0"`
	Bathrooms    *int     `form:"bathrooms" binding:"omitempty,gte=0"`
	Featured     *bool    `form:"featured"`
	Sort         string   `form:"sort" binding:"omitempty,oneof=newest oldest price_asc price_desc popular"`
	common.PaginationQuery
}

// ListFilter is what repositories search by. Empty fields do not filter.
type ListFilter struct {
	Search       string
	PropertyType string
	ListingType  string
	Status       string
	City         string
	MinPrice     *float64
	MaxPrice     *float64
	Bedrooms     *int
	Bathrooms    *int
	Featured     *bool
	IDs          []string
	Sort         string
	Page         int
	Limit        int
}

func (q ListQuery) Filter() ListFilter {
	q.Normalize()
	status := q.Status
	if status == "all" {
		status = ""
	}
	return ListFilter{
		Search:       strings.TrimSpace(q.Search),
		PropertyType: q.PropertyType,
		ListingType:  q.ListingType,
		Status:       status,
		City:         strings.TrimSpace(q.City),
		MinPrice:     q.MinPrice,
		MaxPrice:     q.MaxPrice,
		Bedrooms:     q.Bedrooms,
		Bathrooms:    q.Bathrooms,
		Featured:     q.Featured,
		Sort:         q.Sort,
		Page:         q.Page,
		Limit:        q.Limit,
	}
}

// Stats is the admin breakdown of the catalogue.
type Stats struct {
	Total    int64            `json:"total"`
	Featured int64            `json:"featured"`
	ByStatus map[string]int64 `json:"byStatus"`
	ByType   map[string]int64 `json:"byType"`
}

// PropertyResponse is the public representation of a Property.
type PropertyResponse struct {
	ID            string           `json:"id"`
	PropertyIndex int64            `json:"propertyIndex"`
	PropertyID    string           `json:"propertyId"`
	Slug          string           `json:"slug"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Price         float64          `json:"price"`
	Location      Location         `json:"location"`
	Bedrooms      int              `json:"bedrooms"`
	Bathrooms     int              `json:"bathrooms"`
	Area          float64          `json:"area"`
	PropertyType  string           `json:"propertyType"`
	ListingType   string           `json:"listingType"`
	Status        string           `json:"status"`
	Images        []image.Uploaded `json:"images"`
	Amenities     []string         `json:"amenities"`
	Features      []string         `json:"features"`
	Agent         Agent            `json:"agent"`
	Featured      bool             `json:"featured"`
	Views         int64            `json:"views"`
	AverageRating float64          `json:"averageRating"`
	ReviewCount   int              `json:"reviewCount"`
	CreatedBy     string           `json:"createdBy,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func ToPropertyResponse(p *Property) PropertyResponse {
	return PropertyResponse{
		ID:            p.ID,
		PropertyIndex: p.PropertyIndex,
		PropertyID:    p.PropertyID,
		Slug:          p.Slug,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		Location:      p.Location,
		Bedrooms:      p.Bedrooms,
		Bathrooms:     p.Bathrooms,
		Area:          p.Area,
		PropertyType:  p.PropertyType,
		ListingType:   p.ListingType,
		Status:        p.Status,
		Images:        nonNil(p.Images),
		Amenities:     nonNil(p.Amenities),
		Features:      nonNil(p.Features),
		Agent:         p.Agent,
		Featured:      p.Featured,
		Views:         p.Views,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ToPropertyResponses(ps []Property) []PropertyResponse {
	out := make([]PropertyResponse, 0, len(ps))
	for i := range ps {
		out = append(out, ToPropertyResponse(&ps[i]))
	}
	return out
}
