package user

import (
	"strings"
	"time"

	"realestate_backend/internal/common"
)

// Preferences drive property recommendations and email opt-ins.
type Preferences struct {
	PropertyTypes      []string `json:"propertyTypes" firestore:"propertyTypes" gorm:"type:text;serializer:json"`
	MinPrice           float64  `json:"minPrice" firestore:"minPrice"`
	MaxPrice           float64  `json:"maxPrice" firestore:"maxPrice"`
	Locations          []string `json:"locations" firestore:"locations" gorm:"type:text;serializer:json"`
	EmailNotifications bool     `json:"emailNotifications" firestore:"emailNotifications"`
	Newsletter         bool     `json:"newsletter" firestore:"newsletter"`
}

// User represents the user model in the database.
type User struct {
	common.BaseModel
	FirstName       string      `json:"firstName" firestore:"firstName" gorm:"type:varchar(100)"`
	LastName        string      `json:"lastName" firestore:"lastName" gorm:"type:varchar(100)"`
	Email           string      `json:"email" firestore:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Phone           string      `json:"phone" firestore:"phone" gorm:"type:varchar(50)"`
	PasswordHash    string      `json:"-" firestore:"passwordHash" gorm:"type:varchar(255)"`
	Role            string      `json:"role" firestore:"role" gorm:"type:varchar(20);not null;index"`
	Verified        bool        `json:"verified" firestore:"verified" gorm:"not null"`
	Active          bool        `json:"active" firestore:"active" gorm:"not null"`
	FirebaseUID     *string     `json:"-" firestore:"firebaseUid" gorm:"type:varchar(128);uniqueIndex"`
	AvatarURL       string      `json:"avatarUrl" firestore:"avatarUrl" gorm:"type:text"`
	Preferences     Preferences `json:"preferences" firestore:"preferences" gorm:"embedded;embeddedPrefix:pref_"`
	SavedProperties []string    `json:"savedProperties" firestore:"savedProperties" gorm:"type:text;serializer:json"`
	LastLoginAt     *time.Time  `json:"lastLoginAt" firestore:"lastLoginAt"`

	// lower(first last email) for admin search
	SearchText string `json:"-" firestore:"searchText" gorm:"type:text"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// Normalize lower-cases the email and refreshes the search field.
func (u *User) Normalize() {
	u.Email = NormalizeEmail(u.Email)
	u.SearchText = strings.ToLower(strings.Join([]string{u.FirstName, u.LastName, u.Email}, " "))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) HasSaved(propertyID string) bool {
	for _, id := range u.SavedProperties {
		if id == propertyID {
			return true
		}
	}
	return false
}

func (u *User) GetID() string    { return u.ID }
func (u *User) GetEmail() string { return u.Email }
func (u *User) GetRole() string  { return u.Role }

// --- DTOs ---

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	AvatarURL *string `json:"avatarUrl" binding:"omitempty,url"`
}

type UpdatePreferencesRequest struct {
	PropertyTypes      []string `json:"propertyTypes" binding:"omitempty,dive,oneof=house apartment condo townhouse land commercial villa"`
	MinPrice           float64  `json:"minPrice" binding:"gte=0"`
	MaxPrice           float64  `json:"maxPrice" binding:"gte=0"`
	Locations          []string `json:"locations" binding:"omitempty,dive,max=100"`
	EmailNotifications bool     `json:"emailNotifications"`
	Newsletter         bool     `json:"newsletter"`
}

// AdminUpdateUserRequest is the body of PATCH /admin/users/:id.
type AdminUpdateUserRequest struct {
	Role     *string `json:"role" binding:"omitempty,oneof=user admin"`
	Verified *bool   `json:"verified"`
	Active   *bool   `json:"active"`
}

// ListQuery is bound from the query string of GET /admin/users.
type ListQuery struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=user admin"`
	Verified *bool  `form:"verified"`
	common.PaginationQuery
}

type ListFilter struct {
	Search   string
	Role     string
	Verified *bool
	Page     int
	Limit    int
}

func (q ListQuery) Filter() ListFilter {
	q.Normalize()
	return ListFilter{
		Search:   strings.TrimSpace(q.Search),
		Role:     q.Role,
		Verified: q.Verified,
		Page:     q.Page,
		Limit:    q.Limit,
	}
}

// Stats feeds the admin dashboard.
type Stats struct {
	Total    int64 `json:"total"`
	Verified int64 `json:"verified"`
	Admins   int64 `json:"admins"`
	Active   int64 `json:"active"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	ID              string      `json:"id"`
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	Email           string      `json:"email"`
	Phone           string      `json:"phone"`
	Role            string      `json:"role"`
	Verified        bool        `json:"verified"`
	Active          bool        `json:"active"`
	AvatarURL       string      `json:"avatarUrl,omitempty"`
	Preferences     Preferences `json:"preferences"`
	SavedProperties []string    `json:"savedProperties"`
	LastLoginAt     *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ToUserResponse converts a User model to a UserResponse DTO. The password hash never leaves.
func ToUserResponse(u *User) UserResponse {
	prefs := u.Preferences
	if prefs.PropertyTypes == nil {
		prefs.PropertyTypes = []string{}
	}
	if prefs.Locations == nil {
		prefs.Locations = []string{}
	}
	saved := u.SavedProperties
	if saved == nil {
		saved = []string{}
	}
	return UserResponse{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		Phone:           u.Phone,
		Role:            u.Role,
		Verified:        u.Verified,
		Active:          u.Active,
		AvatarURL:       u.AvatarURL,
		Preferences:     prefs,
		SavedProperties: saved,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func ToUserResponses(us []User) []UserResponse {
	out := make([]UserResponse, 0, len(us))
	for i := range us {
		out = append(out, ToUserResponse(&us[i]))
	}
	return out
}
