package settings

import (
	"time"

	"gorm.io/datatypes"
)

// SiteID is the key of the single settings document.
const SiteID = "site"

type SocialLinks struct {
	Facebook  string `json:"facebook" firestore:"facebook"`
	Twitter   string `json:"twitter" firestore:"twitter"`
	Instagram string `json:"instagram" firestore:"instagram"`
	LinkedIn  string `json:"linkedin" firestore:"linkedin"`
	YouTube   string `json:"youtube" firestore:"youtube"`
}

// Notifications toggles the admin alert emails.
type Notifications struct {
	NewInquiry bool `json:"newInquiry" firestore:"newInquiry"`
	NewReview  bool `json:"newReview" firestore:"newReview"`
	NewUser    bool `json:"newUser" firestore:"newUser"`
}

// Settings is the site-wide configuration edited from the admin panel.
type Settings struct {
	ID            string            `json:"-" firestore:"id" gorm:"type:varchar(36);primaryKey"`
	SiteName      string            `json:"siteName" firestore:"siteName" gorm:"type:varchar(200)"`
	ContactEmail  string            `json:"contactEmail" firestore:"contactEmail" gorm:"type:varchar(255)"`
	ContactPhone  string            `json:"contactPhone" firestore:"contactPhone" gorm:"type:varchar(50)"`
	Address       string            `json:"address" firestore:"address" gorm:"type:text"`
	Social        SocialLinks       `json:"social" firestore:"social" gorm:"embedded;embeddedPrefix:social_"`
	BusinessHours datatypes.JSONMap `json:"businessHours" firestore:"businessHours"`
	Notifications Notifications     `json:"notifications" firestore:"notifications" gorm:"embedded;embeddedPrefix:notify_"`
	UpdatedAt     time.Time         `json:"updatedAt" firestore:"updatedAt"`
}

func (Settings) TableName() string {
	return "site_settings"
}

// Defaults is what the site shows before an admin has saved anything.
func Defaults() *Settings {
	return &Settings{
		ID:       SiteID,
		SiteName: "Real Estate",
		BusinessHours: datatypes.JSONMap{
			"monday-friday": "9:00 - 18:00",
			"saturday":      "10:00 - 14:00",
			"sunday":        "Closed",
		},
		Notifications: Notifications{NewInquiry: true, NewReview: true, NewUser: true},
	}
}

// --- DTOs ---

type SocialLinksInput struct {
	Facebook  *string `json:"facebook" binding:"omitempty,max=255"`
	Twitter   *string `json:"twitter" binding:"omitempty,max=255"`
	Instagram *string `json:"instagram" binding:"omitempty,max=255"`
	LinkedIn  *string `json:"linkedin" binding:"omitempty,max=255"`
	YouTube   *string `json:"youtube" binding:"omitempty,max=255"`
}

type NotificationsInput struct {
	NewInquiry *bool `json:"newInquiry"`
	NewReview  *bool `json:"newReview"`
	NewUser    *bool `json:"newUser"`
}

// UpdateSettingsRequest is merged into the stored settings; absent fields are kept.
// A businessHours entry with an empty value removes that day.
type UpdateSettingsRequest struct {
	SiteName      *string             `json:"siteName" binding:"omitempty,min=1,max=200"`
	ContactEmail  *string             `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone  *string             `json:"contactPhone" binding:"omitempty,max=50"`
	Address       *string             `json:"address" binding:"omitempty,max=500"`
	Social        *SocialLinksInput   `json:"social"`
	BusinessHours map[string]string   `json:"businessHours"`
	Notifications *NotificationsInput `json:"notifications"`
}

// PublicSettings is the subset exposed without authentication.
type PublicSettings struct {
	SiteName      string            `json:"siteName"`
	ContactEmail  string            `json:"contactEmail"`
	ContactPhone  string            `json:"contactPhone"`
	Address       string            `json:"address"`
	Social        SocialLinks       `json:"social"`
	BusinessHours datatypes.JSONMap `json:"businessHours"`
}

func (s *Settings) Public() PublicSettings {
	return PublicSettings{
		SiteName:      s.SiteName,
		ContactEmail:  s.ContactEmail,
		ContactPhone:  s.ContactPhone,
		Address:       s.Address,
		Social:        s.Social,
		BusinessHours: s.BusinessHours,
	}
}

// Apply merges req into s.
func (s *Settings) Apply(req UpdateSettingsRequest) {
	setString(&s.SiteName, req.SiteName)
	setString(&s.ContactEmail, req.ContactEmail)
	setString(&s.ContactPhone, req.ContactPhone)
	setString(&s.Address, req.Address)
	if in := req.Social; in != nil {
		setString(&s.Social.Facebook, in.Facebook)
		setString(&s.Social.Twitter, in.Twitter)
		setString(&s.Social.Instagram, in.Instagram)
		setString(&s.Social.LinkedIn, in.LinkedIn)
		setString(&s.Social.YouTube, in.YouTube)
	}
	if len(req.BusinessHours) > 0 {
		if s.BusinessHours == nil {
			s.BusinessHours = datatypes.JSONMap{}
		}
		for day, hours := range req.BusinessHours {
			if hours == "" {
				delete(s.BusinessHours, day)
				continue
			}
			s.BusinessHours[day] = hours
		}
	}
	if in := req.Notifications; in != nil {
		setBool(&s.Notifications.NewInquiry, in.NewInquiry)
		setBool(&s.Notifications.NewReview, in.NewReview)
		setBool(&s.Notifications.NewUser, in.NewUser)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
