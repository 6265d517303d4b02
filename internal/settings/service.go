package settings

import (
	"context"
	"fmt"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/config"
	"realestate_backend/internal/platform/cache"

	"go.uber.org/zap"
)

const cacheNamespace = "settings"

type Service interface {
	Get(ctx context.Context) (*Settings, error)
	GetPublic(ctx context.Context) (*PublicSettings, error)
	Update(ctx context.Context, req UpdateSettingsRequest) (*Settings, error)

	// InquiryAlertRecipient is where new-inquiry alerts go: the site contact email,
	// else ADMIN_NOTIFICATION_EMAIL, else nowhere when alerts are switched off.
	InquiryAlertRecipient(ctx context.Context) string
}

type ServiceImplementation struct {
	repo          Repository
	cache         *cache.Tiered
	fallbackEmail string
	logger        *zap.Logger
	now           func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

func NewService(repo Repository, readCache *cache.Tiered, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:          repo,
		cache:         readCache,
		fallbackEmail: cfg.AdminNotificationEmail,
		logger:        logger.Named("settings_service"),
		now:           time.Now,
	}
}

func (s *ServiceImplementation) Get(ctx context.Context) (*Settings, error) {
	var cached Settings
	if s.cache != nil && s.cache.GetJSON(ctx, cacheNamespace, SiteID, &cached) {
		return &cached, nil
	}

	st, err := s.repo.Get(ctx)
	if err != nil {
		if !common.IsNotFound(err) {
			s.logger.Error("Failed to load settings", zap.Error(err))
			return nil, err
		}
		st = Defaults()
	}
	if s.cache != nil {
		s.cache.SetJSON(ctx, cacheNamespace, SiteID, st)
	}
	return st, nil
}

func (s *ServiceImplementation) GetPublic(ctx context.Context) (*PublicSettings, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	pub := st.Public()
	return &pub, nil
}

func (s *ServiceImplementation) Update(ctx context.Context, req UpdateSettingsRequest) (*Settings, error) {
	st, err := s.repo.Get(ctx)
	if err != nil {
		if !common.IsNotFound(err) {
			s.logger.Error("Failed to load settings for update", zap.Error(err))
			return nil, err
		}
		st = Defaults()
	}
	st.Apply(req)
	st.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, st); err != nil {
		s.logger.Error("Failed to save settings", zap.Error(err))
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, cacheNamespace)
	}
	s.logger.Info("Site settings updated")
	return st, nil
}

func (s *ServiceImplementation) InquiryAlertRecipient(ctx context.Context) string {
	st, err := s.Get(ctx)
	if err != nil {
		return s.fallbackEmail
	}
	if !st.Notifications.NewInquiry {
		return ""
	}
	if st.ContactEmail != "" {
		return st.ContactEmail
	}
	return s.fallbackEmail
}
