package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/property"

	"go.uber.org/zap"
)

// PropertyCatalog is the slice of the property service that favourites need.
type PropertyCatalog interface {
	ResolvePropertyID(ctx context.Context, idOrCode string) (string, error)
	GetPropertiesByIDs(ctx context.Context, ids []string) ([]property.PropertyResponse, error)
}

// FirebaseProfile is the identity asserted by a verified Firebase ID token.
type FirebaseProfile struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	PictureURL    string
}

// Service defines user profile and user administration logic.
type Service interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error)
	UpdatePreferences(ctx context.Context, id string, req UpdatePreferencesRequest) (*User, error)
	DeleteAccount(ctx context.Context, id string) error

	ListSaved(ctx context.Context, id string) ([]property.PropertyResponse, error)
	SaveProperty(ctx context.Context, id, propertyIDOrCode string) ([]string, error)
	UnsaveProperty(ctx context.Context, id, propertyIDOrCode string) ([]string, error)

	ListUsers(ctx context.Context, f ListFilter) ([]User, *common.Pagination, error)
	AdminUpdateUser(ctx context.Context, id, actorID string, req AdminUpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id, actorID string) error
	GetStats(ctx context.Context) (*Stats, error)

	// FindOrCreateFirebaseUser returns the local user for a Firebase identity and
	// whether it was created by this call.
	FindOrCreateFirebaseUser(ctx context.Context, profile FirebaseProfile) (*User, bool, error)
}

type ServiceImplementation struct {
	repo       Repository
	properties PropertyCatalog
	logger     *zap.Logger
	now        func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

func NewService(repo Repository, properties PropertyCatalog, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:       repo,
		properties: properties,
		logger:     logger.Named("user_service"),
		now:        time.Now,
	}
}

func (s *ServiceImplementation) GetUserByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if common.IsNotFound(err) {
			s.logger.Info("User not found by ID", zap.String("userID", id))
			return nil, err
		}
		s.logger.Error("Error finding user by ID", zap.Error(err), zap.String("userID", id))
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

func (s *ServiceImplementation) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, err
		}
		s.logger.Error("Error finding user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

func (s *ServiceImplementation) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		u.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.AvatarURL != nil {
		u.AvatarURL = *req.AvatarURL
	}
	return u, s.save(ctx, u)
}

func (s *ServiceImplementation) UpdatePreferences(ctx context.Context, id string, req UpdatePreferencesRequest) (*User, error) {
	if req.MaxPrice > 0 && req.MinPrice > req.MaxPrice {
		return nil, common.NewValidationAPIError(map[string]string{"maxPrice": "The maxPrice field must be greater than or equal to minPrice."})
	}
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Preferences = Preferences{
		PropertyTypes:      req.PropertyTypes,
		MinPrice:           req.MinPrice,
		MaxPrice:           req.MaxPrice,
		Locations:          req.Locations,
		EmailNotifications: req.EmailNotifications,
		Newsletter:         req.Newsletter,
	}
	return u, s.save(ctx, u)
}

func (s *ServiceImplementation) DeleteAccount(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if common.IsNotFound(err) {
			return err
		}
		s.logger.Error("Failed to delete user account", zap.Error(err), zap.String("userID", id))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("User account deleted", zap.String("userID", id))
	return nil
}

func (s *ServiceImplementation) ListSaved(ctx context.Context, id string) ([]property.PropertyResponse, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.properties.GetPropertiesByIDs(ctx, u.SavedProperties)
}

func (s *ServiceImplementation) SaveProperty(ctx context.Context, id, propertyIDOrCode string) ([]string, error) {
	propertyID, err := s.properties.ResolvePropertyID(ctx, propertyIDOrCode)
	if err != nil {
		return nil, err
	}
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.HasSaved(propertyID) {
		return u.SavedProperties, nil
	}
	u.SavedProperties = append(u.SavedProperties, propertyID)
	return u.SavedProperties, s.save(ctx, u)
}

func (s *ServiceImplementation) UnsaveProperty(ctx context.Context, id, propertyIDOrCode string) ([]string, error) {
	propertyID, err := s.properties.ResolvePropertyID(ctx, propertyIDOrCode)
	if err != nil {
		if !common.IsNotFound(err) {
			return nil, err
		}
		// the property may be gone already; drop the raw id
		propertyID = propertyIDOrCode
	}
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(u.SavedProperties))
	for _, saved := range u.SavedProperties {
		if saved != propertyID {
			kept = append(kept, saved)
		}
	}
	if len(kept) == len(u.SavedProperties) {
		return kept, nil
	}
	u.SavedProperties = kept
	return kept, s.save(ctx, u)
}

func (s *ServiceImplementation) ListUsers(ctx context.Context, f ListFilter) ([]User, *common.Pagination, error) {
	users, total, err := s.repo.List(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, common.NewPagination(total, f.Page, f.Limit), nil
}

func (s *ServiceImplementation) AdminUpdateUser(ctx context.Context, id, actorID string, req AdminUpdateUserRequest) (*User, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if id == actorID {
		if (req.Role != nil && *req.Role != u.Role) || (req.Active != nil && !*req.Active) {
			return nil, common.ErrBadRequest.WithDetails("Administrators cannot change their own role or deactivate themselves.")
		}
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Verified != nil {
		u.Verified = *req.Verified
	}
	if req.Active != nil {
		u.Active = *req.Active
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User updated by admin", zap.String("userID", id), zap.String("adminID", actorID))
	return u, nil
}

func (s *ServiceImplementation) DeleteUser(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return common.ErrBadRequest.WithDetails("Administrators cannot delete their own account from the admin panel.")
	}
	return s.DeleteAccount(ctx, id)
}

func (s *ServiceImplementation) GetStats(ctx context.Context) (*Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		s.logger.Error("Failed to compute user stats", zap.Error(err))
		return nil, fmt.Errorf("failed to compute user stats: %w", err)
	}
	return stats, nil
}

func (s *ServiceImplementation) FindOrCreateFirebaseUser(ctx context.Context, profile FirebaseProfile) (*User, bool, error) {
	now := s.now()

	u, err := s.repo.FindByFirebaseUID(ctx, profile.UID)
	if err == nil {
		u.LastLoginAt = &now
		if profile.EmailVerified {
			u.Verified = true
		}
		return u, false, s.save(ctx, u)
	}
	if !common.IsNotFound(err) {
		s.logger.Error("Error finding user by Firebase UID", zap.Error(err), zap.String("uid", profile.UID))
		return nil, false, fmt.Errorf("failed to load user: %w", err)
	}

	if profile.Email == "" {
		return nil, false, common.ErrBadRequest.WithDetails("The Firebase account has no email address.")
	}

	// link to an existing password account only when Firebase vouches for the email
	u, err = s.repo.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if !profile.EmailVerified {
			return nil, false, common.ErrConflict.WithDetails("An account with this email already exists. Verify the email with your provider to link it.")
		}
		if u.FirebaseUID != nil && *u.FirebaseUID != profile.UID {
			return nil, false, common.ErrConflict.WithDetails("This email is already linked to a different Firebase account.")
		}
		uid := profile.UID
		u.FirebaseUID = &uid
		u.Verified = true
		u.LastLoginAt = &now
		if u.AvatarURL == "" {
			u.AvatarURL = profile.PictureURL
		}
		if err := s.save(ctx, u); err != nil {
			return nil, false, err
		}
		s.logger.Info("Firebase identity linked to existing user", zap.String("userID", u.ID))
		return u, false, nil
	case !common.IsNotFound(err):
		s.logger.Error("Error finding user by email for Firebase linking", zap.Error(err), zap.String("email", profile.Email))
		return nil, false, fmt.Errorf("failed to load user: %w", err)
	}

	first, last := splitName(profile.Name)
	uid := profile.UID
	u = &User{
		FirstName:   first,
		LastName:    last,
		Email:       profile.Email,
		Role:        common.RoleUser,
		Verified:    profile.EmailVerified,
		Active:      true,
		FirebaseUID: &uid,
		AvatarURL:   profile.PictureURL,
		LastLoginAt: &now,
	}
	u.Touch(now)
	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("Failed to create user from Firebase profile", zap.Error(err), zap.String("email", profile.Email))
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, false, apiErr
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User created from Firebase profile", zap.String("userID", u.ID))
	return u, true, nil
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

func (s *ServiceImplementation) save(ctx context.Context, u *User) error {
	u.Touch(s.now())
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err), zap.String("userID", u.ID))
		if apiErr, ok := common.IsAPIError(err); ok {
			return apiErr
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
