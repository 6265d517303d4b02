package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/notification"
	"realestate_backend/internal/otp"
	"realestate_backend/internal/shared"
	"realestate_backend/internal/user"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// IDTokenVerifier checks Firebase ID tokens. A nil verifier disables Firebase login.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// OTPStore is the part of the OTP store the auth flows use.
type OTPStore interface {
	GenerateOTP() (string, error)
	StoreOTP(ctx context.Context, email, code, purpose string) (*otp.Issued, error)
	VerifyOTP(ctx context.Context, email, input, purpose string) error
}

var errInvalidCredentials = common.ErrUnauthorized.WithDetails("Invalid email or password.")

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*shared.TokenResponse, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	Me(ctx context.Context, userID string) (*user.User, error)

	ForgotPassword(ctx context.Context, email string) (*otp.Issued, error)
	VerifyOTP(ctx context.Context, email, code string) (*ResetTokenResponse, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	VerifyEmail(ctx context.Context, email, code string) (*user.User, error)
	ResendVerification(ctx context.Context, email string) (*otp.Issued, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error

	FirebaseLogin(ctx context.Context, idToken string) (*AuthResult, bool, error)
}

type ServiceImplementation struct {
	users     user.Repository
	accounts  user.Service
	tokens    shared.TokenService
	blocklist TokenBlocklistService
	otps      OTPStore
	notifier  notification.Service
	firebase  IDTokenVerifier
	logger    *zap.Logger
	now       func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

func NewService(
	users user.Repository,
	accounts user.Service,
	tokens shared.TokenService,
	blocklist TokenBlocklistService,
	otps OTPStore,
	notifier notification.Service,
	firebase IDTokenVerifier,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		users:     users,
		accounts:  accounts,
		tokens:    tokens,
		blocklist: blocklist,
		otps:      otps,
		notifier:  notifier,
		firebase:  firebase,
		logger:    logger.Named("auth_service"),
		now:       time.Now,
	}
}

func (s *ServiceImplementation) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := user.NormalizeEmail(req.Email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, common.ErrConflict.WithDetails("User with this email already exists.")
	} else if !common.IsNotFound(err) {
		s.logger.Error("Error checking for existing user", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := common.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	u := &user.User{
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		Role:         common.RoleUser,
		Active:       true,
		LastLoginAt:  &now,
	}
	u.Touch(now)
	if err := s.users.Create(ctx, u); err != nil {
		if apiErr, ok := common.IsAPIError(err); ok {
			return nil, apiErr
		}
		s.logger.Error("Failed to create user", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User registered", zap.String("userID", u.ID))

	// the account exists either way; a lost email can be re-sent
	if _, err := s.issueOTP(ctx, u, otp.PurposeEmailVerification); err != nil {
		s.logger.Warn("Failed to issue verification code after registration", zap.Error(err), zap.String("userID", u.ID))
	}
	return s.signIn(u)
}

func (s *ServiceImplementation) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		s.logger.Error("Error finding user for login", zap.Error(err))
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u.PasswordHash == "" || !common.CheckPasswordHash(password, u.PasswordHash) {
		s.logger.Info("Failed login attempt", zap.String("userID", u.ID))
		return nil, errInvalidCredentials
	}
	if !u.Active {
		return nil, common.ErrForbidden.WithDetails("This account has been deactivated.")
	}

	now := s.now()
	u.LastLoginAt = &now
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return s.signIn(u)
}

func (s *ServiceImplementation) RefreshToken(ctx context.Context, refreshToken string) (*shared.TokenResponse, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		s.logger.Debug("Refresh token validation failed", zap.Error(err))
		return nil, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token.")
	}
	revoked, err := s.blocklist.IsBlocklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Failed to check token blocklist", zap.Error(err))
		return nil, err
	}
	if revoked {
		return nil, common.ErrUnauthorized.WithDetails("Refresh token has been revoked.")
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, common.ErrUnauthorized.WithDetails("User associated with refresh token not found.")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.Active {
		return nil, common.ErrForbidden.WithDetails("This account has been deactivated.")
	}

	access, expiresAt, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return nil, err
	}
	return &shared.TokenResponse{
		AccessToken:      access,
		RefreshToken:     refreshToken,
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: claims.ExpiresAt.Time,
		TokenType:        common.AuthorizationTypeBearer,
	}, nil
}

func (s *ServiceImplementation) Logout(ctx context.Context, userID, refreshToken string) error {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return common.ErrUnauthorized.WithDetails("Invalid or expired refresh token.")
	}
	if claims.UserID != userID {
		return common.ErrForbidden.WithDetails("The refresh token belongs to another user.")
	}
	if err := s.blocklist.AddToBlocklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("Failed to blocklist refresh token", zap.Error(err), zap.String("userID", userID))
		return err
	}
	s.logger.Info("User logged out", zap.String("userID", userID))
	return nil
}

func (s *ServiceImplementation) Me(ctx context.Context, userID string) (*user.User, error) {
	return s.accounts.GetUserByID(ctx, userID)
}

func (s *ServiceImplementation) ForgotPassword(ctx context.Context, email string) (*otp.Issued, error) {
	u, err := s.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("No account exists with this email.")
		}
		return nil, err
	}
	return s.issueOTP(ctx, u, otp.PurposePasswordReset)
}

func (s *ServiceImplementation) VerifyOTP(ctx context.Context, email, code string) (*ResetTokenResponse, error) {
	email = user.NormalizeEmail(email)
	if err := s.otps.VerifyOTP(ctx, email, code, otp.PurposePasswordReset); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.tokens.GenerateResetToken(email)
	if err != nil {
		return nil, err
	}
	return &ResetTokenResponse{ResetToken: token, ExpiresAt: expiresAt}, nil
}

func (s *ServiceImplementation) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.tokens.ParseResetToken(resetToken)
	if err != nil {
		return common.ErrUnauthorized.WithDetails("Invalid or expired reset token.")
	}
	used, err := s.blocklist.IsBlocklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Failed to check token blocklist", zap.Error(err))
		return err
	}
	if used {
		return common.ErrUnauthorized.WithDetails("Reset token has already been used.")
	}
	u, err := s.accounts.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, u, newPassword); err != nil {
		return err
	}
	// Reset tokens are single use.
	if err := s.blocklist.AddToBlocklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		s.logger.Error("Failed to consume reset token", zap.Error(err), zap.String("userID", u.ID))
		return err
	}
	s.logger.Info("Password reset", zap.String("userID", u.ID))
	return nil
}

func (s *ServiceImplementation) VerifyEmail(ctx context.Context, email, code string) (*user.User, error) {
	u, err := s.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.otps.VerifyOTP(ctx, u.Email, code, otp.PurposeEmailVerification); err != nil {
		return nil, err
	}
	u.Verified = true
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("Email verified", zap.String("userID", u.ID))
	return u, nil
}

func (s *ServiceImplementation) ResendVerification(ctx context.Context, email string) (*otp.Issued, error) {
	u, err := s.accounts.GetUserByEmail(ctx, email)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, common.ErrNotFound.WithDetails("No account exists with this email.")
		}
		return nil, err
	}
	if u.Verified {
		return nil, common.ErrBadRequest.WithDetails("This email address is already verified.")
	}
	return s.issueOTP(ctx, u, otp.PurposeEmailVerification)
}

func (s *ServiceImplementation) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.accounts.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.PasswordHash == "" {
		return common.ErrBadRequest.WithDetails("This account signs in with Firebase and has no password. Use forgot password to set one.")
	}
	if !common.CheckPasswordHash(currentPassword, u.PasswordHash) {
		return common.ErrBadRequest.WithDetails("Current password is incorrect.")
	}
	return s.setPassword(ctx, u, newPassword)
}

// FirebaseLogin exchanges a Firebase ID token for local tokens. The bool reports
// whether the local account was created by this call.
func (s *ServiceImplementation) FirebaseLogin(ctx context.Context, idToken string) (*AuthResult, bool, error) {
	if s.firebase == nil {
		return nil, false, common.ErrServiceUnavailable.WithDetails("Firebase login is not configured.")
	}
	token, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, false, common.ErrUnauthorized.WithDetails("Invalid Firebase ID token.")
	}

	u, created, err := s.accounts.FindOrCreateFirebaseUser(ctx, profileFromToken(token))
	if err != nil {
		return nil, false, err
	}
	if !u.Active {
		return nil, false, common.ErrForbidden.WithDetails("This account has been deactivated.")
	}
	res, err := s.signIn(u)
	return res, created, err
}

func profileFromToken(token *fbauth.Token) user.FirebaseProfile {
	claim := func(key string) string {
		v, _ := token.Claims[key].(string)
		return v
	}
	verified, _ := token.Claims["email_verified"].(bool)
	return user.FirebaseProfile{
		UID:           token.UID,
		Email:         user.NormalizeEmail(claim("email")),
		EmailVerified: verified,
		Name:          claim("name"),
		PictureURL:    claim("picture"),
	}
}

func (s *ServiceImplementation) issueOTP(ctx context.Context, u *user.User, purpose string) (*otp.Issued, error) {
	code, err := s.otps.GenerateOTP()
	if err != nil {
		s.logger.Error("Failed to generate OTP", zap.Error(err))
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}
	issued, err := s.otps.StoreOTP(ctx, u.Email, code, purpose)
	if err != nil {
		return nil, err
	}
	s.notifier.SendOTP(ctx, u.Email, u.FirstName, code, purpose, issued.ExpiresAt, issued.AttemptsRemaining)
	return issued, nil
}

func (s *ServiceImplementation) setPassword(ctx context.Context, u *user.User, password string) error {
	hash, err := common.HashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = hash
	return s.save(ctx, u)
}

func (s *ServiceImplementation) save(ctx context.Context, u *user.User) error {
	u.Touch(s.now())
	if err := s.users.Update(ctx, u); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err), zap.String("userID", u.ID))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *ServiceImplementation) signIn(u *user.User) (*AuthResult, error) {
	access, accessExp, err := s.tokens.GenerateAccessToken(u)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.GenerateRefreshToken(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User: user.ToUserResponse(u),
		Token: &shared.TokenResponse{
			AccessToken:      access,
			RefreshToken:     refresh,
			ExpiresAt:        accessExp,
			RefreshExpiresAt: refreshExp,
			TokenType:        common.AuthorizationTypeBearer,
		},
	}, nil
}
