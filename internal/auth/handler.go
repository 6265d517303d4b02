package auth

import (
	"net/http"

	"realestate_backend/internal/common"
	"realestate_backend/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for authentication operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh-token", h.refreshToken)
		authGroup.POST("/forgot-password", h.forgotPassword)
		authGroup.POST("/verify-otp", h.verifyOTP)
		authGroup.POST("/reset-password", h.resetPassword)
		authGroup.POST("/verify-email", h.verifyEmail)
		authGroup.POST("/resend-verification", h.resendVerification)
		authGroup.POST("/firebase", h.firebaseLogin)

		authGroup.POST("/logout", authMW, h.logout)
		authGroup.GET("/me", authMW, h.me)
		authGroup.PUT("/change-password", authMW, h.changePassword)
	}
}

// bind decodes the JSON body into req, answering 400 itself on failure.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return false
	}
	return true
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Registration successful. Check your email for a verification code.", res)
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Login successful.", res)
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !bind(c, &req) {
		return
	}
	tokens, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Token refreshed successfully.", tokens)
}

func (h *Handler) logout(c *gin.Context) {
	var req RefreshTokenRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.Logout(c.Request.Context(), common.GetUserIDFromContext(c), req.RefreshToken); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Logged out successfully.", nil)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.service.Me(c.Request.Context(), common.GetUserIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Current user retrieved successfully.", user.ToUserResponse(u))
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req EmailRequest
	if !bind(c, &req) {
		return
	}
	issued, err := h.service.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "A password reset code has been sent to your email.", issued)
}

func (h *Handler) verifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.service.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Code verified. Use the reset token to choose a new password.", res)
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), req.ResetToken, req.NewPassword); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Password has been reset successfully.", nil)
}

func (h *Handler) verifyEmail(c *gin.Context) {
	var req VerifyOTPRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.service.VerifyEmail(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Email verified successfully.", user.ToUserResponse(u))
}

func (h *Handler) resendVerification(c *gin.Context) {
	var req EmailRequest
	if !bind(c, &req) {
		return
	}
	issued, err := h.service.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "A new verification code has been sent to your email.", issued)
}

func (h *Handler) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), common.GetUserIDFromContext(c), req.CurrentPassword, req.NewPassword); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Password changed successfully.", nil)
}

func (h *Handler) firebaseLogin(c *gin.Context) {
	var req FirebaseLoginRequest
	if !bind(c, &req) {
		return
	}
	res, created, err := h.service.FirebaseLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if created {
		common.RespondSuccess(c, http.StatusCreated, "Account created with Firebase.", res)
		return
	}
	common.RespondOK(c, "Firebase login successful.", res)
}
