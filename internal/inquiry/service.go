package inquiry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/notification"
	"realestate_backend/internal/user"

	"go.uber.org/zap"
)

// PropertyLookup is the part of the property service inquiries depend on.
type PropertyLookup interface {
	ResolvePropertyID(ctx context.Context, idOrCode string) (string, error)
	GetPropertyTitle(ctx context.Context, id string) (string, error)
}

// AlertRecipient returns the address that is told about new inquiries, or "" to skip.
type AlertRecipient interface {
	InquiryAlertRecipient(ctx context.Context) string
}

// UserLookup resolves the display name of the admin answering an inquiry.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*user.User, error)
}

type Service interface {
	CreateInquiry(ctx context.Context, userID string, req CreateInquiryRequest) (*InquiryResponse, error)
	GetMyInquiries(ctx context.Context, userID string, page, limit int) ([]InquiryResponse, *common.Pagination, error)
	GetInquiry(ctx context.Context, id, userID string, isAdmin bool) (*InquiryResponse, error)
	UserReply(ctx context.Context, id, userID, message string) (*InquiryResponse, error)

	ListInquiries(ctx context.Context, f ListFilter) ([]InquiryResponse, *common.Pagination, error)
	AdminReply(ctx context.Context, id, adminID, message string) (*InquiryResponse, error)
	UpdateStatus(ctx context.Context, id, status string) (*InquiryResponse, error)
	DeleteInquiry(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context, n int) ([]InquiryResponse, error)
}

type ServiceImplementation struct {
	repo       Repository
	properties PropertyLookup
	users      UserLookup
	recipient  AlertRecipient
	notifier   notification.Service
	logger     *zap.Logger
	now        func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

func NewService(
	repo Repository,
	properties PropertyLookup,
	users UserLookup,
	recipient AlertRecipient,
	notifier notification.Service,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:       repo,
		properties: properties,
		users:      users,
		recipient:  recipient,
		notifier:   notifier,
		logger:     logger.Named("inquiry_service"),
		now:        time.Now,
	}
}

func (s *ServiceImplementation) CreateInquiry(ctx context.Context, userID string, req CreateInquiryRequest) (*InquiryResponse, error) {
	propertyID, err := s.properties.ResolvePropertyID(ctx, strings.TrimSpace(req.PropertyID))
	if err != nil {
		return nil, err
	}
	title, err := s.properties.GetPropertyTitle(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inq := &Inquiry{
		PropertyID:    propertyID,
		PropertyTitle: title,
		UserID:        userID,
		Name:          strings.TrimSpace(req.Name),
		Email:         user.NormalizeEmail(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		Subject:       strings.TrimSpace(req.Subject),
	}
	inq.AddMessage(SenderUser, inq.Name, strings.TrimSpace(req.Message), StatusPending, now)
	inq.Touch(now)

	if err := s.repo.Create(ctx, inq); err != nil {
		s.logger.Error("Failed to create inquiry", zap.Error(err), zap.String("propertyID", propertyID))
		return nil, fmt.Errorf("failed to create inquiry: %w", err)
	}
	s.logger.Info("Inquiry created", zap.String("inquiryID", inq.ID), zap.String("propertyID", propertyID))

	if to := s.recipient.InquiryAlertRecipient(ctx); to != "" {
		s.notifier.SendNewInquiryAlert(ctx, to, notification.InquiryAlert{
			PropertyTitle: title,
			Name:          inq.Name,
			Email:         inq.Email,
			Phone:         inq.Phone,
			Subject:       inq.Subject,
			Message:       inq.Messages[0].Message,
		})
	}

	resp := ToInquiryResponse(inq)
	return &resp, nil
}

func (s *ServiceImplementation) GetMyInquiries(ctx context.Context, userID string, page, limit int) ([]InquiryResponse, *common.Pagination, error) {
	return s.list(ctx, ListFilter{UserID: userID, Page: page, Limit: limit})
}

func (s *ServiceImplementation) GetInquiry(ctx context.Context, id, userID string, isAdmin bool) (*InquiryResponse, error) {
	inq, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && inq.UserID != userID {
		return nil, common.ErrForbidden.WithDetails("You do not have access to this inquiry.")
	}
	resp := ToInquiryResponse(inq)
	return &resp, nil
}

func (s *ServiceImplementation) UserReply(ctx context.Context, id, userID, message string) (*InquiryResponse, error) {
	inq, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if inq.UserID == "" || inq.UserID != userID {
		return nil, common.ErrForbidden.WithDetails("You can only reply to your own inquiries.")
	}
	if inq.Status == StatusClosed {
		return nil, common.ErrBadRequest.WithDetails("This inquiry is closed and no longer accepts replies.")
	}
	inq.AddMessage(SenderUser, inq.Name, strings.TrimSpace(message), StatusUserReplied, s.now())
	return s.save(ctx, inq)
}

func (s *ServiceImplementation) ListInquiries(ctx context.Context, f ListFilter) ([]InquiryResponse, *common.Pagination, error) {
	if f.PropertyID != "" {
		id, err := s.properties.ResolvePropertyID(ctx, f.PropertyID)
		if err != nil {
			if common.IsNotFound(err) {
				return []InquiryResponse{}, common.NewPagination(0, f.Page, f.Limit), nil
			}
			return nil, nil, err
		}
		f.PropertyID = id
	}
	return s.list(ctx, f)
}

func (s *ServiceImplementation) AdminReply(ctx context.Context, id, adminID, message string) (*InquiryResponse, error) {
	inq, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if inq.Status == StatusClosed {
		return nil, common.ErrBadRequest.WithDetails("This inquiry is closed and no longer accepts replies.")
	}

	senderName := "Admin"
	if admin, err := s.users.GetUserByID(ctx, adminID); err == nil && admin.FullName() != "" {
		senderName = admin.FullName()
	}
	message = strings.TrimSpace(message)
	inq.AddMessage(SenderAdmin, senderName, message, StatusResponded, s.now())
	resp, err := s.save(ctx, inq)
	if err != nil {
		return nil, err
	}

	s.notifier.SendInquiryReply(ctx, inq.Email, inq.Name, inq.PropertyTitle, message)
	return resp, nil
}

func (s *ServiceImplementation) UpdateStatus(ctx context.Context, id, status string) (*InquiryResponse, error) {
	inq, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	inq.Status = status
	return s.save(ctx, inq)
}

func (s *ServiceImplementation) DeleteInquiry(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if common.IsNotFound(err) {
			return err
		}
		s.logger.Error("Failed to delete inquiry", zap.Error(err), zap.String("inquiryID", id))
		return fmt.Errorf("failed to delete inquiry: %w", err)
	}
	return nil
}

func (s *ServiceImplementation) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count inquiries", zap.Error(err))
		return nil, fmt.Errorf("failed to count inquiries: %w", err)
	}
	return counts, nil
}

// Recent returns the n newest inquiries.
func (s *ServiceImplementation) Recent(ctx context.Context, n int) ([]InquiryResponse, error) {
	items, _, err := s.list(ctx, ListFilter{Page: 1, Limit: n})
	return items, err
}

func (s *ServiceImplementation) list(ctx context.Context, f ListFilter) ([]InquiryResponse, *common.Pagination, error) {
	inquiries, total, err := s.repo.List(ctx, f)
	if err != nil {
		s.logger.Error("Failed to list inquiries", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	return ToInquiryResponses(inquiries), common.NewPagination(total, f.Page, f.Limit), nil
}

func (s *ServiceImplementation) find(ctx context.Context, id string) (*Inquiry, error) {
	inq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if common.IsNotFound(err) {
			return nil, err
		}
		s.logger.Error("Failed to load inquiry", zap.Error(err), zap.String("inquiryID", id))
		return nil, fmt.Errorf("failed to load inquiry: %w", err)
	}
	return inq, nil
}

func (s *ServiceImplementation) save(ctx context.Context, inq *Inquiry) (*InquiryResponse, error) {
	inq.Touch(s.now())
	if err := s.repo.Update(ctx, inq); err != nil {
		s.logger.Error("Failed to update inquiry", zap.Error(err), zap.String("inquiryID", inq.ID))
		return nil, fmt.Errorf("failed to update inquiry: %w", err)
	}
	resp := ToInquiryResponse(inq)
	return &resp, nil
}
