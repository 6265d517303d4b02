package inquiry

import (
	"context"
	"testing"
	"time"

	"realestate_backend/internal/common"
	"realestate_backend/internal/notification"
	"realestate_backend/internal/platform/database"
	"realestate_backend/internal/user"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type MockPropertyLookup struct {
	mock.Mock
}

func (m *MockPropertyLookup) ResolvePropertyID(ctx context.Context, idOrCode string) (string, error) {
	args := m.Called(ctx, idOrCode)
	return args.String(0), args.Error(1)
}

func (m *MockPropertyLookup) GetPropertyTitle(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOTP(ctx context.Context, to, name, code, purpose string, expiresAt time.Time, attempts int) {
	m.Called(ctx, to, name, code, purpose, expiresAt, attempts)
}

func (m *MockNotifier) SendInquiryReply(ctx context.Context, to, name, propertyTitle, message string) {
	m.Called(ctx, to, name, propertyTitle, message)
}

func (m *MockNotifier) SendNewInquiryAlert(ctx context.Context, to string, alert notification.InquiryAlert) {
	m.Called(ctx, to, alert)
}

type staticRecipient string

func (r staticRecipient) InquiryAlertRecipient(context.Context) string { return string(r) }

type stubUsers map[string]*user.User

func (s stubUsers) GetUserByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

type InquiryServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	properties *MockPropertyLookup
	notifier   *MockNotifier
	svc        *ServiceImplementation
}

func (s *InquiryServiceTestSuite) SetupTest() {
	db, err := database.NewSQLiteInMemory()
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(&Inquiry{}))

	s.ctx = context.Background()
	s.properties = new(MockPropertyLookup)
	s.properties.On("ResolvePropertyID", mock.Anything, "PROP-00007").Return("prop-7", nil)
	s.properties.On("GetPropertyTitle", mock.Anything, "prop-7").Return("Harbour Loft", nil)
	s.notifier = new(MockNotifier)

	admin := &user.User{FirstName: "Dana", LastName: "Admin"}
	admin.ID = "admin-1"
	s.svc = NewService(NewGORMRepository(db), s.properties, stubUsers{"admin-1": admin},
		staticRecipient("office@example.com"), s.notifier, zap.NewNop())
}

func TestInquiryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InquiryServiceTestSuite))
}

func (s *InquiryServiceTestSuite) create(userID string) *InquiryResponse {
	s.notifier.On("SendNewInquiryAlert", mock.Anything, "office@example.com", mock.Anything).Return().Maybe()
	inq, err := s.svc.CreateInquiry(s.ctx, userID, CreateInquiryRequest{
		PropertyID: "PROP-00007",
		Name:       "Tom Buyer",
		Email:      "Tom@Example.com",
		Subject:    "Viewing",
		Message:    "Could I view the loft on Saturday?",
	})
	s.Require().NoError(err)
	return inq
}

func (s *InquiryServiceTestSuite) TestCreateInquiry() {
	s.notifier.On("SendNewInquiryAlert", mock.Anything, "office@example.com", mock.MatchedBy(func(a notification.InquiryAlert) bool {
		return a.PropertyTitle == "Harbour Loft" && a.Message == "Could I view the loft on Saturday?"
	})).Return().Once()

	inq := s.create("u1")
	s.Equal(StatusPending, inq.Status)
	s.Equal("prop-7", inq.PropertyID)
	s.Equal("Harbour Loft", inq.PropertyTitle)
	s.Equal("tom@example.com", inq.Email)
	s.Require().Len(inq.Messages, 1)
	s.Equal(SenderUser, inq.Messages[0].Sender)
	s.Equal(inq.Messages[0].Timestamp, inq.LastMessageAt)
	s.notifier.AssertExpectations(s.T())
}

func (s *InquiryServiceTestSuite) TestCreateInquiry_UnknownProperty() {
	s.properties.On("ResolvePropertyID", mock.Anything, "PROP-99999").Return("", common.ErrNotFound)
	_, err := s.svc.CreateInquiry(s.ctx, "", CreateInquiryRequest{PropertyID: "PROP-99999", Name: "X Y", Email: "x@y.z", Message: "Is it still available?"})
	s.True(common.IsNotFound(err))
	s.notifier.AssertNotCalled(s.T(), "SendNewInquiryAlert", mock.Anything, mock.Anything, mock.Anything)
}

func (s *InquiryServiceTestSuite) TestConversationTransitions() {
	inq := s.create("u1")

	s.notifier.On("SendInquiryReply", mock.Anything, "tom@example.com", "Tom Buyer", "Harbour Loft", "Saturday at 10 works.").Return().Once()
	resp, err := s.svc.AdminReply(s.ctx, inq.ID, "admin-1", "Saturday at 10 works.")
	s.Require().NoError(err)
	s.Equal(StatusResponded, resp.Status)
	s.Equal("Dana Admin", resp.Messages[1].SenderName)

	resp, err = s.svc.UserReply(s.ctx, inq.ID, "u1", "See you then.")
	s.Require().NoError(err)
	s.Equal(StatusUserReplied, resp.Status)
	s.Len(resp.Messages, 3)

	resp, err = s.svc.UpdateStatus(s.ctx, inq.ID, StatusClosed)
	s.Require().NoError(err)
	s.Equal(StatusClosed, resp.Status)

	_, err = s.svc.UserReply(s.ctx, inq.ID, "u1", "One more thing")
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(400, apiErr.StatusCode)

	_, err = s.svc.AdminReply(s.ctx, inq.ID, "admin-1", "Anything else?")
	s.Require().Error(err)
	s.notifier.AssertExpectations(s.T())
}

func (s *InquiryServiceTestSuite) TestAccessControl() {
	inq := s.create("u1")
	anon := s.create("")

	_, err := s.svc.GetInquiry(s.ctx, inq.ID, "u2", false)
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(403, apiErr.StatusCode)

	_, err = s.svc.GetInquiry(s.ctx, inq.ID, "u2", true)
	s.NoError(err)

	_, err = s.svc.UserReply(s.ctx, inq.ID, "u2", "hijack")
	s.Error(err)
	_, err = s.svc.UserReply(s.ctx, anon.ID, "", "anonymous follow-up")
	s.Error(err, "anonymous inquiries have no owner who can reply")
}

func (s *InquiryServiceTestSuite) TestListAndCounts() {
	first := s.create("u1")
	s.create("u2")
	s.create("u1")
	_, err := s.svc.UpdateStatus(s.ctx, first.ID, StatusResolved)
	s.Require().NoError(err)

	mine, pagination, err := s.svc.GetMyInquiries(s.ctx, "u1", 1, 10)
	s.Require().NoError(err)
	s.Len(mine, 2)
	s.Equal(int64(2), pagination.Total)

	items, _, err := s.svc.ListInquiries(s.ctx, ListFilter{Status: StatusPending, PropertyID: "PROP-00007", Search: "harbour", Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Len(items, 2)

	counts, err := s.svc.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), counts[StatusPending])
	s.Equal(int64(1), counts[StatusResolved])
	s.Equal(int64(0), counts[StatusClosed])

	recent, err := s.svc.Recent(s.ctx, 5)
	s.Require().NoError(err)
	s.Len(recent, 3)

	s.Require().NoError(s.svc.DeleteInquiry(s.ctx, first.ID))
	s.True(common.IsNotFound(s.svc.DeleteInquiry(s.ctx, first.ID)))
}
