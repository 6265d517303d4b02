package review

import (
	"context"
	"testing"

	"realestate_backend/internal/common"
	"realestate_backend/internal/platform/database"
	"realestate_backend/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type MockPropertyRater struct {
	mock.Mock
}

func (m *MockPropertyRater) ResolvePropertyID(ctx context.Context, idOrCode string) (string, error) {
	args := m.Called(ctx, idOrCode)
	return args.String(0), args.Error(1)
}

func (m *MockPropertyRater) ApplyRating(ctx context.Context, id string, average float64, count int) error {
	return m.Called(ctx, id, average, count).Error(0)
}

type stubAuthors map[string]*user.User

func (s stubAuthors) GetUserByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

type ReviewServiceTestSuite struct {
	suite.Suite
	ctx        context.Context
	repo       Repository
	properties *MockPropertyRater
	svc        *ServiceImplementation
}

func (s *ReviewServiceTestSuite) SetupTest() {
	db, err := database.NewSQLiteInMemory()
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(&Review{}))

	s.ctx = context.Background()
	s.repo = NewGORMRepository(db)
	s.properties = new(MockPropertyRater)
	authors := stubAuthors{}
	for _, id := range []string{"u1", "u2"} {
		u := &user.User{FirstName: "Reviewer", LastName: id}
		u.ID = id
		authors[id] = u
	}
	s.svc = NewService(s.repo, s.properties, authors, zap.NewNop())
}

func TestReviewServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceTestSuite))
}

func (s *ReviewServiceTestSuite) create(userID string, rating int) *ReviewResponse {
	s.properties.On("ResolvePropertyID", s.ctx, "PROP-00001").Return("prop-1", nil).Maybe()
	rv, err := s.svc.CreateReview(s.ctx, userID, CreateReviewRequest{
		PropertyID: "PROP-00001",
		Rating:     rating,
		Comment:    "Bright rooms and a quiet street.",
	})
	s.Require().NoError(err)
	return rv
}

func (s *ReviewServiceTestSuite) TestCreateReview_StartsPending() {
	rv := s.create("u1", 4)
	s.Equal(StatusPending, rv.Status)
	s.Equal("prop-1", rv.PropertyID)
	s.Equal("Reviewer u1", rv.UserName)

	items, _, err := s.svc.ListForProperty(s.ctx, "PROP-00001", 1, 10)
	s.Require().NoError(err)
	s.Empty(items, "pending reviews are not public")
}

func (s *ReviewServiceTestSuite) TestCreateReview_SiteTestimonial() {
	rv, err := s.svc.CreateReview(s.ctx, "u1", CreateReviewRequest{Rating: 5, Comment: "Helpful agents throughout."})
	s.Require().NoError(err)
	s.Empty(rv.PropertyID)
	s.properties.AssertNotCalled(s.T(), "ResolvePropertyID", mock.Anything, mock.Anything)
}

func (s *ReviewServiceTestSuite) TestCreateReview_PaddedCommentTooShort() {
	_, err := s.svc.CreateReview(s.ctx, "u1", CreateReviewRequest{Rating: 4, Comment: "         x"})
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok, "expected APIError, got %v", err)
	s.Equal("VALIDATION_ERROR", apiErr.Code)
	s.Contains(apiErr.Details, "comment")

	rv, err := s.svc.CreateReview(s.ctx, "u1", CreateReviewRequest{Rating: 4, Comment: "   Great light all day.   "})
	s.Require().NoError(err)
	s.Equal("Great light all day.", rv.Comment)
}

func (s *ReviewServiceTestSuite) TestApprovalRecomputesRating() {
	first := s.create("u1", 4)
	second := s.create("u2", 5)

	s.properties.On("ApplyRating", s.ctx, "prop-1", 4.0, 1).Return(nil).Once()
	_, err := s.svc.UpdateStatus(s.ctx, first.ID, StatusApproved)
	s.Require().NoError(err)

	s.properties.On("ApplyRating", s.ctx, "prop-1", 4.5, 2).Return(nil).Once()
	_, err = s.svc.UpdateStatus(s.ctx, second.ID, StatusApproved)
	s.Require().NoError(err)

	s.properties.On("ApplyRating", s.ctx, "prop-1", 5.0, 1).Return(nil).Once()
	_, err = s.svc.UpdateStatus(s.ctx, first.ID, StatusRejected)
	s.Require().NoError(err)

	s.properties.On("ApplyRating", s.ctx, "prop-1", 0.0, 0).Return(nil).Once()
	s.Require().NoError(s.svc.Delete(s.ctx, second.ID))

	s.properties.AssertExpectations(s.T())
}

func (s *ReviewServiceTestSuite) TestDeleteMine_OwnerOnly() {
	rv := s.create("u1", 3)

	err := s.svc.DeleteMine(s.ctx, rv.ID, "u2")
	apiErr, ok := common.IsAPIError(err)
	s.Require().True(ok)
	s.Equal(403, apiErr.StatusCode)

	s.Require().NoError(s.svc.DeleteMine(s.ctx, rv.ID, "u1"))
	s.True(common.IsNotFound(s.svc.DeleteMine(s.ctx, rv.ID, "u1")))
}

func (s *ReviewServiceTestSuite) TestRatingForDeletedPropertyIsIgnored() {
	rv := s.create("u1", 2)
	s.properties.On("ApplyRating", s.ctx, "prop-1", 2.0, 1).Return(common.ErrNotFound.WithDetails("Property not found.")).Once()

	_, err := s.svc.UpdateStatus(s.ctx, rv.ID, StatusApproved)
	s.NoError(err)
}

func (s *ReviewServiceTestSuite) TestListsAndCounts() {
	a := s.create("u1", 5)
	s.create("u2", 1)
	s.properties.On("ApplyRating", s.ctx, "prop-1", mock.Anything, mock.Anything).Return(nil)
	_, err := s.svc.UpdateStatus(s.ctx, a.ID, StatusApproved)
	s.Require().NoError(err)

	approved, pagination, err := s.svc.ListApproved(s.ctx, 1, 10)
	s.Require().NoError(err)
	s.Len(approved, 1)
	s.Equal(int64(1), pagination.Total)

	mine, _, err := s.svc.ListMine(s.ctx, "u2", 1, 10)
	s.Require().NoError(err)
	s.Len(mine, 1)

	pending, _, err := s.svc.AdminList(s.ctx, ListFilter{Status: StatusPending, Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Len(pending, 1)

	counts, err := s.svc.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(map[string]int64{StatusPending: 1, StatusApproved: 1, StatusRejected: 0}, counts)
}

func TestCreateReview_UnknownProperty(t *testing.T) {
	properties := new(MockPropertyRater)
	properties.On("ResolvePropertyID", mock.Anything, "PROP-99999").Return("", common.ErrNotFound)
	u := &user.User{FirstName: "Ann"}
	u.ID = "u1"
	svc := NewService(nil, properties, stubAuthors{"u1": u}, zap.NewNop())

	_, err := svc.CreateReview(context.Background(), "u1", CreateReviewRequest{PropertyID: "PROP-99999", Rating: 5, Comment: "Never visited it."})
	assert.True(t, common.IsNotFound(err))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, RatingSummary{}, summarize(nil))
	got := summarize([]Review{{Rating: 5}, {Rating: 4}, {Rating: 4}})
	assert.Equal(t, 3, got.Count)
	assert.InDelta(t, 4.3, got.Average, 1e-9)
}

func TestRatingSummary_SQLiteMatchesInMemory(t *testing.T) {
	db, err := database.NewSQLiteInMemory()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Review{}))
	repo := NewGORMRepository(db)
	ctx := context.Background()

	var all []Review
	for i, rating := range []int{5, 4, 4} {
		rv := &Review{UserID: "u", PropertyID: "p", Rating: rating, Comment: "comment text", Status: StatusApproved}
		rv.ID = string(rune('a' + i))
		require.NoError(t, repo.Create(ctx, rv))
		all = append(all, *rv)
	}
	require.NoError(t, repo.Create(ctx, &Review{
		BaseModel: common.BaseModel{ID: "z"}, UserID: "u", PropertyID: "p", Rating: 1, Comment: "comment text", Status: StatusPending,
	}))

	got, err := repo.RatingSummary(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, summarize(all), got)
}
