package user

import (
	"context"
	"errors"
	"testing"

	"realestate_backend/internal/common"
	"realestate_backend/internal/property"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository is a mock type for the Repository type
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) FindByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	args := m.Called(ctx, uid)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) List(ctx context.Context, f ListFilter) ([]User, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]User), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) Stats(ctx context.Context) (*Stats, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*Stats), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPropertyCatalog struct {
	mock.Mock
}

func (m *MockPropertyCatalog) ResolvePropertyID(ctx context.Context, idOrCode string) (string, error) {
	args := m.Called(ctx, idOrCode)
	return args.String(0), args.Error(1)
}

func (m *MockPropertyCatalog) GetPropertiesByIDs(ctx context.Context, ids []string) ([]property.PropertyResponse, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]property.PropertyResponse), args.Error(1)
}

func newTestService() (*ServiceImplementation, *MockRepository, *MockPropertyCatalog) {
	repo := new(MockRepository)
	catalog := new(MockPropertyCatalog)
	return NewService(repo, catalog, zap.NewNop()), repo, catalog
}

func existingUser() *User {
	u := &User{Email: "jane@example.com", FirstName: "Jane", Role: common.RoleUser, Active: true}
	u.ID = "user-1"
	return u
}

func TestUpdateProfile(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	repo.On("FindByID", ctx, "user-1").Return(existingUser(), nil)
	repo.On("Update", ctx, mock.MatchedBy(func(u *User) bool {
		return u.FirstName == "Janet" && u.Phone == "555-0100" && !u.UpdatedAt.IsZero()
	})).Return(nil)

	first, phone := " Janet ", "555-0100"
	u, err := svc.UpdateProfile(ctx, "user-1", UpdateProfileRequest{FirstName: &first, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Janet", u.FirstName)
	repo.AssertExpectations(t)
}

func TestUpdatePreferences_RejectsInvertedRange(t *testing.T) {
	svc, repo, _ := newTestService()
	_, err := svc.UpdatePreferences(context.Background(), "user-1", UpdatePreferencesRequest{MinPrice: 500, MaxPrice: 100})
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestSaveProperty_IsIdempotent(t *testing.T) {
	svc, repo, catalog := newTestService()
	ctx := context.Background()
	u := existingUser()
	repo.On("FindByID", ctx, "user-1").Return(u, nil)
	repo.On("Update", ctx, u).Return(nil).Once()
	catalog.On("ResolvePropertyID", ctx, "PROP-00001").Return("prop-uuid", nil)

	saved, err := svc.SaveProperty(ctx, "user-1", "PROP-00001")
	require.NoError(t, err)
	assert.Equal(t, []string{"prop-uuid"}, saved)

	saved, err = svc.SaveProperty(ctx, "user-1", "PROP-00001")
	require.NoError(t, err)
	assert.Equal(t, []string{"prop-uuid"}, saved)
	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestSaveProperty_UnknownProperty(t *testing.T) {
	svc, repo, catalog := newTestService()
	ctx := context.Background()
	catalog.On("ResolvePropertyID", ctx, "nope").Return("", common.ErrNotFound)

	_, err := svc.SaveProperty(ctx, "user-1", "nope")
	assert.True(t, common.IsNotFound(err))
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestUnsaveProperty_DeletedProperty(t *testing.T) {
	svc, repo, catalog := newTestService()
	ctx := context.Background()
	u := existingUser()
	u.SavedProperties = []string{"gone", "kept"}
	repo.On("FindByID", ctx, "user-1").Return(u, nil)
	repo.On("Update", ctx, u).Return(nil)
	catalog.On("ResolvePropertyID", ctx, "gone").Return("", common.ErrNotFound)

	saved, err := svc.UnsaveProperty(ctx, "user-1", "gone")
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, saved)
}

func TestListSaved(t *testing.T) {
	svc, repo, catalog := newTestService()
	ctx := context.Background()
	u := existingUser()
	u.SavedProperties = []string{"a", "b"}
	repo.On("FindByID", ctx, "user-1").Return(u, nil)
	catalog.On("GetPropertiesByIDs", ctx, []string{"a", "b"}).
		Return([]property.PropertyResponse{{ID: "a"}, {ID: "b"}}, nil)

	props, err := svc.ListSaved(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, props, 2)
}

func TestAdminUpdateUser_SelfProtection(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	admin := existingUser()
	admin.Role = common.RoleAdmin
	repo.On("FindByID", ctx, "user-1").Return(admin, nil)

	demote := common.RoleUser
	_, err := svc.AdminUpdateUser(ctx, "user-1", "user-1", AdminUpdateUserRequest{Role: &demote})
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 400, apiErr.StatusCode)

	err = svc.DeleteUser(ctx, "user-1", "user-1")
	require.Error(t, err)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestAdminUpdateUser(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	repo.On("FindByID", ctx, "user-1").Return(existingUser(), nil)
	repo.On("Update", ctx, mock.Anything).Return(nil)

	verified, active := true, false
	u, err := svc.AdminUpdateUser(ctx, "user-1", "admin-9", AdminUpdateUserRequest{Verified: &verified, Active: &active})
	require.NoError(t, err)
	assert.True(t, u.Verified)
	assert.False(t, u.Active)
}

func TestFindOrCreateFirebaseUser_CreatesNewUser(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	repo.On("FindByFirebaseUID", ctx, "fb-1").Return(nil, common.ErrNotFound)
	repo.On("FindByEmail", ctx, "new@example.com").Return(nil, common.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil)

	u, created, err := svc.FindOrCreateFirebaseUser(ctx, FirebaseProfile{
		UID: "fb-1", Email: "new@example.com", EmailVerified: true, Name: "Ada Lovelace",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "Lovelace", u.LastName)
	assert.True(t, u.Verified)
	assert.True(t, u.Active)
	assert.Equal(t, common.RoleUser, u.Role)
	assert.NotEmpty(t, u.ID)
}

func TestFindOrCreateFirebaseUser_LinksOnlyVerifiedEmail(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	repo.On("FindByFirebaseUID", ctx, "fb-2").Return(nil, common.ErrNotFound)
	repo.On("FindByEmail", ctx, "jane@example.com").Return(existingUser(), nil)

	_, _, err := svc.FindOrCreateFirebaseUser(ctx, FirebaseProfile{UID: "fb-2", Email: "jane@example.com"})
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", apiErr.Code)

	repo.On("Update", ctx, mock.Anything).Return(nil)
	u, created, err := svc.FindOrCreateFirebaseUser(ctx, FirebaseProfile{UID: "fb-2", Email: "jane@example.com", EmailVerified: true})
	require.NoError(t, err)
	assert.False(t, created)
	require.NotNil(t, u.FirebaseUID)
	assert.Equal(t, "fb-2", *u.FirebaseUID)
}

func TestGetUserByID_WrapsUnexpectedErrors(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.On("FindByID", mock.Anything, "x").Return(nil, errors.New("connection reset"))

	_, err := svc.GetUserByID(context.Background(), "x")
	require.Error(t, err)
	_, isAPI := common.IsAPIError(err)
	assert.False(t, isAPI)
}
