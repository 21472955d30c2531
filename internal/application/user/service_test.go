package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diaspora-journey-api/internal/domain"
	"github.com/diaspora-journey-api/internal/infrastructure/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) QueryPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) SoftDeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockJWTSigner struct{ mock.Mock }

func (m *mockJWTSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type recordedEvents struct{ types []string }

func (r *recordedEvents) Record(_ context.Context, e domain.SecurityEvent) {
	r.types = append(r.types, e.Type)
}

// --- helpers ---

type fixture struct {
	users    *mockUserStore
	sessions *mockSessionStore
	signer   *mockJWTSigner
	mailer   *mockMailer
	events   *recordedEvents
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		users:    &mockUserStore{},
		sessions: &mockSessionStore{},
		signer:   &mockJWTSigner{},
		mailer:   &mockMailer{},
		events:   &recordedEvents{},
	}
	f.svc = NewService(ServiceDeps{
		UserRepo:        f.users,
		SessionRepo:     f.sessions,
		JWTProvider:     f.signer,
		Mailer:          f.mailer,
		Templates:       email.Templates{AppName: "Build", AppURL: "http://localhost"},
		Events:          f.events,
		RefreshTokenDur: time.Hour,
	})
	return f
}

func validCreateReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		Username:  "ada",
		Password:  "password123",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Obi",
	}
}

func ptr[T any](v T) *T { return &v }

var errNotFound = errors.New("not found")

// --- Register ---

func TestRegister_UsernameConflict(t *testing.T) {
	f := newFixture()
	f.users.On("GetByUsername", mock.Anything, "ada").Return(&domain.User{}, nil)

	_, err := f.svc.Register(context.Background(), validCreateReq(), domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrConflict)
	f.users.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_EmailConflict(t *testing.T) {
	f := newFixture()
	f.users.On("GetByUsername", mock.Anything, "ada").Return(nil, errNotFound)
	f.users.On("GetByEmail", mock.Anything, "ada@example.com").Return(&domain.User{}, nil)

	_, err := f.svc.Register(context.Background(), validCreateReq(), domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRegister_HappyPath(t *testing.T) {
	f := newFixture()
	f.users.On("GetByUsername", mock.Anything, "ada").Return(nil, errNotFound)
	f.users.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, errNotFound)
	f.users.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Role == domain.RoleUser && u.Enable == 1 && u.PasswordHash != "password123"
	})).Return(nil)
	f.sessions.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	f.signer.On("Sign", mock.Anything, domain.RoleUser, mock.Anything).Return("bearer", nil)
	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(m email.Message) bool {
		return m.To == "ada@example.com"
	})).Return(nil)

	res, err := f.svc.Register(context.Background(), validCreateReq(), domain.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Bearer)
	assert.Equal(t, "ada", res.Session.User.Username)
	assert.Equal(t, []string{domain.EventAccountCreated}, f.events.types)
	f.mailer.AssertExpectations(t)
}

func TestRegister_WelcomeEmailFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.users.On("GetByUsername", mock.Anything, "ada").Return(nil, errNotFound)
	f.users.On("GetByEmail", mock.Anything, "ada@example.com").Return(nil, errNotFound)
	f.users.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.sessions.On("Put", mock.Anything, mock.Anything).Return(nil)
	f.signer.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("bearer", nil)
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	_, err := f.svc.Register(context.Background(), validCreateReq(), domain.RequestMeta{})
	assert.NoError(t, err)
}

// --- Update ---

func TestUpdate_NonAdminCannotChangeRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Role: ptr(domain.RoleAdmin)}, false, domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdate_InvalidRole(t *testing.T) {
	f := newFixture()
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := f.svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Role: ptr("superuser")}, true, domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_EmptyRequest_ReturnsExistingUser(t *testing.T) {
	f := newFixture()
	u := &domain.User{UserID: "u1"}
	f.users.On("Get", mock.Anything, "u1").Return(u, nil)

	got, err := f.svc.Update(context.Background(), "u1", domain.UpdateUserRequest{}, false, domain.RequestMeta{})
	require.NoError(t, err)
	assert.Same(t, u, got)
	f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_EmailChangeResetsConfirmation(t *testing.T) {
	f := newFixture()
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "old@example.com"}, nil)
	f.users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, errNotFound)
	f.users.On("Update", mock.Anything, "u1", map[string]interface{}{
		fieldEmail:          "new@example.com",
		fieldEmailConfirmed: false,
	}).Return(nil)

	_, err := f.svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Email: ptr("new@example.com")}, false, domain.RequestMeta{})
	require.NoError(t, err)
	f.users.AssertExpectations(t)
}

func TestUpdate_DisableRevokesSessions(t *testing.T) {
	f := newFixture()
	f.users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Enable: 1}, nil)
	f.users.On("Update", mock.Anything, "u1", map[string]interface{}{fieldEnable: 0}).Return(nil)
	f.sessions.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)

	_, err := f.svc.Update(context.Background(), "u1", domain.UpdateUserRequest{Enable: ptr(0)}, true, domain.RequestMeta{})
	require.NoError(t, err)
	f.sessions.AssertExpectations(t)
	assert.Equal(t, []string{domain.EventAccountDisabled}, f.events.types)
}

// --- List / Delete ---

func TestList_DefaultsLimit(t *testing.T) {
	f := newFixture()
	f.users.On("QueryPage", mock.Anything, int32(50), "").Return([]domain.User{}, "", nil)

	_, _, err := f.svc.List(context.Background(), 0, "")
	require.NoError(t, err)
	f.users.AssertExpectations(t)
}

func TestDelete_PropagatesStoreError(t *testing.T) {
	f := newFixture()
	f.users.On("SoftDelete", mock.Anything, "u1").Return(domain.ErrNotFound)

	err := f.svc.Delete(context.Background(), "admin", "u1", domain.RequestMeta{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.sessions.AssertNotCalled(t, "SoftDeleteByUser", mock.Anything, mock.Anything)
}

func TestDelete_AlsoDeletesSessions(t *testing.T) {
	f := newFixture()
	f.users.On("SoftDelete", mock.Anything, "u1").Return(nil)
	f.sessions.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), "admin", "u1", domain.RequestMeta{}))
	f.sessions.AssertExpectations(t)
}
