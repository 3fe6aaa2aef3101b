package services

import (
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stacks_inventory_backend/internal/models"
	"stacks_inventory_backend/internal/repositories"
)

type fakeAuthRepo struct {
	mu     sync.Mutex
	users  map[int64]*models.User
	hashes map[string]string // username -> bcrypt hash
	nextID int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[int64]*models.User{}, hashes: map[string]string{}}
}

func (f *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	f.nextID++
	stored := *user
	stored.ID = f.nextID
	stored.IsActive = true
	f.users[stored.ID] = &stored
	f.hashes[user.Username] = hashedPassword
	return stored.ID, nil
}

func (f *fakeAuthRepo) FindUserByUsername(username string) (*models.User, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, f.hashes[username], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (f *fakeAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

const testJWTSecret = "test-secret"

func newAuthFixture(t *testing.T) (*fakeAuthRepo, AuthService) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := newFakeAuthRepo()
	return repo, NewAuthService(repo, db, testJWTSecret, time.Hour)
}

func (f *fakeAuthRepo) seedUser(t *testing.T, username, password, role string, active bool) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.users[f.nextID] = &models.User{ID: f.nextID, Username: username, Role: role, IsActive: active}
	f.hashes[username] = string(hash)
	return f.nextID
}

func TestRegisterUserDefaultsToOperator(t *testing.T) {
	_, service := newAuthFixture(t)

	user, err := service.RegisterUser(RegisterUserRequest{Username: "scanner1", Password: "long-enough-pw"})
	require.NoError(t, err)
	assert.Equal(t, RoleOperator, user.Role)
	assert.Empty(t, user.PasswordHash)
}

func TestRegisterUserRejectsUnknownRole(t *testing.T) {
	_, service := newAuthFixture(t)

	_, err := service.RegisterUser(RegisterUserRequest{Username: "scanner1", Password: "long-enough-pw", Role: "Admin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Admin")
}

func TestRegisterUserDuplicateUsername(t *testing.T) {
	repo, service := newAuthFixture(t)
	repo.seedUser(t, "scanner1", "pw", RoleOperator, true)

	_, err := service.RegisterUser(RegisterUserRequest{Username: "scanner1", Password: "long-enough-pw"})
	require.ErrorIs(t, err, ErrUsernameExists)
}

func TestLoginUserIssuesToken(t *testing.T) {
	repo, service := newAuthFixture(t)
	userID := repo.seedUser(t, "supervisor1", "correct-horse", RoleSupervisor, true)

	resp, err := service.LoginUser(LoginRequest{Username: "supervisor1", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, userID, resp.User.ID)
	assert.Empty(t, resp.User.PasswordHash)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "supervisor1", claims["username"])
	assert.Equal(t, RoleSupervisor, claims["role"])
}

func TestLoginUserWrongPassword(t *testing.T) {
	repo, service := newAuthFixture(t)
	repo.seedUser(t, "supervisor1", "correct-horse", RoleSupervisor, true)

	_, err := service.LoginUser(LoginRequest{Username: "supervisor1", Password: "battery-staple"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUserUnknownUsername(t *testing.T) {
	_, service := newAuthFixture(t)

	_, err := service.LoginUser(LoginRequest{Username: "ghost", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUserInactiveAccount(t *testing.T) {
	repo, service := newAuthFixture(t)
	repo.seedUser(t, "former-staff", "correct-horse", RoleOperator, false)

	_, err := service.LoginUser(LoginRequest{Username: "former-staff", Password: "correct-horse"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUserProfileNotFound(t *testing.T) {
	_, service := newAuthFixture(t)

	_, err := service.GetUserProfile(404)
	require.ErrorIs(t, err, ErrUserNotFound)
}
