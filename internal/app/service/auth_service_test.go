package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/config"
	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/internal/db"
	"github.com/savoryhq/savory-backend/pkg/util"
)

func setupAuthTest(t *testing.T) (*gorm.DB, AuthService, repository.UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	svc := NewAuthService(userRepo, &config.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
	})

	return testDB, svc, userRepo
}

func registerInput() *RegisterInput {
	return &RegisterInput{
		Name:            "New User",
		Email:           "new@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	}
}

func TestAuthService_Register(t *testing.T) {
	testDB, svc, _ := setupAuthTest(t)
	defer db.CleanupTestDB(testDB)

	user, tokens, err := svc.Register(registerInput())
	require.NoError(t, err)
	require.NotNil(t, tokens)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Empty(t, user.Hearts)
	assert.NotEmpty(t, tokens.AccessToken)

	// The password is stored hashed, never as plain text
	assert.NotEqual(t, "password123", user.Password)
	assert.True(t, util.VerifyPassword(user.Password, "password123"))
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	testDB, svc, _ := setupAuthTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := svc.Register(registerInput())
	require.NoError(t, err)

	input := registerInput()
	input.Email = "NEW@example.com" // same address, different casing
	_, _, err = svc.Register(input)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	testDB, svc, _ := setupAuthTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := svc.Register(registerInput())
	require.NoError(t, err)

	user, tokens, err := svc.Login("new@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.NotEmpty(t, tokens.AccessToken)

	_, _, err = svc.Login("new@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_UpdateAccount(t *testing.T) {
	testDB, svc, _ := setupAuthTest(t)
	defer db.CleanupTestDB(testDB)

	user, _, err := svc.Register(registerInput())
	require.NoError(t, err)
	originalPassword := user.Password

	updated, err := svc.UpdateAccount(user.ID, &UpdateAccountInput{
		Name:  "Renamed",
		Email: "renamed@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "renamed@example.com", updated.Email)
	// Nothing else moves
	assert.Equal(t, originalPassword, updated.Password)
	assert.Equal(t, model.RoleUser, updated.Role)
}

func TestAuthService_UpdateAccountUnknownUser(t *testing.T) {
	testDB, svc, _ := setupAuthTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := svc.UpdateAccount(9999, &UpdateAccountInput{Name: "X", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_PasswordResetFlow(t *testing.T) {
	testDB, svc, _ := setupAuthTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := svc.Register(registerInput())
	require.NoError(t, err)

	token, err := svc.ForgotPassword("new@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user, tokens, err := svc.ResetPassword(token, "brand-new-pass")
	require.NoError(t, err)
	assert.NotNil(t, tokens)
	assert.True(t, util.VerifyPassword(user.Password, "brand-new-pass"))

	// The token is single use
	_, _, err = svc.ResetPassword(token, "another-pass")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	// And the new credentials work
	_, _, err = svc.Login("new@example.com", "brand-new-pass")
	assert.NoError(t, err)
}

func TestAuthService_ForgotPasswordUnknownEmail(t *testing.T) {
	testDB, svc, _ := setupAuthTest(t)
	defer db.CleanupTestDB(testDB)

	// Unknown addresses succeed silently, issuing nothing
	token, err := svc.ForgotPassword("nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestAuthService_ResetPasswordExpiredToken(t *testing.T) {
	testDB, svc, userRepo := setupAuthTest(t)
	defer db.CleanupTestDB(testDB)

	_, _, err := svc.Register(registerInput())
	require.NoError(t, err)

	token, err := svc.ForgotPassword("new@example.com")
	require.NoError(t, err)

	// Age the token past its lifetime
	user, err := userRepo.FindByResetToken(token)
	require.NoError(t, err)
	expired := time.Now().Add(-2 * time.Hour)
	user.ResetTokenExpiry = &expired
	require.NoError(t, userRepo.Update(user))

	_, _, err = svc.ResetPassword(token, "whatever-pass")
	assert.ErrorIs(t, err, ErrResetTokenExpired)
}
