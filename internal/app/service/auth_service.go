package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/savoryhq/savory-backend/config"
	"github.com/savoryhq/savory-backend/internal/app/model"
	"github.com/savoryhq/savory-backend/internal/app/repository"
	"github.com/savoryhq/savory-backend/pkg/util"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrResetTokenInvalid  = errors.New("reset token is invalid")
	ErrResetTokenExpired  = errors.New("reset token has expired")
)

const resetTokenLifetime = time.Hour

// RegisterInput carries the signup form fields
type RegisterInput struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required,eqfield=Password"`
}

// UpdateAccountInput limits account edits to name and email
type UpdateAccountInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type AuthService interface {
	Register(input *RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	GetUserByID(id uint) (*model.User, error)
	UpdateAccount(userID uint, input *UpdateAccountInput) (*model.User, error)
	ForgotPassword(email string) (token string, err error)
	ResetPassword(token, password string) (*model.User, *util.TokenPair, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtCfg   *config.JWTConfig
}

func NewAuthService(userRepo repository.UserRepository, jwtCfg *config.JWTConfig) AuthService {
	return &authService{userRepo: userRepo, jwtCfg: jwtCfg}
}

// Register creates the account with a bcrypt password hash and signs
// the user in.
func (s *authService) Register(input *RegisterInput) (*model.User, *util.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		Name:     input.Name,
		Email:    email,
		Password: hash,
		Role:     model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	user.Hearts = []uint{}
	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.Password, password) {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	hearts, err := s.userRepo.HeartedStoreIDs(user.ID)
	if err != nil {
		return nil, nil, err
	}
	user.Hearts = hearts
	return user, tokens, nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateAccount writes only the name and email, regardless of what else
// arrived in the request.
func (s *authService) UpdateAccount(userID uint, input *UpdateAccountInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Name = input.Name
	user.Email = input.Email

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ForgotPassword stores a one hour reset token on the account. The
// token is returned to the caller for delivery; lookups for unknown
// emails report success without issuing anything.
func (s *authService) ForgotPassword(email string) (string, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	token, err := util.GenerateResetToken()
	if err != nil {
		return "", err
	}

	expiry := time.Now().Add(resetTokenLifetime)
	user.ResetToken = token
	user.ResetTokenExpiry = &expiry

	if err := s.userRepo.Update(user); err != nil {
		return "", err
	}
	return token, nil
}

// ResetPassword redeems a reset token, replaces the password and signs
// the user in.
func (s *authService) ResetPassword(token, password string) (*model.User, *util.TokenPair, error) {
	if token == "" {
		return nil, nil, ErrResetTokenInvalid
	}

	user, err := s.userRepo.FindByResetToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrResetTokenInvalid
		}
		return nil, nil, err
	}

	if user.ResetTokenExpiry == nil || user.ResetTokenExpiry.Before(time.Now()) {
		return nil, nil, ErrResetTokenExpired
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	user.Password = hash
	user.ResetToken = ""
	user.ResetTokenExpiry = nil

	if err := s.userRepo.Update(user); err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	return util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtCfg.Secret,
		s.jwtCfg.AccessTokenExpiry,
		s.jwtCfg.RefreshTokenExpiry,
	)
}
