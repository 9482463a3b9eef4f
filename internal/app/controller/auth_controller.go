package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/savoryhq/savory-backend/internal/app/service"
	"github.com/savoryhq/savory-backend/internal/errors"
	"github.com/savoryhq/savory-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required,eqfield=Password"`
}

// Register handles POST /api/v1/auth/register. Validation failures
// report every broken rule at once, together with the submitted body.
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input service.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			errors.RespondWithValidationError(c, registrationMessages(verrs), input)
			return
		}
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	user, tokens, err := ctrl.authService.Register(&input)
	if err != nil {
		if err == service.ErrEmailAlreadyExists {
			errors.Conflict(c, errors.AuthEmailAlreadyExists, "That email is already registered")
			return
		}
		log.Error("Failed to register user", err)
		errors.InternalError(c, "")
		return
	}

	log.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Login handles POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	user, tokens, err := ctrl.authService.Login(input.Email, input.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Me handles GET /api/v1/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if err == service.ErrUserNotFound {
			errors.NotFound(c, errors.ResourceNotFound, "User not found")
			return
		}
		errors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateAccount handles PUT /api/v1/auth/account. Only the name and
// email are writable here.
func (ctrl *AuthController) UpdateAccount(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		return
	}

	var input service.UpdateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	user, err := ctrl.authService.UpdateAccount(userID, &input)
	if err != nil {
		if err == service.ErrUserNotFound {
			errors.NotFound(c, errors.ResourceNotFound, "User not found")
			return
		}
		errors.ParseAndRespond(c, http.StatusInternalServerError, err, "account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated!",
		"user":    user,
	})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password. The reply
// does not reveal whether the email is registered.
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var input forgotPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	token, err := ctrl.authService.ForgotPassword(input.Email)
	if err != nil {
		log.Error("Failed to issue reset token", err)
		errors.InternalError(c, "")
		return
	}

	response := gin.H{"message": "You have been emailed a password reset link"}
	if gin.Mode() != gin.ReleaseMode && token != "" {
		// Surfaced outside release mode so local flows work without a
		// mail delivery backend
		response["reset_token"] = token
	}
	c.JSON(http.StatusOK, response)
}

// ResetPassword handles POST /api/v1/auth/reset-password/:token
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	var input resetPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			errors.RespondWithValidationError(c, resetMessages(verrs), input)
			return
		}
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	user, tokens, err := ctrl.authService.ResetPassword(c.Param("token"), input.Password)
	if err != nil {
		switch err {
		case service.ErrResetTokenInvalid:
			errors.BadRequest(c, errors.AuthResetTokenInvalid, "Password reset is invalid")
		case service.ErrResetTokenExpired:
			errors.BadRequest(c, errors.AuthResetTokenExpired, "Password reset has expired")
		default:
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your password has been reset!",
		"user":    user,
		"tokens":  tokens,
	})
}

// registrationMessages maps every failed signup rule to its message
func registrationMessages(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Name":
			fields["name"] = "You must supply a name!"
		case "Email":
			fields["email"] = "That email is not valid!"
		case "Password":
			fields["password"] = "Password cannot be blank!"
		case "PasswordConfirm":
			if fe.Tag() == "eqfield" {
				fields["password_confirm"] = "Oops! Your passwords do not match"
			} else {
				fields["password_confirm"] = "Confirmed password cannot be blank!"
			}
		}
	}
	return fields
}

func resetMessages(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Password":
			fields["password"] = "Password cannot be blank!"
		case "PasswordConfirm":
			if fe.Tag() == "eqfield" {
				fields["password_confirm"] = "Oops! Your passwords do not match"
			} else {
				fields["password_confirm"] = "Confirmed password cannot be blank!"
			}
		}
	}
	return fields
}
