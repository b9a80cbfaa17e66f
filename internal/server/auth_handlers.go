package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pixido-dev/pixido/internal/auth"
	"github.com/pixido-dev/pixido/internal/models"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username  string `json:"username" binding:"required" validate:"required,max=150,username"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Password2 string `json:"password2" binding:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// AuthResponse represents a successful auth response with a token pair
type AuthResponse struct {
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
	User    *UserDetail `json:"user"`
}

// TokenResponse represents the token-only endpoint response
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

func userDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt,
	}
}

// @Summary Register
// @Description Create a new account and return a token pair with the profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Register request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Validate request
	if err := s.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"username": []string{"Enter a valid username. Only letters, numbers, and -_. characters are allowed."}})
		return
	}

	// Field-level password errors are returned under the "password" key so
	// clients can surface them ahead of generic messages
	if req.Password != req.Password2 {
		c.JSON(http.StatusBadRequest, gin.H{"password": []string{"Password fields didn't match."}})
		return
	}

	// Reject duplicate username or email up front for a readable message
	var count int64
	if err := s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "A user with that username or email already exists."})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	access, refresh, err := auth.GenerateTokenPair(user.ID, user.Username, user.Role, user.IsSuperuser)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token pair")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")

	c.JSON(http.StatusCreated, AuthResponse{
		Access:  access,
		Refresh: refresh,
		User:    userDetail(user),
	})
}

// @Summary Login
// @Description Authenticate and return a token pair together with the profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	user, ok := s.authenticate(c)
	if !ok {
		return
	}

	access, refresh, err := auth.GenerateTokenPair(user.ID, user.Username, user.Role, user.IsSuperuser)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token pair")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User logged in")

	c.JSON(http.StatusOK, AuthResponse{
		Access:  access,
		Refresh: refresh,
		User:    userDetail(user),
	})
}

// @Summary Obtain token pair
// @Description Authenticate and return only the token pair, no profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/token [post]
func (s *Server) token(c *gin.Context) {
	user, ok := s.authenticate(c)
	if !ok {
		return
	}

	access, refresh, err := auth.GenerateTokenPair(user.ID, user.Username, user.Role, user.IsSuperuser)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token pair")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Access:  access,
		Refresh: refresh,
	})
}

// authenticate binds credentials from the request body and verifies them.
// On failure it writes the error response and returns ok=false.
func (s *Server) authenticate(c *gin.Context) (*models.User, bool) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required."})
		return nil, false
	}

	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials."})
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid credentials."})
		return nil, false
	}

	return &user, true
}

// @Summary Refresh access token
// @Description Exchange a refresh token for a fresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh request"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/token/refresh [post]
func (s *Server) refreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := auth.ValidateRefreshToken(req.Refresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Token is invalid or expired"})
		return
	}

	// Re-read the user so a deleted account cannot keep refreshing
	var user models.User
	if err := s.db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "User not found"})
		return
	}

	access, _, err := auth.GenerateTokenPair(user.ID, user.Username, user.Role, user.IsSuperuser)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/user [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, userDetail(&user))
}

// @Summary Promote user
// @Description Promote a user to the admin role (admin only)
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/auth/promote/{id} [post]
func (s *Server) promoteUser(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user.Role = models.RoleAdmin
	if err := s.db.Save(&user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to promote user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("user_id", user.ID).
		Str("promoted_by", sessionData.UserID).
		Msg("User promoted to admin")

	c.JSON(http.StatusOK, gin.H{
		"message": "User " + user.Username + " promoted to admin.",
		"user":    userDetail(&user),
	})
}
