package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cinema-ticketing-backend/internal/logging"
	"cinema-ticketing-backend/internal/middleware"
	"cinema-ticketing-backend/internal/service"
	"cinema-ticketing-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type RegisterRequest struct {
	Username    string  `json:"username" binding:"required,min=3,max=50,username"`
	FirstName   string  `json:"firstName" binding:"required,max=50"`
	LastName    string  `json:"lastName" binding:"required,max=50"`
	Password    string  `json:"password" binding:"required,min=6,password_bytes,password_strength"`
	Role        string  `json:"role" binding:"omitempty,oneof=Admin Client"`
	Gender      *string `json:"gender" binding:"omitempty,max=10"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" binding:"omitempty,max=100"`
	ZipCode     *string `json:"zipCode" binding:"omitempty,max=10"`
	City        *string `json:"city" binding:"omitempty,max=50"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,phone"`
	CinemaID    *uint   `json:"cinemaId" binding:"omitempty,gt=0"`
}

func (r *RegisterRequest) trim() {
	r.Username = strings.TrimSpace(r.Username)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Role = strings.TrimSpace(r.Role)
	r.Gender = trimPtr(r.Gender)
	r.DateOfBirth = trimPtr(r.DateOfBirth)
	r.Address = trimPtr(r.Address)
	r.ZipCode = trimPtr(r.ZipCode)
	r.City = trimPtr(r.City)
	r.PhoneNumber = trimPtr(r.PhoneNumber)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r *LoginRequest) trim() {
	r.Username = strings.TrimSpace(r.Username)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (r *RefreshRequest) trim() {
	r.RefreshToken = strings.TrimSpace(r.RefreshToken)
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.RegisterInput{
		Username:    req.Username,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Password:    req.Password,
		Role:        req.Role,
		Gender:      req.Gender,
		Address:     req.Address,
		ZipCode:     req.ZipCode,
		City:        req.City,
		PhoneNumber: req.PhoneNumber,
		CinemaID:    req.CinemaID,
	}
	if req.DateOfBirth != nil {
		// format already checked by the datetime rule
		dob, _ := time.Parse(dateLayout, *req.DateOfBirth)
		in.DateOfBirth = &dob
	}

	result, err := h.authService.Register(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			utils.ErrorResponse(c, http.StatusBadRequest, "Username already exists")
		case errors.Is(err, service.ErrPhoneTaken):
			utils.ErrorResponse(c, http.StatusBadRequest, "Phone number already exists")
		case errors.Is(err, service.ErrInvalidRole):
			utils.ErrorResponse(c, http.StatusBadRequest, "Role must be either Admin or Client")
		default:
			internalError(c, err, "Internal server error during registration")
		}
		return
	}

	utils.CreatedResponse(c, "User registered successfully", result)
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		internalError(c, err, "Internal server error during login")
		return
	}

	utils.SuccessResponse(c, "Login successful", result)
}

// Refresh rotates the token pair for a stored refresh token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken):
			utils.ErrorResponse(c, http.StatusForbidden, "Invalid or expired refresh token")
		case errors.Is(err, service.ErrUserNotFound):
			utils.ErrorResponse(c, http.StatusForbidden, "User not found")
		default:
			internalError(c, err, "Internal server error during token refresh")
		}
		return
	}

	utils.SuccessResponse(c, "Tokens refreshed successfully", result)
}

// Logout revokes the caller's session
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		internalError(c, err, "Internal server error during logout")
		return
	}

	utils.MessageResponse(c, "Logged out successfully")
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, err, "Internal server error")
		return
	}

	utils.SuccessResponse(c, "", user)
}

// internalError logs the cause and answers with a generic 500
func internalError(c *gin.Context, err error, message string) {
	_ = c.Error(err)
	logging.FromContext(c.Request.Context()).Error(message, "error", err)
	utils.ErrorResponse(c, http.StatusInternalServerError, message)
}
