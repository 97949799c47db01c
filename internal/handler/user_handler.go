package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cinema-ticketing-backend/internal/middleware"
	"cinema-ticketing-backend/internal/service"
	"cinema-ticketing-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List returns all users
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		internalError(c, err, "Failed to fetch users")
		return
	}
	utils.SuccessResponse(c, "", users)
}

// Get returns one user's profile
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, err, "Failed to fetch user")
		return
	}
	utils.SuccessResponse(c, "", user)
}

type UpdateUserRequest struct {
	FirstName   *string `json:"firstName" binding:"omitempty,min=1,max=50"`
	LastName    *string `json:"lastName" binding:"omitempty,min=1,max=50"`
	Gender      *string `json:"gender" binding:"omitempty,max=10"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Address     *string `json:"address" binding:"omitempty,max=100"`
	ZipCode     *string `json:"zipCode" binding:"omitempty,max=10"`
	City        *string `json:"city" binding:"omitempty,max=50"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,phone"`
	CinemaID    *uint   `json:"cinemaId" binding:"omitempty,gt=0"`
}

func (r *UpdateUserRequest) trim() {
	if r.FirstName != nil {
		v := strings.TrimSpace(*r.FirstName)
		r.FirstName = &v
	}
	if r.LastName != nil {
		v := strings.TrimSpace(*r.LastName)
		r.LastName = &v
	}
	r.Gender = trimPtr(r.Gender)
	r.DateOfBirth = trimPtr(r.DateOfBirth)
	r.Address = trimPtr(r.Address)
	r.ZipCode = trimPtr(r.ZipCode)
	r.City = trimPtr(r.City)
	r.PhoneNumber = trimPtr(r.PhoneNumber)
}

// Update edits a user's profile fields
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	in := service.UpdateUserInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Gender:      req.Gender,
		Address:     req.Address,
		ZipCode:     req.ZipCode,
		City:        req.City,
		PhoneNumber: req.PhoneNumber,
		CinemaID:    req.CinemaID,
	}
	if req.DateOfBirth != nil {
		dob, _ := time.Parse(dateLayout, *req.DateOfBirth)
		in.DateOfBirth = &dob
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorID(c), id, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNothingToUpdate):
			utils.ErrorResponse(c, http.StatusBadRequest, "No fields to update")
		case errors.Is(err, service.ErrUserNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrPhoneTaken):
			utils.ErrorResponse(c, http.StatusBadRequest, "Phone number already exists")
		default:
			internalError(c, err, "Failed to update user")
		}
		return
	}
	utils.SuccessResponse(c, "User updated successfully", user)
}

// Delete removes a user together with its role record and session
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actorID(c), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		internalError(c, err, "Failed to delete user")
		return
	}
	utils.MessageResponse(c, "User deleted successfully")
}

// AuditLogs returns the audit trail recorded for a user
func (h *UserHandler) AuditLogs(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	logs, err := h.userService.AuditTrail(c.Request.Context(), id)
	if err != nil {
		internalError(c, err, "Failed to fetch audit logs")
		return
	}
	utils.SuccessResponse(c, "", logs)
}

func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID")
		return 0, false
	}
	return uint(id), true
}

func actorID(c *gin.Context) uint {
	if claims, ok := middleware.GetClaims(c); ok {
		return claims.UserID
	}
	return 0
}
