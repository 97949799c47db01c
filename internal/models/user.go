package models

import "time"

const (
	RoleAdmin  = "Admin"
	RoleClient = "Client"

	DefaultAdminResponsibility = "Default Responsibility"
	DefaultClientStatus        = "Active"
)

// User represents the users table
type User struct {
	ID           uint       `gorm:"primaryKey" json:"userId"`
	Username     string     `gorm:"uniqueIndex;not null;size:50" json:"username"`
	FirstName    string     `gorm:"not null;size:50" json:"firstName"`
	LastName     string     `gorm:"not null;size:50" json:"lastName"`
	Gender       *string    `gorm:"size:10" json:"gender"`
	DateOfBirth  *time.Time `gorm:"type:date" json:"date_of_birth"`
	Address      *string    `gorm:"size:100" json:"address"`
	ZipCode      *string    `gorm:"size:10" json:"zipCode"`
	City         *string    `gorm:"size:50" json:"city"`
	PhoneNumber  *string    `gorm:"uniqueIndex;size:20" json:"phoneNumber"`
	PasswordHash string     `gorm:"not null;size:255" json:"-"`
	Role         string     `gorm:"not null;size:20;default:Client" json:"role"`
	CinemaID     *uint      `gorm:"index" json:"cinemaId"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsValidRole reports whether role is one of the roles a user can hold.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleClient
}

// Admin is the satellite record created for users with the Admin role
type Admin struct {
	ID             uint   `gorm:"primaryKey" json:"adminId"`
	UserID         uint   `gorm:"uniqueIndex;not null" json:"userId"`
	Responsibility string `gorm:"size:100;not null" json:"responsibility"`
}

func (Admin) TableName() string {
	return "admins"
}

// Client is the satellite record created for users with the Client role
type Client struct {
	ID     uint   `gorm:"primaryKey" json:"clientId"`
	UserID uint   `gorm:"uniqueIndex;not null" json:"userId"`
	Status string `gorm:"size:20;not null" json:"status"`
}

func (Client) TableName() string {
	return "clients"
}

// RefreshToken represents the refresh_tokens table.
// The unique user_id index holds the one-session-per-user rule.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	TokenHash string    `gorm:"not null;size:64;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
