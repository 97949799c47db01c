package models

import "time"

const (
	AuditUserRegistration = "user_registration"
	AuditUserLogin        = "user_login"
	AuditTokenRefresh     = "token_refresh"
	AuditUserLogout       = "user_logout"
	AuditUserDeleted      = "user_deleted"
	AuditUserUpdated      = "user_updated"
)

// AuditLog represents the audit_logs table
// Used for security tracking of session and account changes
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
