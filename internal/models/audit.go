package models

import "time"

// AuditAction identifies what kind of event was recorded.
type AuditAction string

const (
	AuditActionLogin          AuditAction = "LOGIN"
	AuditActionLogout         AuditAction = "LOGOUT"
	AuditActionPasswordChange AuditAction = "PASSWORD_CHANGE"
	AuditActionRegister       AuditAction = "REGISTER"
)

// AuditLog captures a security-relevant event.
type AuditLog struct {
	ID         string      `db:"id" json:"id"`
	UserID     *string     `db:"user_id" json:"user_id,omitempty"`
	Action     AuditAction `db:"action" json:"action"`
	Resource   string      `db:"resource" json:"resource"`
	ResourceID *string     `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte      `db:"new_values" json:"-"`
	IPAddress  string      `db:"ip_address" json:"-"`
	UserAgent  string      `db:"user_agent" json:"-"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
