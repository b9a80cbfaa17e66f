package auth

import "github.com/pixido-dev/pixido/internal/models"

// SessionData represents the authenticated session context for a request
type SessionData struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	IsSuperuser bool   `json:"is_superuser"`
}

// IsAdmin reports whether the session belongs to an admin user
func (s *SessionData) IsAdmin() bool {
	return s.Role == models.RoleAdmin || s.IsSuperuser
}
