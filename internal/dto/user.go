package dto

import "time"

// AdminUser is the identity payload returned to the frontend after login or
// verify. The password hash never leaves the service.
type AdminUser struct {
	AdminID     string     `json:"admin_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	LastLogin   *time.Time `json:"last_login"`
	Status      string     `json:"status"`
}
