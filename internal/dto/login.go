package dto

// LoginRequest accepts either field name for the login identifier; older
// frontend builds send "email" for what may be an email, phone, or username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r LoginRequest) Login() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Email
}
