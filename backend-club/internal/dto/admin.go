package dto

// AddAdminRequest is the body of POST /admin/users
type AddAdminRequest struct {
	Email string `json:"email" binding:"required,email"`
}
