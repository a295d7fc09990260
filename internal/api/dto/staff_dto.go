package dto

import "time"

// StaffCreateRequest creates an admin or agent. Department is a department name.
type StaffCreateRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
}

// UserUpdateRequest patches an account. Absent fields stay unchanged.
type UserUpdateRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	Active     *bool   `json:"is_active"`
	Department *string `json:"department"`
}

// DepartmentRequest creates or patches a department.
type DepartmentRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// DepartmentResponse is the public view of a department.
type DepartmentResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// StaffCreatedResponse pairs a new staff account with its department.
type StaffCreatedResponse struct {
	User       UserResponse       `json:"user"`
	Department DepartmentResponse `json:"department"`
}
