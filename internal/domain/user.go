package domain

import "time"

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a dashboard account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"_id"       bson:"_id"`
	Email        string    `json:"email"     bson:"email"`
	Name         string    `json:"name"      bson:"name"`
	Role         string    `json:"role"      bson:"role"`
	PasswordHash string    `json:"-"         bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserInput holds the fields accepted when creating a user.
type UserInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name"     validate:"required"`
	Role     string `json:"role"     validate:"omitempty,oneof=admin user"`
}
